package memory

import (
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"pose-browser/internal/logging"
	"pose-browser/internal/metrics"
)

// MonitorConfig holds the watermarks for image-work backpressure.
type MonitorConfig struct {
	// LimitBytes is the budget to measure against; 0 means use GOMEMLIMIT.
	LimitBytes int64

	// PauseAt is the usage ratio at which image workers block.
	PauseAt float64

	// ResumeAt is the usage ratio below which blocked workers continue.
	ResumeAt float64

	CheckInterval time.Duration
}

// DefaultMonitorConfig returns the production watermarks.
func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		PauseAt:       0.85,
		ResumeAt:      0.7,
		CheckInterval: 5 * time.Second,
	}
}

// Monitor samples heap usage and gates image work.
type Monitor struct {
	config MonitorConfig
	limit  int64

	mu       sync.RWMutex
	alloc    uint64
	paused   bool
	resumed  chan struct{}
	stop     chan struct{}
	stopOnce sync.Once
	// readAlloc is swapped in tests.
	readAlloc func() uint64
}

// NewMonitor creates a monitor. Call Start to begin sampling.
func NewMonitor(config MonitorConfig) *Monitor {
	limit := config.LimitBytes
	if limit == 0 {
		if runtimeLimit := debug.SetMemoryLimit(-1); runtimeLimit > 0 && runtimeLimit < 1<<62 {
			limit = runtimeLimit
		}
	}
	if limit == 0 {
		logging.Debug("Memory monitor: no limit configured, image work is never paused")
	}

	return &Monitor{
		config:    config,
		limit:     limit,
		resumed:   make(chan struct{}),
		stop:      make(chan struct{}),
		readAlloc: heapAlloc,
	}
}

func heapAlloc() uint64 {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	return stats.Alloc
}

// Limit returns the budget the monitor measures against.
func (m *Monitor) Limit() int64 {
	return m.limit
}

// Start launches the sampling loop. It is a no-op without a limit.
func (m *Monitor) Start() {
	if m.limit == 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(m.config.CheckInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.sample()
			case <-m.stop:
				return
			}
		}
	}()
}

// Stop ends sampling and releases any blocked workers.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
}

func (m *Monitor) sample() {
	alloc := m.readAlloc()
	usage := float64(alloc) / float64(m.limit)
	metrics.MemoryUsageRatio.Set(usage)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.alloc = alloc

	switch {
	case !m.paused && usage >= m.config.PauseAt:
		logging.Warn("Memory critical (%.1f%% of %s), pausing image work", usage*100, formatBytes(m.limit))
		m.paused = true
		metrics.MemoryPaused.Set(1)
		metrics.MemoryGCPauses.Inc()
		go runtime.GC()
	case m.paused && usage < m.config.ResumeAt:
		logging.Info("Memory recovered (%.1f%% of %s), resuming image work", usage*100, formatBytes(m.limit))
		m.paused = false
		metrics.MemoryPaused.Set(0)
		close(m.resumed)
		m.resumed = make(chan struct{})
	}
}

// WaitIfPaused blocks while usage is critical. It returns false when the
// monitor was stopped while waiting, in which case the caller should skip
// its work.
func (m *Monitor) WaitIfPaused() bool {
	m.mu.RLock()
	if !m.paused {
		m.mu.RUnlock()
		return true
	}
	resumed := m.resumed
	m.mu.RUnlock()

	select {
	case <-resumed:
		return true
	case <-m.stop:
		return false
	}
}

// IsPaused reports whether image work is currently held back.
func (m *Monitor) IsPaused() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.paused
}

// Usage returns the last sampled heap allocation as a fraction of the
// limit, or 0 without a limit.
func (m *Monitor) Usage() float64 {
	if m.limit == 0 {
		return 0
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return float64(m.alloc) / float64(m.limit)
}

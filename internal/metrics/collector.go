package metrics

import (
	"time"

	"pose-browser/internal/logging"
)

// StatsProvider interface for collecting stats
type StatsProvider interface {
	GetStats() Stats
}

// Stats holds the current library statistics
type Stats struct {
	Roots              int `json:"roots"`
	TotalDocuments     int `json:"totalDocuments"`
	AnamnesisPoses     int `json:"anamnesisPoses"`
	CMToolPoses        int `json:"cmtoolPoses"`
	DocumentsWithImage int `json:"documentsWithImage"`

	// Counts from the last library walk.
	FilesScanned   int64 `json:"filesScanned"`
	FoldersScanned int64 `json:"foldersScanned"`
	WalkErrors     int64 `json:"walkErrors"`
}

// Collector periodically collects and updates metrics
type Collector struct {
	statsProvider StatsProvider
	interval      time.Duration
	stopChan      chan struct{}
}

// NewCollector creates a new metrics collector
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.statsProvider == nil {
		return
	}

	stats := c.statsProvider.GetStats()

	LibraryRoots.Set(float64(stats.Roots))
	LibraryDocuments.WithLabelValues("anamnesis").Set(float64(stats.AnamnesisPoses))
	LibraryDocuments.WithLabelValues("cmtool").Set(float64(stats.CMToolPoses))
	LibraryDocumentsWithImage.Set(float64(stats.DocumentsWithImage))
	LibraryWalkErrors.Set(float64(stats.WalkErrors))

	logging.Debug("Metrics collected: roots=%d, documents=%d, with image=%d",
		stats.Roots, stats.TotalDocuments, stats.DocumentsWithImage)
}

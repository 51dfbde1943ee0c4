package library

import (
	"sync"
	"time"

	"pose-browser/internal/logging"
	"pose-browser/internal/metrics"
)

// DefaultRefreshInterval is the minimum time between unforced refreshes.
const DefaultRefreshInterval = 5 * time.Minute

// RateLimiter gates an expensive refresh so that it runs at most once per
// MinInterval unless forced.
type RateLimiter struct {
	mu          sync.Mutex
	lastRun     time.Time
	minInterval time.Duration
	now         func() time.Time
}

// NewRateLimiter creates a limiter. A non-positive interval uses
// DefaultRefreshInterval.
func NewRateLimiter(minInterval time.Duration) *RateLimiter {
	if minInterval <= 0 {
		minInterval = DefaultRefreshInterval
	}
	return &RateLimiter{minInterval: minInterval, now: time.Now}
}

// Run calls fn when forced, when it never ran, or when more than the minimum
// interval has passed since the last run. fn reports whether the refresh
// actually started; only a started refresh counts as a run. Run returns
// what fn returned, or false when gated.
func (r *RateLimiter) Run(fn func() bool, force bool) bool {
	r.mu.Lock()
	now := r.now()
	if !force && !r.lastRun.IsZero() && now.Sub(r.lastRun) <= r.minInterval {
		r.mu.Unlock()
		metrics.RefreshGatedTotal.Inc()
		logging.Debug("Refresh skipped, last run %v ago (minimum %v)", now.Sub(r.lastRun), r.minInterval)
		return false
	}
	r.mu.Unlock()

	if !fn() {
		return false
	}

	r.mu.Lock()
	if now.After(r.lastRun) {
		r.lastRun = now
	}
	r.mu.Unlock()
	return true
}

// Reset forgets the last run so the next unforced call goes through.
func (r *RateLimiter) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastRun = time.Time{}
}

// LastRun returns when fn last ran, or the zero time.
func (r *RateLimiter) LastRun() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastRun
}

// MinInterval returns the configured gate interval.
func (r *RateLimiter) MinInterval() time.Duration {
	return r.minInterval
}

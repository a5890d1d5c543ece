// Package monitoring tracks in-process counters for the status endpoint.
package monitoring

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/adityagoyal009/ocean-sentinel/internal/model"
)

// MetricsSnapshot holds a point-in-time view of engine activity.
type MetricsSnapshot struct {
	// Analysis counts since start.
	AnalysesTotal  int64 `json:"analyses_total"`
	SeverityLow    int64 `json:"severity_low"`
	SeverityMedium int64 `json:"severity_medium"`
	SeverityHigh   int64 `json:"severity_high"`

	// Counts by analysis mode.
	ModeHeuristic int64 `json:"mode_heuristic"`
	ModeRemote    int64 `json:"mode_remote"`
	ModeHybrid    int64 `json:"mode_hybrid"`

	// External detector health.
	DegradedTotal    int64            `json:"degraded_total"`
	DetectorFailures map[string]int64 `json:"detector_failures"`
	CacheHits        int64            `json:"cache_hits"`
	CacheMisses      int64            `json:"cache_misses"`

	// Metadata.
	AvgDurationMS int64     `json:"avg_duration_ms"`
	UptimeSeconds int64     `json:"uptime_seconds"`
	CollectedAt   time.Time `json:"collected_at"`
}

// Collector accumulates counters across analyses. All methods are safe
// for concurrent use and tolerate a nil receiver so callers can leave
// metrics unwired.
type Collector struct {
	started time.Time

	analyses   atomic.Int64
	low        atomic.Int64
	medium     atomic.Int64
	high       atomic.Int64
	heuristic  atomic.Int64
	remote     atomic.Int64
	hybrid     atomic.Int64
	degraded   atomic.Int64
	cacheHits  atomic.Int64
	cacheMiss  atomic.Int64
	durationMS atomic.Int64

	mu       sync.Mutex
	failures map[string]int64
}

// NewCollector creates a collector anchored at the current time.
func NewCollector() *Collector {
	return &Collector{
		started:  time.Now().UTC(),
		failures: make(map[string]int64),
	}
}

// RecordAnalysis counts one completed analysis.
func (c *Collector) RecordAnalysis(res *model.AnalysisResult) {
	if c == nil || res == nil {
		return
	}
	c.analyses.Add(1)
	c.durationMS.Add(res.DurationMS)

	switch res.Verdict.Severity {
	case model.SeverityLow:
		c.low.Add(1)
	case model.SeverityMedium:
		c.medium.Add(1)
	case model.SeverityHigh:
		c.high.Add(1)
	}

	switch res.Mode {
	case model.ModeHeuristic:
		c.heuristic.Add(1)
	case model.ModeRemote:
		c.remote.Add(1)
	case model.ModeHybrid:
		c.hybrid.Add(1)
	}

	if res.Degraded {
		c.degraded.Add(1)
	}
}

// RecordFailure counts one failed call to a named detector.
func (c *Collector) RecordFailure(detector string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.failures[detector]++
	c.mu.Unlock()
}

// RecordCacheHit counts a detector response served from cache.
func (c *Collector) RecordCacheHit(detector string) {
	if c == nil {
		return
	}
	c.cacheHits.Add(1)
}

// RecordCacheMiss counts a detector call that had to go out.
func (c *Collector) RecordCacheMiss(detector string) {
	if c == nil {
		return
	}
	c.cacheMiss.Add(1)
}

// Snapshot returns the current counter values.
func (c *Collector) Snapshot() *MetricsSnapshot {
	now := time.Now().UTC()
	if c == nil {
		return &MetricsSnapshot{
			DetectorFailures: make(map[string]int64),
			CollectedAt:      now,
		}
	}
	snap := &MetricsSnapshot{
		AnalysesTotal:    c.analyses.Load(),
		SeverityLow:      c.low.Load(),
		SeverityMedium:   c.medium.Load(),
		SeverityHigh:     c.high.Load(),
		ModeHeuristic:    c.heuristic.Load(),
		ModeRemote:       c.remote.Load(),
		ModeHybrid:       c.hybrid.Load(),
		DegradedTotal:    c.degraded.Load(),
		CacheHits:        c.cacheHits.Load(),
		CacheMisses:      c.cacheMiss.Load(),
		DetectorFailures: make(map[string]int64),
		UptimeSeconds:    int64(now.Sub(c.started).Seconds()),
		CollectedAt:      now,
	}

	if snap.AnalysesTotal > 0 {
		snap.AvgDurationMS = c.durationMS.Load() / snap.AnalysesTotal
	}

	c.mu.Lock()
	for name, n := range c.failures {
		snap.DetectorFailures[name] = n
	}
	c.mu.Unlock()

	return snap
}

package monitoring

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adityagoyal009/ocean-sentinel/internal/model"
)

func TestCollectorRecordAnalysis(t *testing.T) {
	c := NewCollector()

	c.RecordAnalysis(&model.AnalysisResult{
		Verdict:    model.Verdict{Severity: model.SeverityLow},
		Mode:       model.ModeHeuristic,
		DurationMS: 10,
	})
	c.RecordAnalysis(&model.AnalysisResult{
		Verdict:    model.Verdict{Severity: model.SeverityHigh},
		Mode:       model.ModeHybrid,
		Degraded:   true,
		DurationMS: 30,
	})

	snap := c.Snapshot()
	assert.Equal(t, int64(2), snap.AnalysesTotal)
	assert.Equal(t, int64(1), snap.SeverityLow)
	assert.Equal(t, int64(0), snap.SeverityMedium)
	assert.Equal(t, int64(1), snap.SeverityHigh)
	assert.Equal(t, int64(1), snap.ModeHeuristic)
	assert.Equal(t, int64(1), snap.ModeHybrid)
	assert.Equal(t, int64(1), snap.DegradedTotal)
	assert.Equal(t, int64(20), snap.AvgDurationMS)
	assert.False(t, snap.CollectedAt.IsZero())
}

func TestCollectorDetectorCounters(t *testing.T) {
	c := NewCollector()

	c.RecordFailure("vision")
	c.RecordFailure("vision")
	c.RecordFailure("roboflow")
	c.RecordCacheHit("vision")
	c.RecordCacheMiss("vision")
	c.RecordCacheMiss("roboflow")

	snap := c.Snapshot()
	assert.Equal(t, int64(2), snap.DetectorFailures["vision"])
	assert.Equal(t, int64(1), snap.DetectorFailures["roboflow"])
	assert.Equal(t, int64(1), snap.CacheHits)
	assert.Equal(t, int64(2), snap.CacheMisses)
}

func TestCollectorEmptySnapshot(t *testing.T) {
	c := NewCollector()

	snap := c.Snapshot()
	require.NotNil(t, snap)
	assert.Zero(t, snap.AnalysesTotal)
	assert.Zero(t, snap.AvgDurationMS)
	assert.Empty(t, snap.DetectorFailures)
}

func TestCollectorNilReceiver(t *testing.T) {
	var c *Collector

	// Must not panic when metrics are left unwired.
	c.RecordAnalysis(&model.AnalysisResult{})
	c.RecordFailure("vision")
	c.RecordCacheHit("vision")
	c.RecordCacheMiss("vision")

	snap := c.Snapshot()
	require.NotNil(t, snap)
	assert.Zero(t, snap.AnalysesTotal)
}

func TestCollectorConcurrent(t *testing.T) {
	c := NewCollector()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.RecordAnalysis(&model.AnalysisResult{
					Verdict: model.Verdict{Severity: model.SeverityMedium},
					Mode:    model.ModeRemote,
				})
				c.RecordFailure("vision")
			}
		}()
	}
	wg.Wait()

	snap := c.Snapshot()
	assert.Equal(t, int64(800), snap.AnalysesTotal)
	assert.Equal(t, int64(800), snap.SeverityMedium)
	assert.Equal(t, int64(800), snap.DetectorFailures["vision"])
}

package scorer

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/adityagoyal009/ocean-sentinel/internal/model"
)

func TestClassifyBuckets(t *testing.T) {
	c := NewClassifier(nil, WithoutJitter())

	tests := []struct {
		name     string
		plastic  float64
		want     model.Severity
		wantConf float64
	}{
		{"zero", 0, model.SeverityLow, 0.85},
		{"just under medium", 0.2499, model.SeverityLow, 0.85},
		{"medium boundary", 0.25, model.SeverityMedium, 0.75},
		{"mid range", 0.45, model.SeverityMedium, 0.75},
		{"just under high", 0.5999, model.SeverityMedium, 0.75},
		{"high boundary", 0.6, model.SeverityHigh, 0.80},
		{"max", 1.0, model.SeverityHigh, 0.80},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sev, conf := c.Classify(tt.plastic)
			assert.Equal(t, tt.want, sev)
			assert.InDelta(t, tt.wantConf, conf, 0.0001)
		})
	}
}

func TestClassifyDeterministicWithoutJitter(t *testing.T) {
	c := NewClassifier(nil, WithoutJitter())
	for i := 0; i < 10; i++ {
		sev, conf := c.Classify(0.4)
		assert.Equal(t, model.SeverityMedium, sev)
		assert.Equal(t, 0.75, conf)
	}
}

func TestClassifyJitterStaysInBand(t *testing.T) {
	c := NewClassifier(nil, WithRand(rand.New(rand.NewPCG(3, 9))))

	seen := map[float64]bool{}
	for i := 0; i < 200; i++ {
		_, conf := c.Classify(0.7)
		assert.GreaterOrEqual(t, conf, 0.80)
		assert.Less(t, conf, 0.95)
		seen[conf] = true
	}
	// Jitter should actually vary the confidence.
	assert.Greater(t, len(seen), 1)
}

func TestClassifyCustomThresholds(t *testing.T) {
	p := DefaultProfile()
	p.Thresholds.Medium = 0.1
	p.Thresholds.High = 0.9

	c := NewClassifier(p, WithoutJitter())
	sev, _ := c.Classify(0.5)
	assert.Equal(t, model.SeverityMedium, sev)
	sev, _ = c.Classify(0.05)
	assert.Equal(t, model.SeverityLow, sev)
	sev, _ = c.Classify(0.95)
	assert.Equal(t, model.SeverityHigh, sev)
}

func TestIndicatedObjects(t *testing.T) {
	tests := []struct {
		name string
		c    model.ComponentScores
		want []string
	}{
		{"nothing indicated", model.ComponentScores{}, nil},
		{"bottles only", model.ComponentScores{BottleColors: 0.05}, []string{"possible bottles"}},
		{"bags only", model.ComponentScores{BagColors: 0.1}, []string{"possible bags"}},
		{"debris only", model.ComponentScores{Unnatural: 0.2}, []string{"artificial debris"}},
		{"at thresholds nothing fires", model.ComponentScores{
			BottleColors: 0.02, BagColors: 0.02, Unnatural: 0.05,
		}, nil},
		{"everything", model.ComponentScores{
			BottleColors: 0.03, BagColors: 0.04, Unnatural: 0.1,
		}, []string{"possible bottles", "possible bags", "artificial debris"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IndicatedObjects(tt.c))
		})
	}
}

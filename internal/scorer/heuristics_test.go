package scorer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/adityagoyal009/ocean-sentinel/internal/model"
)

// histWith builds a 10k-sample histogram from per-category counts.
func histWith(counts map[Category]int, greenTint int) *Histogram {
	h := &Histogram{Total: 10_000, GreenTint: greenTint}
	for cat, n := range counts {
		h.Counts[cat] = n
	}
	return h
}

func TestWaterScore(t *testing.T) {
	tests := []struct {
		name   string
		counts map[Category]int
		tint   int
		want   float64
	}{
		{"all dark water", map[Category]int{CategoryDarkWater: 10_000}, 0, 1.0},
		{"mixed water shades", map[Category]int{
			CategoryDarkWater:   2_000,
			CategoryMediumWater: 3_000,
			CategoryLightWater:  1_000,
		}, 0, 0.6},
		{"green tint counts as water", map[Category]int{CategoryLightWater: 4_000}, 2_000, 0.6},
		{"gray at half strength reduced weight", map[Category]int{CategoryGray: 10_000}, 0, 0.15},
		{"water plus gray", map[Category]int{
			CategoryMediumWater: 5_000,
			CategoryGray:        2_000,
		}, 0, 0.53},
		{"no water", map[Category]int{CategoryBrown: 10_000}, 0, 0},
		{"clamped at one", map[Category]int{CategoryDarkWater: 10_000, CategoryGray: 0}, 10_000, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := waterScore(histWith(tt.counts, tt.tint))
			assert.InDelta(t, tt.want, got, 0.001)
		})
	}
}

func TestWaterScoreEmptyHistogram(t *testing.T) {
	assert.Zero(t, waterScore(&Histogram{}))
}

func TestPlasticIndicator(t *testing.T) {
	tests := []struct {
		name                      string
		white, anomaly, artificial float64
		want                      float64
	}{
		{"clean scene", 0, 0, 0, 0},
		{"white below noise floor", 0.005, 0, 0, 0},
		{"white fragments", 0.1, 0, 0, 0.2},
		{"half white scene suppressed", 0.5, 0, 0, 0},
		{"anomaly band", 0, 0.1, 0, 0.3},
		{"anomaly above band suppressed", 0, 0.3, 0, 0},
		{"packaging colors", 0, 0, 0.1, 0.4},
		{"all signals", 0.1, 0.1, 0.1, 0.9},
		{"clamped", 0.25, 0.15, 0.5, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := plasticIndicator(tt.white, tt.anomaly, tt.artificial)
			assert.InDelta(t, tt.want, got, 0.001)
		})
	}
}

func TestPlasticIndicatorMonotonicInAnomalyBand(t *testing.T) {
	// More saturated-blue anomaly means more bottle-like material, so the
	// indicator must not decrease while the ratio stays inside the band.
	prev := -1.0
	for _, anomaly := range []float64{0.006, 0.02, 0.05, 0.1, 0.15, 0.19} {
		got := plasticIndicator(0, anomaly, 0)
		assert.Greater(t, got, prev, "anomaly %v", anomaly)
		prev = got
	}
}

func TestUnnaturalScore(t *testing.T) {
	tests := []struct {
		name                    string
		unnatural, white, brown float64
		want                    float64
	}{
		{"natural scene", 0, 0, 0, 0},
		{"below floor", 0.01, 0, 0, 0},
		{"saturated colors", 0.2, 0, 0, 0.4},
		{"white contributes", 0, 0.2, 0, 0.2},
		{"white outside band", 0, 0.5, 0, 0},
		{"brown over threshold", 0, 0, 0.4, 0.2},
		{"combined", 0.2, 0.2, 0.4, 0.8},
		{"clamped", 0.6, 0.3, 0.8, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := unnaturalScore(tt.unnatural, tt.white, tt.brown)
			assert.InDelta(t, tt.want, got, 0.001)
		})
	}
}

func TestComponentsCleanOcean(t *testing.T) {
	h := histWith(map[Category]int{CategoryDarkWater: 7_000, CategoryMediumWater: 3_000}, 0)

	c := NewHeuristic(nil).Components(h)
	assert.InDelta(t, 1.0, c.Water, 0.001)
	assert.Zero(t, c.PlasticIndicator)
	assert.Zero(t, c.Unnatural)
	assert.Zero(t, c.BottleColors)
	assert.Zero(t, c.BagColors)
}

func TestComponentsAlwaysInUnitRange(t *testing.T) {
	extremes := []*Histogram{
		histWith(map[Category]int{CategoryWhite: 10_000}, 0),
		histWith(map[Category]int{CategoryRed: 5_000, CategoryYellow: 5_000}, 0),
		histWith(map[Category]int{CategoryBrightAnomaly: 10_000}, 0),
		histWith(map[Category]int{
			CategoryWhite:         2_500,
			CategoryBrightAnomaly: 1_500,
			CategoryRed:           3_000,
			CategoryYellow:        2_000,
			CategoryBrown:         1_000,
		}, 0),
		{},
	}

	s := NewHeuristic(nil)
	for _, h := range extremes {
		c := s.Components(h)
		for name, v := range map[string]float64{
			"water":             c.Water,
			"plastic_indicator": c.PlasticIndicator,
			"unnatural":         c.Unnatural,
		} {
			assert.GreaterOrEqual(t, v, 0.0, name)
			assert.LessOrEqual(t, v, 1.0, name)
		}
	}
}

func TestPlastic(t *testing.T) {
	s := NewHeuristic(nil)

	tests := []struct {
		name string
		c    model.ComponentScores
		want float64
	}{
		{"clean open water", model.ComponentScores{Water: 0.9}, 0.1},
		{"clean land scene", model.ComponentScores{Water: 0.2}, 0.3},
		{"water cutoff is strict", model.ComponentScores{Water: 0.6}, 0.3},
		{"debris on water", model.ComponentScores{Water: 0.8, PlasticIndicator: 0.5, Unnatural: 0.2}, 0.36},
		{"heavy debris", model.ComponentScores{Water: 0.1, PlasticIndicator: 1, Unnatural: 1}, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, s.Plastic(tt.c), 0.001)
		})
	}
}

func TestPlasticRespectsProfileWeights(t *testing.T) {
	p := DefaultProfile()
	p.Weights.PlasticIndicator = 0.6
	p.Weights.LandBase = 0.2

	got := NewHeuristic(p).Plastic(model.ComponentScores{Water: 0.3, PlasticIndicator: 0.5})
	assert.InDelta(t, 0.5, got, 0.001)
}

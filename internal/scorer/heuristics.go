package scorer

import (
	"math"

	"github.com/adityagoyal009/ocean-sentinel/internal/model"
)

// Guard bands for the indicator terms. Tiny ratios are sensor noise and
// glare; huge ones mean the scene itself is white or saturated rather
// than littered.
const (
	whiteIndicatorMin = 0.01
	whiteIndicatorMax = 0.3
	anomalyMin        = 0.005
	anomalyMax        = 0.2
	artificialMin     = 0.01
	unnaturalMin      = 0.02
	whiteUnnaturalMin = 0.05
	whiteUnnaturalMax = 0.4
	brownMin          = 0.1
)

// Heuristic derives component scores and a single plastic score from a
// color histogram. It carries no per-call state and is safe for
// concurrent use.
type Heuristic struct {
	profile *Profile
}

// NewHeuristic creates a Heuristic with the given profile, falling back
// to defaults when nil.
func NewHeuristic(p *Profile) *Heuristic {
	if p == nil {
		p = DefaultProfile()
	}
	return &Heuristic{profile: p}
}

// Components computes the intermediate signals for a histogram. All
// outputs are clamped to [0,1] regardless of how extreme the input is.
func (s *Heuristic) Components(h *Histogram) model.ComponentScores {
	white := h.Ratio(CategoryWhite)
	anomaly := h.Ratio(CategoryBrightAnomaly)
	artificial := h.Ratio(CategoryRed) + h.Ratio(CategoryYellow)
	brown := h.Ratio(CategoryBrown)

	return model.ComponentScores{
		Water:            waterScore(h),
		PlasticIndicator: plasticIndicator(white, anomaly, artificial),
		Unnatural:        unnaturalScore(artificial+anomaly, white, brown),
		BottleColors:     anomaly,
		BagColors:        white,
	}
}

// Plastic combines the component scores into the final plastic score.
// Scenes that are mostly open water start from a lower base, so a clean
// ocean shot does not drift into medium severity on noise alone.
func (s *Heuristic) Plastic(c model.ComponentScores) float64 {
	w := s.profile.Weights
	base := w.LandBase
	if c.Water > w.WaterCutoff {
		base = w.WaterBase
	}
	return clamp01(base + w.PlasticIndicator*c.PlasticIndicator + w.Unnatural*c.Unnatural)
}

// waterScore measures how much of the scene reads as open water. Gray
// contributes at half strength and reduced weight: overcast water is
// gray, but so is pavement.
func waterScore(h *Histogram) float64 {
	if h.Total == 0 {
		return 0
	}
	water := h.Counts[CategoryDarkWater] + h.Counts[CategoryMediumWater] +
		h.Counts[CategoryLightWater] + h.GreenTint
	total := float64(h.Total)
	return math.Min(1, float64(water)/total+0.3*(0.5*float64(h.Counts[CategoryGray]))/total)
}

// plasticIndicator scores the direct debris signals: white fragments and
// bags, saturated blue bottle tones, and red/yellow packaging.
func plasticIndicator(white, anomaly, artificial float64) float64 {
	var score float64
	if white > whiteIndicatorMin && white < whiteIndicatorMax {
		score += 2 * white
	}
	if anomaly > anomalyMin && anomaly < anomalyMax {
		score += 3 * anomaly
	}
	if artificial > artificialMin {
		score += 4 * artificial
	}
	return clamp01(score)
}

// unnaturalScore measures how much of the palette does not belong in a
// natural shoreline scene.
func unnaturalScore(unnatural, white, brown float64) float64 {
	var score float64
	if unnatural > unnaturalMin {
		score += 2 * unnatural
	}
	if white > whiteUnnaturalMin && white < whiteUnnaturalMax {
		score += white
	}
	if brown > brownMin {
		score += 0.5 * brown
	}
	return clamp01(score)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Package scorer turns sampled pixels into a plastic-pollution severity
// estimate: palette classification, heuristic component scores, and
// threshold-based severity with jittered confidence.
package scorer

import (
	"github.com/adityagoyal009/ocean-sentinel/internal/imaging"
)

// Category is a semantic color bucket. A sample matches at most one
// category; murky in-between tones match none.
type Category int

const (
	CategoryDarkWater Category = iota
	CategoryMediumWater
	CategoryLightWater
	CategoryBrightAnomaly
	CategoryWhite
	CategoryGray
	CategoryRed
	CategoryYellow
	CategoryGreen
	CategoryBrown

	// NumCategories sizes histogram arrays.
	NumCategories
)

func (c Category) String() string {
	switch c {
	case CategoryDarkWater:
		return "dark_water"
	case CategoryMediumWater:
		return "medium_water"
	case CategoryLightWater:
		return "light_water"
	case CategoryBrightAnomaly:
		return "bright_water_anomaly"
	case CategoryWhite:
		return "white"
	case CategoryGray:
		return "gray"
	case CategoryRed:
		return "red"
	case CategoryYellow:
		return "yellow"
	case CategoryGreen:
		return "green"
	case CategoryBrown:
		return "brown"
	default:
		return "unknown"
	}
}

// Classify assigns a sample to its primary category. ok is false when the
// sample matches nothing. greenTint reports the algae cast that is tracked
// alongside the primary outcome for blue-dominant samples only.
func Classify(p imaging.RGB) (cat Category, ok bool, greenTint bool) {
	r, g, b := int(p.R), int(p.G), int(p.B)

	maxC := r
	if g > maxC {
		maxC = g
	}
	if b > maxC {
		maxC = b
	}
	minC := r
	if g < minC {
		minC = g
	}
	if b < minC {
		minC = b
	}
	diff := maxC - minC

	// Blue strictly dominant: water shades by brightness and saturation.
	// Saturated bright blue is not water; it reads as man-made material.
	if b > r && b > g {
		greenTint = float64(g) > 1.2*float64(r)
		switch {
		case b < 100 && diff < 50:
			return CategoryDarkWater, true, greenTint
		case b < 160 && diff < 70:
			return CategoryMediumWater, true, greenTint
		case b < 200 && diff < 90:
			return CategoryLightWater, true, greenTint
		case diff > 100:
			return CategoryBrightAnomaly, true, greenTint
		}
		return 0, false, greenTint
	}

	switch {
	case r > 200 && g > 200 && b > 200:
		return CategoryWhite, true, false
	case diff < 30:
		return CategoryGray, true, false
	case float64(r) >= 0.8*255:
		return CategoryRed, true, false
	case float64(g) >= 0.8*255 && r > b:
		return CategoryYellow, true, false
	case float64(g) >= 0.8*255:
		return CategoryGreen, true, false
	case r > 100 && g > 70 && b < 100:
		return CategoryBrown, true, false
	}
	return 0, false, false
}

// Histogram counts samples per category. Primary counts are mutually
// exclusive, so their sum never exceeds Total; GreenTint overlaps the
// water categories and is tracked separately.
type Histogram struct {
	Counts    [NumCategories]int
	GreenTint int
	Total     int
}

// BuildHistogram classifies every sample in the grid.
func BuildHistogram(g *imaging.Grid) *Histogram {
	h := &Histogram{Total: g.Len()}
	for i := range g.Pix {
		cat, ok, tint := Classify(g.Pix[i])
		if ok {
			h.Counts[cat]++
		}
		if tint {
			h.GreenTint++
		}
	}
	return h
}

// Ratio returns the fraction of samples in a category, 0 for an empty
// histogram.
func (h *Histogram) Ratio(c Category) float64 {
	if h.Total == 0 {
		return 0
	}
	return float64(h.Counts[c]) / float64(h.Total)
}

// Classified returns the total number of samples that matched any
// primary category.
func (h *Histogram) Classified() int {
	n := 0
	for _, c := range h.Counts {
		n += c
	}
	return n
}

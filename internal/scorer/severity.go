package scorer

import (
	"math"
	"math/rand/v2"

	"github.com/adityagoyal009/ocean-sentinel/internal/model"
)

// Minimum component ratios before the pixel path names an object.
const (
	bottleObjectMin    = 0.02
	bagObjectMin       = 0.02
	unnaturalObjectMin = 0.05
)

// Classifier maps a plastic score onto the three severity levels and
// attaches a confidence. Confidence gets a small random jitter so equal
// scores do not render as suspiciously identical percentages; tests
// disable it.
type Classifier struct {
	profile *Profile
	rng     *rand.Rand
	jitter  bool
}

// ClassifierOption customizes a Classifier.
type ClassifierOption func(*Classifier)

// WithRand replaces the jitter source, usually with a seeded one.
func WithRand(r *rand.Rand) ClassifierOption {
	return func(c *Classifier) {
		c.rng = r
	}
}

// WithoutJitter makes classification fully deterministic.
func WithoutJitter() ClassifierOption {
	return func(c *Classifier) {
		c.jitter = false
	}
}

// NewClassifier creates a Classifier with the given profile, falling back
// to defaults when nil.
func NewClassifier(p *Profile, opts ...ClassifierOption) *Classifier {
	if p == nil {
		p = DefaultProfile()
	}
	c := &Classifier{
		profile: p,
		rng:     rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		jitter:  true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify buckets a plastic score. Scores below the medium threshold are
// low, scores at or above the high threshold are high, everything between
// is medium; each bucket carries its own confidence base.
func (c *Classifier) Classify(plastic float64) (model.Severity, float64) {
	t := c.profile.Thresholds
	conf := c.profile.Confidence
	switch {
	case plastic < t.Medium:
		return model.SeverityLow, c.confidence(conf.LowBase, conf.LowJitter)
	case plastic < t.High:
		return model.SeverityMedium, c.confidence(conf.MediumBase, conf.MediumJitter)
	default:
		return model.SeverityHigh, c.confidence(conf.HighBase, conf.HighJitter)
	}
}

func (c *Classifier) confidence(base, width float64) float64 {
	if !c.jitter || width <= 0 {
		return base
	}
	return math.Min(1, base+c.rng.Float64()*width)
}

// IndicatedObjects names the debris the pixel statistics alone suggest.
// These are hedged labels; only external detectors produce firm ones.
func IndicatedObjects(c model.ComponentScores) []string {
	var objects []string
	if c.BottleColors > bottleObjectMin {
		objects = append(objects, "possible bottles")
	}
	if c.BagColors > bagObjectMin {
		objects = append(objects, "possible bags")
	}
	if c.Unnatural > unnaturalObjectMin {
		objects = append(objects, "artificial debris")
	}
	return objects
}

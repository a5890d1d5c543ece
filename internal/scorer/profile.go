package scorer

import (
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Profile tunes the scoring maths. Deployments override individual keys
// from a YAML file; anything left out keeps the default.
type Profile struct {
	Weights    WeightConfig     `yaml:"weights"`
	Thresholds ThresholdConfig  `yaml:"thresholds"`
	Confidence ConfidenceConfig `yaml:"confidence"`
	Degraded   DegradedConfig   `yaml:"degraded"`
}

// WeightConfig holds the plastic-score combination weights.
type WeightConfig struct {
	PlasticIndicator float64 `yaml:"plastic_indicator"`
	Unnatural        float64 `yaml:"unnatural"`
	WaterBase        float64 `yaml:"water_base"`
	LandBase         float64 `yaml:"land_base"`
	WaterCutoff      float64 `yaml:"water_cutoff"`
}

// ThresholdConfig holds the severity cut points on the plastic score.
type ThresholdConfig struct {
	Medium float64 `yaml:"medium"`
	High   float64 `yaml:"high"`
}

// ConfidenceConfig holds per-severity confidence bases and jitter widths.
type ConfidenceConfig struct {
	LowBase      float64 `yaml:"low_base"`
	LowJitter    float64 `yaml:"low_jitter"`
	MediumBase   float64 `yaml:"medium_base"`
	MediumJitter float64 `yaml:"medium_jitter"`
	HighBase     float64 `yaml:"high_base"`
	HighJitter   float64 `yaml:"high_jitter"`
}

// DegradedConfig bounds the neutral verdict produced when every external
// detector is unreachable.
type DegradedConfig struct {
	MinScore   float64 `yaml:"min_score"`
	MaxScore   float64 `yaml:"max_score"`
	Confidence float64 `yaml:"confidence"`
}

// DefaultProfile returns the tuning the engine ships with. A mostly-water
// scene starts from a low base so clean ocean photos stay low severity.
func DefaultProfile() *Profile {
	return &Profile{
		Weights: WeightConfig{
			PlasticIndicator: 0.4,
			Unnatural:        0.3,
			WaterBase:        0.1,
			LandBase:         0.3,
			WaterCutoff:      0.6,
		},
		Thresholds: ThresholdConfig{
			Medium: 0.25,
			High:   0.6,
		},
		Confidence: ConfidenceConfig{
			LowBase:      0.85,
			LowJitter:    0.10,
			MediumBase:   0.75,
			MediumJitter: 0.15,
			HighBase:     0.80,
			HighJitter:   0.15,
		},
		Degraded: DegradedConfig{
			MinScore:   0.3,
			MaxScore:   0.6,
			Confidence: 0.5,
		},
	}
}

// LoadProfile reads profile overrides from a YAML file. Keys missing from
// the file keep their default values.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "scorer: read profile %s", path)
	}

	// The YAML has a top-level "scoring" key.
	wrapper := struct {
		Scoring *Profile `yaml:"scoring"`
	}{Scoring: DefaultProfile()}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "scorer: parse profile")
	}

	p := wrapper.Scoring
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks that a profile is internally consistent.
func (p *Profile) Validate() error {
	var errs []string

	unit := map[string]float64{
		"weights.plastic_indicator": p.Weights.PlasticIndicator,
		"weights.unnatural":         p.Weights.Unnatural,
		"weights.water_base":        p.Weights.WaterBase,
		"weights.land_base":         p.Weights.LandBase,
		"weights.water_cutoff":      p.Weights.WaterCutoff,
		"thresholds.medium":         p.Thresholds.Medium,
		"thresholds.high":           p.Thresholds.High,
		"confidence.low_base":       p.Confidence.LowBase,
		"confidence.medium_base":    p.Confidence.MediumBase,
		"confidence.high_base":      p.Confidence.HighBase,
		"degraded.min_score":        p.Degraded.MinScore,
		"degraded.max_score":        p.Degraded.MaxScore,
		"degraded.confidence":       p.Degraded.Confidence,
	}
	for name, v := range unit {
		if v < 0 || v > 1 {
			errs = append(errs, fmt.Sprintf("%s must be in [0,1]", name))
		}
	}

	for name, v := range map[string]float64{
		"confidence.low_jitter":    p.Confidence.LowJitter,
		"confidence.medium_jitter": p.Confidence.MediumJitter,
		"confidence.high_jitter":   p.Confidence.HighJitter,
	} {
		if v < 0 || v > 0.5 {
			errs = append(errs, fmt.Sprintf("%s must be in [0,0.5]", name))
		}
	}

	if p.Thresholds.Medium >= p.Thresholds.High {
		errs = append(errs, "thresholds.medium must be below thresholds.high")
	}
	if p.Degraded.MinScore > p.Degraded.MaxScore {
		errs = append(errs, "degraded.min_score must not exceed degraded.max_score")
	}

	if len(errs) > 0 {
		return eris.Errorf("scorer: profile validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

package scorer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeProfile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultProfileValid(t *testing.T) {
	require.NoError(t, DefaultProfile().Validate())
}

func TestLoadProfileOverrides(t *testing.T) {
	path := writeProfile(t, `
scoring:
  thresholds:
    medium: 0.2
    high: 0.7
  weights:
    plastic_indicator: 0.5
`)

	p, err := LoadProfile(path)
	require.NoError(t, err)
	assert.InDelta(t, 0.2, p.Thresholds.Medium, 0.0001)
	assert.InDelta(t, 0.7, p.Thresholds.High, 0.0001)
	assert.InDelta(t, 0.5, p.Weights.PlasticIndicator, 0.0001)

	// Untouched keys keep their defaults.
	assert.InDelta(t, 0.3, p.Weights.Unnatural, 0.0001)
	assert.InDelta(t, 0.85, p.Confidence.LowBase, 0.0001)
}

func TestLoadProfileMissingFile(t *testing.T) {
	_, err := LoadProfile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadProfileBadYAML(t *testing.T) {
	path := writeProfile(t, "scoring: [not a map")
	_, err := LoadProfile(path)
	require.Error(t, err)
}

func TestLoadProfileRejectsInvalid(t *testing.T) {
	path := writeProfile(t, `
scoring:
  thresholds:
    medium: 0.8
    high: 0.4
`)
	_, err := LoadProfile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "thresholds.medium")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Profile)
		wantErr string
	}{
		{"inverted thresholds", func(p *Profile) {
			p.Thresholds.Medium = 0.7
			p.Thresholds.High = 0.3
		}, "thresholds.medium must be below"},
		{"negative weight", func(p *Profile) {
			p.Weights.PlasticIndicator = -0.1
		}, "weights.plastic_indicator"},
		{"confidence above one", func(p *Profile) {
			p.Confidence.HighBase = 1.2
		}, "confidence.high_base"},
		{"oversized jitter", func(p *Profile) {
			p.Confidence.LowJitter = 0.9
		}, "confidence.low_jitter"},
		{"inverted degraded band", func(p *Profile) {
			p.Degraded.MinScore = 0.7
			p.Degraded.MaxScore = 0.4
		}, "degraded.min_score"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultProfile()
			tt.mutate(p)
			err := p.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

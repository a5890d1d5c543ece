package model

import "time"

// Severity buckets a plastic-pollution estimate into the three levels
// reporters see on the map.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// AnalysisMode selects which scoring paths contribute to a verdict.
type AnalysisMode string

const (
	ModeHeuristic AnalysisMode = "heuristic" // pixel statistics only
	ModeRemote    AnalysisMode = "remote"    // external detectors only
	ModeHybrid    AnalysisMode = "hybrid"    // both paths, scores averaged
)

// ParseMode validates a user-supplied mode string.
func ParseMode(s string) (AnalysisMode, bool) {
	switch AnalysisMode(s) {
	case ModeHeuristic, ModeRemote, ModeHybrid:
		return AnalysisMode(s), true
	}
	return "", false
}

// Verdict is the engine's answer for a single photo. It is returned by
// value; the engine keeps no reference to it after the call returns.
type Verdict struct {
	Severity     Severity `json:"severity"`
	Confidence   float64  `json:"confidence"`
	PlasticScore float64  `json:"plastic_score"`
	Objects      []string `json:"objects"`
}

// Label is one scene annotation from a label detector.
type Label struct {
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// Detection is one localized prediction from an object detector.
// Coordinates are normalized to [0,1] relative to the source image.
type Detection struct {
	Class      string  `json:"class"`
	Confidence float64 `json:"confidence"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
}

// ComponentScores are the intermediate heuristic signals derived from the
// color histogram. All values are in [0,1].
type ComponentScores struct {
	Water            float64 `json:"water"`
	PlasticIndicator float64 `json:"plastic_indicator"`
	Unnatural        float64 `json:"unnatural"`
	BottleColors     float64 `json:"bottle_colors"`
	BagColors        float64 `json:"bag_colors"`
}

// SourceStatus records whether an external signal source answered.
type SourceStatus struct {
	Name      string `json:"name"`
	Available bool   `json:"available"`
	Cached    bool   `json:"cached,omitempty"`
	Error     string `json:"error,omitempty"`
}

// AnalysisResult wraps a verdict with the context API and batch callers
// care about: which mode ran, which sources answered, and the component
// scores behind the number.
type AnalysisResult struct {
	ID         string          `json:"id"`
	Verdict    Verdict         `json:"verdict"`
	Mode       AnalysisMode    `json:"mode"`
	Components ComponentScores `json:"components"`
	Sources    []SourceStatus  `json:"sources,omitempty"`
	Degraded   bool            `json:"degraded,omitempty"`
	DurationMS int64           `json:"duration_ms"`
	AnalyzedAt time.Time       `json:"analyzed_at"`
}

// Package fusion reconciles external recognition signals into a plastic
// score. The two detector calls run concurrently and fail independently;
// losing both degrades the verdict instead of failing the analysis.
package fusion

import (
	"context"
	"math"
	"math/rand/v2"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/adityagoyal009/ocean-sentinel/internal/model"
)

// DegradedNote is the single object entry attached to verdicts produced
// while every external detector was unreachable.
const DegradedNote = "unable to reach external detectors"

const (
	// cleanWaterContribution is added when labels describe open water
	// with no plastic terms, keeping clean-ocean scenes near the floor.
	cleanWaterContribution = 0.1
	cleanWaterMin          = 0.7
	cleanWaterPlasticMax   = 0.2

	labelWeight     = 0.5
	objectWeight    = 0.5
	confidenceBoost = 0.3
	confidenceCeil  = 0.95
)

// LabelDetector annotates a photo with scene labels.
type LabelDetector interface {
	Name() string
	DetectLabels(ctx context.Context, image []byte) (*LabelResult, error)
}

// ObjectDetector finds localized debris predictions in a photo.
type ObjectDetector interface {
	Name() string
	DetectObjects(ctx context.Context, image []byte) (*ObjectResult, error)
}

// LabelResult is the structured output of a label detector. Objects holds
// the names of localized objects when the same service reports them.
// Cached marks results served from the detector cache.
type LabelResult struct {
	Labels  []model.Label
	Objects []model.Label
	Cached  bool
}

// ObjectResult is the structured output of an object detector.
type ObjectResult struct {
	Detections []model.Detection
	Cached     bool
}

// Result is what the external path contributes to an analysis.
// ObjectConfidence is the average prediction confidence of the object
// detector, zero when it produced nothing.
type Result struct {
	PlasticScore     float64
	Confidence       float64
	ObjectConfidence float64
	Objects          []string
	Labels           []model.Label
	Sources          []model.SourceStatus
	Degraded         bool
}

// ConfidenceFor applies the fused-confidence formula to an adjusted
// plastic score, keeping the object-average floor from this result.
// Callers that blend the fused score with another source use it to
// recompute confidence for the blended value.
func (r Result) ConfidenceFor(score float64) float64 {
	return math.Max(r.ObjectConfidence, math.Min(confidenceCeil, score+confidenceBoost))
}

// Fuser invokes the configured detectors and folds their answers into a
// single score. Either detector may be nil.
type Fuser struct {
	labels  LabelDetector
	objects ObjectDetector

	degradedMin  float64
	degradedMax  float64
	degradedConf float64
	rng          *rand.Rand
}

// Option customizes a Fuser.
type Option func(*Fuser)

// WithDegradedBand sets the score band and confidence used when no
// detector answers.
func WithDegradedBand(min, max, confidence float64) Option {
	return func(f *Fuser) {
		f.degradedMin = min
		f.degradedMax = max
		f.degradedConf = confidence
	}
}

// WithRand replaces the degraded-band random source, usually with a
// seeded one.
func WithRand(r *rand.Rand) Option {
	return func(f *Fuser) {
		f.rng = r
	}
}

// New creates a Fuser over the given detectors.
func New(labels LabelDetector, objects ObjectDetector, opts ...Option) *Fuser {
	f := &Fuser{
		labels:       labels,
		objects:      objects,
		degradedMin:  0.3,
		degradedMax:  0.6,
		degradedConf: 0.5,
		rng:          rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Configured reports whether at least one detector is wired in.
func (f *Fuser) Configured() bool {
	return f.labels != nil || f.objects != nil
}

// Fuse runs both detectors concurrently and combines whatever came back.
// It never fails: detector errors are logged, recorded per source, and
// absorbed into a degraded result when nothing answered.
func (f *Fuser) Fuse(ctx context.Context, image []byte) Result {
	var (
		labelRes  *LabelResult
		objectRes *ObjectResult
		labelErr  error
		objectErr error
	)

	// Plain group, not WithContext: one detector failing must not cancel
	// the other call.
	var g errgroup.Group
	if f.labels != nil {
		g.Go(func() error {
			labelRes, labelErr = f.labels.DetectLabels(ctx, image)
			return nil
		})
	}
	if f.objects != nil {
		g.Go(func() error {
			objectRes, objectErr = f.objects.DetectObjects(ctx, image)
			return nil
		})
	}
	_ = g.Wait()

	res := Result{}
	if f.labels != nil {
		cached := labelRes != nil && labelRes.Cached
		res.Sources = append(res.Sources, sourceStatus(f.labels.Name(), labelErr, cached))
		if labelErr != nil {
			zap.L().Warn("fusion: label detector unavailable",
				zap.String("source", f.labels.Name()),
				zap.Error(labelErr),
			)
		}
	}
	if f.objects != nil {
		cached := objectRes != nil && objectRes.Cached
		res.Sources = append(res.Sources, sourceStatus(f.objects.Name(), objectErr, cached))
		if objectErr != nil {
			zap.L().Warn("fusion: object detector unavailable",
				zap.String("source", f.objects.Name()),
				zap.Error(objectErr),
			)
		}
	}

	haveLabels := labelErr == nil && labelRes != nil
	haveObjects := objectErr == nil && objectRes != nil
	if !haveLabels && !haveObjects {
		return f.degraded(res)
	}

	var score float64
	seen := map[string]bool{}

	if haveLabels {
		entries := append(append([]model.Label{}, labelRes.Labels...), labelRes.Objects...)
		res.Labels = dedupeLabels(entries)
		m := matchVocabularies(entries)
		if m.waterScore > cleanWaterMin && m.plasticScore < cleanWaterPlasticMax {
			score += cleanWaterContribution
		} else {
			score += labelWeight * m.plasticScore
		}
		appendUnique(&res.Objects, seen, m.plasticTexts...)
	}

	if haveObjects && len(objectRes.Detections) > 0 {
		var sum float64
		for _, d := range objectRes.Detections {
			sum += d.Confidence
			appendUnique(&res.Objects, seen, d.Class)
		}
		avg := sum / float64(len(objectRes.Detections))
		score += objectWeight * avg
		res.ObjectConfidence = avg
	}

	score = math.Min(1, math.Max(0, score))
	res.PlasticScore = score
	res.Confidence = res.ConfidenceFor(score)
	return res
}

// degraded fills in the neutral fallback: a bounded random score so
// degraded verdicts stay mid-band instead of claiming certainty either way.
func (f *Fuser) degraded(res Result) Result {
	res.Degraded = true
	res.PlasticScore = f.degradedMin + f.rng.Float64()*(f.degradedMax-f.degradedMin)
	res.Confidence = f.degradedConf
	res.Objects = []string{DegradedNote}
	zap.L().Warn("fusion: all detectors unavailable, degrading verdict",
		zap.Float64("plastic_score", res.PlasticScore),
	)
	return res
}

func sourceStatus(name string, err error, cached bool) model.SourceStatus {
	s := model.SourceStatus{Name: name, Available: err == nil, Cached: cached}
	if err != nil {
		s.Error = err.Error()
	}
	return s
}

// appendUnique adds texts to list, case and accent insensitively deduped.
func appendUnique(list *[]string, seen map[string]bool, texts ...string) {
	for _, t := range texts {
		key := normalizeText(t)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		*list = append(*list, t)
	}
}

func dedupeLabels(entries []model.Label) []model.Label {
	seen := map[string]bool{}
	var out []model.Label
	for _, e := range entries {
		key := normalizeText(e.Text)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, e)
	}
	return out
}

// Package pipeline orchestrates a single photo analysis: sample the
// pixels, score the palette, consult external detectors when the mode
// asks for them, and classify the result into a severity verdict.
package pipeline

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/adityagoyal009/ocean-sentinel/internal/fusion"
	"github.com/adityagoyal009/ocean-sentinel/internal/imaging"
	"github.com/adityagoyal009/ocean-sentinel/internal/model"
	"github.com/adityagoyal009/ocean-sentinel/internal/monitoring"
	"github.com/adityagoyal009/ocean-sentinel/internal/scorer"
)

// Request is one analysis invocation.
type Request struct {
	Image []byte
	Mode  model.AnalysisMode // empty selects the engine default
}

// Engine runs the scoring pipeline. It holds no per-invocation state;
// concurrent Analyze calls are fully independent.
type Engine struct {
	heuristic   *scorer.Heuristic
	classifier  *scorer.Classifier
	fuser       *fusion.Fuser
	metrics     *monitoring.Collector
	defaultMode model.AnalysisMode
}

// Options configures an Engine. Fuser and Metrics may be nil: without a
// fuser every analysis runs the pixel path, without a collector nothing
// is counted.
type Options struct {
	Profile     *scorer.Profile
	Fuser       *fusion.Fuser
	Metrics     *monitoring.Collector
	DefaultMode model.AnalysisMode
	Classifier  []scorer.ClassifierOption
}

// New builds an Engine. When no default mode is given it is hybrid if
// detectors are wired in, heuristic otherwise.
func New(opts Options) *Engine {
	defaultMode := opts.DefaultMode
	if defaultMode == "" {
		defaultMode = model.ModeHeuristic
		if opts.Fuser != nil && opts.Fuser.Configured() {
			defaultMode = model.ModeHybrid
		}
	}
	return &Engine{
		heuristic:   scorer.NewHeuristic(opts.Profile),
		classifier:  scorer.NewClassifier(opts.Profile, opts.Classifier...),
		fuser:       opts.Fuser,
		metrics:     opts.Metrics,
		defaultMode: defaultMode,
	}
}

// resolveMode picks the mode for one invocation. Modes that need
// detectors fall back to heuristic when none are configured.
func (e *Engine) resolveMode(requested model.AnalysisMode) model.AnalysisMode {
	mode := requested
	if mode == "" {
		mode = e.defaultMode
	}
	if mode != model.ModeHeuristic && (e.fuser == nil || !e.fuser.Configured()) {
		zap.L().Warn("pipeline: no detectors configured, using heuristic mode",
			zap.String("requested_mode", string(mode)),
		)
		return model.ModeHeuristic
	}
	return mode
}

// Analyze scores one photo. The only fatal error past this point is
// undecodable image data; detector trouble degrades the verdict instead
// of failing the call.
func (e *Engine) Analyze(ctx context.Context, req Request) (*model.AnalysisResult, error) {
	start := time.Now()
	mode := e.resolveMode(req.Mode)

	grid, err := imaging.Sample(req.Image)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: sample image")
	}

	hist := scorer.BuildHistogram(grid)
	components := e.heuristic.Components(hist)
	pixelScore := e.heuristic.Plastic(components)

	res := &model.AnalysisResult{
		ID:         uuid.New().String(),
		Mode:       mode,
		Components: components,
		AnalyzedAt: start.UTC(),
	}

	var (
		score      float64
		confidence float64
		objects    []string
		fusionRan  bool
	)

	switch mode {
	case model.ModeHeuristic:
		score = pixelScore
		objects = scorer.IndicatedObjects(components)

	case model.ModeRemote, model.ModeHybrid:
		fused := e.fuser.Fuse(ctx, req.Image)
		fusionRan = true
		res.Sources = fused.Sources
		res.Degraded = fused.Degraded

		switch {
		case fused.Degraded && mode == model.ModeHybrid:
			// No external signal to blend. Keep the pixel estimate and
			// let the degraded confidence say how much to trust it.
			score = pixelScore
			confidence = fused.Confidence
			objects = append(scorer.IndicatedObjects(components), fusion.DegradedNote)
		case fused.Degraded:
			score = fused.PlasticScore
			confidence = fused.Confidence
			objects = fused.Objects
		default:
			score = fused.PlasticScore
			objects = fused.Objects
			if mode == model.ModeHybrid {
				score = (pixelScore + fused.PlasticScore) / 2
				objects = mergeObjects(fused.Objects, scorer.IndicatedObjects(components))
			}
			confidence = fused.ConfidenceFor(score)
		}
	}

	score = math.Min(1, math.Max(0, score))
	severity, bucketConf := e.classifier.Classify(score)
	if !fusionRan {
		confidence = bucketConf
	}

	res.Verdict = model.Verdict{
		Severity:     severity,
		Confidence:   confidence,
		PlasticScore: score,
		Objects:      objects,
	}
	res.DurationMS = time.Since(start).Milliseconds()

	e.metrics.RecordAnalysis(res)
	zap.L().Info("pipeline: analysis complete",
		zap.String("id", res.ID),
		zap.String("mode", string(mode)),
		zap.String("severity", string(severity)),
		zap.Float64("plastic_score", score),
		zap.Float64("confidence", confidence),
		zap.Bool("degraded", res.Degraded),
		zap.Int64("duration_ms", res.DurationMS),
	)
	return res, nil
}

// mergeObjects unions the detector and pixel object lists, keeping
// detector entries first and dropping exact duplicates.
func mergeObjects(detector, pixel []string) []string {
	seen := make(map[string]bool, len(detector))
	var out []string
	for _, o := range detector {
		if !seen[o] {
			seen[o] = true
			out = append(out, o)
		}
	}
	for _, o := range pixel {
		if !seen[o] {
			seen[o] = true
			out = append(out, o)
		}
	}
	return out
}

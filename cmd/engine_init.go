package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/adityagoyal009/ocean-sentinel/internal/cache"
	"github.com/adityagoyal009/ocean-sentinel/internal/detector"
	"github.com/adityagoyal009/ocean-sentinel/internal/fusion"
	"github.com/adityagoyal009/ocean-sentinel/internal/model"
	"github.com/adityagoyal009/ocean-sentinel/internal/monitoring"
	"github.com/adityagoyal009/ocean-sentinel/internal/pipeline"
	"github.com/adityagoyal009/ocean-sentinel/internal/resilience"
	"github.com/adityagoyal009/ocean-sentinel/internal/scorer"
	"github.com/adityagoyal009/ocean-sentinel/pkg/claude"
	"github.com/adityagoyal009/ocean-sentinel/pkg/roboflow"
	"github.com/adityagoyal009/ocean-sentinel/pkg/vision"
)

// engineEnv holds the initialized cache, detector adapters, and scoring
// engine needed by the analyze/batch/serve commands.
type engineEnv struct {
	Cache    cache.Store // nil when driver is none
	Engine   *pipeline.Engine
	Breakers *resilience.BreakerSet
	Metrics  *monitoring.Collector
}

// Close releases resources held by the engine environment.
func (ee *engineEnv) Close() {
	if ee.Cache != nil {
		_ = ee.Cache.Close()
	}
}

// initCache opens the configured cache backend. A driver of none (or an
// open failure) leaves detector calls uncached rather than failing the
// command.
func initCache(ctx context.Context) cache.Store {
	if cfg.Cache.Driver == "" || cfg.Cache.Driver == "none" {
		return nil
	}
	st, err := openCacheStore(ctx)
	if err != nil {
		zap.L().Warn("cache unavailable, detector calls will not be cached", zap.Error(err))
		return nil
	}
	if err := st.Migrate(ctx); err != nil {
		zap.L().Warn("cache migrate failed, detector calls will not be cached", zap.Error(err))
		_ = st.Close()
		return nil
	}
	return st
}

// initEngine validates config for the given run mode and assembles the
// scoring engine with whatever detectors are configured. Callers should
// defer env.Close().
func initEngine(ctx context.Context, mode string) (*engineEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	profile := scorer.DefaultProfile()
	if cfg.Engine.ProfilePath != "" {
		p, err := scorer.LoadProfile(cfg.Engine.ProfilePath)
		if err != nil {
			return nil, eris.Wrap(err, "load scoring profile")
		}
		profile = p
		zap.L().Info("scoring profile loaded", zap.String("path", cfg.Engine.ProfilePath))
	}

	st := initCache(ctx)
	metrics := monitoring.NewCollector()
	breakers := resilience.NewBreakerSet(
		resilience.WithThreshold(cfg.Detectors.Breaker.Threshold),
		resilience.WithCooldown(time.Duration(cfg.Detectors.Breaker.CooldownSecs)*time.Second),
	)

	opts := detector.Options{
		Cache: st,
		TTL:   cfg.Cache.TTL(),
		Retry: resilience.Policy{
			Attempts:  cfg.Detectors.Retry.Attempts,
			BaseDelay: time.Duration(cfg.Detectors.Retry.BaseDelayMS) * time.Millisecond,
			MaxDelay:  time.Duration(cfg.Detectors.Retry.MaxDelayMS) * time.Millisecond,
		},
		Breakers: breakers,
		Metrics:  metrics,
	}

	labels := initLabeler(opts)
	objects := initObjects(opts)

	var fuser *fusion.Fuser
	if labels != nil || objects != nil {
		fuser = fusion.New(labels, objects,
			fusion.WithDegradedBand(profile.Degraded.MinScore, profile.Degraded.MaxScore, profile.Degraded.Confidence),
		)
	} else {
		zap.L().Info("no detector keys configured, remote and hybrid modes unavailable")
	}

	defaultMode, _ := model.ParseMode(cfg.Engine.Mode)

	eng := pipeline.New(pipeline.Options{
		Profile:     profile,
		Fuser:       fuser,
		Metrics:     metrics,
		DefaultMode: defaultMode,
	})

	return &engineEnv{
		Cache:    st,
		Engine:   eng,
		Breakers: breakers,
		Metrics:  metrics,
	}, nil
}

// initLabeler picks the label detector. An explicit detectors.labeler
// setting wins; otherwise whichever key is present, vision before
// claude.
func initLabeler(opts detector.Options) fusion.LabelDetector {
	visionReady := cfg.Detectors.Vision.Key != ""
	claudeReady := cfg.Detectors.Claude.Key != ""

	choice := cfg.Detectors.Labeler
	if choice == "" {
		switch {
		case visionReady:
			choice = "vision"
		case claudeReady:
			choice = "claude"
		default:
			return nil
		}
	}

	switch choice {
	case "vision":
		if !visionReady {
			zap.L().Warn("detectors.labeler is vision but no vision key set, labels disabled")
			return nil
		}
		var clientOpts []vision.Option
		if cfg.Detectors.Vision.BaseURL != "" {
			clientOpts = append(clientOpts, vision.WithBaseURL(cfg.Detectors.Vision.BaseURL))
		}
		zap.L().Info("vision labeler enabled")
		return detector.NewVisionLabels(vision.NewClient(cfg.Detectors.Vision.Key, clientOpts...), opts)
	case "claude":
		if !claudeReady {
			zap.L().Warn("detectors.labeler is claude but no claude key set, labels disabled")
			return nil
		}
		zap.L().Info("claude labeler enabled", zap.String("model", cfg.Detectors.Claude.Model))
		return detector.NewClaudeLabels(claude.NewClient(cfg.Detectors.Claude.Key), cfg.Detectors.Claude.Model, opts)
	}
	return nil
}

// initObjects builds the object detector when a roboflow key and model
// are configured.
func initObjects(opts detector.Options) fusion.ObjectDetector {
	rf := cfg.Detectors.Roboflow
	if rf.Key == "" || rf.Model == "" {
		return nil
	}

	var clientOpts []roboflow.Option
	if rf.BaseURL != "" {
		clientOpts = append(clientOpts, roboflow.WithBaseURL(rf.BaseURL))
	}
	zap.L().Info("roboflow object detector enabled",
		zap.String("model", rf.Model),
		zap.String("version", rf.Version),
	)
	return detector.NewRoboflowObjects(roboflow.NewClient(rf.Key, rf.Model, rf.Version, clientOpts...), rf.Confidence, opts)
}

package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/adityagoyal009/ocean-sentinel/internal/fetcher"
	"github.com/adityagoyal009/ocean-sentinel/internal/manifest"
	"github.com/adityagoyal009/ocean-sentinel/internal/model"
	"github.com/adityagoyal009/ocean-sentinel/internal/pipeline"
)

var (
	batchManifest    string
	batchDir         string
	batchLimit       int
	batchConcurrency int
	batchOut         string
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Score a batch of photos from a manifest or directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var (
			entries []manifest.Entry
			err     error
		)
		switch {
		case batchManifest != "" && batchDir != "":
			return eris.New("batch: --manifest and --dir are mutually exclusive")
		case batchManifest != "":
			entries, err = manifest.Load(ctx, batchManifest)
		case batchDir != "":
			entries, err = manifest.FromDir(batchDir)
		default:
			return eris.New("batch: one of --manifest or --dir is required")
		}
		if err != nil {
			return eris.Wrap(err, "batch: load entries")
		}

		env, err := initEngine(ctx, "batch")
		if err != nil {
			return err
		}
		defer env.Close()

		resolver := fetcher.NewResolver(fetcher.Options{
			HTTP: fetcher.HTTPOptions{
				UserAgent:  cfg.Fetch.UserAgent,
				Timeout:    time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
				MaxRetries: cfg.Fetch.MaxRetries,
				Rate:       rate.Limit(cfg.Fetch.RatePerHost),
				Burst:      cfg.Fetch.Burst,
			},
			FTP: fetcher.FTPOptions{
				Timeout: time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
			},
			MaxBytes: cfg.Fetch.MaxMB << 20,
		})

		concurrency := batchConcurrency
		if concurrency <= 0 {
			concurrency = cfg.Batch.Concurrency
		}

		results := processBatch(ctx, entries, batchLimit, concurrency, func(ctx context.Context, ref string) (*model.AnalysisResult, error) {
			image, err := resolver.Fetch(ctx, ref)
			if err != nil {
				return nil, err
			}
			return env.Engine.Analyze(ctx, pipeline.Request{Image: image})
		})

		if batchOut != "" {
			if err := writeResultsCSV(batchOut, results); err != nil {
				return err
			}
			zap.L().Info("batch results written", zap.String("path", batchOut))
		}
		return nil
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchManifest, "manifest", "", "path to CSV or XLSX manifest of photo references")
	batchCmd.Flags().StringVar(&batchDir, "dir", "", "directory of image files to score")
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "max photos to process (0 = all)")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "max photos to process concurrently (default from config)")
	batchCmd.Flags().StringVar(&batchOut, "out", "", "write per-photo results CSV to this path")
	rootCmd.AddCommand(batchCmd)
}

// batchResult pairs a manifest entry with its analysis outcome.
type batchResult struct {
	Ref    string
	Line   int
	Result *model.AnalysisResult
	Err    error
}

// analyzeFunc fetches and scores one photo reference.
type analyzeFunc func(ctx context.Context, ref string) (*model.AnalysisResult, error)

// processBatch applies limit, then scores entries concurrently. Results
// keep manifest order. Individual failures are recorded and logged but
// never abort the batch.
func processBatch(ctx context.Context, entries []manifest.Entry, limit, concurrency int, analyze analyzeFunc) []batchResult {
	if len(entries) == 0 {
		zap.L().Info("no photos to process")
		return nil
	}

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	if concurrency < 1 {
		concurrency = 1
	}

	zap.L().Info("processing batch",
		zap.Int("photos", len(entries)),
		zap.Int("concurrency", concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	results := make([]batchResult, len(entries))
	var succeeded, failed atomic.Int64

	for i, entry := range entries {
		g.Go(func() error {
			log := zap.L().With(zap.String("ref", entry.Ref), zap.Int("line", entry.Line))

			result, err := analyze(gctx, entry.Ref)
			results[i] = batchResult{Ref: entry.Ref, Line: entry.Line, Result: result, Err: err}
			if err != nil {
				failed.Add(1)
				log.Error("photo failed", zap.Error(err))
				return nil // don't abort batch on individual failure
			}

			succeeded.Add(1)
			log.Info("photo scored",
				zap.String("severity", string(result.Verdict.Severity)),
				zap.Float64("confidence", result.Verdict.Confidence),
				zap.Bool("degraded", result.Degraded),
			)
			return nil
		})
	}

	_ = g.Wait()

	zap.L().Info("batch complete",
		zap.Int("total", len(entries)),
		zap.Int64("succeeded", succeeded.Load()),
		zap.Int64("failed", failed.Load()),
	)
	return results
}

// writeResultsCSV writes one row per photo, including failed ones so a
// run can be audited end to end.
func writeResultsCSV(path string, results []batchResult) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "batch: create results file")
	}
	defer f.Close() //nolint:errcheck

	w := csv.NewWriter(f)
	if err := w.Write([]string{"ref", "severity", "confidence", "plastic_score", "mode", "degraded", "objects", "error"}); err != nil {
		return eris.Wrap(err, "batch: write results header")
	}

	for _, r := range results {
		row := []string{r.Ref, "", "", "", "", "", "", ""}
		if r.Err != nil {
			row[7] = r.Err.Error()
		} else {
			row[1] = string(r.Result.Verdict.Severity)
			row[2] = fmt.Sprintf("%.2f", r.Result.Verdict.Confidence)
			row[3] = fmt.Sprintf("%.3f", r.Result.Verdict.PlasticScore)
			row[4] = string(r.Result.Mode)
			row[5] = strconv.FormatBool(r.Result.Degraded)
			row[6] = strings.Join(r.Result.Verdict.Objects, "; ")
		}
		if err := w.Write(row); err != nil {
			return eris.Wrap(err, "batch: write results row")
		}
	}

	w.Flush()
	return eris.Wrap(w.Error(), "batch: flush results")
}

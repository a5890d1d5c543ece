package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/adityagoyal009/ocean-sentinel/internal/model"
	"github.com/adityagoyal009/ocean-sentinel/internal/pipeline"
)

var (
	analyzeMode    string
	analyzeProfile string
	analyzeFormat  string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <image>",
	Short: "Score a single photo for plastic pollution severity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		mode, err := parseModeFlag(analyzeMode)
		if err != nil {
			return err
		}
		if analyzeFormat != "json" && analyzeFormat != "text" {
			return eris.Errorf("analyze: unknown format %q, want json or text", analyzeFormat)
		}
		if analyzeProfile != "" {
			cfg.Engine.ProfilePath = analyzeProfile
		}

		image, err := os.ReadFile(args[0])
		if err != nil {
			return eris.Wrapf(err, "analyze: read %s", args[0])
		}

		env, err := initEngine(ctx, "analyze")
		if err != nil {
			return err
		}
		defer env.Close()

		result, err := env.Engine.Analyze(ctx, pipeline.Request{Image: image, Mode: mode})
		if err != nil {
			return eris.Wrapf(err, "analyze: %s", args[0])
		}

		zap.L().Info("analysis complete",
			zap.String("image", args[0]),
			zap.String("severity", string(result.Verdict.Severity)),
			zap.Float64("confidence", result.Verdict.Confidence),
		)

		if analyzeFormat == "text" {
			printVerdictText(os.Stdout, result)
			return nil
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeMode, "mode", "", "analysis mode: heuristic, remote, or hybrid (default from config)")
	analyzeCmd.Flags().StringVar(&analyzeProfile, "profile", "", "path to scoring profile YAML")
	analyzeCmd.Flags().StringVar(&analyzeFormat, "format", "json", "output format: json or text")
	rootCmd.AddCommand(analyzeCmd)
}

// parseModeFlag validates an optional --mode value. Empty means use the
// configured default.
func parseModeFlag(s string) (model.AnalysisMode, error) {
	if s == "" {
		return "", nil
	}
	mode, ok := model.ParseMode(s)
	if !ok {
		return "", eris.Errorf("unknown mode %q, want heuristic, remote, or hybrid", s)
	}
	return mode, nil
}

// printVerdictText writes a human-readable verdict summary.
func printVerdictText(w *os.File, res *model.AnalysisResult) {
	fmt.Fprintf(w, "severity:    %s\n", res.Verdict.Severity)
	fmt.Fprintf(w, "confidence:  %.2f\n", res.Verdict.Confidence)
	fmt.Fprintf(w, "score:       %.3f\n", res.Verdict.PlasticScore)
	fmt.Fprintf(w, "mode:        %s\n", res.Mode)
	if len(res.Verdict.Objects) > 0 {
		fmt.Fprintf(w, "objects:     %s\n", strings.Join(res.Verdict.Objects, ", "))
	}
	if res.Degraded {
		fmt.Fprintf(w, "degraded:    external detectors unreachable\n")
	}
}

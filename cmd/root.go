package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/adityagoyal009/ocean-sentinel/internal/config"
)

var (
	cfg          *config.Config
	rootLogLevel string
)

var rootCmd = &cobra.Command{
	Use:   "ocean-sentinel",
	Short: "Plastic pollution severity scoring for shoreline photos",
	Long:  "Scores crowdsourced shoreline and open-water photos for plastic pollution severity, blending a color-heuristic pixel analysis with external vision detectors when configured.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if rootLogLevel != "" {
			c.Log.Level = rootLogLevel
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootLogLevel, "log-level", "", "override configured log level (debug, info, warn, error)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

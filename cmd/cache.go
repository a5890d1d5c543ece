package main

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/adityagoyal009/ocean-sentinel/internal/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the detector response cache",
}

var cacheMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the cache schema",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("cache"); err != nil {
			return err
		}

		st, err := openCacheStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "cache migrate")
		}

		zap.L().Info("cache schema up to date", zap.String("driver", cfg.Cache.Driver))
		return nil
	},
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete expired cache entries",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("cache"); err != nil {
			return err
		}

		st, err := openCacheStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		deleted, err := st.Purge(ctx)
		if err != nil {
			return eris.Wrap(err, "cache purge")
		}

		zap.L().Info("cache purged", zap.Int("deleted", deleted))
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheMigrateCmd)
	cacheCmd.AddCommand(cachePurgeCmd)
	rootCmd.AddCommand(cacheCmd)
}

// openCacheStore opens the configured cache backend. Unlike the engine
// path, cache subcommands fail loudly when the store cannot be opened.
func openCacheStore(ctx context.Context) (cache.Store, error) {
	switch cfg.Cache.Driver {
	case "sqlite":
		return cache.NewSQLite(cfg.Cache.URL)
	case "postgres":
		return cache.NewPostgres(ctx, cfg.Cache.URL, &cache.PoolConfig{
			MaxConns: cfg.Cache.MaxConns,
			MinConns: cfg.Cache.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported cache driver %q", cfg.Cache.Driver)
	}
}

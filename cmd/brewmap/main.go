package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/kass/go-geo-dominance/internal/config"
	"github.com/kass/go-geo-dominance/internal/logger"
	"github.com/kass/go-geo-dominance/internal/metrics"
	"github.com/kass/go-geo-dominance/pkg/cache"
	"github.com/kass/go-geo-dominance/pkg/models"
	"github.com/kass/go-geo-dominance/pkg/service"
	"github.com/kass/go-geo-dominance/pkg/votestore"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var version = "dev"

var (
	configFile string
	radiusKm   float64
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:           "brewmap",
	Short:         "Geographic category dominance from location votes",
	Long:          `Aggregates location votes on a fixed grid, picks a winning category per cell and traces the regions each category controls.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "YAML config file")
	rootCmd.PersistentFlags().Float64VarP(&radiusKm, "radius", "r", 0, "Vote influence radius in km (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")

	rootCmd.AddCommand(computeCmd, simulateCmd, voteCmd, inspectCmd, watchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("error: ")+err.Error())
		os.Exit(1)
	}
}

// app holds everything a command needs; close releases the store and cache
type app struct {
	cfg      config.Config
	log      zerolog.Logger
	repo     votestore.Repository
	cache    cache.Cache
	provider *metrics.Provider
	engine   *service.Engine
}

func setup(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configFile, ".env")
	if err != nil {
		return nil, err
	}
	if radiusKm != 0 {
		cfg.RadiusKm = radiusKm
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	cfg.Log.Component = "brewmap"
	log := logger.Build(cfg.Log, os.Stderr)

	grid, err := cfg.GridSpec()
	if err != nil {
		return nil, err
	}
	cat, err := cfg.Catalog()
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, log: log}
	if a.repo, err = openRepository(ctx, cfg.Store); err != nil {
		return nil, err
	}
	if a.cache, err = openCache(ctx, cfg.Cache); err != nil {
		a.repo.Close()
		return nil, err
	}

	a.provider = metrics.Init(metrics.Config{Build: metrics.BuildInfo{Version: version}})
	a.engine, err = service.NewEngine(a.repo, cat, grid, cfg.RadiusKm,
		service.WithCache(a.cache),
		service.WithMetrics(metrics.NewDominance(a.provider.Registerer())),
		service.WithLogger(log),
	)
	if err != nil {
		a.close()
		return nil, err
	}

	log.Debug().
		Int("rows", grid.Rows).
		Int("cols", grid.Cols).
		Float64("radius_km", cfg.RadiusKm).
		Str("store", cfg.Store.Driver).
		Str("cache", cfg.Cache.Driver).
		Msg("engine ready")
	return a, nil
}

func (a *app) close() {
	if err := a.cache.Close(); err != nil {
		a.log.Warn().Err(err).Msg("failed to close cache")
	}
	if err := a.repo.Close(); err != nil {
		a.log.Warn().Err(err).Msg("failed to close vote store")
	}
}

func openRepository(ctx context.Context, cfg config.StoreConfig) (votestore.Repository, error) {
	switch cfg.Driver {
	case "file":
		return votestore.OpenFileStore(cfg.Path)
	case "postgres":
		return votestore.OpenPostGIS(ctx, cfg.Postgres.ConnString())
	}
	return nil, &models.ConfigError{Field: "store.driver", Reason: fmt.Sprintf("unknown driver %q", cfg.Driver)}
}

func openCache(ctx context.Context, cfg config.CacheConfig) (cache.Cache, error) {
	switch cfg.Driver {
	case "none":
		return cache.Noop{}, nil
	case "lru":
		return cache.NewLRU(cfg.Size)
	case "redis":
		return cache.NewRedis(ctx, cfg.RedisAddr, cfg.TTL)
	}
	return nil, &models.ConfigError{Field: "cache.driver", Reason: fmt.Sprintf("unknown driver %q", cfg.Driver)}
}

// withApp runs fn with a configured app and closes it afterwards
func withApp(fn func(ctx context.Context, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		a, err := setup(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		if err := fn(ctx, a, args); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		return nil
	}
}

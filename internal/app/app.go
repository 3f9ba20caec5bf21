// Package app builds the shared component graph used by cmd/api and
// cmd/footiq from a loaded configuration.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/albapepper/footiq/internal/baseline"
	"github.com/albapepper/footiq/internal/cache"
	"github.com/albapepper/footiq/internal/config"
	"github.com/albapepper/footiq/internal/db"
	"github.com/albapepper/footiq/internal/metric"
	"github.com/albapepper/footiq/internal/normalize"
	"github.com/albapepper/footiq/internal/playerdata"
	"github.com/albapepper/footiq/internal/provider/sportapi"
	"github.com/albapepper/footiq/internal/replay"
	"github.com/albapepper/footiq/internal/telemetry"
)

// App is the wired component graph.
type App struct {
	Registry   *metric.Registry
	Comparator *baseline.Comparator
	Cache      cache.Store
	Players    *playerdata.Service
	Analyzer   *playerdata.Analyzer
	Client     *sportapi.Client
	Pool       *db.Pool // nil unless Postgres is configured
	Metrics    *telemetry.Metrics
	Prometheus *prometheus.Registry

	closers []func()
}

// Build wires every component. Postgres is only dialed when DATABASE_URL is
// set; it is required when BASELINE_SOURCE=postgres.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{Registry: metric.Default(), Prometheus: prometheus.NewRegistry()}
	a.Metrics = telemetry.New(telemetry.WithRegistry(a.Prometheus))

	if cfg.DatabaseURL != "" {
		logger.Info("Connecting to database...")
		pool, err := db.New(ctx, cfg)
		if err != nil {
			if cfg.BaselineSource == config.BaselineSourcePostgres {
				return nil, err
			}
			logger.Warn("Database unavailable, continuing without it", "error", err)
		} else {
			a.Pool = pool
			a.closers = append(a.closers, pool.Close)
			logger.Info("Database connected", "min_conns", cfg.DBPoolMinConns, "max_conns", cfg.DBPoolMaxConns)
		}
	}

	table, err := a.loadBaselines(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Comparator = baseline.NewComparator(table)
	logger.Info("Baselines loaded", "source", cfg.BaselineSource, "entries", table.Len())

	store, err := a.buildCache(ctx, cfg, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Cache = store

	a.Client = sportapi.NewClient(sportapi.Config{
		BaseURL:           cfg.SportAPIBaseURL,
		APIKey:            cfg.SportAPIKey,
		Host:              cfg.SportAPIHost,
		RequestsPerMinute: cfg.SportAPIRPM,
		Timeout:           cfg.SportAPITimeout,
	}, a.Metrics, logger)
	if cfg.SportAPIKey == "" && cfg.DataMode == config.DataModeLive {
		logger.Warn("SPORTAPI_KEY not set; live requests will be rejected upstream")
	}

	a.Players = playerdata.New(playerdata.Deps{
		Normalizer: normalize.New(a.Registry),
		Cache:      a.Cache,
		CacheTTL:   cfg.CacheTTL,
		Fetcher:    a.Client,
		Fixtures:   replay.New(cfg.FixtureDir),
		Metrics:    a.Metrics,
		Logger:     logger,
	})
	a.Analyzer = playerdata.NewAnalyzer(a.Players, a.Comparator)
	return a, nil
}

// ReloadBaselines re-reads the configured baseline source and swaps it into
// the comparator. In-flight requests finish against the previous table.
func (a *App) ReloadBaselines(ctx context.Context, cfg *config.Config) error {
	table, err := a.loadBaselines(ctx, cfg)
	if err != nil {
		return err
	}
	a.Comparator.Swap(table)
	return nil
}

func (a *App) loadBaselines(ctx context.Context, cfg *config.Config) (*baseline.Table, error) {
	if cfg.BaselineSource == config.BaselineSourcePostgres {
		t, err := baseline.LoadPostgres(ctx, a.Pool)
		if err != nil {
			return nil, fmt.Errorf("load baselines from postgres: %w", err)
		}
		return t, nil
	}
	t, err := baseline.LoadFile(cfg.BaselinesPath)
	if err != nil {
		return nil, fmt.Errorf("load baselines: %w", err)
	}
	return t, nil
}

func (a *App) buildCache(ctx context.Context, cfg *config.Config, logger *slog.Logger) (cache.Store, error) {
	if cfg.CacheBackend == config.CacheBackendRedis && cfg.CacheEnabled {
		r, err := cache.NewRedis(cfg.RedisURL, "footiq:", logger)
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		if err := r.Ping(ctx); err != nil {
			r.Close()
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		a.closers = append(a.closers, func() { r.Close() })
		logger.Info("Cache initialized", "backend", "redis")
		return r, nil
	}

	m := cache.NewMemory(cfg.CacheEnabled)
	a.closers = append(a.closers, m.Close)
	logger.Info("Cache initialized", "backend", "memory", "enabled", cfg.CacheEnabled)
	return m, nil
}

// Close releases pools and background goroutines in reverse order.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

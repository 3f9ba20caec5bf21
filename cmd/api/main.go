// Command api is the FootIQ Data API server.
//
// Usage:
//
//	footiq-api
//	API_PORT=8080 DATA_MODE=replay footiq-api

// @title FootIQ Data API
// @version 1.0.0
// @description Football player metrics: normalized game records, per-90 rates, derived statistics, league z-scores and form series.
// @host localhost:8000
// @BasePath /api/v1
// @schemes http https
// @contact.name FootIQ
// @license.name MIT
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/albapepper/footiq/internal/api"
	"github.com/albapepper/footiq/internal/api/handler"
	"github.com/albapepper/footiq/internal/app"
	"github.com/albapepper/footiq/internal/config"
	"github.com/albapepper/footiq/internal/listener"

	_ "github.com/albapepper/footiq/docs" // swagger docs
)

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	// Hot-reload baselines when an import lands in Postgres
	if cfg.BaselineSource == config.BaselineSourcePostgres && a.Pool != nil {
		go listener.Start(ctx, cfg.DatabaseURL, func(ctx context.Context) error {
			return a.ReloadBaselines(ctx, cfg)
		}, logger)
	}

	deps := handler.Deps{
		Registry:   a.Registry,
		Players:    a.Players,
		Comparator: a.Comparator,
		Cache:      a.Cache,
		Config:     cfg,
		Logger:     logger,
	}
	if a.Pool != nil {
		deps.DB = a.Pool
	}
	router := api.NewRouter(handler.New(deps), cfg, a.Metrics, a.Prometheus)

	addr := cfg.Addr()
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		logger.Info("Starting FootIQ Data API",
			"addr", addr,
			"environment", cfg.Environment,
			"data_mode", cfg.DataMode,
			"docs", fmt.Sprintf("http://localhost:%d/docs/", cfg.APIPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt
	<-ctx.Done()
	logger.Info("Shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}
	logger.Info("Server stopped")
}

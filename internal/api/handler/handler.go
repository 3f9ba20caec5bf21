// Package handler provides HTTP handlers for all API endpoints.
// Player endpoints go through the playerdata service; compute endpoints run
// the analytics core directly over caller-supplied records.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/albapepper/footiq/internal/aggregate"
	"github.com/albapepper/footiq/internal/api/respond"
	"github.com/albapepper/footiq/internal/baseline"
	"github.com/albapepper/footiq/internal/cache"
	"github.com/albapepper/footiq/internal/config"
	"github.com/albapepper/footiq/internal/metric"
	"github.com/albapepper/footiq/internal/playerdata"
)

// HealthChecker is satisfied by *db.Pool.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps are the handler dependencies. DB may be nil.
type Deps struct {
	Registry   *metric.Registry
	Players    *playerdata.Service
	Comparator *baseline.Comparator
	Cache      cache.Store
	DB         HealthChecker
	Config     *config.Config
	Logger     *slog.Logger
}

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	reg      *metric.Registry
	players  *playerdata.Service
	analyzer *playerdata.Analyzer
	agg      *aggregate.Aggregator
	cmp      *baseline.Comparator
	cache    cache.Store
	db       HealthChecker
	cfg      *config.Config
	logger   *slog.Logger
}

// New creates a Handler with shared dependencies.
func New(d Deps) *Handler {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return &Handler{
		reg:      d.Registry,
		players:  d.Players,
		analyzer: playerdata.NewAnalyzer(d.Players, d.Comparator),
		agg:      aggregate.New(d.Registry),
		cmp:      d.Comparator,
		cache:    d.Cache,
		db:       d.DB,
		cfg:      d.Config,
		logger:   d.Logger,
	}
}

// Root serves API info at /.
// @Summary API root info
// @Description Returns API name, version, status and data mode.
// @Tags meta
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router / [get]
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"name":      "FootIQ Data API",
		"version":   "1.0.0",
		"status":    "running",
		"docs":      "/docs",
		"data_mode": h.cfg.DataMode,
		"metrics":   len(h.reg.All()),
		"baselines": h.cmp.Table().Len(),
	})
}

// HealthCheck returns basic health status.
// @Summary Health check
// @Description Returns basic health status and timestamp.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckDB verifies database connectivity.
// @Summary Database health check
// @Description Verifies Postgres connectivity when a database is configured.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health/db [get]
func (h *Handler) HealthCheckDB(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
			"status":    "healthy",
			"database":  "not_configured",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	if err := h.db.HealthCheck(r.Context()); err != nil {
		h.logger.Warn("database health check failed", "error", err)
		respond.WriteJSONObject(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":    "unhealthy",
			"database":  "disconnected",
			"error":     "Database connection check failed",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"database":  "connected",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckCache returns cache statistics.
// @Summary Cache health check
// @Description Returns cache backend statistics.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health/cache [get]
func (h *Handler) HealthCheckCache(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"cache":     h.cache.Stats(r.Context()),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

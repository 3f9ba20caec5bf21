// Package api wires the HTTP router: middleware, docs, metrics and the
// versioned analytics routes.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	corslib "github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/albapepper/footiq/internal/api/handler"
	"github.com/albapepper/footiq/internal/config"
	"github.com/albapepper/footiq/internal/telemetry"
)

// NewRouter creates and configures the Chi router with all middleware and
// routes. gatherer backs /metrics; pass nil to omit the endpoint.
func NewRouter(h *handler.Handler, cfg *config.Config, metrics *telemetry.Metrics, gatherer prometheus.Gatherer) *chi.Mux {
	r := chi.NewRouter()

	// --- Middleware stack ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(TimingMiddleware)
	r.Use(MetricsMiddleware(metrics))
	r.Use(middleware.Compress(5)) // gzip

	// CORS
	c := corslib.New(corslib.Options{
		AllowedOrigins:   cfg.CORSAllowOrigins,
		AllowedMethods:   []string{"GET", "POST", "HEAD", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Encoding", "Content-Type", "If-None-Match", "Cache-Control"},
		ExposedHeaders:   []string{"X-Process-Time", "X-Cache", "X-Request-Id", "ETag"},
		AllowCredentials: false,
	})
	r.Use(c.Handler)

	// Rate limiting
	if cfg.RateLimitEnabled {
		r.Use(RateLimitMiddleware(cfg.RateLimitRequests, cfg.RateLimitWindow))
	}

	// --- Routes ---

	r.Get("/", h.Root)

	r.Route("/health", func(r chi.Router) {
		r.Get("/", h.HealthCheck)
		r.Get("/db", h.HealthCheckDB)
		r.Get("/cache", h.HealthCheckCache)
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL("/docs/doc.json")))

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/metrics/definitions", h.GetMetricDefinitions)

		r.Route("/players/{athleteID}", func(r chi.Router) {
			r.Get("/games", h.GetPlayerGames)
			r.Get("/games/{gameID}/lineup", h.GetPlayerLineup)
			r.Get("/analysis", h.GetPlayerAnalysis)
		})

		r.Post("/compute/{operation}", h.Compute)
	})

	return r
}

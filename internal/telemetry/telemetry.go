// Package telemetry exposes Prometheus metrics for the data layer and the
// HTTP API. Every method is safe on a nil *Metrics so components can run
// without instrumentation.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/albapepper/footiq/internal/diag"
)

// Option configures Metrics.
type Option func(*Metrics)

// WithNamespace sets the metric namespace (default "footiq").
func WithNamespace(namespace string) Option {
	return func(m *Metrics) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithRegistry registers collectors on reg instead of the default registerer.
func WithRegistry(reg prometheus.Registerer) Option {
	return func(m *Metrics) {
		if reg != nil {
			m.registry = reg
		}
	}
}

// Metrics holds every collector.
type Metrics struct {
	namespace string
	registry  prometheus.Registerer

	warnings        *prometheus.CounterVec
	unknownTypeIDs  prometheus.Counter
	upstream        *prometheus.CounterVec
	upstreamLatency *prometheus.HistogramVec
	cacheLookups    *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpLatency     *prometheus.HistogramVec
}

// New creates and registers the collectors.
func New(opts ...Option) *Metrics {
	m := &Metrics{
		namespace: "footiq",
		registry:  prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}

	f := promauto.With(m.registry)

	m.warnings = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "warnings_total",
		Help:      "Diagnostic warnings emitted, by code.",
	}, []string{"code"})

	m.unknownTypeIDs = f.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "unknown_type_ids_total",
		Help:      "Upstream stat type ids that matched no registered metric.",
	})

	m.upstream = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "upstream",
		Name:      "requests_total",
		Help:      "Upstream provider requests, by endpoint and outcome.",
	}, []string{"endpoint", "outcome"})

	m.upstreamLatency = f.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "upstream",
		Name:      "request_duration_seconds",
		Help:      "Upstream provider request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"endpoint"})

	m.cacheLookups = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "cache",
		Name:      "lookups_total",
		Help:      "Cache lookups, by data mode and result.",
	}, []string{"mode", "result"})

	m.httpRequests = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests served, by method, route and status.",
	}, []string{"method", "route", "status"})

	m.httpLatency = f.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency, by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})

	return m
}

// Warnings counts each warning by code.
func (m *Metrics) Warnings(ws ...diag.Warning) {
	if m == nil {
		return
	}
	for _, w := range ws {
		m.warnings.WithLabelValues(w.Code).Inc()
	}
}

// UnknownTypeIDs counts unrecognized upstream type ids.
func (m *Metrics) UnknownTypeIDs(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.unknownTypeIDs.Add(float64(n))
}

// Upstream records one provider call. outcome is "ok", "error" or "open"
// (rejected by the circuit breaker).
func (m *Metrics) Upstream(endpoint, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.upstream.WithLabelValues(endpoint, outcome).Inc()
	m.upstreamLatency.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// CacheLookup records a hit or miss.
func (m *Metrics) CacheLookup(mode string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(mode, result).Inc()
}

// HTTPRequest records one served request.
func (m *Metrics) HTTPRequest(method, route, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, status).Inc()
	m.httpLatency.WithLabelValues(route).Observe(elapsed.Seconds())
}

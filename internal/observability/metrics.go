// Package observability holds the Prometheus metrics for fa.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/focusarea/internal/core/revision"
)

// Namespace prefixes every metric name.
const Namespace = "fa"

// Collector holds all Prometheus metrics for the application.
// A nil *Collector is valid and records nothing.
type Collector struct {
	// Registry for this collector instance
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Versioning metrics
	VersionsCommitted *prometheus.CounterVec
	VersionConflicts  *prometheus.CounterVec
	RecordsReconciled *prometheus.CounterVec

	// AI revision metrics
	AIRevisionDuration *prometheus.HistogramVec
}

// NewCollector creates a collector with its own registry.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		VersionsCommitted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "versions_committed_total",
				Help:      "Total number of focus-area versions committed",
			},
			[]string{"operation"},
		),
		VersionConflicts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "version_conflicts_total",
				Help:      "Total number of mutations rejected for a stale base version",
			},
			[]string{"operation"},
		),
		RecordsReconciled: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "records_reconciled_total",
				Help:      "Records written by reconciliation, by outcome",
			},
			[]string{"kind"},
		),
		AIRevisionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "ai_revision_duration_seconds",
				Help:      "Duration of AI revision service calls",
				Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80},
			},
			[]string{"outcome"},
		),
	}

	registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.VersionsCommitted,
		c.VersionConflicts,
		c.RecordsReconciled,
		c.AIRevisionDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Registry returns the collector's registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// VersionCommitted records a committed version and its reconciliation stats.
func (c *Collector) VersionCommitted(operation string, stats revision.Stats) {
	if c == nil {
		return
	}
	c.VersionsCommitted.WithLabelValues(operation).Inc()
	c.RecordsReconciled.WithLabelValues("added").Add(float64(stats.Added))
	c.RecordsReconciled.WithLabelValues("updated").Add(float64(stats.Updated))
	c.RecordsReconciled.WithLabelValues("carried").Add(float64(stats.Carried))
}

// VersionConflict records a mutation rejected for a stale base.
func (c *Collector) VersionConflict(operation string) {
	if c == nil {
		return
	}
	c.VersionConflicts.WithLabelValues(operation).Inc()
}

// ObserveAIRevision records the duration of one AI service call.
func (c *Collector) ObserveAIRevision(d time.Duration, err error) {
	if c == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	c.AIRevisionDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// ObserveHTTP records one served request.
func (c *Collector) ObserveHTTP(method, route string, status int, d time.Duration) {
	if c == nil {
		return
	}
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// Package metrics holds the Prometheus collectors for projections, live
// data and the HTTP API.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the projection pipeline and API.
type Metrics struct {
	// Use case outcomes by name and result ("ok" or "error")
	UseCases *prometheus.CounterVec

	// Full projection latency: load, resolve, compose, reconcile
	ProjectionLatency prometheus.Histogram

	// Paths composed per projection
	PathsComposed prometheus.Histogram

	// Snapshot reads by source: live, cache, stale_cache, defaults
	SnapshotSource *prometheus.CounterVec

	// Projections dropped because a newer generation had started
	DroppedGenerations prometheus.Counter

	// HTTP request latency by route pattern, method and status code
	HTTPLatency *prometheus.HistogramVec
}

// New creates a Metrics instance registered with reg. A nil reg uses the
// default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		UseCases: f.NewCounterVec(prometheus.CounterOpts{
			Name: "greenpath_use_cases_total",
			Help: "Total service use case executions by name and result",
		}, []string{"use_case", "result"}),

		ProjectionLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "greenpath_projection_duration_seconds",
			Help:    "Duration of a full path projection including data loading",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 10},
		}),

		PathsComposed: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "greenpath_paths_composed",
			Help:    "Number of paths composed per projection",
			Buckets: []float64{0, 1, 2, 3, 4, 6, 8, 12},
		}),

		SnapshotSource: f.NewCounterVec(prometheus.CounterOpts{
			Name: "greenpath_snapshot_reads_total",
			Help: "Snapshot reads by the source that served them",
		}, []string{"source"}),

		DroppedGenerations: f.NewCounter(prometheus.CounterOpts{
			Name: "greenpath_projection_dropped_total",
			Help: "Projections discarded because a newer computation superseded them",
		}),

		HTTPLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "greenpath_http_request_duration_seconds",
			Help:    "Duration of HTTP API requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method", "code"}),
	}
}

// IncrementUseCase records one use case execution.
func (m *Metrics) IncrementUseCase(name string, success bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !success {
		result = "error"
	}
	m.UseCases.WithLabelValues(name, result).Inc()
}

// ObserveProjection records a completed projection.
func (m *Metrics) ObserveProjection(d time.Duration, paths int) {
	if m != nil {
		m.ProjectionLatency.Observe(d.Seconds())
		m.PathsComposed.Observe(float64(paths))
	}
}

// IncrementSnapshotSource records which source served a snapshot.
func (m *Metrics) IncrementSnapshotSource(source string) {
	if m != nil {
		m.SnapshotSource.WithLabelValues(source).Inc()
	}
}

// IncrementDropped records a superseded projection.
func (m *Metrics) IncrementDropped() {
	if m != nil {
		m.DroppedGenerations.Inc()
	}
}

// ObserveHTTP records one API request.
func (m *Metrics) ObserveHTTP(route, method, code string, d time.Duration) {
	if m != nil {
		m.HTTPLatency.WithLabelValues(route, method, code).Observe(d.Seconds())
	}
}

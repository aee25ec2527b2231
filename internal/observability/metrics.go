// Package observability provides Prometheus metrics for the application.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "hotsoon"

// Metrics holds all application metrics.
type Metrics struct {
	registry *prometheus.Registry

	// Item metrics
	ItemsEnqueued prometheus.Counter
	ItemsTotal    *prometheus.CounterVec
	ItemDuration  prometheus.Histogram
	DownloadBytes prometheus.Counter

	// Attempt metrics
	AttemptsTotal *prometheus.CounterVec

	// Pool metrics
	QueueDepth  prometheus.Gauge
	BusyWorkers prometheus.Gauge

	// Target metrics
	TargetsTotal *prometheus.CounterVec

	// Catalog metrics
	CatalogRequestsTotal *prometheus.CounterVec
}

// New creates all application metrics on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(reg)

	metrics := &Metrics{
		registry: reg,

		// Item metrics
		ItemsEnqueued: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "items",
			Name:      "enqueued_total",
			Help:      "Total number of items put on the work queue",
		}),
		ItemsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "items",
			Name:      "processed_total",
			Help:      "Total number of processed items by outcome",
		}, []string{"outcome"}),
		ItemDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "items",
			Name:      "duration_seconds",
			Help:      "Histogram of per-item processing time in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
		}),
		DownloadBytes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "items",
			Name:      "download_bytes_total",
			Help:      "Total bytes written to completed files",
		}),

		// Attempt metrics
		AttemptsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "attempts_total",
			Help:      "Total number of download attempts by result",
		}, []string{"result"}),

		// Pool metrics
		QueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "queue_depth",
			Help:      "Number of items waiting on the work queue",
		}),
		BusyWorkers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "busy_workers",
			Help:      "Number of workers currently handling an item",
		}),

		// Target metrics
		TargetsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "targets",
			Name:      "processed_total",
			Help:      "Total number of processed targets by status",
		}, []string{"status"}),

		// Catalog metrics
		CatalogRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "requests_total",
			Help:      "Total number of catalog API requests",
		}, []string{"call", "status"}),
	}

	return metrics
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the Prometheus HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ItemTimer returns a function to record item duration.
func (m *Metrics) ItemTimer() func() {
	start := time.Now()

	return func() {
		m.ItemDuration.Observe(time.Since(start).Seconds())
	}
}

// RecordEnqueued records n items put on the queue.
func (m *Metrics) RecordEnqueued(n int) {
	m.ItemsEnqueued.Add(float64(n))
	m.QueueDepth.Add(float64(n))
}

// RecordDequeued records an item taken by a worker.
func (m *Metrics) RecordDequeued() {
	m.QueueDepth.Dec()
	m.BusyWorkers.Inc()
}

// RecordItem records the outcome of a finished item.
func (m *Metrics) RecordItem(outcome string, bytes int64) {
	m.BusyWorkers.Dec()
	m.ItemsTotal.WithLabelValues(outcome).Inc()

	if bytes > 0 {
		m.DownloadBytes.Add(float64(bytes))
	}
}

// RecordAttempt records a single download attempt result.
func (m *Metrics) RecordAttempt(result string) {
	m.AttemptsTotal.WithLabelValues(result).Inc()
}

// RecordTarget records a processed target.
func (m *Metrics) RecordTarget(status string) {
	m.TargetsTotal.WithLabelValues(status).Inc()
}

// RecordCatalogRequest records a catalog API call.
func (m *Metrics) RecordCatalogRequest(call, status string) {
	m.CatalogRequestsTotal.WithLabelValues(call, status).Inc()
}

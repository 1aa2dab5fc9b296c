// Package metrics defines the Prometheus collectors of the vocabulary
// service and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the service.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	DocumentsTotal       *prometheus.CounterVec
	IngestEventsTotal    *prometheus.CounterVec
	NewWordsTotal        prometheus.Counter
	VocabularySize       *prometheus.GaugeVec
	GlobalDocuments      prometheus.Gauge
	FlushesTotal         *prometheus.CounterVec
	UpdateDuration       *prometheus.HistogramVec
	CircuitBreakerState  *prometheus.GaugeVec

	gatherer prometheus.Gatherer
}

// New creates all collectors and registers them with reg. A nil reg
// uses a fresh private registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		DocumentsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vocabulary_documents_total",
				Help: "Documents fed to an accumulator by mode and outcome (ok, rejected, flush_failed).",
			},
			[]string{"mode", "outcome"},
		),
		IngestEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vocabulary_ingest_events_total",
				Help: "Ingest requests by source (http, kafka, watch, cli) and status.",
			},
			[]string{"source", "status"},
		),
		NewWordsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "vocabulary_new_words_total",
				Help: "Words assigned a new id.",
			},
		),
		VocabularySize: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "vocabulary_size",
				Help: "Distinct words held in memory by mode.",
			},
			[]string{"mode"},
		),
		GlobalDocuments: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "vocabulary_global_documents",
				Help: "Global document counter of the weighting vocabulary.",
			},
		),
		FlushesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vocabulary_flushes_total",
				Help: "Checkpoint flushes by collection, operation and status.",
			},
			[]string{"collection", "op", "status"},
		),
		UpdateDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "vocabulary_update_duration_seconds",
				Help:    "Accumulator update latency including the flush.",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"mode"},
		),
		CircuitBreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "circuit_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=open, 2=half-open).",
			},
			[]string{"name"},
		),
		gatherer: reg,
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.DocumentsTotal,
		m.IngestEventsTotal,
		m.NewWordsTotal,
		m.VocabularySize,
		m.GlobalDocuments,
		m.FlushesTotal,
		m.UpdateDuration,
		m.CircuitBreakerState,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler for m's registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

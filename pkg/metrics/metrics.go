// Package metrics defines the Prometheus collectors of an evaluation run and
// exposes them for scraping or as a textfile written at the end of a run.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Result types recorded by QueriesTotal.
const (
	ResultHit        = "hit"
	ResultZeroResult = "zero_result"
	ResultCached     = "cached"
)

// Metrics holds all Prometheus collectors for a run, on a registry of its
// own.
type Metrics struct {
	Registry         *prometheus.Registry
	QueriesTotal     *prometheus.CounterVec
	QueryLatency     *prometheus.HistogramVec
	ResultsCount     prometheus.Histogram
	CacheHitsTotal   prometheus.Counter
	CacheMissesTotal prometheus.Counter
	IndexDocuments   prometheus.Gauge
	IndexTerms       prometheus.Gauge
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		QueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "queries_evaluated_total",
				Help: "Total queries evaluated by algorithm and result type (hit, zero_result, cached).",
			},
			[]string{"algorithm", "result_type"},
		),
		QueryLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "query_latency_seconds",
				Help:    "Query evaluation latency in seconds.",
				Buckets: []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
			},
			[]string{"algorithm"},
		),
		ResultsCount: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "query_results_count",
				Help:    "Number of results returned per query.",
				Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 1000},
			},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "result_cache_hits_total",
				Help: "Total number of result cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "result_cache_misses_total",
				Help: "Total number of result cache misses.",
			},
		),
		IndexDocuments: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "index_documents",
				Help: "Number of documents in the opened index.",
			},
		),
		IndexTerms: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "index_terms",
				Help: "Number of terms in the opened index.",
			},
		),
	}

	m.Registry.MustRegister(
		m.QueriesTotal,
		m.QueryLatency,
		m.ResultsCount,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.IndexDocuments,
		m.IndexTerms,
	)

	return m
}

// Handler returns the scrape handler for the run's registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// WriteTextfile dumps the current values in the text exposition format, for
// pickup by a node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}

// Package metrics defines the Prometheus collectors used by the search engine
// and exposes an HTTP handler for scraping. All recording helpers accept a nil
// *Metrics so that instrumentation stays optional for embedders.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apperrors "github.com/Adithya-Monish-Kumar-K/searchserver/pkg/errors"
)

// Metrics holds all Prometheus collectors for the engine.
type Metrics struct {
	DocsIndexedTotal   prometheus.Counter
	DocsRemovedTotal   *prometheus.CounterVec
	AddFailuresTotal   *prometheus.CounterVec
	DocumentCount      prometheus.Gauge
	QueriesTotal       *prometheus.CounterVec
	QueryLatency       *prometheus.HistogramVec
	QueryResultsCount  prometheus.Histogram
	WindowEmptyResults prometheus.Gauge
	CacheHitsTotal     prometheus.Counter
	CacheMissesTotal   prometheus.Counter
}

// New creates all collectors and registers them with reg. A nil reg uses the
// Prometheus default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		DocsIndexedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "searchserver_docs_indexed_total",
				Help: "Total documents successfully added to the index.",
			},
		),
		DocsRemovedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "searchserver_docs_removed_total",
				Help: "Total documents removed from the index by execution policy.",
			},
			[]string{"policy"},
		),
		AddFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "searchserver_add_failures_total",
				Help: "Rejected document insertions by error kind.",
			},
			[]string{"kind"},
		),
		DocumentCount: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "searchserver_documents",
				Help: "Number of live documents in the index.",
			},
		),
		QueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "searchserver_queries_total",
				Help: "Queries by operation, policy, and outcome (hit, zero_result, error).",
			},
			[]string{"operation", "policy", "outcome"},
		),
		QueryLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "searchserver_query_latency_seconds",
				Help:    "Query latency in seconds.",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"operation", "policy"},
		),
		QueryResultsCount: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "searchserver_query_results_count",
				Help:    "Number of results returned per ranked query.",
				Buckets: []float64{0, 1, 2, 3, 4, 5},
			},
		),
		WindowEmptyResults: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "searchserver_window_empty_results",
				Help: "Empty-result requests within the trailing statistics window.",
			},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "searchserver_cache_hits_total",
				Help: "Total result cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "searchserver_cache_misses_total",
				Help: "Total result cache misses.",
			},
		),
	}

	reg.MustRegister(
		m.DocsIndexedTotal,
		m.DocsRemovedTotal,
		m.AddFailuresTotal,
		m.DocumentCount,
		m.QueriesTotal,
		m.QueryLatency,
		m.QueryResultsCount,
		m.WindowEmptyResults,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
	)

	return m
}

// RecordAdd counts an insertion attempt and updates the live document gauge.
func (m *Metrics) RecordAdd(err error, documents int) {
	if m == nil {
		return
	}
	if err != nil {
		m.AddFailuresTotal.WithLabelValues(apperrors.Kind(err)).Inc()
		return
	}
	m.DocsIndexedTotal.Inc()
	m.DocumentCount.Set(float64(documents))
}

// RecordRemove counts a removal that actually deleted a document.
func (m *Metrics) RecordRemove(policy string, documents int) {
	if m == nil {
		return
	}
	m.DocsRemovedTotal.WithLabelValues(policy).Inc()
	m.DocumentCount.Set(float64(documents))
}

// RecordQuery records latency and outcome for one query operation.
func (m *Metrics) RecordQuery(operation, policy string, elapsed time.Duration, results int, err error) {
	if m == nil {
		return
	}
	m.QueryLatency.WithLabelValues(operation, policy).Observe(elapsed.Seconds())
	outcome := "hit"
	switch {
	case err != nil:
		outcome = "error"
	case results == 0:
		outcome = "zero_result"
	}
	m.QueriesTotal.WithLabelValues(operation, policy, outcome).Inc()
	if err == nil && operation == "find_top_documents" {
		m.QueryResultsCount.Observe(float64(results))
	}
}

// RecordWindow publishes the empty-result count of the statistics window.
func (m *Metrics) RecordWindow(emptyResults int) {
	if m == nil {
		return
	}
	m.WindowEmptyResults.Set(float64(emptyResults))
}

// RecordCache counts a cache lookup.
func (m *Metrics) RecordCache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheHitsTotal.Inc()
	} else {
		m.CacheMissesTotal.Inc()
	}
}

// Handler returns the Prometheus scrape HTTP handler for gatherer. A nil
// gatherer serves the default registry.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	if gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

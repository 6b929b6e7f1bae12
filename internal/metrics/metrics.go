// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ProviderRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "citysearch_provider_requests_total",
		Help: "Geocoding provider requests by endpoint",
	}, []string{"endpoint"})
	ProviderFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "citysearch_provider_failures_total",
		Help: "Geocoding provider failures by endpoint and kind",
	}, []string{"endpoint", "kind"})
	ProviderDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "citysearch_provider_duration_ms",
		Help:    "Geocoding provider call duration in milliseconds",
		Buckets: []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
	}, []string{"endpoint"})
	CacheHitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "citysearch_cache_hits_total",
		Help: "Result cache hits by lookup kind",
	}, []string{"kind"})
	CacheMissesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "citysearch_cache_misses_total",
		Help: "Result cache misses by lookup kind",
	}, []string{"kind"})
	EmptyResultsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "citysearch_empty_results_total",
		Help: "Searches that produced no cities (zero matches or failure)",
	})
	StaleResponsesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "citysearch_stale_responses_total",
		Help: "Search responses discarded because a newer query superseded them",
	})
	CircuitTransitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "citysearch_circuit_transitions_total",
		Help: "Provider circuit breaker transitions by target state",
	}, []string{"to"})
)

func init() {
	prometheus.MustRegister(
		ProviderRequestsTotal,
		ProviderFailuresTotal,
		ProviderDurationMs,
		CacheHitsTotal,
		CacheMissesTotal,
		EmptyResultsTotal,
		StaleResponsesTotal,
		CircuitTransitionsTotal,
	)
}

// Handler exposes the default registry for scraping.
func Handler() http.Handler { return promhttp.Handler() }

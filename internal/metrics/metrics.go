// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics defines the Prometheus collectors of the service. All
// recording methods are safe on a nil *Metrics, which records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "search_aggregator"

// Outcome label values.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Metrics holds the collectors and the registry they are registered with.
type Metrics struct {
	registry *prometheus.Registry

	// Searches counts search calls by provider and outcome. The outcome is
	// "ok" or the error taxonomy name.
	Searches *prometheus.CounterVec

	// SearchDuration tracks end-to-end search latency by provider.
	SearchDuration *prometheus.HistogramVec

	// EnrichmentFailures counts failed feature lookups by service.
	EnrichmentFailures *prometheus.CounterVec

	// CacheWrites counts result-set cache writes by outcome.
	CacheWrites *prometheus.CounterVec

	// HTTPRequests counts API requests by route and status code.
	HTTPRequests *prometheus.CounterVec
}

// New creates the collectors on a fresh registry that also carries the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Search calls by provider and outcome.",
		}, []string{"provider", "outcome"}),
		SearchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Time spent serving a search call, enrichment included.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider"}),
		EnrichmentFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enrichment_failures_total",
			Help:      "Failed feature-service lookups by service.",
		}, []string{"service"}),
		CacheWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_writes_total",
			Help:      "Result-set cache writes by outcome.",
		}, []string{"outcome"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "API requests by route pattern and status code.",
		}, []string{"route", "code"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.Searches,
		m.SearchDuration,
		m.EnrichmentFailures,
		m.CacheWrites,
		m.HTTPRequests,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveSearch records one finished search call.
func (m *Metrics) ObserveSearch(provider, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Searches.WithLabelValues(provider, outcome).Inc()
	m.SearchDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
}

// EnrichmentFailure records one failed feature lookup.
func (m *Metrics) EnrichmentFailure(service string) {
	if m == nil {
		return
	}
	m.EnrichmentFailures.WithLabelValues(service).Inc()
}

// CacheWrite records one cache write attempt.
func (m *Metrics) CacheWrite(err error) {
	if m == nil {
		return
	}
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	m.CacheWrites.WithLabelValues(outcome).Inc()
}

// HTTPRequest records one served API request.
func (m *Metrics) HTTPRequest(route, code string) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, code).Inc()
}

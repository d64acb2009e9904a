package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	SearchesTotal      *prometheus.CounterVec
	SuggestionsTotal   prometheus.Counter
	EnrichmentsTotal   *prometheus.CounterVec
	EnrichmentDuration prometheus.Histogram
	StaleMergesTotal   prometheus.Counter
	EnrichmentsRunning prometheus.Gauge

	ProviderRequestsTotal   *prometheus.CounterVec
	ProviderRequestDuration *prometheus.HistogramVec

	WorkspacesActive prometheus.Gauge
}

// New registers all collectors on a fresh registry so several instances can
// live side by side in tests.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		SearchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradewise_searches_total",
				Help: "Total number of searches by outcome",
			},
			[]string{"status"},
		),
		SuggestionsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "tradewise_suggestions_total",
				Help: "Total number of products suggested",
			},
		),
		EnrichmentsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradewise_enrichments_total",
				Help: "Per product enrichment sub-calls by kind and outcome",
			},
			[]string{"kind", "status"},
		),
		EnrichmentDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "tradewise_enrichment_duration_seconds",
				Help:    "Time from task start until both enrichment sub-calls settled",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
			},
		),
		StaleMergesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "tradewise_stale_merges_total",
				Help: "Enrichment results dropped because a newer search replaced their session",
			},
		),
		EnrichmentsRunning: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "tradewise_enrichments_in_flight",
				Help: "Number of per product enrichment tasks currently running",
			},
		),

		ProviderRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradewise_provider_requests_total",
				Help: "Total number of AI provider requests",
			},
			[]string{"operation", "status"},
		),
		ProviderRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tradewise_provider_request_duration_seconds",
				Help:    "AI provider request duration in seconds",
				Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"operation"},
		),

		WorkspacesActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "tradewise_workspaces_active",
				Help: "Number of open browser workspaces",
			},
		),
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the registry backing this instance, for scraping in tests
// or mounting next to other collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// All Record* helpers are safe on a nil receiver so components can run without metrics.

func (m *Metrics) RecordSearch(status string, suggestions int) {
	if m == nil {
		return
	}
	m.SearchesTotal.WithLabelValues(status).Inc()
	m.SuggestionsTotal.Add(float64(suggestions))
}

func (m *Metrics) RecordEnrichment(kind, status string) {
	if m == nil {
		return
	}
	m.EnrichmentsTotal.WithLabelValues(kind, status).Inc()
}

func (m *Metrics) ObserveEnrichment(duration time.Duration) {
	if m == nil {
		return
	}
	m.EnrichmentDuration.Observe(duration.Seconds())
}

func (m *Metrics) RecordStaleMerge() {
	if m == nil {
		return
	}
	m.StaleMergesTotal.Inc()
}

func (m *Metrics) IncEnrichmentsRunning() {
	if m == nil {
		return
	}
	m.EnrichmentsRunning.Inc()
}

func (m *Metrics) DecEnrichmentsRunning() {
	if m == nil {
		return
	}
	m.EnrichmentsRunning.Dec()
}

func (m *Metrics) RecordProviderRequest(operation, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.ProviderRequestsTotal.WithLabelValues(operation, status).Inc()
	m.ProviderRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func (m *Metrics) SetWorkspaces(count int) {
	if m == nil {
		return
	}
	m.WorkspacesActive.Set(float64(count))
}

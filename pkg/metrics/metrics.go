package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of the refresh pipeline.
// nil *Metrics는 no-op (테스트/CLI 단발 실행)
type Metrics struct {
	registry *prometheus.Registry

	sourceFetches     *prometheus.CounterVec
	sourceLatency     *prometheus.HistogramVec
	reconcileWarnings *prometheus.CounterVec
	alertsFired       *prometheus.CounterVec
	refreshDuration   *prometheus.HistogramVec
	httpRequests      *prometheus.CounterVec
}

// Fetch outcomes
const (
	OutcomeOK    = "ok"
	OutcomeEmpty = "empty"
	OutcomeError = "error"
)

// New creates the collectors on a private registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		sourceFetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "stockdash",
				Name:      "source_fetches_total",
				Help:      "Adapter fetches by source and outcome",
			},
			[]string{"source", "outcome"},
		),
		sourceLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "stockdash",
				Name:      "source_fetch_duration_seconds",
				Help:      "Adapter fetch latency",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"source"},
		),
		reconcileWarnings: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "stockdash",
				Name:      "reconcile_warnings_total",
				Help:      "Cross-source discrepancies above tolerance",
			},
			[]string{"metric"},
		),
		alertsFired: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "stockdash",
				Name:      "alerts_fired_total",
				Help:      "Fired alert rules",
			},
			[]string{"rule"},
		),
		refreshDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "stockdash",
				Name:      "refresh_duration_seconds",
				Help:      "End-to-end ticker refresh duration",
				Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"market", "status"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "stockdash",
				Name:      "http_requests_total",
				Help:      "API requests by route and status",
			},
			[]string{"method", "route", "status"},
		),
	}

	m.registry.MustRegister(
		m.sourceFetches,
		m.sourceLatency,
		m.reconcileWarnings,
		m.alertsFired,
		m.refreshDuration,
		m.httpRequests,
		prometheus.NewGoCollector(),
	)

	return m
}

// Registry exposes the underlying registry (tests)
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveFetch records one adapter call
func (m *Metrics) ObserveFetch(source, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.sourceFetches.WithLabelValues(source, outcome).Inc()
	m.sourceLatency.WithLabelValues(source).Observe(d.Seconds())
}

// IncReconcileWarning counts a discrepancy on metric
func (m *Metrics) IncReconcileWarning(metric string) {
	if m == nil {
		return
	}
	m.reconcileWarnings.WithLabelValues(metric).Inc()
}

// IncAlert counts a fired rule
func (m *Metrics) IncAlert(rule string) {
	if m == nil {
		return
	}
	m.alertsFired.WithLabelValues(rule).Inc()
}

// ObserveRefresh records a ticker refresh
func (m *Metrics) ObserveRefresh(market, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.refreshDuration.WithLabelValues(market, status).Observe(d.Seconds())
}

// IncHTTPRequest counts an API request
func (m *Metrics) IncHTTPRequest(method, route, status string) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, status).Inc()
}

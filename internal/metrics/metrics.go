// Package metrics exposes Prometheus collectors for analysis runs.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	RunsTotal      *prometheus.CounterVec   // labels: status
	SymbolsTotal   *prometheus.CounterVec   // labels: outcome
	SignalsTotal   *prometheus.CounterVec   // labels: action
	FetchDuration  *prometheus.HistogramVec // labels: source
	SymbolDuration prometheus.Histogram
	RunDuration    prometheus.Histogram
	LastRun        prometheus.Gauge
	Confidence     prometheus.Histogram
	HTTPRequests   *prometheus.CounterVec // labels: method, route, code
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinel_runs_total",
			Help: "Analysis batches by final status",
		}, []string{"status"}),
		SymbolsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinel_symbols_total",
			Help: "Analyzed symbols by outcome (ok or error kind)",
		}, []string{"outcome"}),
		SignalsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinel_signals_total",
			Help: "Recommendations by action",
		}, []string{"action"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sentinel_fetch_duration_seconds",
			Help:    "Bar source fetch latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"source"}),
		SymbolDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sentinel_symbol_duration_seconds",
			Help:    "Fetch plus analysis latency per symbol",
			Buckets: prometheus.DefBuckets,
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sentinel_run_duration_seconds",
			Help:    "Whole batch latency",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300},
		}),
		LastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sentinel_last_run_timestamp_seconds",
			Help: "Unix time the last batch finished",
		}),
		Confidence: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sentinel_confidence",
			Help:    "Distribution of recommendation confidence",
			Buckets: prometheus.LinearBuckets(0.1, 0.1, 10),
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinel_http_requests_total",
			Help: "API requests by route and status code",
		}, []string{"method", "route", "code"}),
	}
	if reg != nil {
		reg.MustRegister(
			m.RunsTotal, m.SymbolsTotal, m.SignalsTotal, m.FetchDuration,
			m.SymbolDuration, m.RunDuration, m.LastRun, m.Confidence, m.HTTPRequests,
		)
	}
	return m
}

// ObserveFetch records one bar source call.
func (m *Metrics) ObserveFetch(source string, d time.Duration) {
	if m == nil {
		return
	}
	m.FetchDuration.WithLabelValues(source).Observe(d.Seconds())
}

// ObserveSymbol records the outcome of one symbol. outcome is "ok" or an
// error kind.
func (m *Metrics) ObserveSymbol(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.SymbolsTotal.WithLabelValues(outcome).Inc()
	m.SymbolDuration.Observe(d.Seconds())
}

// ObserveSignal records a produced recommendation.
func (m *Metrics) ObserveSignal(action string, confidence float64) {
	if m == nil {
		return
	}
	m.SignalsTotal.WithLabelValues(action).Inc()
	m.Confidence.Observe(confidence)
}

// ObserveRun records a finished batch.
func (m *Metrics) ObserveRun(status string, d time.Duration, finished time.Time) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(status).Inc()
	m.RunDuration.Observe(d.Seconds())
	m.LastRun.Set(float64(finished.Unix()))
}

// ObserveHTTP counts one API request.
func (m *Metrics) ObserveHTTP(method, route string, code int) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
}

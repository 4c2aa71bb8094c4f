// Package telemetry exposes Prometheus metrics for queries and the sync loop.
// Collectors live on a private registry so tests and multiple servers in one
// process do not collide.
package telemetry

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Aman-CERP/dictionary/internal/applier"
	"github.com/Aman-CERP/dictionary/internal/consumer"
	serrors "github.com/Aman-CERP/dictionary/internal/errors"
)

const namespace = "dictionary"

// Latency buckets in seconds, from 1ms to 5s.
var latencyBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5}

// Metrics implements the query, applier and consumer observers.
type Metrics struct {
	registry *prometheus.Registry

	queries        *prometheus.CounterVec
	queryDuration  *prometheus.HistogramVec
	applies        *prometheus.CounterVec
	applyDuration  *prometheus.HistogramVec
	records        *prometheus.CounterVec
	pollErrors     *prometheus.CounterVec
	requests       *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
}

// New creates and registers every collector, plus the Go runtime and process
// collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "query",
			Name:      "total",
			Help:      "Read queries by kind, operation and result.",
		}, []string{"kind", "op", "result"}),
		queryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "query",
			Name:      "duration_seconds",
			Buckets:   latencyBuckets,
		}, []string{"kind", "op"}),
		applies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "apply_total",
			Help:      "Applied events by kind, action and result.",
		}, []string{"kind", "action", "result"}),
		applyDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "apply_duration_seconds",
			Buckets:   latencyBuckets,
		}, []string{"kind", "action"}),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "records_total",
			Help:      "Queue records by topic and outcome.",
		}, []string{"topic", "outcome"}),
		pollErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "poll_errors_total",
		}, []string{"code"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
		}, []string{"route", "status"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Buckets:   latencyBuckets,
		}, []string{"route"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.queries, m.queryDuration,
		m.applies, m.applyDuration,
		m.records, m.pollErrors,
		m.requests, m.requestLatency,
	)
	return m
}

// WatchBreaker exports the state and consecutive failure count of cb.
// State is 0 closed, 1 open, 2 half-open.
func (m *Metrics) WatchBreaker(cb *serrors.CircuitBreaker) {
	labels := prometheus.Labels{"breaker": cb.Name()}
	m.registry.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   namespace,
			Subsystem:   "breaker",
			Name:        "state",
			Help:        "Circuit breaker state: 0 closed, 1 open, 2 half-open.",
			ConstLabels: labels,
		}, func() float64 { return float64(cb.State()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   namespace,
			Subsystem:   "breaker",
			Name:        "consecutive_failures",
			ConstLabels: labels,
		}, func() float64 { return float64(cb.Failures()) }),
	)
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveQuery implements query.Observer.
func (m *Metrics) ObserveQuery(kind, op string, d time.Duration, err error) {
	m.queries.WithLabelValues(kind, op, result(err)).Inc()
	m.queryDuration.WithLabelValues(kind, op).Observe(d.Seconds())
}

// ObserveApply implements applier.Observer.
func (m *Metrics) ObserveApply(kind string, action applier.Action, d time.Duration, err error) {
	m.applies.WithLabelValues(kind, string(action), result(err)).Inc()
	m.applyDuration.WithLabelValues(kind, string(action)).Observe(d.Seconds())
}

// ObserveRecord implements consumer.Observer.
func (m *Metrics) ObserveRecord(topic string, outcome consumer.Outcome) {
	m.records.WithLabelValues(topic, string(outcome)).Inc()
}

// ObservePollError implements consumer.Observer.
func (m *Metrics) ObservePollError(err error) {
	code := serrors.GetCode(err)
	if code == "" {
		code = "unknown"
	}
	m.pollErrors.WithLabelValues(code).Inc()
}

// ObserveRequest records one HTTP request against its route pattern.
func (m *Metrics) ObserveRequest(route string, status int, d time.Duration) {
	m.requests.WithLabelValues(route, statusClass(status)).Inc()
	m.requestLatency.WithLabelValues(route).Observe(d.Seconds())
}

func result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, serrors.ErrCircuitOpen):
		return "circuit_open"
	default:
		return "error"
	}
}

// statusClass collapses a status code to 2xx, 4xx or 5xx.
func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}

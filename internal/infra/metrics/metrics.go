// Package metrics exposes the Prometheus collectors of the service.
package metrics

import (
	"database/sql"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "erp"

// Rotation results.
const (
	RotationRotated    = "rotated"
	RotationReused     = "reused"
	RotationSuperseded = "superseded"
	RotationFailed     = "failed"
)

// Login results.
const (
	LoginSucceeded    = "succeeded"
	LoginRejected     = "rejected"
	LoginLimited      = "session_limit"
	LoginThrottled    = "throttled"
	LoginStoreFailure = "store_failure"
)

// AuthMetrics counts what the authentication stack decides. A nil *AuthMetrics records nothing.
type AuthMetrics struct {
	registry *prometheus.Registry

	gateOutcomes *prometheus.CounterVec
	rotations    *prometheus.CounterVec
	tamperEvents prometheus.Counter
	logins       *prometheus.CounterVec
	events       *prometheus.CounterVec
	dropped      prometheus.Counter

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New registers every collector on a private registry together with the Go and process collectors.
func New() *AuthMetrics {
	m := &AuthMetrics{
		registry: prometheus.NewRegistry(),
		gateOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_gate_outcomes_total",
			Help:      "Authentication gate decisions by outcome.",
		}, []string{"outcome"}),
		rotations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_token_rotations_total",
			Help:      "Refresh attempts by result.",
		}, []string{"result"}),
		tamperEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_tamper_events_total",
			Help:      "Session carriers or tokens rejected as tampered.",
		}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_logins_total",
			Help:      "Login attempts by result.",
		}, []string{"result"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "security_events_total",
			Help:      "Security events received by the audit consumer.",
		}, []string{"type"}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "security_events_dropped_total",
			Help:      "Security events discarded because the publish queue was full.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latencies in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.gateOutcomes,
		m.rotations,
		m.tamperEvents,
		m.logins,
		m.events,
		m.dropped,
		m.httpRequests,
		m.httpDuration,
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *AuthMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *AuthMetrics) GateOutcome(outcome string) {
	if m == nil {
		return
	}
	m.gateOutcomes.WithLabelValues(outcome).Inc()
}

func (m *AuthMetrics) Rotation(result string) {
	if m == nil {
		return
	}
	m.rotations.WithLabelValues(result).Inc()
}

func (m *AuthMetrics) Tampered() {
	if m == nil {
		return
	}
	m.tamperEvents.Inc()
}

func (m *AuthMetrics) Login(result string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(result).Inc()
}

func (m *AuthMetrics) SecurityEvent(eventType string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(eventType).Inc()
}

func (m *AuthMetrics) SecurityEventDropped() {
	if m == nil {
		return
	}
	m.dropped.Inc()
}

// RegisterDBStats exports the pool statistics of db under the given name.
func (m *AuthMetrics) RegisterDBStats(name string, db *sql.DB) {
	if m == nil || db == nil {
		return
	}
	m.registry.MustRegister(collectors.NewDBStatsCollector(db, name))
}

// ObserveRequest records one served HTTP request. route is the registered path pattern.
func (m *AuthMetrics) ObserveRequest(method, route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, status).Inc()
	m.httpDuration.WithLabelValues(method, route, status).Observe(seconds)
}

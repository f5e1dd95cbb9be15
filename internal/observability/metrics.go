package observability

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the prometheus collectors for the client core and the portal.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	clientRequests *prometheus.CounterVec
	clientRetries  *prometheus.CounterVec
	authRejections *prometheus.CounterVec
	guardDecisions *prometheus.CounterVec
	portalRequests *prometheus.CounterVec
}

// NewMetrics registers every collector on a dedicated registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		clientRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hready_client_requests_total",
				Help: "Backend API calls by endpoint and outcome code.",
			},
			[]string{"endpoint", "outcome"},
		),
		clientRetries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hready_client_retries_total",
				Help: "Retries issued after a transient failure.",
			},
			[]string{"endpoint"},
		),
		authRejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hready_client_auth_rejections_total",
				Help: "401/403 responses by classification.",
			},
			[]string{"classification"},
		),
		guardDecisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hready_guard_decisions_total",
				Help: "Route guard outcomes.",
			},
			[]string{"state"},
		),
		portalRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hready_portal_requests_total",
				Help: "Portal HTTP requests by method and status.",
			},
			[]string{"method", "status"},
		),
	}
	m.registry.MustRegister(m.clientRequests, m.clientRetries, m.authRejections, m.guardDecisions, m.portalRequests)
	return m
}

// RecordClientRequest counts one logical backend call.
func (m *Metrics) RecordClientRequest(endpoint, outcome string) {
	if m == nil {
		return
	}
	m.clientRequests.WithLabelValues(endpoint, outcome).Inc()
}

// RecordRetry counts one retry attempt.
func (m *Metrics) RecordRetry(endpoint string) {
	if m == nil {
		return
	}
	m.clientRetries.WithLabelValues(endpoint).Inc()
}

// RecordAuthRejection counts a 401/403 by its classification.
func (m *Metrics) RecordAuthRejection(classification string) {
	if m == nil {
		return
	}
	m.authRejections.WithLabelValues(classification).Inc()
}

// RecordGuardDecision counts a resolved route guard.
func (m *Metrics) RecordGuardDecision(state string) {
	if m == nil {
		return
	}
	m.guardDecisions.WithLabelValues(state).Inc()
}

// RecordRequest counts a portal request.
func (m *Metrics) RecordRequest(method string, status int) {
	if m == nil {
		return
	}
	m.portalRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

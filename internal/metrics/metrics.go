// Package metrics defines the service's Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors, registered on their own registry so tests
// can build independent instances.
type Metrics struct {
	registry *prometheus.Registry

	requests    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	emails      *prometheus.CounterVec
	emailEvents *prometheus.CounterVec
}

// New creates and registers all collectors, plus the Go runtime and process
// collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by route, method, and status.",
		}, []string{"route", "method", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		emails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "invite_emails_total",
			Help: "Invite email dispatch outcomes.",
		}, []string{"result"}),
		emailEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "email_events_total",
			Help: "Delivery events received from the mail relay.",
		}, []string{"type"}),
	}

	m.registry.MustRegister(
		m.requests,
		m.duration,
		m.emails,
		m.emailEvents,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveRequest records one completed HTTP request.
func (m *Metrics) ObserveRequest(route, method string, status int, d time.Duration) {
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(route).Observe(d.Seconds())
}

// InviteEmail records an invite email outcome: sent, failed, or skipped
// (no mailer configured).
func (m *Metrics) InviteEmail(result string) {
	m.emails.WithLabelValues(result).Inc()
}

// EmailEvent records a delivery event from the mail relay.
func (m *Metrics) EmailEvent(eventType string) {
	m.emailEvents.WithLabelValues(eventType).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Package metrics instruments chat request handling with Prometheus
// collectors, served on /api/metrics in the exposition text format.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the chat collectors with their registry so each composition
// (and each test) gets an isolated metric space.
type Metrics struct {
	registry *prometheus.Registry

	// Requests counts handled chat turns by owning agent and HTTP status.
	Requests *prometheus.CounterVec
	// Latency observes end-to-end /chat turn duration in seconds.
	Latency prometheus.Histogram
}

// New creates the registry and registers the chat collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	return &Metrics{
		registry: registry,
		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "chat_requests_total",
			Help: "Total chat requests handled.",
		}, []string{"agent", "status"}),
		Latency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "chat_request_seconds",
			Help:    "Latency of chat requests in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveTurn records one completed turn: the counter by agent/status and the
// latency since start.
func (m *Metrics) ObserveTurn(agent, status string, start time.Time) {
	m.Requests.WithLabelValues(agent, status).Inc()
	m.Latency.Observe(time.Since(start).Seconds())
}

// ObserveRejected records a turn that failed before reaching an agent.
func (m *Metrics) ObserveRejected(status string, start time.Time) {
	m.ObserveTurn("error", status, start)
}

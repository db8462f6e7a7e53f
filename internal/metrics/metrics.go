// Package metrics provides Prometheus metrics for the dashboard client.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Fetch label values.
const (
	EndpointStats  = "stats"
	EndpointTokens = "tokens"

	ResultSuccess    = "success"
	ResultAppFailure = "app_failure"
	ResultTransport  = "transport_failure"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	registry *prometheus.Registry

	// Dispatcher metrics
	EventsDispatched *prometheus.CounterVec
	DispatchLatency  prometheus.Histogram

	// Fetch metrics
	Fetches       *prometheus.CounterVec
	FetchDuration *prometheus.HistogramVec

	// Banner metrics
	Notices *prometheus.CounterVec

	// Push channel metrics
	PushConnected  prometheus.Gauge
	PushReconnects prometheus.Counter

	// Session metrics
	TokensHeld prometheus.Gauge
}

// NewMetrics creates a Metrics instance registered on its own registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "tokendash"
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		EventsDispatched: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatcher",
			Name:      "events_dispatched_total",
			Help:      "Total number of events applied by the dispatcher",
		}, []string{"event"}),
		DispatchLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "dispatcher",
			Name:      "apply_duration_seconds",
			Help:      "Time spent applying one event, render included",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1},
		}),

		Fetches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "fetches_total",
			Help:      "Total number of backend fetches by endpoint and result",
		}, []string{"endpoint", "result"}),
		FetchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "duration_seconds",
			Help:      "Backend fetch latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),

		Notices: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "banner",
			Name:      "notices_total",
			Help:      "Total number of banner notices shown",
		}, []string{"kind"}),

		PushConnected: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "push",
			Name:      "connected",
			Help:      "1 while the push channel is connected",
		}),
		PushReconnects: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "push",
			Name:      "reconnects_total",
			Help:      "Total number of times the push channel connected again after the first connect",
		}),

		TokensHeld: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "tokens_held",
			Help:      "Number of token records held by the session",
		}),
	}
}

// Registry returns the registry backing these metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// SetPushConnected records the push channel state.
func (m *Metrics) SetPushConnected(connected bool) {
	if connected {
		m.PushConnected.Set(1)
		return
	}
	m.PushConnected.Set(0)
}

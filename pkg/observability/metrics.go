package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the engine collectors.
type Metrics struct {
	events      *prometheus.CounterVec
	throttled   *prometheus.CounterVec
	transitions *prometheus.CounterVec
	recipes     *prometheus.CounterVec
	failures    prometheus.Counter
	queueDepth  prometheus.Gauge

	gatherer prometheus.Gatherer
}

// NewMetrics creates the collectors and registers them on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cooknet_events_total",
				Help: "Inbound chat events by kind",
			},
			[]string{"kind"},
		),
		throttled: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cooknet_throttled_total",
				Help: "Actions rejected by the debounce guard",
			},
			[]string{"namespace"},
		),
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cooknet_transitions_total",
				Help: "Submission state machine transitions",
			},
			[]string{"from", "to"},
		),
		recipes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cooknet_recipes_total",
				Help: "Recipe persistence attempts by result",
			},
			[]string{"result"},
		),
		failures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cooknet_dispatch_failures_total",
				Help: "Events whose processing panicked or errored",
			},
		),
		queueDepth: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "cooknet_queue_depth",
				Help: "Events waiting in the dispatch queue",
			},
		),
		gatherer: reg,
	}
	reg.MustRegister(m.events, m.throttled, m.transitions, m.recipes, m.failures, m.queueDepth)
	reg.MustRegister(collectors.NewGoCollector())
	return m
}

// Handler exposes the registry over HTTP.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Gatherer returns the registry, mainly for tests.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.gatherer
}

func (m *Metrics) Event(kind string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(kind).Inc()
}

func (m *Metrics) Throttled(namespace string) {
	if m == nil {
		return
	}
	m.throttled.WithLabelValues(namespace).Inc()
}

func (m *Metrics) Transition(from, to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(from, to).Inc()
}

func (m *Metrics) RecipeSaved() {
	if m == nil {
		return
	}
	m.recipes.WithLabelValues("saved").Inc()
}

func (m *Metrics) RecipeFailed() {
	if m == nil {
		return
	}
	m.recipes.WithLabelValues("failed").Inc()
}

func (m *Metrics) DispatchFailure() {
	if m == nil {
		return
	}
	m.failures.Inc()
}

func (m *Metrics) QueueDepth(n int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(n))
}

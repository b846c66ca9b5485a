// Package metrics exposes negotiation counters for Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	started            prometheus.Counter
	completed          prometheus.Counter
	aborted            prometheus.Counter
	offers             *prometheus.CounterVec
	generationFailures *prometheus.CounterVec
	duration           prometheus.Histogram
}

// New creates the collectors on a private registry so tests can build as
// many instances as they like.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		started: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "clawfin",
			Name:      "negotiations_started_total",
			Help:      "Negotiations started from a trigger message.",
		}),
		completed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "clawfin",
			Name:      "negotiations_completed_total",
			Help:      "Negotiations that reached a final summary.",
		}),
		aborted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "clawfin",
			Name:      "negotiations_aborted_total",
			Help:      "Negotiations that stopped before a final summary.",
		}),
		offers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clawfin",
			Name:      "offers_captured_total",
			Help:      "Seller offers captured from chat messages.",
		}, []string{"seller"}),
		generationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clawfin",
			Name:      "generation_failures_total",
			Help:      "Failed language model calls.",
		}, []string{"role"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "clawfin",
			Name:      "negotiation_duration_seconds",
			Help:      "Wall time from trigger to final summary.",
			Buckets:   []float64{5, 10, 20, 30, 60, 120, 300},
		}),
	}
	m.registry.MustRegister(m.started, m.completed, m.aborted, m.offers, m.generationFailures, m.duration,
		prometheus.NewGoCollector())
	return m
}

// All methods accept a nil receiver so callers can run without metrics.

func (m *Metrics) NegotiationStarted() {
	if m != nil {
		m.started.Inc()
	}
}

func (m *Metrics) NegotiationCompleted(elapsed time.Duration) {
	if m != nil {
		m.completed.Inc()
		m.duration.Observe(elapsed.Seconds())
	}
}

func (m *Metrics) NegotiationAborted() {
	if m != nil {
		m.aborted.Inc()
	}
}

func (m *Metrics) OfferCaptured(seller string) {
	if m != nil {
		m.offers.WithLabelValues(seller).Inc()
	}
}

func (m *Metrics) GenerationFailed(role string) {
	if m != nil {
		m.generationFailures.WithLabelValues(role).Inc()
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

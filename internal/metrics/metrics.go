// Package metrics exposes Prometheus collectors for the dispatch engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the dispatch-level Prometheus collectors.
type Metrics struct {
	attempts   *prometheus.CounterVec
	dispatches *prometheus.CounterVec
	duration   prometheus.Histogram
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		attempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "relay_provider_attempts_total",
			Help: "Provider attempts by outcome (success, retryable, unavailable, fatal).",
		}, []string{"provider", "outcome"}),
		dispatches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "relay_dispatch_total",
			Help: "Dispatch calls by terminal state (succeeded, exhausted).",
		}, []string{"state"}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "relay_dispatch_duration_seconds",
			Help:    "End-to-end dispatch duration including failed attempts.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
	}
}

// RecordAttempt counts one provider attempt with its outcome label.
func (m *Metrics) RecordAttempt(provider, outcome string) {
	if m == nil {
		return
	}
	m.attempts.WithLabelValues(provider, outcome).Inc()
}

// RecordDispatch counts one terminal dispatch state and its duration.
func (m *Metrics) RecordDispatch(state string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.dispatches.WithLabelValues(state).Inc()
	m.duration.Observe(elapsed.Seconds())
}

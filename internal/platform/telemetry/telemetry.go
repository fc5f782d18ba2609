package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the workflow counters.
type Metrics struct {
	Registrations *prometheus.CounterVec
	Submissions   prometheus.Counter
	Reviews       prometheus.Counter
	Completions   prometheus.Counter
	Failures      *prometheus.CounterVec
	PendingQueue  prometheus.Gauge
}

// NewMetrics creates the workflow metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	m := &Metrics{
		Registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registrations_total",
			Help:      "Total number of registered profiles by role",
		}, []string{"role"}),
		Submissions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "consultation_submissions_total",
			Help:      "Total number of accepted consultation submissions",
		}),
		Reviews: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "consultation_reviews_total",
			Help:      "Total number of consultation reviews served",
		}),
		Completions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "consultation_completions_total",
			Help:      "Total number of completed consultations",
		}),
		Failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "consultation_failures_total",
			Help:      "Failed workflow operations by operation name",
		}, []string{"operation"}),
		PendingQueue: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "consultation_pending",
			Help:      "Number of submissions awaiting review",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Registrations, m.Submissions, m.Reviews, m.Completions, m.Failures, m.PendingQueue)
	}
	return m
}

// Noop returns unregistered metrics, for tests and tools.
func Noop() *Metrics {
	return NewMetrics(nil, "healthtrack")
}

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for onboarding sessions.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	SessionsStarted    prometheus.Counter
	SessionOutcomes    *prometheus.CounterVec
	RemoteCallDuration *prometheus.HistogramVec
	AdapterCompletions *prometheus.CounterVec
}

// New registers all metrics with the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers all metrics with reg.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		SessionsStarted: f.NewCounter(prometheus.CounterOpts{
			Name: "onboarding_sessions_started_total",
			Help: "Total number of onboarding sessions started",
		}),
		SessionOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "onboarding_session_outcomes_total",
			Help: "Terminal onboarding outcomes reported to the host",
		}, []string{"outcome"}),
		RemoteCallDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "onboarding_remote_call_duration_seconds",
			Help:    "Duration of backend calls by operation",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 8, 15},
		}, []string{"operation", "result"}),
		AdapterCompletions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "onboarding_adapter_completions_total",
			Help: "Adapter sessions completed by the device, by adapter and outcome",
		}, []string{"adapter", "outcome"}),
	}
}

func (m *Metrics) IncrementSessionsStarted() {
	if m == nil {
		return
	}
	m.SessionsStarted.Inc()
}

func (m *Metrics) IncrementOutcome(outcome string) {
	if m == nil {
		return
	}
	m.SessionOutcomes.WithLabelValues(outcome).Inc()
}

// ObserveRemoteCall records a backend call that began at start.
func (m *Metrics) ObserveRemoteCall(operation string, start time.Time, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.RemoteCallDuration.WithLabelValues(operation, result).Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncrementAdapterCompletion(adapter, outcome string) {
	if m == nil {
		return
	}
	m.AdapterCompletions.WithLabelValues(adapter, outcome).Inc()
}

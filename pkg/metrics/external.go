package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ExternalCallMetrics records outcomes for upstream collaborators (weather,
// llm, geocode, persistence).
type ExternalCallMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
}

// NewExternalCallMetrics registers the collaborator metrics on the provided
// registerer.
func NewExternalCallMetrics(reg prometheus.Registerer) *ExternalCallMetrics {
	if reg == nil {
		return &ExternalCallMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "external_call_duration_seconds",
		Help:    "Duration of external collaborator calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"collaborator"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "external_call_success",
		Help: "Successful external collaborator calls.",
	}, []string{"collaborator"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "external_call_failure",
		Help: "Failed external collaborator calls.",
	}, []string{"collaborator"})
	reg.MustRegister(duration, success, failure)
	return &ExternalCallMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
	}
}

// ObserveDuration records the duration for the named collaborator.
func (m *ExternalCallMetrics) ObserveDuration(collaborator string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(collaborator)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named collaborator.
func (m *ExternalCallMetrics) IncSuccess(collaborator string) {
	if m == nil || m.success == nil {
		return
	}
	m.success.WithLabelValues(normalizeLabel(collaborator)).Inc()
}

// IncFailure increments the failure counter for the named collaborator.
func (m *ExternalCallMetrics) IncFailure(collaborator string) {
	if m == nil || m.failure == nil {
		return
	}
	m.failure.WithLabelValues(normalizeLabel(collaborator)).Inc()
}

func normalizeLabel(name string) string {
	if name == "" {
		return "unknown"
	}
	return name
}

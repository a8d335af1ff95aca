package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Resolution outcomes recorded for every account resolution cycle.
const (
	OutcomeRegistered   = "registered"
	OutcomeUnregistered = "unregistered"
	OutcomeAnonymous    = "anonymous"
	OutcomeError        = "error"
	OutcomeStale        = "stale"
)

// ResolutionMetrics records account resolution cycles.
type ResolutionMetrics struct {
	duration *prometheus.HistogramVec
	outcomes *prometheus.CounterVec
}

// NewResolutionMetrics registers the resolution metrics on the provided registerer.
func NewResolutionMetrics(reg prometheus.Registerer) *ResolutionMetrics {
	if reg == nil {
		return &ResolutionMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "account_resolution_duration_seconds",
		Help:    "Duration of account resolution cycles in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "account_resolution_total",
		Help: "Account resolution cycles by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(duration, outcomes)
	return &ResolutionMetrics{
		duration: duration,
		outcomes: outcomes,
	}
}

// Observe records one finished cycle.
func (m *ResolutionMetrics) Observe(outcome string, duration time.Duration) {
	if m == nil || m.outcomes == nil {
		return
	}
	outcome = normalizeLabel(outcome)
	m.outcomes.WithLabelValues(outcome).Inc()
	m.duration.WithLabelValues(outcome).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}

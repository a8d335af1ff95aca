package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RPCMetrics records calls made to the marketplace backend.
type RPCMetrics struct {
	duration *prometheus.HistogramVec
	calls    *prometheus.CounterVec
}

// NewRPCMetrics registers the backend call metrics on the provided registerer.
func NewRPCMetrics(reg prometheus.Registerer) *RPCMetrics {
	if reg == nil {
		return &RPCMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "backend_rpc_duration_seconds",
		Help:    "Duration of backend calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})
	calls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "backend_rpc_total",
		Help: "Backend calls by method and outcome.",
	}, []string{"method", "outcome"})
	reg.MustRegister(duration, calls)
	return &RPCMetrics{
		duration: duration,
		calls:    calls,
	}
}

// Observe records a single backend call. outcome is "ok", "transport" or the backend error variant.
func (m *RPCMetrics) Observe(method, outcome string, duration time.Duration) {
	if m == nil || m.calls == nil {
		return
	}
	method = normalizeLabel(method)
	m.calls.WithLabelValues(method, normalizeLabel(outcome)).Inc()
	m.duration.WithLabelValues(method).Observe(duration.Seconds())
}

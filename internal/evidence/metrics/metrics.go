package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for collaborator calls.
type Metrics struct {
	CallLatency  *prometheus.HistogramVec
	CallOutcome  *prometheus.CounterVec
	CircuitState *prometheus.GaugeVec
}

// New creates and registers the collaborator metrics.
func New() *Metrics {
	return &Metrics{
		CallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "verity_collaborator_call_duration_seconds",
			Help:    "Duration of collaborator calls by collaborator",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		}, []string{"collaborator"}),

		CallOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "verity_collaborator_calls_total",
			Help: "Collaborator calls by collaborator and outcome (ok or a failure category)",
		}, []string{"collaborator", "outcome"}),

		CircuitState: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "verity_collaborator_circuit_open",
			Help: "1 when the collaborator circuit is open",
		}, []string{"collaborator"}),
	}
}

// ObserveCall records the latency and outcome of one call.
func (m *Metrics) ObserveCall(collaborator, outcome string, d time.Duration) {
	if m != nil {
		m.CallLatency.WithLabelValues(collaborator).Observe(d.Seconds())
		m.CallOutcome.WithLabelValues(collaborator, outcome).Inc()
	}
}

// SetCircuitOpen records the circuit state.
func (m *Metrics) SetCircuitOpen(collaborator string, open bool) {
	if m != nil {
		v := 0.0
		if open {
			v = 1
		}
		m.CircuitState.WithLabelValues(collaborator).Set(v)
	}
}

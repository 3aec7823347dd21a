package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the application lifecycle.
type Metrics struct {
	ApplicationsStarted prometheus.Counter
	Transitions         *prometheus.CounterVec
	CompositeScore      prometheus.Histogram
	EvidenceLatency     *prometheus.HistogramVec
	DecisionLatency     prometheus.Histogram
	EvidenceFallbacks   *prometheus.CounterVec
}

// New creates and registers the lifecycle metrics.
func New() *Metrics {
	return &Metrics{
		ApplicationsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "verity_kyc_applications_started_total",
			Help: "Total number of KYC applications started",
		}),

		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "verity_kyc_transitions_total",
			Help: "Application status transitions by target status",
		}, []string{"status"}),

		CompositeScore: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "verity_kyc_composite_score",
			Help:    "Distribution of composite trust scores at decision time",
			Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		}),

		EvidenceLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "verity_kyc_evidence_duration_seconds",
			Help:    "Duration of biometric evidence resolution by source",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		}, []string{"source"}), // source: "visual_age", "liveness"

		DecisionLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "verity_kyc_decision_duration_seconds",
			Help:    "Duration of biometric submission including evidence gathering and scoring",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		}),

		EvidenceFallbacks: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "verity_kyc_evidence_fallbacks_total",
			Help: "Evidence resolutions that degraded to a fallback value, by source",
		}, []string{"source"}),
	}
}

func (m *Metrics) IncrementStarted() {
	if m != nil {
		m.ApplicationsStarted.Inc()
	}
}

func (m *Metrics) IncrementTransition(status string) {
	if m != nil {
		m.Transitions.WithLabelValues(status).Inc()
	}
}

func (m *Metrics) ObserveCompositeScore(score int) {
	if m != nil {
		m.CompositeScore.Observe(float64(score))
	}
}

func (m *Metrics) ObserveEvidenceLatency(source string, d time.Duration) {
	if m != nil {
		m.EvidenceLatency.WithLabelValues(source).Observe(d.Seconds())
	}
}

func (m *Metrics) ObserveDecisionLatency(d time.Duration) {
	if m != nil {
		m.DecisionLatency.Observe(d.Seconds())
	}
}

func (m *Metrics) IncrementFallback(source string) {
	if m != nil {
		m.EvidenceFallbacks.WithLabelValues(source).Inc()
	}
}

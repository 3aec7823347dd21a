package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts stateless analysis outcomes.
type Metrics struct {
	RecordsAnalyzed   prometheus.Counter
	SyntheticDetected prometheus.Counter
	RulesTriggered    *prometheus.CounterVec
	UnifiedScores     *prometheus.HistogramVec
}

func New() *Metrics {
	return &Metrics{
		RecordsAnalyzed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "verity_analysis_records_total",
			Help: "Total number of identity records analysed",
		}),
		SyntheticDetected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "verity_analysis_synthetic_total",
			Help: "Records flagged as synthetic identities",
		}),
		RulesTriggered: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "verity_analysis_rules_triggered_total",
			Help: "Correlation rule hits by rule family",
		}, []string{"rule"}),
		UnifiedScores: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "verity_analysis_unified_score",
			Help:    "Composite scores returned by unified analysis, by behavior source",
			Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		}, []string{"behavior_source"}),
	}
}

func (m *Metrics) ObserveAnalysis(synthetic bool, ruleFamilies []string) {
	if m == nil {
		return
	}
	m.RecordsAnalyzed.Inc()
	if synthetic {
		m.SyntheticDetected.Inc()
	}
	for _, rule := range ruleFamilies {
		m.RulesTriggered.WithLabelValues(rule).Inc()
	}
}

func (m *Metrics) ObserveUnified(score int, behaviorSource string) {
	if m != nil {
		m.UnifiedScores.WithLabelValues(behaviorSource).Observe(float64(score))
	}
}

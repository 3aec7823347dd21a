package behavior

// Summary carries coarse telemetry statistics sent by clients that could not
// capture a full event stream.
type Summary struct {
	Velocity     *float64 `json:"velocity,omitempty"`
	AvgKeystroke *float64 `json:"avgKeystroke,omitempty"`
}

// Present reports whether any summary statistic was supplied.
func (s Summary) Present() bool {
	return s.Velocity != nil || s.AvgKeystroke != nil
}

// ScoreSummary applies the coarse fallback heuristic and returns a 0..100 risk.
func ScoreSummary(s Summary) int {
	risk := 0
	if s.Velocity != nil && (*s.Velocity == 0 || *s.Velocity > summaryMaxVelocity) {
		risk += summaryVelocityPenalty
	}
	if s.AvgKeystroke != nil && *s.AvgKeystroke < summaryKeystrokeFloorMs {
		risk += summaryKeystrokePenalty
	}
	return min(risk, maxSyntheticRiskScore)
}

package behavior

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type ScorerSuite struct {
	suite.Suite
}

func TestScorerSuite(t *testing.T) {
	suite.Run(t, new(ScorerSuite))
}

func f(v float64) *float64 { return &v }

func keydowns(field string, timestamps ...float64) []Event {
	out := make([]Event, 0, len(timestamps))
	for _, ts := range timestamps {
		out = append(out, Event{Type: EventKeyDown, Timestamp: ts, FieldID: field})
	}
	return out
}

func moves(start float64, points ...[2]float64) []Event {
	out := make([]Event, 0, len(points))
	for i, p := range points {
		out = append(out, Event{Type: EventMouseMove, Timestamp: start + float64(i)*50, X: f(p[0]), Y: f(p[1])})
	}
	return out
}

func humanKeystrokes() []Event {
	return keydowns("name", 1000, 1120, 1300, 1395, 1605, 1755, 1885)
}

func humanMouse() []Event {
	return moves(0, [2]float64{0, 0}, [2]float64{100, 20}, [2]float64{150, 120}, [2]float64{90, 200}, [2]float64{20, 150}, [2]float64{60, 60})
}

func (s *ScorerSuite) penaltyCodes(r Result) []string {
	codes := make([]string, 0, len(r.Details.Penalties))
	for _, p := range r.Details.Penalties {
		codes = append(codes, p.Code)
	}
	return codes
}

// =============================================================================
// Neutral and clean sessions
// =============================================================================

func (s *ScorerSuite) TestEmptyTelemetryIsNeutral() {
	r := Score(nil)
	s.Equal(NeutralRisk, r.SyntheticRiskScore)
	s.Equal(0.5, r.BehaviorScore)
	s.False(r.Details.TelemetryPresent)
	s.Empty(r.Details.Penalties)
}

func (s *ScorerSuite) TestHumanSessionHasNoPenalties() {
	events := append(humanKeystrokes(), humanMouse()...)
	r := Score(events)

	s.True(r.Details.TelemetryPresent)
	s.Empty(r.Details.Penalties)
	s.Equal(0, r.SyntheticRiskScore)
	s.Equal(1.0, r.BehaviorScore)
	s.InDelta(140.0, r.Details.MedianKeyInterval.Value, 1e-9)
	s.True(r.Details.MouseDirectionEntropy.Calculated)
	s.Greater(r.Details.MouseDirectionEntropy.Value, 2.0)
	s.True(r.Details.MousePathEfficiency.Calculated)
	s.LessOrEqual(r.Details.MousePathEfficiency.Value, 1.0)
}

// =============================================================================
// Penalties
// =============================================================================

func (s *ScorerSuite) TestBotSessionIsCapped() {
	events := keydowns("name", 0, 10, 20, 30, 40, 50)
	events = append(events,
		Event{Type: EventPaste, Timestamp: 60, FieldID: "name"},
		Event{Type: EventPaste, Timestamp: 70, FieldID: "email"},
		Event{Type: EventPaste, Timestamp: 80, FieldID: "email"},
	)

	r := Score(events)
	s.ElementsMatch([]string{"keystroke_floor", "keystroke_uniform", "no_mouse", "paste_name", "paste_email"}, s.penaltyCodes(r))
	s.Equal(100, r.SyntheticRiskScore)
	s.Equal(0.0, r.BehaviorScore)
	s.Equal([]string{"name", "email"}, r.Details.PastedFields)
}

func (s *ScorerSuite) TestLinearMousePath() {
	points := make([][2]float64, 0, 10)
	for i := range 10 {
		points = append(points, [2]float64{float64(i * 20), 100})
	}
	events := append(humanKeystrokes(), moves(0, points...)...)

	r := Score(events)
	s.Equal([]string{"linear_path"}, s.penaltyCodes(r))
	s.Equal(20, r.SyntheticRiskScore)
	s.InDelta(0.8, r.BehaviorScore, 1e-9)
	s.Equal(0.0, r.Details.MouseDirectionEntropy.Value)
	s.InDelta(1.0, r.Details.MousePathEfficiency.Value, 1e-9)
}

func (s *ScorerSuite) TestLowMovement() {
	events := append(humanKeystrokes(), moves(0, [2]float64{10, 10}, [2]float64{15, 10}, [2]float64{15, 15})...)

	r := Score(events)
	s.Equal([]string{"low_movement"}, s.penaltyCodes(r))
	s.InDelta(10.0, r.Details.MousePathLength.Value, 1e-9)
	s.False(r.Details.MouseDirectionEntropy.Calculated)
}

func (s *ScorerSuite) TestPasteOnNonIdentityFieldIgnored() {
	events := append(humanKeystrokes(), humanMouse()...)
	events = append(events, Event{Type: EventPaste, Timestamp: 3000, FieldID: "phone"})

	r := Score(events)
	s.Empty(r.Details.Penalties)
	s.Empty(r.Details.PastedFields)
}

func (s *ScorerSuite) TestKeystrokeIntervalsArePerField() {
	events := []Event{
		{Type: EventKeyDown, Timestamp: 0, FieldID: "name"},
		{Type: EventKeyDown, Timestamp: 10, FieldID: "email"},
		{Type: EventKeyDown, Timestamp: 200, FieldID: "name"},
		{Type: EventKeyDown, Timestamp: 210, FieldID: "email"},
		{Type: EventKeyUp, Timestamp: 215, FieldID: "email"},
	}
	s.Equal([]float64{200, 200}, keystrokeIntervals(events))
}

func (s *ScorerSuite) TestTooFewIntervalsSkipKeystrokeChecks() {
	events := append(keydowns("name", 0, 5, 10), humanMouse()...)

	r := Score(events)
	s.Empty(r.Details.Penalties)
	s.False(r.Details.MedianKeyInterval.Calculated)
	s.Equal(2, r.Details.KeystrokeIntervals)
}

func (s *ScorerSuite) TestUnsortedInputIsNormalized() {
	events := []Event{
		{Type: EventKeyDown, Timestamp: 300, FieldID: "name"},
		{Type: EventKeyDown, Timestamp: 100, FieldID: "name"},
		{Type: EventKeyDown, Timestamp: 200, FieldID: "name"},
	}
	s.Equal([]float64{100, 100}, keystrokeIntervals(Normalize(events)))
}

// =============================================================================
// Direction bins
// =============================================================================

func (s *ScorerSuite) TestDirectionBin() {
	s.Equal(0, directionBin(1, 0))
	s.Equal(2, directionBin(0, 1))
	s.Equal(4, directionBin(-1, 0))
	s.Equal(6, directionBin(0, -1))
	s.Equal(0, directionBin(1, -0.1))
}

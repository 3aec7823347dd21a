package trust

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"verity/internal/behavior"
	"verity/internal/detection"
)

type AggregatorSuite struct {
	suite.Suite
	now time.Time
}

func TestAggregatorSuite(t *testing.T) {
	suite.Run(t, new(AggregatorSuite))
}

func (s *AggregatorSuite) SetupTest() {
	s.now = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
}

func ptr(v float64) *float64 { return &v }

func (s *AggregatorSuite) record(userID string) detection.Record {
	return detection.Record{
		Name:     "Ada Lovelace",
		DOB:      "1996-02-01",
		Email:    userID + "@example.com",
		Phone:    "+44" + userID,
		FaceAge:  30,
		DeviceID: "dev-" + userID,
		IP:       "192.168.0." + userID,
		FormTime: 30000,
		UserID:   userID,
	}
}

// linearSession produces human keystrokes and a straight mouse path, which
// scores exactly 20.
func linearSession() *Behavior {
	events := []behavior.Event{}
	for _, ts := range []float64{1000, 1120, 1300, 1395, 1605, 1755} {
		events = append(events, behavior.Event{Type: behavior.EventKeyDown, Timestamp: ts, FieldID: "name"})
	}
	for i := range 8 {
		events = append(events, behavior.Event{
			Type: behavior.EventMouseMove, Timestamp: float64(i * 50),
			X: ptr(float64(i * 25)), Y: ptr(40),
		})
	}
	return &Behavior{Events: events}
}

// =============================================================================
// Composite formula
// =============================================================================

func (s *AggregatorSuite) TestComposite() {
	s.Run("weighted literal case", func() {
		s.Equal(22, Composite(40, 20, 0, false))
	})
	s.Run("override floors at 75", func() {
		s.Equal(75, Composite(40, 20, 0, true))
	})
	s.Run("override keeps higher composite", func() {
		s.Equal(100, Composite(100, 100, 100, true))
	})
	s.Run("rounds half up", func() {
		// 0.4*1 + 0.3*1 = 0.7 -> 1; 0.3*5 = 1.5 -> 2
		s.Equal(1, Composite(1, 1, 0, false))
		s.Equal(2, Composite(0, 5, 0, false))
	})
}

// =============================================================================
// End-to-end aggregation
// =============================================================================

func (s *AggregatorSuite) TestAggregateLiteralCase() {
	a := s.record("1")
	b := s.record("2")
	b.Email = a.Email

	res := Aggregate(Input{
		Record:     a,
		Population: []detection.Record{b},
		Behavior:   linearSession(),
		VisualAge:  30,
		Now:        s.now,
	})

	s.Equal(40, res.Breakdown.IdentityScore)
	s.Equal(20, res.Breakdown.BehaviorScore)
	s.Equal(0, res.Breakdown.AgeMatchScore)
	s.Equal(22, res.CompositeScore)
	s.False(res.Breakdown.IsSynthetic)
	s.False(res.Overridden)
	s.Equal(SourceTelemetry, res.Behavior.Source)
	s.Require().NotNil(res.Behavior.Result)
	s.Len(res.Details, 1)
}

func (s *AggregatorSuite) TestAggregateDetectorOverride() {
	a := s.record("1")
	b := s.record("2")
	b.DeviceID = a.DeviceID

	res := Aggregate(Input{
		Record:     a,
		Population: []detection.Record{b},
		Behavior:   linearSession(),
		VisualAge:  30,
		Now:        s.now,
	})

	// 0.4*60 + 0.3*20 = 30, floored to 75
	s.Equal(60, res.Breakdown.IdentityScore)
	s.Equal(75, res.CompositeScore)
	s.True(res.Breakdown.IsSynthetic)
	s.True(res.Overridden)
}

func (s *AggregatorSuite) TestAggregateAgeOverride() {
	res := Aggregate(Input{
		Record:    s.record("1"),
		Behavior:  linearSession(),
		VisualAge: 45,
		Now:       s.now,
	})

	s.True(res.Age.Performed)
	s.True(res.Age.IsSyntheticAge)
	s.Equal(80, res.Breakdown.AgeMatchScore)
	s.Equal(75, res.CompositeScore)
	s.True(res.Breakdown.IsSynthetic)
}

// =============================================================================
// Behavior source policy
// =============================================================================

func (s *AggregatorSuite) TestBehaviorSourcePolicy() {
	s.Run("no behavior is neutral", func() {
		res := Aggregate(Input{Record: s.record("1"), Now: s.now})
		s.Equal(SourceNeutral, res.Behavior.Source)
		s.Equal(behavior.NeutralRisk, res.Breakdown.BehaviorScore)
		s.Equal(15, res.CompositeScore)
		s.False(res.Age.Performed)
	})

	s.Run("summary stats use fallback heuristic", func() {
		res := Aggregate(Input{
			Record:   s.record("1"),
			Behavior: &Behavior{Summary: behavior.Summary{Velocity: ptr(0), AvgKeystroke: ptr(20)}},
			Now:      s.now,
		})
		s.Equal(SourceSummary, res.Behavior.Source)
		s.Equal(70, res.Breakdown.BehaviorScore)
		s.Nil(res.Behavior.Result)
	})

	s.Run("events take precedence over summary", func() {
		b := linearSession()
		b.Velocity = ptr(0)
		res := Aggregate(Input{Record: s.record("1"), Behavior: b, Now: s.now})
		s.Equal(SourceTelemetry, res.Behavior.Source)
		s.Equal(20, res.Breakdown.BehaviorScore)
	})

	s.Run("empty behavior object is neutral", func() {
		res := Aggregate(Input{Record: s.record("1"), Behavior: &Behavior{}, Now: s.now})
		s.Equal(SourceNeutral, res.Behavior.Source)
	})
}

func (s *AggregatorSuite) TestUnifiedDefaults() {
	r := detection.Record{Name: "x", FormTime: 900}

	withBehavior := WithUnifiedDefaults(r, true, "corr-1")
	s.Equal(DefaultIP, withBehavior.IP)
	s.Equal(float64(TelemetryFormTimeMs), withBehavior.FormTime)
	s.Equal("corr-1", withBehavior.UserID)

	r.IP = "8.8.8.8"
	r.UserID = "u9"
	without := WithUnifiedDefaults(r, false, "corr-1")
	s.Equal("8.8.8.8", without.IP)
	s.Equal(900.0, without.FormTime)
	s.Equal("u9", without.UserID)
}

// Package trust combines the correlation, behavior and age signals into one
// composite trust score.
package trust

import (
	"math"

	"verity/internal/agecheck"
	"verity/internal/behavior"
	"verity/internal/detection"
)

const (
	// OverrideFloor is the minimum composite when a synthetic tripwire fires.
	OverrideFloor = 75
	// SyntheticThreshold is the composite above which a verdict is synthetic.
	SyntheticThreshold = 70

	identityWeight = 4
	behaviorWeight = 3
	ageWeight      = 3
)

// Aggregate runs the detector, scorer and age checker and folds their scores
// into a composite. This is pure domain logic - no I/O.
func Aggregate(in Input) Result {
	identity := detection.Analyze(in.Record, in.Population, in.Now)
	behaviorScore, outcome := scoreBehavior(in.Behavior)
	age := agecheck.Check(in.Record.DOB, in.VisualAge, in.Now)

	override := identity.IsSynthetic || age.IsSyntheticAge
	composite := Composite(identity.RiskScore, behaviorScore, age.AgeMatchScore, override)

	return Result{
		CompositeScore: composite,
		Breakdown: Breakdown{
			IdentityScore: identity.RiskScore,
			BehaviorScore: behaviorScore,
			AgeMatchScore: age.AgeMatchScore,
			IsSynthetic:   composite > SyntheticThreshold,
		},
		Details:    identity.Reasons,
		Behavior:   outcome,
		Age:        age,
		Overridden: override,
	}
}

// Composite weights identity 40%, behavior 30% and age 30%, rounds half up,
// and floors the result at OverrideFloor when override is set.
func Composite(identity, behaviorScore, age int, override bool) int {
	weighted := identityWeight*identity + behaviorWeight*behaviorScore + ageWeight*age
	composite := int(math.Round(float64(weighted) / 10))
	if override {
		composite = max(composite, OverrideFloor)
	}
	return composite
}

// scoreBehavior picks the telemetry scorer when events exist, the summary
// heuristic when only coarse stats exist, and the neutral value otherwise.
func scoreBehavior(b *Behavior) (int, BehaviorOutcome) {
	if b != nil && len(b.Events) > 0 {
		r := behavior.Score(b.Events)
		return r.SyntheticRiskScore, BehaviorOutcome{Source: SourceTelemetry, Result: &r}
	}
	if b != nil && b.Summary.Present() {
		return behavior.ScoreSummary(b.Summary), BehaviorOutcome{Source: SourceSummary}
	}
	return behavior.NeutralRisk, BehaviorOutcome{Source: SourceNeutral}
}

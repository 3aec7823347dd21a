package trust

import (
	"time"

	"verity/internal/agecheck"
	"verity/internal/behavior"
	"verity/internal/detection"
)

// BehaviorSource names where the behavior score came from.
type BehaviorSource string

const (
	SourceTelemetry BehaviorSource = "telemetry"
	SourceSummary   BehaviorSource = "summary"
	SourceNeutral   BehaviorSource = "neutral"
)

// Behavior is client telemetry: a full event stream, coarse summary
// statistics, or both.
type Behavior struct {
	Events []behavior.Event `json:"events,omitempty"`
	behavior.Summary
}

// Input is everything the aggregator needs for one verdict.
type Input struct {
	Record     detection.Record
	Population []detection.Record
	Behavior   *Behavior
	// VisualAge is the camera estimate in years; zero skips the age check.
	VisualAge float64
	Now       time.Time
}

// Breakdown holds the three component scores and the final synthetic flag.
type Breakdown struct {
	IdentityScore int  `json:"identityScore"`
	BehaviorScore int  `json:"behaviorScore"`
	AgeMatchScore int  `json:"ageMatchScore"`
	IsSynthetic   bool `json:"isSynthetic"`
}

// BehaviorOutcome reports how the behavior score was produced.
type BehaviorOutcome struct {
	Source BehaviorSource   `json:"source"`
	Result *behavior.Result `json:"result,omitempty"`
}

// Result is the aggregated trust verdict.
type Result struct {
	CompositeScore int                `json:"compositeScore"`
	Breakdown      Breakdown          `json:"breakdown"`
	Details        []detection.Reason `json:"details"`
	Behavior       BehaviorOutcome    `json:"behavior"`
	Age            agecheck.Result    `json:"age"`
	Overridden     bool               `json:"overridden"`
}

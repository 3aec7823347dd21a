// Package behavior scores browser interaction telemetry for bot-like
// patterns: keystroke timing, mouse movement and pasted identity fields.
package behavior

import (
	"math"
	"sort"
)

// Penalty points per signal.
const (
	PenaltyKeystrokeFloor   = 30
	PenaltyKeystrokeUniform = 25
	PenaltyNoMouse          = 20
	PenaltyLowMovement      = 15
	PenaltyLinearPath       = 20
	PenaltyPaste            = 15

	// NeutralRisk is reported when no telemetry was captured.
	NeutralRisk = 50

	keystrokeFloorMs        = 30.0
	keystrokeUniformCV      = 0.1
	minFloorIntervals       = 3
	minUniformIntervals     = 5
	lowMovementPx           = 50.0
	linearEntropyBits       = 0.5
	minEntropySegments      = 5
	directionBins           = 8
	minPathLengthSamples    = 2
	maxSyntheticRiskScore   = 100
	summaryVelocityPenalty  = 30
	summaryKeystrokePenalty = 40
	summaryKeystrokeFloorMs = 50.0
	summaryMaxVelocity      = 5.0
)

// identityFields are form fields where pasted values are suspicious.
var identityFields = []string{"name", "email", "dob"}

// Measure is one computed sub-score. Calculated is false when there was not
// enough data.
type Measure struct {
	Value      float64 `json:"value"`
	Calculated bool    `json:"calculated"`
	SampleSize int     `json:"sampleSize,omitempty"`
}

// Penalty records one triggered signal.
type Penalty struct {
	Code   string `json:"code"`
	Points int    `json:"points"`
}

// Details exposes every sub-measure behind the score.
type Details struct {
	TelemetryPresent      bool      `json:"telemetryPresent"`
	EventCount            int       `json:"eventCount"`
	KeystrokeIntervals    int       `json:"keystrokeIntervals"`
	MedianKeyInterval     Measure   `json:"medianKeyInterval"`
	KeyIntervalCV         Measure   `json:"keyIntervalCV"`
	MouseSamples          int       `json:"mouseSamples"`
	MousePathLength       Measure   `json:"mousePathLength"`
	MouseDirectionEntropy Measure   `json:"mouseDirectionEntropy"`
	MousePathEfficiency   Measure   `json:"mousePathEfficiency"`
	PastedFields          []string  `json:"pastedFields"`
	Penalties             []Penalty `json:"penalties"`
}

// Result is the scorer output. BehaviorScore is 0..1 (1 = human-like);
// SyntheticRiskScore is 0..100 (100 = bot-like).
type Result struct {
	BehaviorScore      float64 `json:"behaviorScore"`
	SyntheticRiskScore int     `json:"syntheticRiskScore"`
	Details            Details `json:"details"`
}

// Score classifies a session's telemetry. This is pure domain logic - no I/O.
func Score(events []Event) Result {
	if len(events) == 0 {
		return Result{
			BehaviorScore:      confidence(NeutralRisk),
			SyntheticRiskScore: NeutralRisk,
			Details: Details{
				PastedFields: []string{},
				Penalties:    []Penalty{},
			},
		}
	}

	events = Normalize(events)
	d := Details{
		TelemetryPresent: true,
		EventCount:       len(events),
		PastedFields:     []string{},
		Penalties:        []Penalty{},
	}

	scoreKeystrokes(events, &d)
	scoreMouse(events, &d)
	scorePaste(events, &d)

	risk := 0
	for _, p := range d.Penalties {
		risk += p.Points
	}
	risk = min(risk, maxSyntheticRiskScore)

	return Result{
		BehaviorScore:      confidence(risk),
		SyntheticRiskScore: risk,
		Details:            d,
	}
}

// confidence converts a 0..100 risk into a 0..1 human-likeness score.
func confidence(risk int) float64 {
	return math.Round((1-float64(risk)/100)*100) / 100
}

func scoreKeystrokes(events []Event, d *Details) {
	intervals := keystrokeIntervals(events)
	d.KeystrokeIntervals = len(intervals)

	if len(intervals) >= minFloorIntervals {
		median := medianOf(intervals)
		d.MedianKeyInterval = Measure{Value: median, Calculated: true, SampleSize: len(intervals)}
		if median < keystrokeFloorMs {
			d.Penalties = append(d.Penalties, Penalty{Code: "keystroke_floor", Points: PenaltyKeystrokeFloor})
		}
	}

	if len(intervals) >= minUniformIntervals {
		cv := coefficientOfVariation(intervals)
		d.KeyIntervalCV = Measure{Value: cv, Calculated: true, SampleSize: len(intervals)}
		if cv < keystrokeUniformCV {
			d.Penalties = append(d.Penalties, Penalty{Code: "keystroke_uniform", Points: PenaltyKeystrokeUniform})
		}
	}
}

// keystrokeIntervals returns the gaps between consecutive keydown events of
// the same field. Events must already be sorted.
func keystrokeIntervals(events []Event) []float64 {
	last := make(map[string]float64)
	intervals := make([]float64, 0)
	for _, e := range events {
		if e.Type != EventKeyDown {
			continue
		}
		if prev, ok := last[e.FieldID]; ok {
			intervals = append(intervals, e.Timestamp-prev)
		}
		last[e.FieldID] = e.Timestamp
	}
	return intervals
}

type point struct{ x, y float64 }

func scoreMouse(events []Event, d *Details) {
	samples := make([]point, 0)
	for _, e := range events {
		if e.Type == EventMouseMove && e.X != nil && e.Y != nil {
			samples = append(samples, point{*e.X, *e.Y})
		}
	}
	d.MouseSamples = len(samples)

	if len(samples) == 0 {
		d.Penalties = append(d.Penalties, Penalty{Code: "no_mouse", Points: PenaltyNoMouse})
		return
	}
	if len(samples) < minPathLengthSamples {
		return
	}

	var pathLength float64
	var bins [directionBins]int
	segments := 0
	for i := 1; i < len(samples); i++ {
		dx := samples[i].x - samples[i-1].x
		dy := samples[i].y - samples[i-1].y
		dist := math.Hypot(dx, dy)
		if dist == 0 {
			continue
		}
		pathLength += dist
		bins[directionBin(dx, dy)]++
		segments++
	}

	d.MousePathLength = Measure{Value: pathLength, Calculated: true, SampleSize: len(samples)}
	if pathLength < lowMovementPx {
		d.Penalties = append(d.Penalties, Penalty{Code: "low_movement", Points: PenaltyLowMovement})
	}

	if pathLength > 0 {
		first, lastPt := samples[0], samples[len(samples)-1]
		direct := math.Hypot(lastPt.x-first.x, lastPt.y-first.y)
		d.MousePathEfficiency = Measure{Value: min(direct/pathLength, 1), Calculated: true, SampleSize: segments}
	}

	if segments >= minEntropySegments {
		entropy := entropyBits(bins[:], segments)
		d.MouseDirectionEntropy = Measure{Value: entropy, Calculated: true, SampleSize: segments}
		if entropy < linearEntropyBits {
			d.Penalties = append(d.Penalties, Penalty{Code: "linear_path", Points: PenaltyLinearPath})
		}
	}
}

// directionBin maps a movement vector to one of eight compass sectors.
func directionBin(dx, dy float64) int {
	angle := math.Atan2(dy, dx)
	if angle < 0 {
		angle += 2 * math.Pi
	}
	sector := 2 * math.Pi / directionBins
	bin := int(math.Floor((angle + sector/2) / sector))
	return bin % directionBins
}

func entropyBits(bins []int, total int) float64 {
	var h float64
	for _, n := range bins {
		if n == 0 {
			continue
		}
		p := float64(n) / float64(total)
		h -= p * math.Log2(p)
	}
	return h
}

func scorePaste(events []Event, d *Details) {
	pasted := make(map[string]bool)
	for _, e := range events {
		if e.Type == EventPaste {
			pasted[e.FieldID] = true
		}
	}
	for _, field := range identityFields {
		if pasted[field] {
			d.PastedFields = append(d.PastedFields, field)
			d.Penalties = append(d.Penalties, Penalty{Code: "paste_" + field, Points: PenaltyPaste})
		}
	}
}

func medianOf(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// coefficientOfVariation returns stddev/mean. A zero mean yields zero.
func coefficientOfVariation(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	if mean == 0 {
		return 0
	}
	var sq float64
	for _, v := range values {
		sq += (v - mean) * (v - mean)
	}
	return math.Sqrt(sq/float64(len(values))) / math.Abs(mean)
}

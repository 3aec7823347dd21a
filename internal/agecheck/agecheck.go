// Package agecheck compares the declared date of birth with a camera-derived
// age estimate.
package agecheck

import (
	"math"
	"time"

	"verity/internal/detection"
)

// SyntheticDiffYears is the gap above which the age is treated as fabricated.
const SyntheticDiffYears = 7

// tier maps a minimum exclusive age gap to a risk score.
type tier struct {
	above float64
	score int
}

// tiers is ordered; the first match wins.
var tiers = []tier{
	{above: 10, score: 80},
	{above: 5, score: 40},
	{above: 3, score: 15},
}

// Result is the outcome of an age consistency check.
type Result struct {
	Performed      bool    `json:"performed"`
	AgeMatchScore  int     `json:"ageMatchScore"`
	IsSyntheticAge bool    `json:"isSyntheticAge"`
	StatedAge      int     `json:"statedAge,omitempty"`
	VisualAge      float64 `json:"visualAge,omitempty"`
	Diff           float64 `json:"diff,omitempty"`
}

// Check scores the gap between the stated age (calendar years since the birth
// year) and the visual age. A missing estimate or unparseable dob skips the
// check.
func Check(dob string, visualAge float64, now time.Time) Result {
	if visualAge <= 0 {
		return Result{}
	}
	birth, ok := detection.ParseDOB(dob)
	if !ok {
		return Result{}
	}

	stated := now.Year() - birth.Year()
	diff := math.Abs(float64(stated) - visualAge)

	return Result{
		Performed:      true,
		AgeMatchScore:  TierScore(diff),
		IsSyntheticAge: diff > SyntheticDiffYears,
		StatedAge:      stated,
		VisualAge:      visualAge,
		Diff:           diff,
	}
}

// TierScore returns the score of the first tier whose bound diff exceeds.
func TierScore(diff float64) int {
	for _, t := range tiers {
		if diff > t.above {
			return t.score
		}
	}
	return 0
}

// VisualAge returns the rounded midpoint of an estimated age range.
func VisualAge(startAge, endAge float64) float64 {
	return math.Round((startAge + endAge) / 2)
}

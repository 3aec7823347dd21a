package detection

import (
	"fmt"
	"math"
	"time"
)

// severityWeights maps a severity to the points it adds to the risk score.
var severityWeights = map[Severity]int{
	SeverityLow:      10,
	SeverityMedium:   25,
	SeverityHigh:     40,
	SeverityCritical: 60,
}

// Weight returns the score contribution of a severity.
func (s Severity) Weight() int {
	return severityWeights[s]
}

// clusterField describes one identifier checked for cross-identity reuse.
type clusterField struct {
	rule     string
	kind     string
	severity Severity
	value    func(Record) string
}

// clusterFields is evaluated in order: email, phone, device.
var clusterFields = []clusterField{
	{rule: RuleClusterEmail, kind: "email", severity: SeverityHigh, value: func(r Record) string { return r.Email }},
	{rule: RuleClusterPhone, kind: "phone", severity: SeverityHigh, value: func(r Record) string { return r.Phone }},
	{rule: RuleClusterDevice, kind: "deviceId", severity: SeverityCritical, value: func(r Record) string { return r.DeviceID }},
}

// ParseDOB parses a YYYY-MM-DD date of birth. Longer ISO timestamps are
// accepted and truncated to the date.
func ParseDOB(dob string) (time.Time, bool) {
	if len(dob) > 10 {
		dob = dob[:10]
	}
	t, err := time.Parse(time.DateOnly, dob)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// AgeAt returns whole years between dob and now, decremented when the
// birthday has not yet occurred in now's year.
func AgeAt(dob, now time.Time) int {
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	return age
}

// ageMismatchRule compares the declared date of birth with the camera estimate.
// This is pure domain logic - no I/O.
func ageMismatchRule(record Record, now time.Time) []Reason {
	dob, ok := ParseDOB(record.DOB)
	if !ok {
		return nil
	}
	calculated := AgeAt(dob, now)
	variance := math.Abs(float64(calculated) - record.FaceAge)
	if variance <= AgeVarianceThreshold {
		return nil
	}
	return []Reason{{
		Rule:     RuleAgeMismatch,
		Severity: SeverityHigh,
		Details:  fmt.Sprintf("Declared age %d differs from estimated face age %g by %g years", calculated, record.FaceAge, variance),
		AgeEvidence: &AgeEvidence{
			CalculatedAge:   calculated,
			ReportedFaceAge: record.FaceAge,
			Variance:        variance,
		},
	}}
}

// clusteringRule flags identifiers reused by other identities in the population.
func clusteringRule(record Record, population []Record) []Reason {
	var reasons []Reason
	for _, field := range clusterFields {
		value := field.value(record)
		if value == "" {
			continue
		}
		var users []string
		for _, other := range population {
			if other.UserID == record.UserID {
				continue
			}
			if field.value(other) == value {
				users = append(users, other.UserID)
			}
		}
		users = uniqueUserIDs(users)
		if len(users) == 0 {
			continue
		}
		reasons = append(reasons, Reason{
			Rule:     field.rule,
			Severity: field.severity,
			Details:  fmt.Sprintf("%s shared with %d other identit%s", field.kind, len(users), plural(len(users))),
			ClusterEvidence: &ClusterEvidence{
				SharedWith:  users,
				SharedValue: value,
				Type:        field.kind,
			},
		})
	}
	return reasons
}

// botTimingRule flags forms completed faster than a human can type.
func botTimingRule(record Record) []Reason {
	if record.FormTime >= BotTimingThresholdMs {
		return nil
	}
	return []Reason{{
		Rule:     RuleBotTiming,
		Severity: SeverityMedium,
		Details:  fmt.Sprintf("Form completed in %gms, below the %gms human threshold", record.FormTime, BotTimingThresholdMs),
		TimingEvidence: &TimingEvidence{
			FormTime:      record.FormTime,
			Threshold:     BotTimingThresholdMs,
			TimeInSeconds: math.Round(record.FormTime/10) / 100,
		},
	}}
}

// networkConflictRule flags other identities using the same ip and device pair.
func networkConflictRule(record Record, population []Record) []Reason {
	if record.IP == "" || record.DeviceID == "" {
		return nil
	}
	var users []string
	for _, other := range population {
		if other.UserID == record.UserID {
			continue
		}
		if other.IP == record.IP && other.DeviceID == record.DeviceID {
			users = append(users, other.UserID)
		}
	}
	users = uniqueUserIDs(users)
	if len(users) == 0 {
		return nil
	}
	return []Reason{{
		Rule:     RuleNetworkConflict,
		Severity: SeverityCritical,
		Details:  fmt.Sprintf("IP %s and device %s used by %d identities", record.IP, record.DeviceID, len(users)+1),
		NetworkEvidence: &NetworkEvidence{
			SharedIP:           record.IP,
			SharedDeviceID:     record.DeviceID,
			ConflictingUserIDs: users,
			ConflictCount:      len(users) + 1,
		},
	}}
}

// Score sums severity weights, capped at MaxRiskScore.
func Score(reasons []Reason) int {
	total := 0
	for _, r := range reasons {
		total += r.Severity.Weight()
	}
	return min(total, MaxRiskScore)
}

// IsSynthetic applies the independent tripwires: any critical reason, a risk
// score at or above the trigger, or two or more high reasons.
func IsSynthetic(reasons []Reason, riskScore int) bool {
	highs := 0
	for _, r := range reasons {
		switch r.Severity {
		case SeverityCritical:
			return true
		case SeverityHigh:
			highs++
		}
	}
	return riskScore >= SyntheticScoreTrigger || highs >= 2
}

func plural(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}

// uniqueUserIDs drops repeats, keeping first-seen order. A blank id is still
// a distinct identity, otherwise a conflict would only be reported one way.
func uniqueUserIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

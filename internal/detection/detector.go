// Package detection implements the cross-record correlation rules that flag
// synthetic identities: age mismatch, identifier clustering, bot timing and
// network fingerprint conflicts.
package detection

import (
	"math"
	"strings"
	"time"
)

// Analyze evaluates every rule for record against population and returns the
// scored analysis. Records in population sharing record's UserID are ignored,
// so the record itself may be part of the population.
func Analyze(record Record, population []Record, now time.Time) Analysis {
	reasons := make([]Reason, 0)
	reasons = append(reasons, ageMismatchRule(record, now)...)
	reasons = append(reasons, clusteringRule(record, population)...)
	reasons = append(reasons, botTimingRule(record)...)
	reasons = append(reasons, networkConflictRule(record, population)...)

	score := Score(reasons)
	return Analysis{
		RiskScore:   score,
		IsSynthetic: IsSynthetic(reasons, score),
		Reasons:     reasons,
	}
}

// AnalyzeBatch analyses each record against the whole batch.
func AnalyzeBatch(records []Record, now time.Time) []Result {
	results := make([]Result, len(records))
	for i, r := range records {
		results[i] = Result{Record: r, Analysis: Analyze(r, records, now)}
	}
	return results
}

// AnalyzeAgainst analyses a single record against a reference population.
func AnalyzeAgainst(record Record, reference []Record, now time.Time) Result {
	return Result{Record: record, Analysis: Analyze(record, reference, now)}
}

// Summarize aggregates results into batch statistics.
func Summarize(results []Result) Summary {
	summary := Summary{
		TotalRecords:   len(results),
		RulesTriggered: make(map[string]int),
	}
	if len(results) == 0 {
		return summary
	}
	total := 0
	for _, r := range results {
		if r.Analysis.IsSynthetic {
			summary.SyntheticCount++
		} else {
			summary.CleanCount++
		}
		total += r.Analysis.RiskScore
		for _, reason := range r.Analysis.Reasons {
			summary.RulesTriggered[RuleFamily(reason.Rule)]++
		}
	}
	summary.AverageRiskScore = int(math.Round(float64(total) / float64(len(results))))
	return summary
}

// RuleFamily returns the rule name before " - ".
func RuleFamily(rule string) string {
	family, _, _ := strings.Cut(rule, " - ")
	return family
}

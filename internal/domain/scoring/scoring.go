// Package scoring computes weighted averages from criteria and raw scores.
package scoring

import (
	"math"

	"github.com/lantechdigital/sinilai/internal/domain/model"
)

// maxAverage bounds the final average regardless of intermediate math,
// guarding against malformed weight data producing out-of-range results.
const maxAverage = 100

// Breakdown is the result of a weighted-average computation.
type Breakdown struct {
	WeightedSum float64 `json:"weighted_sum"`
	TotalWeight float64 `json:"total_weight"`
	Average     float64 `json:"average"`
}

// Clamp forces raw into [0, bound]. A non-positive bound falls back to
// the default score ceiling. NaN collapses to 0 so a malformed input can
// never poison the ledger.
func Clamp(raw, bound float64) float64 {
	if bound <= 0 {
		bound = model.DefaultMaxScore
	}
	if math.IsNaN(raw) {
		return 0
	}
	return math.Max(0, math.Min(bound, raw))
}

// Compute returns the weighted average of scores over criteria.
//
// Missing scores count as zero and criteria with zero weight contribute
// to neither sum. A zero total weight (no criteria, or all advisory)
// yields an average of 0 rather than an error. The average is clamped to
// [0, 100] as a final guard.
func Compute(criteria []model.Criterion, scores map[string]float64) Breakdown {
	var b Breakdown
	for _, crit := range criteria {
		if crit.Weight <= 0 {
			continue
		}
		score := Clamp(scores[crit.ID], crit.Bound())
		b.WeightedSum += score * crit.Weight
		b.TotalWeight += crit.Weight
	}
	if b.TotalWeight > 0 {
		b.Average = b.WeightedSum / b.TotalWeight
	}
	b.Average = math.Max(0, math.Min(maxAverage, b.Average))
	return b
}

// ForEvent filters criteria to those owned by eventID before computing.
// An empty eventID computes over all criteria, matching the unscoped
// assessment mode.
func ForEvent(criteria []model.Criterion, scores map[string]float64, eventID string) Breakdown {
	if eventID == "" {
		return Compute(criteria, scores)
	}
	scoped := make([]model.Criterion, 0, len(criteria))
	for _, crit := range criteria {
		if crit.EventID == eventID {
			scoped = append(scoped, crit)
		}
	}
	return Compute(scoped, scores)
}

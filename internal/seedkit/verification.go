package seedkit

import (
	"context"
	"fmt"
	"math"

	"github.com/lantechdigital/sinilai/pkg/logger"
)

// scoreTolerance absorbs float drift between the service's aggregation
// and the locally recomputed averages.
const scoreTolerance = 1e-6

// verifyRecap checks that the recap is ranked correctly and that every
// row's final score matches the locally computed expected average.
func verifyRecap(ctx context.Context, rows []recapRow, expected map[string]float64, verbose bool) error {
	logger.Get().Info(ctx, "verifying recap", logger.Int("rows", len(rows)))

	if len(rows) == 0 {
		return fmt.Errorf("recap is empty")
	}

	seen := make(map[string]bool, len(rows))
	for i, row := range rows {
		if row.Rank != i+1 {
			return fmt.Errorf("row %d has rank %d, want %d", i, row.Rank, i+1)
		}
		if seen[row.StudentID] {
			return fmt.Errorf("student %s appears twice in the recap", row.StudentID)
		}
		seen[row.StudentID] = true

		if i > 0 && rows[i].FinalScore > rows[i-1].FinalScore {
			return fmt.Errorf("recap not sorted: row %d outscores row %d", i, i-1)
		}

		want, ok := expected[row.StudentID]
		if !ok {
			return fmt.Errorf("recap contains unexpected student %s", row.StudentID)
		}
		if math.Abs(row.FinalScore-want) > scoreTolerance {
			return fmt.Errorf("student %s has final score %.6f, want %.6f",
				row.StudentID, row.FinalScore, want)
		}
	}

	if len(rows) != len(expected) {
		logger.Get().Warn(ctx, "recap row count differs from finalized count",
			logger.Int("rows", len(rows)),
			logger.Int("finalized", len(expected)))
	}

	displayTopRows(ctx, rows, verbose)

	logger.Get().Info(ctx, "recap verification completed")
	return nil
}

// displayTopRows logs the leading recap entries.
func displayTopRows(ctx context.Context, rows []recapRow, verbose bool) {
	topN := 10
	if len(rows) < topN {
		topN = len(rows)
	}

	for _, row := range rows[:topN] {
		logger.Get().Info(ctx, "recap entry",
			logger.Int("rank", row.Rank),
			logger.String("name", row.Name),
			logger.String("class", row.Class),
			logger.Float64("finalScore", row.FinalScore))
	}

	if verbose && len(rows) > 0 {
		var sum float64
		for _, row := range rows {
			sum += row.FinalScore
		}
		logger.Get().Info(ctx, "score statistics",
			logger.Float64("average", sum/float64(len(rows))),
			logger.Float64("maximum", rows[0].FinalScore),
			logger.Float64("minimum", rows[len(rows)-1].FinalScore))
	}
}

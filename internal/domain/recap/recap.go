// Package recap builds the deduplicated, ranked leaderboard from
// finalized results.
package recap

import (
	"sort"

	"github.com/lantechdigital/sinilai/internal/domain/model"
	"github.com/lantechdigital/sinilai/internal/domain/types"
)

// Build deduplicates rows by student id (keeping the first-observed row,
// so callers must hand in results in a deterministic read order) and
// ranks them descending by final score.
//
// Ties order by student name, then student id, so the output is fully
// deterministic regardless of how the duplicates arrived.
func Build(rows []model.FinalResult) []types.RecapRow {
	seen := make(map[string]struct{}, len(rows))
	out := make([]types.RecapRow, 0, len(rows))
	for _, r := range rows {
		if _, dup := seen[r.StudentID]; dup {
			continue
		}
		seen[r.StudentID] = struct{}{}
		eventName := r.EventName
		if eventName == "" {
			eventName = "-"
		}
		out = append(out, types.RecapRow{
			StudentID:  r.StudentID,
			Name:       r.StudentName,
			Class:      r.Class,
			NIS:        r.NIS,
			EventID:    r.EventID,
			EventName:  eventName,
			FinalScore: r.FinalScore,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].FinalScore != out[j].FinalScore {
			return out[i].FinalScore > out[j].FinalScore
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].StudentID < out[j].StudentID
	})

	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// Filter returns the rows belonging to eventID, re-ranked 1..n. An empty
// eventID returns rows unchanged.
func Filter(rows []types.RecapRow, eventID string) []types.RecapRow {
	if eventID == "" {
		return rows
	}
	out := make([]types.RecapRow, 0, len(rows))
	for _, r := range rows {
		if r.EventID == eventID {
			out = append(out, r)
		}
	}
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// Top returns at most n leading rows. A non-positive n returns all rows.
func Top(rows []types.RecapRow, n int) []types.RecapRow {
	if n <= 0 || n >= len(rows) {
		return rows
	}
	return rows[:n]
}

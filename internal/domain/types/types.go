// Package types contains common types shared between the service and
// the HTTP API.
package types

// RecapRow is one leaderboard entry: a deduplicated, ranked view of a
// student's finalized average.
type RecapRow struct {
	Rank       int     `json:"rank"`
	StudentID  string  `json:"student_id"`
	Name       string  `json:"name"`
	Class      string  `json:"class"`
	NIS        string  `json:"nis,omitempty"`
	EventID    string  `json:"event_id,omitempty"`
	EventName  string  `json:"event_name"`
	FinalScore float64 `json:"final_score"`
}

// Package model contains domain entities passed between layers.
package model

import "time"

// DefaultMaxScore is the score ceiling used when a criterion does not
// declare its own bound.
const DefaultMaxScore = 100

// Event represents a competition/competency track. An event owns its
// criteria; students and score rows reference it by id.
type Event struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Criterion is a weighted scoring dimension belonging to one event.
// Weight is a relative contribution factor, not a percentage; weights
// need not sum to 100 across an event.
type Criterion struct {
	ID       string  `json:"id"`
	EventID  string  `json:"event_id"`
	Name     string  `json:"name"`
	Weight   float64 `json:"weight"`
	MaxScore float64 `json:"max_score"`
}

// Bound returns the effective score ceiling for the criterion.
func (c Criterion) Bound() float64 {
	if c.MaxScore <= 0 {
		return DefaultMaxScore
	}
	return c.MaxScore
}

// Student is an exam participant. NIS is the school-issued external id
// and may be empty; EventID is empty until the student is assigned.
type Student struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Class   string `json:"class"`
	NIS     string `json:"nis"`
	EventID string `json:"event_id"`
}

// ScoreEntry is one judge's score for one student on one criterion.
// JudgeID may be empty in single-judge mode. IsFinal marks the whole
// student's score set as locked, not just this row; AverageScore is the
// weighted average stamped at finalize time and is meaningless while
// IsFinal is false.
type ScoreEntry struct {
	ID           string
	StudentID    string
	CriterionID  string
	JudgeID      string
	JudgeName    string
	EventID      string
	Score        float64
	IsFinal      bool
	AverageScore float64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AccessKey maps an opaque credential to a free-form role label, e.g.
// "Juri 1" or "Koordinator Akademik". The label is parsed into an
// enumerated role exactly once, at login.
type AccessKey struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// FinalResult is a finalized aggregate joined with student and event
// metadata, as read back for the recap. A student with duplicate
// finalized ledger rows produces multiple FinalResults; deduplication
// happens in the recap builder.
type FinalResult struct {
	StudentID   string
	StudentName string
	Class       string
	NIS         string
	EventID     string
	EventName   string
	FinalScore  float64
	FinalizedAt time.Time
}

// Package seedkit seeds demo data through the HTTP API and verifies the
// judging flow end to end: login, event configuration, roster import,
// concurrent scoring, finalization and recap ordering.
package seedkit

import "time"

// Config holds settings for a seed run.
type Config struct {
	BaseURL   string        // Base URL of the service
	AdminKey  string        // Access key with configuration rights
	EventName string        // Name of the seeded event
	Students  int           // Number of students to import
	Judges    int           // Number of judge keys to create
	Workers   int           // Concurrent scoring workers
	Timeout   time.Duration // HTTP request timeout
	LogFile   string        // Log file for run output
	Verbose   bool          // Enable verbose logging
}

// Stats holds seed run statistics.
type Stats struct {
	StudentsCreated int
	ScoresSubmitted int
	ScoresFailed    int
	Finalized       int
	FinalizeFailed  int
	RecapRows       int
	StartTime       time.Time
	EndTime         time.Time
	Duration        time.Duration
}

// event mirrors the API's event payload.
type event struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// criterion mirrors the API's criterion payload.
type criterion struct {
	ID       string  `json:"id"`
	EventID  string  `json:"event_id"`
	Name     string  `json:"name"`
	Weight   float64 `json:"weight"`
	MaxScore float64 `json:"max_score"`
}

// student mirrors the API's student payload.
type student struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Class   string `json:"class"`
	NIS     string `json:"nis"`
	EventID string `json:"event_id"`
}

// accessKey mirrors the API's access key payload.
type accessKey struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// recapRow mirrors one ranked recap entry.
type recapRow struct {
	Rank       int     `json:"rank"`
	StudentID  string  `json:"student_id"`
	Name       string  `json:"name"`
	Class      string  `json:"class"`
	EventName  string  `json:"event_name"`
	FinalScore float64 `json:"final_score"`
}

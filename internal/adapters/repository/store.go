// Package repository defines the persistent store contracts and errors.
//
// Two implementations exist: a GORM/PostgreSQL store for production and
// an in-memory store for tests and DSN-less development runs. Both honor
// the same lock semantics: once a student's score set is finalized, every
// write against it fails with ErrLocked until an administrative unlock.
package repository

import (
	"context"

	"github.com/lantechdigital/sinilai/internal/domain/model"
	"github.com/lantechdigital/sinilai/internal/domain/workflow"
)

// EventStore manages competition events.
type EventStore interface {
	CreateEvent(ctx context.Context, name string) (model.Event, error)
	ListEvents(ctx context.Context) ([]model.Event, error)
	// GetEvent returns ErrNotFound for an unknown id.
	GetEvent(ctx context.Context, id string) (model.Event, error)
	// DeleteEvent cascades the event's criteria. Students and score rows
	// keep their event id; recap joins tolerate the orphan.
	DeleteEvent(ctx context.Context, id string) error
}

// CriterionStore manages the per-event criterion registry.
type CriterionStore interface {
	// AddCriterion requires an existing owning event.
	AddCriterion(ctx context.Context, c model.Criterion) (model.Criterion, error)
	// ListCriteria returns the event's criteria in creation order.
	// An empty eventID lists every criterion.
	ListCriteria(ctx context.Context, eventID string) ([]model.Criterion, error)
	RemoveCriterion(ctx context.Context, id string) error
}

// StudentStore manages the roster.
type StudentStore interface {
	CreateStudent(ctx context.Context, s model.Student) (model.Student, error)
	// CreateStudents inserts a bulk import as a unit.
	CreateStudents(ctx context.Context, ss []model.Student) ([]model.Student, error)
	// ListStudents scoped to eventID, or all students when empty.
	ListStudents(ctx context.Context, eventID string) ([]model.Student, error)
	GetStudent(ctx context.Context, id string) (model.Student, error)
	DeleteStudent(ctx context.Context, id string) error
}

// ScoreStore is the authoritative score ledger.
type ScoreStore interface {
	// UpsertScore writes one (student, criterion, judge) score, keyed by
	// that tuple. Fails with ErrLocked once the student's set is final.
	// The caller clamps the value; the ledger persists it as given.
	UpsertScore(ctx context.Context, e model.ScoreEntry) (model.ScoreEntry, error)

	// GetScores returns criterionID -> score for the student. With a
	// judge id, only that judge's entries; without one, the mean across
	// judges per criterion.
	GetScores(ctx context.Context, studentID, judgeID string) (map[string]float64, error)

	// ScoreState reports the workflow state of the student's score set.
	// A student with no entries yet is in draft.
	ScoreState(ctx context.Context, studentID string) (workflow.State, error)

	// Finalize stamps the average onto every one of the student's score
	// entries, flags them final, and records the owning event if known.
	// The update is atomic and guarded so that only a set still in draft
	// transitions. Returns ErrNotFound when the student has no entries
	// and ErrLocked when another finalize already committed.
	Finalize(ctx context.Context, studentID string, average float64, eventID string) error

	// Unlock clears the final flag and the stamped average. Returns
	// workflow.ErrNotFinal when the set is not finalized.
	Unlock(ctx context.Context, studentID string) error

	// ListFinalResults returns finalized aggregates joined with student
	// and event metadata, in a deterministic order (entry creation order)
	// so that first-observed-wins deduplication is stable.
	ListFinalResults(ctx context.Context) ([]model.FinalResult, error)
}

// KeyStore manages access credentials.
type KeyStore interface {
	// CreateKey fails with ErrConflict when the secret is already taken.
	CreateKey(ctx context.Context, k model.AccessKey) (model.AccessKey, error)
	ListKeys(ctx context.Context) ([]model.AccessKey, error)
	DeleteKey(ctx context.Context, id string) error
	// FindKeyBySecret returns ErrNotFound for an unknown credential.
	FindKeyBySecret(ctx context.Context, secret string) (model.AccessKey, error)
}

// Store bundles every collection the service persists.
type Store interface {
	EventStore
	CriterionStore
	StudentStore
	ScoreStore
	KeyStore
}

package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record already exists")
	// ErrLocked mirrors workflow.ErrLocked at the persistence boundary:
	// the student's score set is finalized and admits no writes.
	ErrLocked = errors.New("score set is locked")
)

// Package workflow governs the draft-to-final transition of a student's
// score set. The machine has two states and one forward transition;
// unlocking is an administrative override, not part of the judging
// workflow.
package workflow

import "errors"

// Sentinel kinds for workflow errors.
var (
	// ErrLocked is returned for any mutation attempted on a finalized
	// score set, and for a second finalize racing a committed one.
	ErrLocked = errors.New("score set is locked")
	// ErrNotFinal is returned when an unlock targets a set still in draft.
	ErrNotFinal = errors.New("score set is not final")
)

// State of a student's score set.
type State int

const (
	// Draft admits score writes. Every student starts here implicitly
	// the first time any score is written.
	Draft State = iota
	// Final is terminal for the judging workflow: the set is read-only
	// and its stamped average feeds the recap.
	Final
)

func (s State) String() string {
	if s == Final {
		return "final"
	}
	return "draft"
}

// StateOf derives the state from the persisted is_final flag.
func StateOf(isFinal bool) State {
	if isFinal {
		return Final
	}
	return Draft
}

// EnsureWritable rejects mutations on a finalized set. Callers must
// surface the error, never silently drop the write.
func EnsureWritable(s State) error {
	if s == Final {
		return ErrLocked
	}
	return nil
}

// Finalize validates the Draft -> Final transition. The caller is
// responsible for performing the persistence side effects (average
// stamp + flag on every entry) atomically; the store-level guard must
// re-check the state inside the same transaction so that two racing
// finalize calls cannot both commit.
func Finalize(s State) (State, error) {
	if s == Final {
		return Final, ErrLocked
	}
	return Final, nil
}

// Unlock validates the administrative Final -> Draft override.
func Unlock(s State) (State, error) {
	if s == Draft {
		return Draft, ErrNotFinal
	}
	return Draft, nil
}

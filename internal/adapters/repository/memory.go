package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lantechdigital/sinilai/internal/domain/model"
	"github.com/lantechdigital/sinilai/internal/domain/workflow"
	"github.com/lantechdigital/sinilai/pkg/metrics"
)

// MemoryStore is a mutex-guarded in-memory Store. It backs tests and
// DSN-less development runs with the exact contract of the GORM store,
// including the finalize compare-and-swap.
type MemoryStore struct {
	mu sync.RWMutex

	events    map[string]model.Event
	criteria  map[string]model.Criterion
	students  map[string]model.Student
	keys      map[string]model.AccessKey
	scores    map[string]model.ScoreEntry // keyed by entry id
	scoreKeys map[string]string           // (student|criterion|judge) -> entry id

	// Insertion order, so listings and the recap read are deterministic.
	criterionOrder []string
	studentOrder   []string
	scoreOrder     []string
	eventOrder     []string
	keyOrder       []string

	now func() time.Time
}

// MemoryOption applies a configuration option to the MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock overrides the store's time source, for deterministic tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		events:    make(map[string]model.Event),
		criteria:  make(map[string]model.Criterion),
		students:  make(map[string]model.Student),
		keys:      make(map[string]model.AccessKey),
		scores:    make(map[string]model.ScoreEntry),
		scoreKeys: make(map[string]string),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func scoreKey(studentID, criterionID, judgeID string) string {
	return studentID + "|" + criterionID + "|" + judgeID
}

// CreateEvent inserts a new event.
func (s *MemoryStore) CreateEvent(_ context.Context, name string) (model.Event, error) {
	defer observeUpdate(time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()

	ev := model.Event{ID: uuid.NewString(), Name: name}
	s.events[ev.ID] = ev
	s.eventOrder = append(s.eventOrder, ev.ID)
	return ev, nil
}

// ListEvents returns events in creation order.
func (s *MemoryStore) ListEvents(_ context.Context) ([]model.Event, error) {
	defer observeQuery(time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Event, 0, len(s.eventOrder))
	for _, id := range s.eventOrder {
		out = append(out, s.events[id])
	}
	return out, nil
}

// GetEvent looks up one event.
func (s *MemoryStore) GetEvent(_ context.Context, id string) (model.Event, error) {
	defer observeQuery(time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()

	ev, ok := s.events[id]
	if !ok {
		return model.Event{}, ErrNotFound
	}
	return ev, nil
}

// DeleteEvent removes an event and cascades its criteria.
func (s *MemoryStore) DeleteEvent(_ context.Context, id string) error {
	defer observeUpdate(time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[id]; !ok {
		return ErrNotFound
	}
	delete(s.events, id)
	s.eventOrder = removeID(s.eventOrder, id)

	kept := s.criterionOrder[:0]
	for _, cid := range s.criterionOrder {
		if s.criteria[cid].EventID == id {
			delete(s.criteria, cid)
			continue
		}
		kept = append(kept, cid)
	}
	s.criterionOrder = kept
	return nil
}

// AddCriterion inserts a criterion under an existing event.
func (s *MemoryStore) AddCriterion(_ context.Context, c model.Criterion) (model.Criterion, error) {
	defer observeUpdate(time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[c.EventID]; !ok {
		return model.Criterion{}, ErrNotFound
	}
	c.ID = uuid.NewString()
	if c.MaxScore <= 0 {
		c.MaxScore = model.DefaultMaxScore
	}
	s.criteria[c.ID] = c
	s.criterionOrder = append(s.criterionOrder, c.ID)
	return c, nil
}

// ListCriteria returns criteria in creation order, optionally scoped.
func (s *MemoryStore) ListCriteria(_ context.Context, eventID string) ([]model.Criterion, error) {
	defer observeQuery(time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Criterion, 0, len(s.criterionOrder))
	for _, id := range s.criterionOrder {
		c := s.criteria[id]
		if eventID != "" && c.EventID != eventID {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// RemoveCriterion deletes one criterion. Stamped averages on already
// finalized sets are snapshots and stay untouched.
func (s *MemoryStore) RemoveCriterion(_ context.Context, id string) error {
	defer observeUpdate(time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.criteria[id]; !ok {
		return ErrNotFound
	}
	delete(s.criteria, id)
	s.criterionOrder = removeID(s.criterionOrder, id)
	return nil
}

// CreateStudent inserts one roster entry.
func (s *MemoryStore) CreateStudent(_ context.Context, st model.Student) (model.Student, error) {
	defer observeUpdate(time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertStudent(st), nil
}

// CreateStudents inserts a bulk import as a unit.
func (s *MemoryStore) CreateStudents(_ context.Context, ss []model.Student) ([]model.Student, error) {
	defer observeUpdate(time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Student, 0, len(ss))
	for _, st := range ss {
		out = append(out, s.insertStudent(st))
	}
	return out, nil
}

func (s *MemoryStore) insertStudent(st model.Student) model.Student {
	if st.ID == "" {
		st.ID = uuid.NewString()
	}
	s.students[st.ID] = st
	s.studentOrder = append(s.studentOrder, st.ID)
	return st
}

// ListStudents returns the roster in creation order, optionally scoped.
func (s *MemoryStore) ListStudents(_ context.Context, eventID string) ([]model.Student, error) {
	defer observeQuery(time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Student, 0, len(s.studentOrder))
	for _, id := range s.studentOrder {
		st := s.students[id]
		if eventID != "" && st.EventID != eventID {
			continue
		}
		out = append(out, st)
	}
	return out, nil
}

// GetStudent looks up one student.
func (s *MemoryStore) GetStudent(_ context.Context, id string) (model.Student, error) {
	defer observeQuery(time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.students[id]
	if !ok {
		return model.Student{}, ErrNotFound
	}
	return st, nil
}

// DeleteStudent removes a roster entry. Score rows keep their student
// id; the recap's inner join drops them.
func (s *MemoryStore) DeleteStudent(_ context.Context, id string) error {
	defer observeUpdate(time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.students[id]; !ok {
		return ErrNotFound
	}
	delete(s.students, id)
	s.studentOrder = removeID(s.studentOrder, id)
	return nil
}

// UpsertScore writes one ledger entry keyed by (student, criterion, judge).
func (s *MemoryStore) UpsertScore(_ context.Context, e model.ScoreEntry) (model.ScoreEntry, error) {
	defer observeUpdate(time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isFinalLocked(e.StudentID) {
		return model.ScoreEntry{}, ErrLocked
	}

	key := scoreKey(e.StudentID, e.CriterionID, e.JudgeID)
	now := s.now()
	if id, ok := s.scoreKeys[key]; ok {
		existing := s.scores[id]
		existing.Score = e.Score
		existing.JudgeName = e.JudgeName
		existing.UpdatedAt = now
		s.scores[id] = existing
		return existing, nil
	}

	e.ID = uuid.NewString()
	e.CreatedAt = now
	e.UpdatedAt = now
	s.scores[e.ID] = e
	s.scoreKeys[key] = e.ID
	s.scoreOrder = append(s.scoreOrder, e.ID)
	return e, nil
}

// GetScores returns criterionID -> score, averaging across judges when
// judgeID is empty.
func (s *MemoryStore) GetScores(_ context.Context, studentID, judgeID string) (map[string]float64, error) {
	defer observeQuery(time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()

	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, id := range s.scoreOrder {
		e := s.scores[id]
		if e.StudentID != studentID {
			continue
		}
		if judgeID != "" && e.JudgeID != judgeID {
			continue
		}
		sums[e.CriterionID] += e.Score
		counts[e.CriterionID]++
	}

	out := make(map[string]float64, len(sums))
	for cid, sum := range sums {
		out[cid] = sum / float64(counts[cid])
	}
	return out, nil
}

// ScoreState reports the workflow state of the student's score set.
func (s *MemoryStore) ScoreState(_ context.Context, studentID string) (workflow.State, error) {
	defer observeQuery(time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()
	return workflow.StateOf(s.isFinalLocked(studentID)), nil
}

func (s *MemoryStore) isFinalLocked(studentID string) bool {
	for _, id := range s.scoreOrder {
		e := s.scores[id]
		if e.StudentID == studentID && e.IsFinal {
			return true
		}
	}
	return false
}

// Finalize flags the student's entries and stamps the average in one
// critical section, guarded so only a draft set transitions.
func (s *MemoryStore) Finalize(_ context.Context, studentID string, average float64, eventID string) error {
	defer observeUpdate(time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isFinalLocked(studentID) {
		return ErrLocked
	}

	now := s.now()
	touched := 0
	for _, id := range s.scoreOrder {
		e := s.scores[id]
		if e.StudentID != studentID {
			continue
		}
		e.IsFinal = true
		e.AverageScore = average
		if eventID != "" {
			e.EventID = eventID
		}
		e.UpdatedAt = now
		s.scores[id] = e
		touched++
	}
	if touched == 0 {
		return ErrNotFound
	}
	return nil
}

// Unlock clears the final flag and the stamped average.
func (s *MemoryStore) Unlock(_ context.Context, studentID string) error {
	defer observeUpdate(time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isFinalLocked(studentID) {
		return workflow.ErrNotFinal
	}

	now := s.now()
	for _, id := range s.scoreOrder {
		e := s.scores[id]
		if e.StudentID != studentID {
			continue
		}
		e.IsFinal = false
		e.AverageScore = 0
		e.UpdatedAt = now
		s.scores[id] = e
	}
	return nil
}

// ListFinalResults returns finalized aggregates joined with student and
// event metadata, in entry creation order.
func (s *MemoryStore) ListFinalResults(_ context.Context) ([]model.FinalResult, error) {
	defer observeQuery(time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.FinalResult, 0)
	for _, id := range s.scoreOrder {
		e := s.scores[id]
		if !e.IsFinal {
			continue
		}
		st, ok := s.students[e.StudentID]
		if !ok {
			// Inner-join semantics: orphaned scores drop out.
			continue
		}
		res := model.FinalResult{
			StudentID:   e.StudentID,
			StudentName: st.Name,
			Class:       st.Class,
			NIS:         st.NIS,
			EventID:     e.EventID,
			FinalScore:  e.AverageScore,
			FinalizedAt: e.UpdatedAt,
		}
		if ev, ok := s.events[e.EventID]; ok {
			res.EventName = ev.Name
		}
		out = append(out, res)
	}
	return out, nil
}

// CreateKey inserts an access key, rejecting duplicate secrets.
func (s *MemoryStore) CreateKey(_ context.Context, k model.AccessKey) (model.AccessKey, error) {
	defer observeUpdate(time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()

	secret := strings.TrimSpace(k.Key)
	for _, id := range s.keyOrder {
		if s.keys[id].Key == secret {
			return model.AccessKey{}, ErrConflict
		}
	}
	k.ID = uuid.NewString()
	k.Key = secret
	s.keys[k.ID] = k
	s.keyOrder = append(s.keyOrder, k.ID)
	return k, nil
}

// ListKeys returns keys in creation order.
func (s *MemoryStore) ListKeys(_ context.Context) ([]model.AccessKey, error) {
	defer observeQuery(time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.AccessKey, 0, len(s.keyOrder))
	for _, id := range s.keyOrder {
		out = append(out, s.keys[id])
	}
	return out, nil
}

// DeleteKey removes a credential.
func (s *MemoryStore) DeleteKey(_ context.Context, id string) error {
	defer observeUpdate(time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.keys[id]; !ok {
		return ErrNotFound
	}
	delete(s.keys, id)
	s.keyOrder = removeID(s.keyOrder, id)
	return nil
}

// FindKeyBySecret resolves a credential to its key record.
func (s *MemoryStore) FindKeyBySecret(_ context.Context, secret string) (model.AccessKey, error) {
	defer observeQuery(time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()

	secret = strings.TrimSpace(secret)
	for _, id := range s.keyOrder {
		if s.keys[id].Key == secret {
			return s.keys[id], nil
		}
	}
	return model.AccessKey{}, ErrNotFound
}

// Count reports collection sizes for /stats.
func (s *MemoryStore) Count(_ context.Context) map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]int{
		"events":   len(s.events),
		"criteria": len(s.criteria),
		"students": len(s.students),
		"scores":   len(s.scores),
		"keys":     len(s.keys),
	}
}

func removeID(ids []string, id string) []string {
	for i, candidate := range ids {
		if candidate == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

func observeUpdate(start time.Time) {
	metrics.RecordStoreUpdateLatency(float64(time.Since(start).Milliseconds()))
}

func observeQuery(start time.Time) {
	metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
}

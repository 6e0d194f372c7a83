// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	noticequeue "github.com/lantechdigital/sinilai/internal/adapters/mq/queue"
	workerpool "github.com/lantechdigital/sinilai/internal/adapters/mq/worker"
	repository "github.com/lantechdigital/sinilai/internal/adapters/repository"
	"github.com/lantechdigital/sinilai/internal/domain/model"
	"github.com/lantechdigital/sinilai/internal/domain/recap"
	"github.com/lantechdigital/sinilai/internal/domain/rolegate"
	"github.com/lantechdigital/sinilai/internal/domain/scoring"
	"github.com/lantechdigital/sinilai/internal/domain/types"
	"github.com/lantechdigital/sinilai/pkg/logger"
	"github.com/lantechdigital/sinilai/pkg/metrics"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotStarted   = errors.New("service not started")
)

// Service wires the score ledger, the recap snapshot and the refresh
// machinery behind the HTTP API.
type Service struct {
	mu sync.RWMutex

	// Core components
	store       repository.Store
	noticeQueue noticequeue.Queue
	pool        *workerpool.Pool

	// Recap snapshot, swapped wholesale on refresh.
	snapMu   sync.RWMutex
	snapshot []types.RecapRow
	snapAt   time.Time

	// Configuration
	workerCount  int
	queueSize    int
	pollInterval time.Duration
	maxLimit     int

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore injects the persistent store. Defaults to the in-memory store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithWorkerCount sets the number of refresh workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the change-notice queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithPollInterval sets how often the snapshot is rebuilt without notices.
func WithPollInterval(interval time.Duration) Option {
	return func(s *Service) {
		if interval > 0 {
			s.pollInterval = interval
		}
	}
}

// WithMaxRecapLimit caps the limit parameter on recap reads.
func WithMaxRecapLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.maxLimit = limit
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:  2,
		queueSize:    1024,
		pollInterval: 5 * time.Second,
		maxLimit:     100,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting recap service...")

	if s.store == nil {
		s.store = repository.NewMemoryStore()
		s.logger.Info(ctx, "using in-memory store")
	}
	s.noticeQueue = noticequeue.NewInMemoryQueue(
		noticequeue.WithCapacity(s.queueSize),
	)

	s.pool = workerpool.NewPool(s.workerCount, s.noticeQueue, s, s.pollInterval)
	s.pool.Start(ctx)

	// Seed the snapshot so the first recap read never races the poller.
	if err := s.Refresh(ctx); err != nil {
		s.logger.Warn(ctx, "initial snapshot build failed", logger.Error(err))
	}

	s.started = true
	s.logger.Info(ctx, "recap service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Duration("pollInterval", s.pollInterval),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping recap service...")

	if s.pool != nil {
		_ = s.pool.Shutdown(ctx)
	}

	if closer, ok := s.store.(interface{ Close() error }); ok {
		_ = closer.Close()
	}

	s.started = false
	s.logger.Info(ctx, "recap service stopped")
}

// notify enqueues a change notice. Losing one is fine; the poller
// rebuilds the snapshot on its own schedule.
func (s *Service) notify(ctx context.Context, kind noticequeue.Kind, studentID, eventID string) {
	if s.noticeQueue == nil {
		return
	}
	s.noticeQueue.Enqueue(ctx, noticequeue.Notice{
		StudentID: studentID,
		EventID:   eventID,
		Kind:      kind,
		At:        time.Now(),
	})
}

// ResolveKey exchanges an access key secret for a role-bound session.
func (s *Service) ResolveKey(ctx context.Context, secret string) (rolegate.Session, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		metrics.RecordAuthFailure()
		return rolegate.Session{}, fmt.Errorf("%w: empty access key", ErrInvalidInput)
	}

	key, err := s.store.FindKeyBySecret(ctx, secret)
	if err != nil {
		metrics.RecordAuthFailure()
		return rolegate.Session{}, err
	}

	role, err := rolegate.Parse(key.Role)
	if err != nil {
		metrics.RecordAuthFailure()
		return rolegate.Session{}, err
	}

	return rolegate.Session{Role: role, Key: key.Key, Name: key.Name}, nil
}

// Events.

func (s *Service) CreateEvent(ctx context.Context, name string) (model.Event, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Event{}, fmt.Errorf("%w: event name must not be empty", ErrInvalidInput)
	}
	return s.store.CreateEvent(ctx, name)
}

func (s *Service) ListEvents(ctx context.Context) ([]model.Event, error) {
	return s.store.ListEvents(ctx)
}

func (s *Service) DeleteEvent(ctx context.Context, id string) error {
	if err := s.store.DeleteEvent(ctx, id); err != nil {
		return err
	}
	s.notify(ctx, noticequeue.KindRosterChanged, "", id)
	return nil
}

// Criteria.

func (s *Service) AddCriterion(ctx context.Context, c model.Criterion) (model.Criterion, error) {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return model.Criterion{}, fmt.Errorf("%w: criterion name must not be empty", ErrInvalidInput)
	}
	if c.Weight < 0 {
		return model.Criterion{}, fmt.Errorf("%w: criterion weight must not be negative", ErrInvalidInput)
	}
	return s.store.AddCriterion(ctx, c)
}

func (s *Service) ListCriteria(ctx context.Context, eventID string) ([]model.Criterion, error) {
	return s.store.ListCriteria(ctx, eventID)
}

func (s *Service) RemoveCriterion(ctx context.Context, id string) error {
	return s.store.RemoveCriterion(ctx, id)
}

// Roster.

func (s *Service) CreateStudent(ctx context.Context, st model.Student) (model.Student, error) {
	st.Name = strings.TrimSpace(st.Name)
	if st.Name == "" {
		return model.Student{}, fmt.Errorf("%w: student name must not be empty", ErrInvalidInput)
	}
	created, err := s.store.CreateStudent(ctx, st)
	if err != nil {
		return model.Student{}, err
	}
	s.notify(ctx, noticequeue.KindRosterChanged, created.ID, created.EventID)
	return created, nil
}

func (s *Service) CreateStudents(ctx context.Context, ss []model.Student) ([]model.Student, error) {
	if len(ss) == 0 {
		return nil, fmt.Errorf("%w: empty roster import", ErrInvalidInput)
	}
	for i := range ss {
		ss[i].Name = strings.TrimSpace(ss[i].Name)
		if ss[i].Name == "" {
			return nil, fmt.Errorf("%w: student %d has no name", ErrInvalidInput, i)
		}
	}
	created, err := s.store.CreateStudents(ctx, ss)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, noticequeue.KindRosterChanged, "", "")
	return created, nil
}

func (s *Service) ListStudents(ctx context.Context, eventID string) ([]model.Student, error) {
	return s.store.ListStudents(ctx, eventID)
}

func (s *Service) GetStudent(ctx context.Context, id string) (model.Student, error) {
	return s.store.GetStudent(ctx, id)
}

func (s *Service) DeleteStudent(ctx context.Context, id string) error {
	if err := s.store.DeleteStudent(ctx, id); err != nil {
		return err
	}
	s.notify(ctx, noticequeue.KindRosterChanged, id, "")
	return nil
}

// Keys.

func (s *Service) CreateKey(ctx context.Context, k model.AccessKey) (model.AccessKey, error) {
	k.Key = strings.TrimSpace(k.Key)
	if k.Key == "" {
		return model.AccessKey{}, fmt.Errorf("%w: access key secret must not be empty", ErrInvalidInput)
	}
	// Reject keys whose role label would never authenticate.
	if _, err := rolegate.Parse(k.Role); err != nil {
		return model.AccessKey{}, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}
	return s.store.CreateKey(ctx, k)
}

func (s *Service) ListKeys(ctx context.Context) ([]model.AccessKey, error) {
	return s.store.ListKeys(ctx)
}

func (s *Service) DeleteKey(ctx context.Context, id string) error {
	return s.store.DeleteKey(ctx, id)
}

// Ledger.

// UpsertScores writes one judge's scores for a student, clamping each
// raw value into its criterion bound first. The whole batch is rejected
// when the student's set is already final.
func (s *Service) UpsertScores(ctx context.Context, studentID, judgeID, judgeName string, raw map[string]float64) (map[string]float64, error) {
	if studentID == "" {
		return nil, fmt.Errorf("%w: student id must not be empty", ErrInvalidInput)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: no scores given", ErrInvalidInput)
	}

	student, err := s.store.GetStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	criteria, err := s.store.ListCriteria(ctx, student.EventID)
	if err != nil {
		return nil, err
	}
	bounds := make(map[string]float64, len(criteria))
	for _, c := range criteria {
		bounds[c.ID] = c.Bound()
	}

	clamped := make(map[string]float64, len(raw))
	for criterionID, value := range raw {
		bound, ok := bounds[criterionID]
		if !ok {
			return nil, fmt.Errorf("%w: unknown criterion %s", ErrInvalidInput, criterionID)
		}
		v := scoring.Clamp(value, bound)
		if v != value {
			metrics.RecordScoreClamped()
		}
		clamped[criterionID] = v
	}

	for criterionID, value := range clamped {
		_, err := s.store.UpsertScore(ctx, model.ScoreEntry{
			StudentID:   studentID,
			CriterionID: criterionID,
			JudgeID:     judgeID,
			JudgeName:   judgeName,
			EventID:     student.EventID,
			Score:       value,
		})
		if err != nil {
			if errors.Is(err, repository.ErrLocked) {
				metrics.RecordScoreWriteDenied()
			}
			return nil, err
		}
		metrics.RecordScoreUpsert()
	}

	s.notify(ctx, noticequeue.KindScoreUpserted, studentID, student.EventID)
	return clamped, nil
}

// Scores returns the stored criterionID -> score map for a student,
// scoped to one judge or averaged across judges when judgeID is empty.
func (s *Service) Scores(ctx context.Context, studentID, judgeID string) (map[string]float64, error) {
	return s.store.GetScores(ctx, studentID, judgeID)
}

// ScoreState reports whether the student's score set is still writable.
func (s *Service) ScoreState(ctx context.Context, studentID string) (string, error) {
	state, err := s.store.ScoreState(ctx, studentID)
	if err != nil {
		return "", err
	}
	return state.String(), nil
}

// ComputeAverage computes the weighted average for a student from the
// stored scores, averaged across judges.
func (s *Service) ComputeAverage(ctx context.Context, studentID string) (scoring.Breakdown, error) {
	student, err := s.store.GetStudent(ctx, studentID)
	if err != nil {
		return scoring.Breakdown{}, err
	}

	criteria, err := s.store.ListCriteria(ctx, student.EventID)
	if err != nil {
		return scoring.Breakdown{}, err
	}

	scores, err := s.store.GetScores(ctx, studentID, "")
	if err != nil {
		return scoring.Breakdown{}, err
	}

	return scoring.Compute(criteria, scores), nil
}

// Finalize computes the student's weighted average, stamps it onto the
// ledger and locks the set against further writes. Exactly one caller
// wins a concurrent finalize; the rest get repository.ErrLocked.
func (s *Service) Finalize(ctx context.Context, studentID string) (float64, error) {
	student, err := s.store.GetStudent(ctx, studentID)
	if err != nil {
		return 0, err
	}

	breakdown, err := s.ComputeAverage(ctx, studentID)
	if err != nil {
		return 0, err
	}

	if err := s.store.Finalize(ctx, studentID, breakdown.Average, student.EventID); err != nil {
		if errors.Is(err, repository.ErrLocked) {
			metrics.RecordFinalizeConflict()
		}
		return 0, err
	}

	metrics.RecordFinalize()
	s.notify(ctx, noticequeue.KindFinalized, studentID, student.EventID)
	s.logger.Info(ctx, "score set finalized",
		logger.String("student_id", studentID),
		logger.Float64("average", breakdown.Average),
	)
	return breakdown.Average, nil
}

// Unlock reverts a finalized score set to draft. Admin override only;
// the role check happens at the HTTP layer.
func (s *Service) Unlock(ctx context.Context, studentID string) error {
	if err := s.store.Unlock(ctx, studentID); err != nil {
		return err
	}
	metrics.RecordUnlock()
	s.notify(ctx, noticequeue.KindUnlocked, studentID, "")
	s.logger.Info(ctx, "score set unlocked", logger.String("student_id", studentID))
	return nil
}

// Recap.

// Refresh rebuilds the recap snapshot from the store. It also serves as
// the worker pool's Refresher.
func (s *Service) Refresh(ctx context.Context) error {
	start := time.Now()

	results, err := s.store.ListFinalResults(ctx)
	if err != nil {
		metrics.RecordRecapRebuildError()
		return fmt.Errorf("list final results: %w", err)
	}

	rows := recap.Build(results)

	s.snapMu.Lock()
	s.snapshot = rows
	s.snapAt = time.Now()
	s.snapMu.Unlock()

	metrics.RecordRecapRebuild(float64(time.Since(start).Milliseconds()))
	metrics.UpdateRecapRows(len(rows))
	return nil
}

// Recap returns the current ranked snapshot, optionally scoped to one
// event and truncated to limit rows. limit <= 0 means no truncation
// beyond the configured maximum.
func (s *Service) Recap(_ context.Context, eventID string, limit int) []types.RecapRow {
	s.snapMu.RLock()
	rows := s.snapshot
	s.snapMu.RUnlock()

	if eventID != "" {
		rows = recap.Filter(rows, eventID)
	}

	if limit <= 0 || limit > s.maxLimit {
		limit = s.maxLimit
	}
	return recap.Top(rows, limit)
}

// SnapshotAge reports how stale the recap snapshot is.
func (s *Service) SnapshotAge() time.Duration {
	s.snapMu.RLock()
	defer s.snapMu.RUnlock()
	if s.snapAt.IsZero() {
		return 0
	}
	return time.Since(s.snapAt)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":      s.started,
		"workerCount":  s.workerCount,
		"queueSize":    s.queueSize,
		"pollInterval": s.pollInterval.String(),
	}

	if s.started {
		stats["queueLength"] = s.noticeQueue.Len(ctx)
		stats["snapshotAgeMs"] = s.SnapshotAge().Milliseconds()

		s.snapMu.RLock()
		stats["recapRows"] = len(s.snapshot)
		s.snapMu.RUnlock()

		if counter, ok := s.store.(interface {
			Count(ctx context.Context) map[string]int
		}); ok {
			stats["storeCounts"] = counter.Count(ctx)
		}
	}

	return stats
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/lantechdigital/sinilai/internal/domain/model"
	"github.com/lantechdigital/sinilai/internal/domain/workflow"
)

// Row types mirror the production schema. Table names match the
// original deployment (events, event_criteria, students, scores,
// access_keys) so an existing database keeps working.

type eventRow struct {
	ID        string `gorm:"primaryKey"`
	EventName string `gorm:"not null"`
	CreatedAt time.Time
}

func (eventRow) TableName() string { return "events" }

type criterionRow struct {
	ID        string `gorm:"primaryKey"`
	EventID   string `gorm:"index;not null"`
	Name      string `gorm:"not null"`
	Weight    float64
	MaxScore  float64 `gorm:"default:100"`
	CreatedAt time.Time
}

func (criterionRow) TableName() string { return "event_criteria" }

type studentRow struct {
	ID        string `gorm:"primaryKey"`
	Name      string `gorm:"not null"`
	Class     string
	NIS       string `gorm:"column:nis"`
	EventID   string `gorm:"index"`
	CreatedAt time.Time
}

func (studentRow) TableName() string { return "students" }

type scoreRow struct {
	ID           string `gorm:"primaryKey"`
	StudentID    string `gorm:"uniqueIndex:idx_score_key;index;not null"`
	CriterionID  string `gorm:"uniqueIndex:idx_score_key;not null"`
	JudgeID      string `gorm:"uniqueIndex:idx_score_key"`
	JudgeName    string
	EventID      string
	Score        float64
	IsFinal      bool `gorm:"index"`
	AverageScore float64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (scoreRow) TableName() string { return "scores" }

type keyRow struct {
	ID        string `gorm:"primaryKey"`
	Key       string `gorm:"uniqueIndex;not null"`
	Name      string
	Role      string `gorm:"not null"`
	CreatedAt time.Time
}

func (keyRow) TableName() string { return "access_keys" }

// GormStore implements Store over PostgreSQL.
type GormStore struct {
	db *gorm.DB
}

// GormOption applies a configuration option when opening the store.
type GormOption func(*gormSettings)

type gormSettings struct {
	autoMigrate  bool
	logSlowQuery time.Duration
}

// WithAutoMigrate toggles schema migration at startup. On by default.
func WithAutoMigrate(enabled bool) GormOption {
	return func(s *gormSettings) { s.autoMigrate = enabled }
}

// WithSlowQueryThreshold tunes the driver's slow-query warning.
func WithSlowQueryThreshold(d time.Duration) GormOption {
	return func(s *gormSettings) {
		if d > 0 {
			s.logSlowQuery = d
		}
	}
}

// OpenGorm connects to PostgreSQL and optionally migrates the schema.
// PreferSimpleProtocol keeps the store compatible with transaction-pooled
// connections (PgBouncer, hosted Postgres poolers).
func OpenGorm(ctx context.Context, dsn string, opts ...GormOption) (*GormStore, error) {
	settings := &gormSettings{autoMigrate: true, logSlowQuery: 500 * time.Millisecond}
	for _, opt := range opts {
		opt(settings)
	}

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if settings.autoMigrate {
		if err := db.WithContext(ctx).AutoMigrate(
			&eventRow{}, &criterionRow{}, &studentRow{}, &scoreRow{}, &keyRow{},
		); err != nil {
			return nil, fmt.Errorf("migrate schema: %w", err)
		}
	}
	return &GormStore{db: db}, nil
}

// CreateEvent inserts a new event.
func (s *GormStore) CreateEvent(ctx context.Context, name string) (model.Event, error) {
	row := eventRow{ID: uuid.NewString(), EventName: name}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return model.Event{}, translate(err)
	}
	return model.Event{ID: row.ID, Name: row.EventName}, nil
}

// ListEvents returns events in creation order.
func (s *GormStore) ListEvents(ctx context.Context) ([]model.Event, error) {
	var rows []eventRow
	if err := s.db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, translate(err)
	}
	out := make([]model.Event, 0, len(rows))
	for _, r := range rows {
		out = append(out, model.Event{ID: r.ID, Name: r.EventName})
	}
	return out, nil
}

// GetEvent looks up one event.
func (s *GormStore) GetEvent(ctx context.Context, id string) (model.Event, error) {
	var row eventRow
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return model.Event{}, translate(err)
	}
	return model.Event{ID: row.ID, Name: row.EventName}, nil
}

// DeleteEvent removes an event and cascades its criteria in one
// transaction.
func (s *GormStore) DeleteEvent(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&eventRow{}, "id = ?", id)
		if res.Error != nil {
			return translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return translate(tx.Delete(&criterionRow{}, "event_id = ?", id).Error)
	})
}

// AddCriterion inserts a criterion under an existing event.
func (s *GormStore) AddCriterion(ctx context.Context, c model.Criterion) (model.Criterion, error) {
	if _, err := s.GetEvent(ctx, c.EventID); err != nil {
		return model.Criterion{}, err
	}
	row := criterionRow{
		ID:       uuid.NewString(),
		EventID:  c.EventID,
		Name:     c.Name,
		Weight:   c.Weight,
		MaxScore: c.MaxScore,
	}
	if row.MaxScore <= 0 {
		row.MaxScore = model.DefaultMaxScore
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return model.Criterion{}, translate(err)
	}
	return criterionFromRow(row), nil
}

// ListCriteria returns criteria in creation order, optionally scoped.
func (s *GormStore) ListCriteria(ctx context.Context, eventID string) ([]model.Criterion, error) {
	q := s.db.WithContext(ctx).Order("created_at ASC, id ASC")
	if eventID != "" {
		q = q.Where("event_id = ?", eventID)
	}
	var rows []criterionRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, translate(err)
	}
	out := make([]model.Criterion, 0, len(rows))
	for _, r := range rows {
		out = append(out, criterionFromRow(r))
	}
	return out, nil
}

// RemoveCriterion deletes one criterion.
func (s *GormStore) RemoveCriterion(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&criterionRow{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateStudent inserts one roster entry.
func (s *GormStore) CreateStudent(ctx context.Context, st model.Student) (model.Student, error) {
	row := studentRowFrom(st)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return model.Student{}, translate(err)
	}
	return studentFromRow(row), nil
}

// CreateStudents inserts a bulk import in one transaction.
func (s *GormStore) CreateStudents(ctx context.Context, ss []model.Student) ([]model.Student, error) {
	rows := make([]studentRow, 0, len(ss))
	for _, st := range ss {
		rows = append(rows, studentRowFrom(st))
	}
	if err := s.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, translate(err)
	}
	out := make([]model.Student, 0, len(rows))
	for _, r := range rows {
		out = append(out, studentFromRow(r))
	}
	return out, nil
}

// ListStudents returns the roster in creation order, optionally scoped.
func (s *GormStore) ListStudents(ctx context.Context, eventID string) ([]model.Student, error) {
	q := s.db.WithContext(ctx).Order("created_at ASC, id ASC")
	if eventID != "" {
		q = q.Where("event_id = ?", eventID)
	}
	var rows []studentRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, translate(err)
	}
	out := make([]model.Student, 0, len(rows))
	for _, r := range rows {
		out = append(out, studentFromRow(r))
	}
	return out, nil
}

// GetStudent looks up one student.
func (s *GormStore) GetStudent(ctx context.Context, id string) (model.Student, error) {
	var row studentRow
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return model.Student{}, translate(err)
	}
	return studentFromRow(row), nil
}

// DeleteStudent removes a roster entry.
func (s *GormStore) DeleteStudent(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&studentRow{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpsertScore writes one ledger entry via ON CONFLICT on the natural
// key, inside a transaction that re-checks the lock.
func (s *GormStore) UpsertScore(ctx context.Context, e model.ScoreEntry) (model.ScoreEntry, error) {
	row := scoreRow{
		ID:          uuid.NewString(),
		StudentID:   e.StudentID,
		CriterionID: e.CriterionID,
		JudgeID:     e.JudgeID,
		JudgeName:   e.JudgeName,
		EventID:     e.EventID,
		Score:       e.Score,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var finalCount int64
		if err := tx.Model(&scoreRow{}).
			Where("student_id = ? AND is_final = ?", e.StudentID, true).
			Count(&finalCount).Error; err != nil {
			return translate(err)
		}
		if finalCount > 0 {
			return ErrLocked
		}
		if err := translate(tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "student_id"}, {Name: "criterion_id"}, {Name: "judge_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"score", "judge_name", "updated_at"}),
		}).Create(&row).Error); err != nil {
			return err
		}
		// On the conflict path Create leaves row holding the unused
		// generated id; read back the persisted row.
		return translate(tx.
			Where("student_id = ? AND criterion_id = ? AND judge_id = ?",
				e.StudentID, e.CriterionID, e.JudgeID).
			First(&row).Error)
	})
	if err != nil {
		return model.ScoreEntry{}, err
	}
	return scoreFromRow(row), nil
}

// GetScores returns criterionID -> score, averaging across judges when
// judgeID is empty.
func (s *GormStore) GetScores(ctx context.Context, studentID, judgeID string) (map[string]float64, error) {
	type avgRow struct {
		CriterionID string
		Score       float64
	}
	q := s.db.WithContext(ctx).Model(&scoreRow{}).
		Select("criterion_id, AVG(score) AS score").
		Where("student_id = ?", studentID).
		Group("criterion_id")
	if judgeID != "" {
		q = q.Where("judge_id = ?", judgeID)
	}
	var rows []avgRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, translate(err)
	}
	out := make(map[string]float64, len(rows))
	for _, r := range rows {
		out[r.CriterionID] = r.Score
	}
	return out, nil
}

// ScoreState reports the workflow state of the student's score set.
func (s *GormStore) ScoreState(ctx context.Context, studentID string) (workflow.State, error) {
	var finalCount int64
	err := s.db.WithContext(ctx).Model(&scoreRow{}).
		Where("student_id = ? AND is_final = ?", studentID, true).
		Count(&finalCount).Error
	if err != nil {
		return workflow.Draft, translate(err)
	}
	return workflow.StateOf(finalCount > 0), nil
}

// Finalize stamps the average and flags every entry in one transaction.
// The WHERE NOT is_final guard is the compare-and-swap: a racing second
// finalize updates zero rows and surfaces ErrLocked.
func (s *GormStore) Finalize(ctx context.Context, studentID string, average float64, eventID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var total int64
		if err := tx.Model(&scoreRow{}).
			Where("student_id = ?", studentID).
			Count(&total).Error; err != nil {
			return translate(err)
		}
		if total == 0 {
			return ErrNotFound
		}

		updates := map[string]any{
			"is_final":      true,
			"average_score": average,
			"updated_at":    time.Now(),
		}
		if eventID != "" {
			updates["event_id"] = eventID
		}
		res := tx.Model(&scoreRow{}).
			Where("student_id = ? AND is_final = ?", studentID, false).
			Updates(updates)
		if res.Error != nil {
			return translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrLocked
		}
		return nil
	})
}

// Unlock clears the final flag and the stamped average.
func (s *GormStore) Unlock(ctx context.Context, studentID string) error {
	res := s.db.WithContext(ctx).Model(&scoreRow{}).
		Where("student_id = ? AND is_final = ?", studentID, true).
		Updates(map[string]any{
			"is_final":      false,
			"average_score": 0,
			"updated_at":    time.Now(),
		})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return workflow.ErrNotFinal
	}
	return nil
}

// ListFinalResults reads finalized aggregates joined with student and
// event metadata, ordered by entry creation so deduplication is stable.
func (s *GormStore) ListFinalResults(ctx context.Context) ([]model.FinalResult, error) {
	var rows []model.FinalResult
	err := s.db.WithContext(ctx).Table("scores").
		Select(strings.Join([]string{
			"scores.student_id AS student_id",
			"students.name AS student_name",
			"students.class AS class",
			"students.nis AS nis",
			"scores.event_id AS event_id",
			"COALESCE(events.event_name, '') AS event_name",
			"scores.average_score AS final_score",
			"scores.updated_at AS finalized_at",
		}, ", ")).
		Joins("JOIN students ON students.id = scores.student_id").
		Joins("LEFT JOIN events ON events.id = scores.event_id").
		Where("scores.is_final = ?", true).
		Order("scores.created_at ASC, scores.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, translate(err)
	}
	return rows, nil
}

// CreateKey inserts an access key; the unique index rejects duplicates.
func (s *GormStore) CreateKey(ctx context.Context, k model.AccessKey) (model.AccessKey, error) {
	row := keyRow{ID: uuid.NewString(), Key: strings.TrimSpace(k.Key), Name: k.Name, Role: k.Role}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return model.AccessKey{}, translate(err)
	}
	return model.AccessKey{ID: row.ID, Key: row.Key, Name: row.Name, Role: row.Role}, nil
}

// ListKeys returns keys in creation order.
func (s *GormStore) ListKeys(ctx context.Context) ([]model.AccessKey, error) {
	var rows []keyRow
	if err := s.db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, translate(err)
	}
	out := make([]model.AccessKey, 0, len(rows))
	for _, r := range rows {
		out = append(out, model.AccessKey{ID: r.ID, Key: r.Key, Name: r.Name, Role: r.Role})
	}
	return out, nil
}

// DeleteKey removes a credential.
func (s *GormStore) DeleteKey(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&keyRow{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// FindKeyBySecret resolves a credential to its key record.
func (s *GormStore) FindKeyBySecret(ctx context.Context, secret string) (model.AccessKey, error) {
	var row keyRow
	err := s.db.WithContext(ctx).First(&row, "key = ?", strings.TrimSpace(secret)).Error
	if err != nil {
		return model.AccessKey{}, translate(err)
	}
	return model.AccessKey{ID: row.ID, Key: row.Key, Name: row.Name, Role: row.Role}, nil
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrConflict
	default:
		return err
	}
}

func criterionFromRow(r criterionRow) model.Criterion {
	return model.Criterion{ID: r.ID, EventID: r.EventID, Name: r.Name, Weight: r.Weight, MaxScore: r.MaxScore}
}

func studentRowFrom(st model.Student) studentRow {
	id := st.ID
	if id == "" {
		id = uuid.NewString()
	}
	return studentRow{ID: id, Name: st.Name, Class: st.Class, NIS: st.NIS, EventID: st.EventID}
}

func studentFromRow(r studentRow) model.Student {
	return model.Student{ID: r.ID, Name: r.Name, Class: r.Class, NIS: r.NIS, EventID: r.EventID}
}

func scoreFromRow(r scoreRow) model.ScoreEntry {
	return model.ScoreEntry{
		ID:           r.ID,
		StudentID:    r.StudentID,
		CriterionID:  r.CriterionID,
		JudgeID:      r.JudgeID,
		JudgeName:    r.JudgeName,
		EventID:      r.EventID,
		Score:        r.Score,
		IsFinal:      r.IsFinal,
		AverageScore: r.AverageScore,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

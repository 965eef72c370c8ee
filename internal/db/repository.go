package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"cafeteria-meals/internal/model"
	"cafeteria-meals/pkg/errors"
)

type Repository interface {
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error

	// Event Store writes
	InsertValidated(ctx context.Context, studentCode string, day model.Date, at time.Time, slot model.MealSlot) (int64, error)
	InsertMissing(ctx context.Context, params MissingParams) (int64, error)

	// Event Store reads
	ListRecentEvents(ctx context.Context, limit int) ([]model.EventRow, error)
	ListAllEvents(ctx context.Context) ([]model.EventRow, error)
	ListEventsForDay(ctx context.Context, day model.Date, studentCode string) ([]model.EventRow, error)
	SearchEvents(ctx context.Context, filter model.EventFilter, offset, limit int) ([]model.EventRow, int64, error)
	ExportEvents(ctx context.Context, filter model.EventFilter) ([]model.EventRow, error)

	// Aggregates
	CountValidatedBySlotAndGrade(ctx context.Context, day model.Date) ([]model.SlotGradeCount, error)
	CountDistinctValidated(ctx context.Context, day model.Date) (int64, error)
	CountDistinctStudentsWithEvents(ctx context.Context, from, to model.Date, status *model.EventStatus) (int64, error)
	CountStudentsWithPlan(ctx context.Context) (int64, error)
	CountDistinctValidatedWithPlan(ctx context.Context, day model.Date) (int64, error)
	CountStudentsByPlan(ctx context.Context) ([]model.PlanCount, error)

	// Eligibility Directory
	GetStudent(ctx context.Context, code string) (*model.Student, error)
	CountStudents(ctx context.Context) (int64, error)
	CountStudentsWithEventsOn(ctx context.Context, day model.Date) (int64, error)
	ListStudentsWithPlan(ctx context.Context) ([]model.Student, error)
	SearchStudents(ctx context.Context, search model.StudentSearch) ([]model.Student, error)
	UpsertStudents(ctx context.Context, rows []model.StudentRow, at time.Time) error

	// Roster imports
	CreateRosterFile(ctx context.Context, s3Path string, at time.Time) (*model.RosterFile, error)
	GetRosterFile(ctx context.Context, fileID int64) (*model.RosterFile, error)
	UpdateRosterFileStatus(ctx context.Context, fileID int64, status model.FileStatus, rowCount int, errorMessage *string, at time.Time) error
}

// MissingParams describes one reconciliation insert: every student whose
// plan is in Plans and whose grade is not in ExcludedGrades, and who has no
// event for (Day, Slot), receives a NOT_CLAIMED event stamped At.
type MissingParams struct {
	Slot           model.MealSlot
	Day            model.Date
	At             time.Time
	Plans          []model.MealPlan
	ExcludedGrades []string
}

type repository struct {
	db      *sql.DB
	dialect Dialect
}

func NewRepository(db *sql.DB, dialect Dialect) Repository {
	return &repository{db: db, dialect: dialect}
}

func (r *repository) Migrate(ctx context.Context) error {
	for _, stmt := range r.dialect.schema() {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

func (r *repository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return errors.Unavailable("ping", err)
	}
	return nil
}

func (r *repository) InsertValidated(ctx context.Context, studentCode string, day model.Date, at time.Time, slot model.MealSlot) (int64, error) {
	query := `INSERT INTO validation_events (student_code, meal_date, recorded_at, meal_slot, status)
			  VALUES (?, ?, ?, ?, ?)`

	res, err := r.db.ExecContext(ctx, query, studentCode, string(day), at, string(slot), string(model.EventStatusValidated))
	if err != nil {
		if isUniqueViolation(err) {
			return 0, errors.ErrDuplicateEvent
		}
		return 0, errors.Unavailable("insert validated event", err)
	}

	return res.LastInsertId()
}

// InsertMissing runs the anti-join insert as one statement inside one
// transaction, so readers never observe a partial batch.
func (r *repository) InsertMissing(ctx context.Context, p MissingParams) (int64, error) {
	if len(p.Plans) == 0 {
		return 0, nil
	}

	var sb strings.Builder
	sb.WriteString(`INSERT INTO validation_events (student_code, meal_date, recorded_at, meal_slot, status)
		SELECT s.code, ?, ?, ?, ?
		FROM students s
		LEFT JOIN validation_events e
			ON e.student_code = s.code AND e.meal_date = ? AND e.meal_slot = ?
		WHERE e.id IS NULL AND s.meal_plan IN (`)
	sb.WriteString(placeholders(len(p.Plans)))
	sb.WriteString(")")

	args := []interface{}{
		string(p.Day), p.At, string(p.Slot), string(model.EventStatusNotClaimed),
		string(p.Day), string(p.Slot),
	}
	for _, plan := range p.Plans {
		args = append(args, string(plan))
	}
	if len(p.ExcludedGrades) > 0 {
		sb.WriteString(" AND s.grade NOT IN (")
		sb.WriteString(placeholders(len(p.ExcludedGrades)))
		sb.WriteString(")")
		for _, g := range p.ExcludedGrades {
			args = append(args, g)
		}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.Unavailable("begin reconciliation", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, sb.String(), args...)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, errors.ErrDuplicateEvent
		}
		return 0, errors.Unavailable("insert missing events", err)
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Unavailable("count inserted events", err)
	}

	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return 0, errors.ErrDuplicateEvent
		}
		return 0, errors.Unavailable("commit reconciliation", err)
	}

	return inserted, nil
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

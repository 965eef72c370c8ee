package db

import (
	"context"
	"database/sql"
	stderrors "errors"
	"strings"
	"time"

	"cafeteria-meals/internal/model"
	"cafeteria-meals/pkg/errors"
)

func (r *repository) GetStudent(ctx context.Context, code string) (*model.Student, error) {
	query := `SELECT code, name, grade, meal_plan, created_at, updated_at FROM students WHERE code = ?`

	var s model.Student
	err := r.db.QueryRowContext(ctx, query, code).Scan(
		&s.Code, &s.Name, &s.Grade, &s.MealPlan, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.ErrStudentNotFound
		}
		return nil, errors.Unavailable("get student", err)
	}

	return &s, nil
}

func (r *repository) CountStudents(ctx context.Context) (int64, error) {
	return r.count(ctx, "count students", `SELECT COUNT(*) FROM students`)
}

func (r *repository) CountStudentsWithEventsOn(ctx context.Context, day model.Date) (int64, error) {
	query := `SELECT COUNT(DISTINCT student_code) FROM validation_events WHERE meal_date = ?`
	return r.count(ctx, "count students with events", query, string(day))
}

func (r *repository) ListStudentsWithPlan(ctx context.Context) ([]model.Student, error) {
	query := `SELECT code, name, grade, meal_plan, created_at, updated_at
			  FROM students WHERE meal_plan <> ? ORDER BY name, code`
	return r.queryStudents(ctx, "list students with plan", query, string(model.MealPlanNone))
}

func (r *repository) SearchStudents(ctx context.Context, search model.StudentSearch) ([]model.Student, error) {
	if search.Empty() {
		return nil, errors.ErrNoSearchCriteria
	}

	query := `SELECT code, name, grade, meal_plan, created_at, updated_at
			  FROM students WHERE meal_plan <> ?`
	args := []interface{}{string(model.MealPlanNone)}

	if code := strings.TrimSpace(search.Code); code != "" {
		query += ` AND code LIKE ?`
		args = append(args, "%"+code+"%")
	}
	if name := strings.TrimSpace(search.Name); name != "" {
		query += ` AND name LIKE ?`
		args = append(args, "%"+name+"%")
	}
	if grade := strings.TrimSpace(search.Grade); grade != "" {
		query += ` AND grade = ?`
		args = append(args, grade)
	}
	query += ` ORDER BY name, code`

	return r.queryStudents(ctx, "search students", query, args...)
}

func (r *repository) UpsertStudents(ctx context.Context, rows []model.StudentRow, at time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Unavailable("begin roster upsert", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, r.dialect.upsertStudentQuery())
	if err != nil {
		return errors.Unavailable("prepare roster upsert", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		_, err := stmt.ExecContext(ctx, row.Code, row.Name, row.Grade, string(row.MealPlan), at, at)
		if err != nil {
			return errors.Unavailable("upsert student", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Unavailable("commit roster upsert", err)
	}
	return nil
}

func (r *repository) queryStudents(ctx context.Context, op, query string, args ...interface{}) ([]model.Student, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Unavailable(op, err)
	}
	defer rows.Close()

	students := []model.Student{}
	for rows.Next() {
		var s model.Student
		if err := rows.Scan(&s.Code, &s.Name, &s.Grade, &s.MealPlan, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, errors.Unavailable(op, err)
		}
		students = append(students, s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Unavailable(op, err)
	}

	return students, nil
}

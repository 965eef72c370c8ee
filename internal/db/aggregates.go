package db

import (
	"context"
	"database/sql"

	"cafeteria-meals/internal/model"
	"cafeteria-meals/pkg/errors"
)

// CountValidatedBySlotAndGrade groups a day's validated events by slot and
// the student's grade. Events whose student is gone report an empty grade.
func (r *repository) CountValidatedBySlotAndGrade(ctx context.Context, day model.Date) ([]model.SlotGradeCount, error) {
	query := `SELECT e.meal_slot, COALESCE(s.grade, ''), COUNT(*)
			  FROM validation_events e
			  LEFT JOIN students s ON s.code = e.student_code
			  WHERE e.meal_date = ? AND e.status = ?
			  GROUP BY e.meal_slot, COALESCE(s.grade, '')`

	rows, err := r.db.QueryContext(ctx, query, string(day), string(model.EventStatusValidated))
	if err != nil {
		return nil, errors.Unavailable("count validated by slot and grade", err)
	}
	defer rows.Close()

	var counts []model.SlotGradeCount
	for rows.Next() {
		var c model.SlotGradeCount
		if err := rows.Scan(&c.Slot, &c.Grade, &c.Count); err != nil {
			return nil, errors.Unavailable("count validated by slot and grade", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Unavailable("count validated by slot and grade", err)
	}

	return counts, nil
}

func (r *repository) CountDistinctValidated(ctx context.Context, day model.Date) (int64, error) {
	query := `SELECT COUNT(DISTINCT student_code) FROM validation_events
			  WHERE meal_date = ? AND status = ?`
	return r.count(ctx, "count distinct validated", query, string(day), string(model.EventStatusValidated))
}

func (r *repository) CountDistinctStudentsWithEvents(ctx context.Context, from, to model.Date, status *model.EventStatus) (int64, error) {
	query := `SELECT COUNT(DISTINCT e.student_code)
			  FROM validation_events e
			  INNER JOIN students s ON s.code = e.student_code
			  WHERE e.meal_date >= ? AND e.meal_date <= ?`
	args := []interface{}{string(from), string(to)}
	if status != nil {
		query += ` AND e.status = ?`
		args = append(args, string(*status))
	}
	return r.count(ctx, "count students with events", query, args...)
}

func (r *repository) CountStudentsWithPlan(ctx context.Context) (int64, error) {
	query := `SELECT COUNT(*) FROM students WHERE meal_plan <> ?`
	return r.count(ctx, "count students with plan", query, string(model.MealPlanNone))
}

func (r *repository) CountDistinctValidatedWithPlan(ctx context.Context, day model.Date) (int64, error) {
	query := `SELECT COUNT(DISTINCT e.student_code)
			  FROM validation_events e
			  INNER JOIN students s ON s.code = e.student_code
			  WHERE e.meal_date = ? AND e.status = ? AND s.meal_plan <> ?`
	return r.count(ctx, "count consumed with plan", query,
		string(day), string(model.EventStatusValidated), string(model.MealPlanNone))
}

func (r *repository) CountStudentsByPlan(ctx context.Context) ([]model.PlanCount, error) {
	query := `SELECT meal_plan, COUNT(*) FROM students
			  WHERE meal_plan <> ?
			  GROUP BY meal_plan
			  ORDER BY meal_plan`

	rows, err := r.db.QueryContext(ctx, query, string(model.MealPlanNone))
	if err != nil {
		return nil, errors.Unavailable("count students by plan", err)
	}
	defer rows.Close()

	counts := []model.PlanCount{}
	for rows.Next() {
		var c model.PlanCount
		if err := rows.Scan(&c.MealPlan, &c.Total); err != nil {
			return nil, errors.Unavailable("count students by plan", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Unavailable("count students by plan", err)
	}

	return counts, nil
}

// count runs a single-value aggregate. COUNT never yields NULL, but a NULL
// still reads as zero rather than an error.
func (r *repository) count(ctx context.Context, op, query string, args ...interface{}) (int64, error) {
	var n sql.NullInt64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, errors.Unavailable(op, err)
	}
	return n.Int64, nil
}

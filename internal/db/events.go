package db

import (
	"context"
	"database/sql"
	"strings"

	"cafeteria-meals/internal/model"
	"cafeteria-meals/pkg/errors"
)

// Students may be removed from the directory after their events were
// written, so rows keep the event and leave directory fields empty.
const eventRowSelect = `SELECT e.id, e.student_code, s.name, s.grade, s.meal_plan,
		e.recorded_at, e.meal_slot, e.status
	FROM validation_events e
	LEFT JOIN students s ON s.code = e.student_code`

func (r *repository) ListRecentEvents(ctx context.Context, limit int) ([]model.EventRow, error) {
	query := eventRowSelect + ` ORDER BY e.recorded_at DESC, e.id DESC LIMIT ?`
	return r.queryEventRows(ctx, "list recent events", query, limit)
}

func (r *repository) ListAllEvents(ctx context.Context) ([]model.EventRow, error) {
	query := eventRowSelect + ` ORDER BY e.recorded_at DESC, e.id DESC`
	return r.queryEventRows(ctx, "list events", query)
}

func (r *repository) ListEventsForDay(ctx context.Context, day model.Date, studentCode string) ([]model.EventRow, error) {
	query := eventRowSelect + ` WHERE e.meal_date = ?`
	args := []interface{}{string(day)}
	if studentCode != "" {
		query += ` AND e.student_code = ?`
		args = append(args, studentCode)
	}
	query += ` ORDER BY e.recorded_at DESC, e.id DESC`
	return r.queryEventRows(ctx, "list events for day", query, args...)
}

func (r *repository) SearchEvents(ctx context.Context, filter model.EventFilter, offset, limit int) ([]model.EventRow, int64, error) {
	where, args := eventWhere(filter)

	var total int64
	countQuery := `SELECT COUNT(*) FROM validation_events e` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, errors.Unavailable("count events", err)
	}

	if total == 0 {
		return []model.EventRow{}, 0, nil
	}

	query := eventRowSelect + where + ` ORDER BY e.recorded_at DESC, e.id DESC LIMIT ? OFFSET ?`
	rows, err := r.queryEventRows(ctx, "search events", query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}

	return rows, total, nil
}

func (r *repository) ExportEvents(ctx context.Context, filter model.EventFilter) ([]model.EventRow, error) {
	where, args := eventWhere(filter)
	query := eventRowSelect + where + ` ORDER BY e.recorded_at DESC, e.id DESC`
	return r.queryEventRows(ctx, "export events", query, args...)
}

func eventWhere(filter model.EventFilter) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if filter.StartDate != nil {
		conditions = append(conditions, "e.meal_date >= ?")
		args = append(args, string(*filter.StartDate))
	}
	if filter.EndDate != nil {
		conditions = append(conditions, "e.meal_date <= ?")
		args = append(args, string(*filter.EndDate))
	}
	if filter.StudentCode != "" {
		conditions = append(conditions, "e.student_code = ?")
		args = append(args, filter.StudentCode)
	}
	if filter.Slot != nil {
		conditions = append(conditions, "e.meal_slot = ?")
		args = append(args, string(*filter.Slot))
	}
	if filter.Status != nil {
		conditions = append(conditions, "e.status = ?")
		args = append(args, string(*filter.Status))
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func (r *repository) queryEventRows(ctx context.Context, op, query string, args ...interface{}) ([]model.EventRow, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Unavailable(op, err)
	}
	defer rows.Close()

	events := []model.EventRow{}
	for rows.Next() {
		var (
			row      model.EventRow
			name     sql.NullString
			grade    sql.NullString
			mealPlan sql.NullString
		)
		err := rows.Scan(&row.ID, &row.StudentCode, &name, &grade, &mealPlan,
			&row.Timestamp, &row.Slot, &row.Status)
		if err != nil {
			return nil, errors.Unavailable(op, err)
		}
		row.Name = name.String
		row.Grade = grade.String
		row.MealType = model.MealPlan(mealPlan.String)
		events = append(events, row)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Unavailable(op, err)
	}

	return events, nil
}

package report

import (
	"context"
	"fmt"
	"math"
	"time"

	"cafeteria-meals/internal/config"
	"cafeteria-meals/internal/db"
	"cafeteria-meals/internal/excel"
	"cafeteria-meals/internal/model"
	"cafeteria-meals/pkg/errors"
)

// maxSearchOffset keeps page arithmetic inside the range every driver
// accepts for OFFSET.
const maxSearchOffset = math.MaxInt32

// Query serves listings, search and spreadsheet export over the event log
// and the student directory.
type Query struct {
	repo            db.Repository
	loc             *time.Location
	now             func() time.Time
	recentLimit     int
	defaultPageSize int
	maxPageSize     int
}

func NewQuery(repo db.Repository, cfg *config.Config, loc *time.Location) *Query {
	return &Query{
		repo:            repo,
		loc:             loc,
		now:             time.Now,
		recentLimit:     cfg.Export.RecentLimit,
		defaultPageSize: cfg.Export.DefaultPageSize,
		maxPageSize:     cfg.Export.MaxPageSize,
	}
}

func (q *Query) WithClock(now func() time.Time) *Query {
	q.now = now
	return q
}

func (q *Query) Health(ctx context.Context) error {
	return q.repo.Ping(ctx)
}

func (q *Query) ListRecent(ctx context.Context) ([]model.EventRow, error) {
	return q.repo.ListRecentEvents(ctx, q.recentLimit)
}

func (q *Query) ListAll(ctx context.Context) ([]model.EventRow, error) {
	return q.repo.ListAllEvents(ctx)
}

func (q *Query) ListToday(ctx context.Context, studentCode string) (*model.TodayEvents, error) {
	day := model.DateOf(q.now(), q.loc)
	rows, err := q.repo.ListEventsForDay(ctx, day, studentCode)
	if err != nil {
		return nil, err
	}

	out := &model.TodayEvents{
		StudentCode: studentCode,
		Date:        day,
		Total:       len(rows),
		Data:        rows,
	}
	for _, row := range rows {
		out.Counts.Add(row.Slot, 1)
	}
	return out, nil
}

// Search returns one 1-based page of matching events. Out-of-range page
// arguments fall back to the first page and the default size; a page
// beyond the searchable range is a ValidationError.
func (q *Query) Search(ctx context.Context, filter model.EventFilter, page, size int) (*model.Page[model.EventRow], error) {
	if err := validateRange(filter); err != nil {
		return nil, err
	}

	page, size = q.normalizePage(page, size)
	if page-1 > maxSearchOffset/size {
		return nil, errors.ValidationError{Field: "page", Value: page, Message: "is beyond the last searchable row"}
	}
	offset := (page - 1) * size

	rows, total, err := q.repo.SearchEvents(ctx, filter, offset, size)
	if err != nil {
		return nil, err
	}

	return &model.Page[model.EventRow]{Total: total, Page: page, Size: size, Data: rows}, nil
}

// Export renders the filtered events as a workbook and returns it with its
// download file name. An empty result is ErrNoRecords.
func (q *Query) Export(ctx context.Context, filter model.EventFilter) (string, []byte, error) {
	if err := validateRange(filter); err != nil {
		return "", nil, err
	}

	rows, err := q.repo.ExportEvents(ctx, filter)
	if err != nil {
		return "", nil, err
	}
	if len(rows) == 0 {
		return "", nil, errors.ErrNoRecords
	}

	data, err := excel.WriteEvents(rows, q.loc)
	if err != nil {
		return "", nil, fmt.Errorf("failed to render export: %w", err)
	}

	return ExportFilename(filter), data, nil
}

func (q *Query) ExportAll(ctx context.Context) (string, []byte, error) {
	return q.Export(ctx, model.EventFilter{})
}

func (q *Query) CountStudents(ctx context.Context) (int64, error) {
	return q.repo.CountStudents(ctx)
}

func (q *Query) CountStudentsToday(ctx context.Context) (int64, error) {
	return q.repo.CountStudentsWithEventsOn(ctx, model.DateOf(q.now(), q.loc))
}

func (q *Query) ListStudentsWithPlan(ctx context.Context) ([]model.Student, error) {
	return q.repo.ListStudentsWithPlan(ctx)
}

func (q *Query) SearchStudents(ctx context.Context, search model.StudentSearch) ([]model.Student, error) {
	return q.repo.SearchStudents(ctx, search)
}

// ExportFilename names an export after its student and date range.
func ExportFilename(filter model.EventFilter) string {
	code := "all"
	if filter.StudentCode != "" {
		code = filter.StudentCode
	}
	start := "begin"
	if filter.StartDate != nil {
		start = filter.StartDate.String()
	}
	end := "end"
	if filter.EndDate != nil {
		end = filter.EndDate.String()
	}
	return fmt.Sprintf("meal_events_%s_%s_to_%s.xlsx", code, start, end)
}

func (q *Query) normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = q.defaultPageSize
	}
	if size > q.maxPageSize {
		size = q.maxPageSize
	}
	return page, size
}

func validateRange(filter model.EventFilter) error {
	if filter.StartDate != nil && filter.EndDate != nil && filter.StartDate.After(*filter.EndDate) {
		return errors.ValidationError{
			Field:   "start_date",
			Value:   filter.StartDate.String(),
			Message: "must not be after end_date",
		}
	}
	return nil
}

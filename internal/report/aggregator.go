package report

import (
	"context"
	"time"

	"cafeteria-meals/internal/db"
	"cafeteria-meals/internal/model"
)

// Aggregator computes dashboard counts straight from the store on every
// call. Nothing is cached, and a store failure is returned as an error
// rather than reported as zero.
type Aggregator struct {
	repo db.Repository
	loc  *time.Location
	now  func() time.Time
}

func NewAggregator(repo db.Repository, loc *time.Location) *Aggregator {
	return &Aggregator{repo: repo, loc: loc, now: time.Now}
}

func (a *Aggregator) WithClock(now func() time.Time) *Aggregator {
	a.now = now
	return a
}

func (a *Aggregator) Today() model.Date {
	return model.DateOf(a.now(), a.loc)
}

func (a *Aggregator) TodayBreakdown(ctx context.Context) (*model.TodayBreakdown, error) {
	return a.Breakdown(ctx, a.Today())
}

// Breakdown counts validated events for day by slot and by grade band.
// Slot totals include every validated event; band totals only those whose
// student has a numeric grade.
func (a *Aggregator) Breakdown(ctx context.Context, day model.Date) (*model.TodayBreakdown, error) {
	groups, err := a.repo.CountValidatedBySlotAndGrade(ctx, day)
	if err != nil {
		return nil, err
	}

	total, err := a.repo.CountDistinctValidated(ctx, day)
	if err != nil {
		return nil, err
	}

	out := &model.TodayBreakdown{Date: day, TotalStudents: total}
	for _, g := range groups {
		out.Slots.Add(g.Slot, g.Count)

		band, ok := model.BandOf(g.Grade)
		if !ok {
			continue
		}
		switch band {
		case model.GradeBandElementary:
			out.Elementary.Add(g.Slot, g.Count)
		case model.GradeBandHighSchool:
			out.HighSchool.Add(g.Slot, g.Count)
		}
	}

	return out, nil
}

// MonthlyConsumption counts distinct students with any event in the month.
// A zero year or month means the current one, in local time. A non-nil
// status narrows the count to that status.
func (a *Aggregator) MonthlyConsumption(ctx context.Context, year int, month time.Month, status *model.EventStatus) (*model.MonthlyConsumption, error) {
	now := a.now().In(a.loc)
	if year == 0 {
		year = now.Year()
	}
	if month == 0 {
		month = now.Month()
	}

	from, to := model.MonthRange(year, month)
	total, err := a.repo.CountDistinctStudentsWithEvents(ctx, from, to, status)
	if err != nil {
		return nil, err
	}

	return &model.MonthlyConsumption{Year: year, Month: int(month), Total: total}, nil
}

func (a *Aggregator) PlanTotals(ctx context.Context) (*model.PlanTotals, error) {
	day := a.Today()

	total, err := a.repo.CountStudentsWithPlan(ctx)
	if err != nil {
		return nil, err
	}

	consumed, err := a.repo.CountDistinctValidatedWithPlan(ctx, day)
	if err != nil {
		return nil, err
	}

	byPlan, err := a.repo.CountStudentsByPlan(ctx)
	if err != nil {
		return nil, err
	}

	return &model.PlanTotals{
		Date:           day,
		TotalStudents:  total,
		ConsumedToday:  consumed,
		StudentsByPlan: byPlan,
	}, nil
}

package report

import (
	"context"
	"testing"
	"time"

	"cafeteria-meals/internal/db/dbtest"
	"cafeteria-meals/internal/model"
	"cafeteria-meals/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	bogota, _ = time.LoadLocation("America/Bogota")
	now       = time.Date(2026, 10, 14, 15, 0, 0, 0, bogota)
	morning   = time.Date(2026, 10, 14, 9, 0, 0, 0, bogota)
)

func fixedClock() time.Time { return now }

func TestBreakdown_BandsAndSlots(t *testing.T) {
	repo, _ := dbtest.NewRepository(t)
	dbtest.SeedStudents(t, repo,
		dbtest.Student("E3", "3", model.MealPlanFull),
		dbtest.Student("H7", "7", model.MealPlanFull),
		dbtest.Student("KG", "K4", model.MealPlanSnack),
	)
	dbtest.Validate(t, repo, "E3", "2026-10-14", morning, model.MealSlotSnack)
	dbtest.Validate(t, repo, "H7", "2026-10-14", morning, model.MealSlotSnack)
	dbtest.Validate(t, repo, "H7", "2026-10-14", morning.Add(4*time.Hour), model.MealSlotLunch)
	dbtest.Validate(t, repo, "KG", "2026-10-14", morning, model.MealSlotSnack)
	dbtest.Validate(t, repo, "E3", "2026-10-13", morning.AddDate(0, 0, -1), model.MealSlotLunch)

	agg := NewAggregator(repo, bogota).WithClock(fixedClock)

	got, err := agg.TodayBreakdown(context.Background())
	require.NoError(t, err)

	assert.Equal(t, model.TodayBreakdown{
		Date:          "2026-10-14",
		TotalStudents: 3,
		Slots:         model.SlotCounts{Snack: 3, Lunch: 1},
		Elementary:    model.SlotCounts{Snack: 1},
		HighSchool:    model.SlotCounts{Snack: 1, Lunch: 1},
	}, *got)
}

func TestBreakdown_IgnoresNotClaimed(t *testing.T) {
	repo, _ := dbtest.NewRepository(t)
	dbtest.SeedStudents(t, repo, dbtest.Student("H7", "7", model.MealPlanSnack))

	_, err := repo.InsertMissing(context.Background(), missingSnack())
	require.NoError(t, err)

	got, err := NewAggregator(repo, bogota).WithClock(fixedClock).TodayBreakdown(context.Background())
	require.NoError(t, err)
	assert.Zero(t, got.TotalStudents)
	assert.Equal(t, model.SlotCounts{}, got.Slots)
}

func TestMonthlyConsumption(t *testing.T) {
	repo, _ := dbtest.NewRepository(t)
	dbtest.SeedStudents(t, repo,
		dbtest.Student("A", "7", model.MealPlanFull),
		dbtest.Student("B", "8", model.MealPlanSnack),
	)
	dbtest.Validate(t, repo, "A", "2026-10-01", morning, model.MealSlotSnack)
	dbtest.Validate(t, repo, "A", "2026-10-14", morning, model.MealSlotLunch)
	_, err := repo.InsertMissing(context.Background(), missingSnack())
	require.NoError(t, err)

	agg := NewAggregator(repo, bogota).WithClock(fixedClock)
	ctx := context.Background()

	got, err := agg.MonthlyConsumption(ctx, 0, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, model.MonthlyConsumption{Year: 2026, Month: 10, Total: 2}, *got)

	validated := model.EventStatusValidated
	got, err = agg.MonthlyConsumption(ctx, 0, 0, &validated)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Total)

	got, err = agg.MonthlyConsumption(ctx, 2026, time.March, nil)
	require.NoError(t, err)
	assert.Equal(t, model.MonthlyConsumption{Year: 2026, Month: 3, Total: 0}, *got)
}

func TestPlanTotals(t *testing.T) {
	repo, _ := dbtest.NewRepository(t)
	dbtest.SeedStudents(t, repo,
		dbtest.Student("A", "7", model.MealPlanFull),
		dbtest.Student("B", "8", model.MealPlanSnack),
		dbtest.Student("C", "9", model.MealPlanSnack),
		dbtest.Student("N", "9", model.MealPlanNone),
	)
	dbtest.Validate(t, repo, "A", "2026-10-14", morning, model.MealSlotSnack)
	dbtest.Validate(t, repo, "A", "2026-10-14", morning, model.MealSlotLunch)

	got, err := NewAggregator(repo, bogota).WithClock(fixedClock).PlanTotals(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(3), got.TotalStudents)
	assert.Equal(t, int64(1), got.ConsumedToday)
	assert.Equal(t, []model.PlanCount{
		{MealPlan: model.MealPlanFull, Total: 1},
		{MealPlan: model.MealPlanSnack, Total: 2},
	}, got.StudentsByPlan)
}

func TestAggregatesOnEmptyStoreAreZero(t *testing.T) {
	repo, _ := dbtest.NewRepository(t)
	agg := NewAggregator(repo, bogota).WithClock(fixedClock)
	ctx := context.Background()

	breakdown, err := agg.TodayBreakdown(ctx)
	require.NoError(t, err)
	assert.Zero(t, breakdown.TotalStudents)

	month, err := agg.MonthlyConsumption(ctx, 0, 0, nil)
	require.NoError(t, err)
	assert.Zero(t, month.Total)

	plans, err := agg.PlanTotals(ctx)
	require.NoError(t, err)
	assert.Zero(t, plans.TotalStudents)
	assert.NotNil(t, plans.StudentsByPlan)
}

func TestAggregatesReportUnavailableStore(t *testing.T) {
	repo, conn := dbtest.NewRepository(t)
	require.NoError(t, conn.Close())
	agg := NewAggregator(repo, bogota).WithClock(fixedClock)
	ctx := context.Background()

	_, err := agg.TodayBreakdown(ctx)
	assert.ErrorIs(t, err, errors.ErrStoreUnavailable)

	_, err = agg.MonthlyConsumption(ctx, 0, 0, nil)
	assert.ErrorIs(t, err, errors.ErrStoreUnavailable)

	_, err = agg.PlanTotals(ctx)
	assert.ErrorIs(t, err, errors.ErrStoreUnavailable)
}

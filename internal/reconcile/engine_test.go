package reconcile

import (
	"context"
	"fmt"
	"testing"
	"time"

	"cafeteria-meals/internal/config"
	"cafeteria-meals/internal/db"
	"cafeteria-meals/internal/db/dbtest"
	"cafeteria-meals/internal/model"
	"cafeteria-meals/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) InsertMissing(ctx context.Context, params db.MissingParams) (int64, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(int64), args.Error(1)
}

var bogota, _ = time.LoadLocation("America/Bogota")

func testConfig() *config.Config {
	return &config.Config{
		Schedule: config.ScheduleConfig{
			ExcludedGrades: []string{"K2", "K3", "K4", "K5", "1", "2"},
		},
		Reconciliation: config.ReconciliationConfig{
			Timeout:             5 * time.Second,
			MaxConflictAttempts: 3,
		},
	}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

var snackCutoff = time.Date(2026, 10, 14, 11, 30, 0, 0, bogota)

func TestReconcile_PassesEligibilityToStore(t *testing.T) {
	store := new(mockStore)
	store.On("InsertMissing", mock.Anything, mock.MatchedBy(func(p db.MissingParams) bool {
		return p.Slot == model.MealSlotSnack &&
			p.Day == "2026-10-14" &&
			p.At.Equal(snackCutoff) &&
			assert.ObjectsAreEqual(model.PlansCovering(model.MealSlotSnack), p.Plans) &&
			len(p.ExcludedGrades) == 6
	})).Return(int64(4), nil).Once()

	engine := NewEngine(store, testConfig(), bogota).WithClock(fixedClock(snackCutoff))

	result, err := engine.Reconcile(context.Background(), model.MealSlotSnack)
	require.NoError(t, err)
	assert.Equal(t, int64(4), result.Inserted)
	assert.Equal(t, 1, result.Attempts)
	assert.Equal(t, model.Date("2026-10-14"), result.Date)
	store.AssertExpectations(t)
}

func TestReconcile_RerunsAfterUniqueConflict(t *testing.T) {
	store := new(mockStore)
	store.On("InsertMissing", mock.Anything, mock.Anything).Return(int64(0), errors.ErrDuplicateEvent).Once()
	store.On("InsertMissing", mock.Anything, mock.Anything).Return(int64(7), nil).Once()

	engine := NewEngine(store, testConfig(), bogota).WithClock(fixedClock(snackCutoff))

	result, err := engine.Reconcile(context.Background(), model.MealSlotSnack)
	require.NoError(t, err)
	assert.Equal(t, int64(7), result.Inserted)
	assert.Equal(t, 2, result.Attempts)
	store.AssertNumberOfCalls(t, "InsertMissing", 2)
}

func TestReconcile_GivesUpAfterMaxConflicts(t *testing.T) {
	store := new(mockStore)
	store.On("InsertMissing", mock.Anything, mock.Anything).Return(int64(0), errors.ErrDuplicateEvent)

	engine := NewEngine(store, testConfig(), bogota).WithClock(fixedClock(snackCutoff))

	result, err := engine.Reconcile(context.Background(), model.MealSlotLunch)
	assert.ErrorIs(t, err, errors.ErrDuplicateEvent)
	assert.Equal(t, 3, result.Attempts)
	store.AssertNumberOfCalls(t, "InsertMissing", 3)
}

func TestReconcile_DoesNotRetryUnavailableStore(t *testing.T) {
	store := new(mockStore)
	store.On("InsertMissing", mock.Anything, mock.Anything).
		Return(int64(0), errors.Unavailable("insert missing events", fmt.Errorf("connection refused")))

	engine := NewEngine(store, testConfig(), bogota).WithClock(fixedClock(snackCutoff))

	_, err := engine.Reconcile(context.Background(), model.MealSlotSnack)
	assert.ErrorIs(t, err, errors.ErrStoreUnavailable)
	store.AssertNumberOfCalls(t, "InsertMissing", 1)
}

func TestReconcileDay_DateRules(t *testing.T) {
	store := new(mockStore)
	store.On("InsertMissing", mock.Anything, mock.Anything).Return(int64(0), nil)

	cfg := testConfig()
	engine := NewEngine(store, cfg, bogota).WithClock(fixedClock(snackCutoff))
	ctx := context.Background()

	_, err := engine.ReconcileDay(ctx, model.MealSlotSnack, "2026-10-15")
	assert.ErrorIs(t, err, errors.ErrFutureDate)

	_, err = engine.ReconcileDay(ctx, model.MealSlotSnack, "2026-10-13")
	assert.ErrorIs(t, err, errors.ErrBackfillDisabled)

	_, err = engine.ReconcileDay(ctx, model.MealSlot("DINNER"), "2026-10-14")
	assert.ErrorIs(t, err, errors.ErrInvalidSlot)

	store.AssertNotCalled(t, "InsertMissing", mock.Anything, mock.Anything)

	cfg.Reconciliation.AllowBackfill = true
	engine = NewEngine(store, cfg, bogota).WithClock(fixedClock(snackCutoff))

	result, err := engine.ReconcileDay(ctx, model.MealSlotSnack, "2026-10-13")
	require.NoError(t, err)
	assert.Equal(t, model.Date("2026-10-13"), result.Date)

	_, err = engine.ReconcileDay(ctx, model.MealSlotSnack, "2026-10-15")
	assert.ErrorIs(t, err, errors.ErrFutureDate, "future dates stay refused with backfill on")
}

func TestReconcile_TodayUsesSchoolTimezone(t *testing.T) {
	store := new(mockStore)
	store.On("InsertMissing", mock.Anything, mock.MatchedBy(func(p db.MissingParams) bool {
		return p.Day == "2026-10-14"
	})).Return(int64(0), nil)

	// 23:30 in Bogota is already the next day in UTC.
	late := time.Date(2026, 10, 15, 4, 30, 0, 0, time.UTC)
	engine := NewEngine(store, testConfig(), bogota).WithClock(fixedClock(late))

	_, err := engine.Reconcile(context.Background(), model.MealSlotLunch)
	require.NoError(t, err)
	store.AssertExpectations(t)
}

func TestReconcile_Scenarios(t *testing.T) {
	repo, _ := dbtest.NewRepository(t)
	ctx := context.Background()
	dbtest.SeedStudents(t, repo,
		dbtest.Student("A", "7", model.MealPlanSnack),
		dbtest.Student("B", "8", model.MealPlanLunch),
		dbtest.Student("C", "9", model.MealPlanNone),
		dbtest.Student("D", "6", model.MealPlanSnack),
	)

	morning := time.Date(2026, 10, 14, 9, 0, 0, 0, bogota)
	dbtest.Validate(t, repo, "D", "2026-10-14", morning, model.MealSlotSnack)

	engine := NewEngine(repo, testConfig(), bogota).WithClock(fixedClock(snackCutoff))

	result, err := engine.Reconcile(ctx, model.MealSlotSnack)
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Inserted, "only A lacks a snack event")

	result, err = engine.Reconcile(ctx, model.MealSlotSnack)
	require.NoError(t, err)
	assert.Equal(t, int64(0), result.Inserted)

	result, err = engine.Reconcile(ctx, model.MealSlotLunch)
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Inserted)

	rows, err := repo.ListEventsForDay(ctx, "2026-10-14", "D")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, model.EventStatusValidated, rows[0].Status)
	assert.True(t, rows[0].Timestamp.Equal(morning))
}

package reconcile

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"cafeteria-meals/internal/config"
	"cafeteria-meals/internal/db"
	"cafeteria-meals/internal/logger"
	"cafeteria-meals/internal/model"
	"cafeteria-meals/pkg/errors"

	"github.com/rs/zerolog"
)

// Store is the single write the engine performs.
type Store interface {
	InsertMissing(ctx context.Context, params db.MissingParams) (int64, error)
}

type Result struct {
	Slot     model.MealSlot `json:"slot"`
	Date     model.Date     `json:"date"`
	Inserted int64          `json:"inserted"`
	Attempts int            `json:"attempts"`
	Duration time.Duration  `json:"duration"`
}

// Engine inserts NOT_CLAIMED events for eligible students that have no
// event for a slot and day. Each attempt is one atomic insert-from-select.
type Engine struct {
	store          Store
	loc            *time.Location
	excludedGrades []string
	timeout        time.Duration
	maxAttempts    int
	allowBackfill  bool
	now            func() time.Time
	log            zerolog.Logger
}

func NewEngine(store Store, cfg *config.Config, loc *time.Location) *Engine {
	return &Engine{
		store:          store,
		loc:            loc,
		excludedGrades: cfg.Schedule.ExcludedGrades,
		timeout:        cfg.Reconciliation.Timeout,
		maxAttempts:    cfg.Reconciliation.MaxConflictAttempts,
		allowBackfill:  cfg.Reconciliation.AllowBackfill,
		now:            time.Now,
		log:            logger.Component("reconcile"),
	}
}

// WithClock replaces the engine's clock. Used by tests and by the CLI when
// an operator pins the run time.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

func (e *Engine) Today() model.Date {
	return model.DateOf(e.now(), e.loc)
}

// Reconcile runs the slot for the current local day.
func (e *Engine) Reconcile(ctx context.Context, slot model.MealSlot) (*Result, error) {
	return e.ReconcileDay(ctx, slot, e.Today())
}

// ReconcileDay runs the slot for day. Past days are refused unless backfill
// is enabled. Future days are always refused.
func (e *Engine) ReconcileDay(ctx context.Context, slot model.MealSlot, day model.Date) (*Result, error) {
	if !slot.Valid() {
		return nil, fmt.Errorf("%w: %q", errors.ErrInvalidSlot, slot)
	}

	today := e.Today()
	if day.After(today) {
		return nil, fmt.Errorf("%w: %s", errors.ErrFutureDate, day)
	}
	if day.Before(today) && !e.allowBackfill {
		return nil, fmt.Errorf("%w: %s", errors.ErrBackfillDisabled, day)
	}

	log := e.log.With().Str("slot", string(slot)).Str("date", day.String()).Logger()

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	start := time.Now()
	result := &Result{Slot: slot, Date: day}
	plans := model.PlansCovering(slot)

	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		result.Attempts = attempt

		inserted, err := e.store.InsertMissing(ctx, db.MissingParams{
			Slot:           slot,
			Day:            day,
			At:             e.now(),
			Plans:          plans,
			ExcludedGrades: e.excludedGrades,
		})
		if err == nil {
			result.Inserted = inserted
			result.Duration = time.Since(start)
			log.Info().
				Int64("inserted", inserted).
				Int("attempts", attempt).
				Dur("duration", result.Duration).
				Msg("Reconciliation completed")
			return result, nil
		}

		// A claim committed between our read and write. The batch rolled
		// back as a whole, so the next anti-join simply excludes that student.
		if stderrors.Is(err, errors.ErrDuplicateEvent) {
			log.Warn().Int("attempt", attempt).Msg("Reconciliation raced a claim, recomputing")
			continue
		}

		result.Duration = time.Since(start)
		log.Error().Err(err).Int("attempt", attempt).Msg("Reconciliation aborted")
		return result, fmt.Errorf("reconcile %s %s: %w", slot, day, err)
	}

	result.Duration = time.Since(start)
	log.Error().Int("attempts", e.maxAttempts).Msg("Reconciliation gave up after repeated conflicts")
	return result, fmt.Errorf("reconcile %s %s: still conflicting after %d attempts: %w",
		slot, day, e.maxAttempts, errors.ErrDuplicateEvent)
}

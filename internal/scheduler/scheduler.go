package scheduler

import (
	"context"
	"fmt"
	"time"

	"cafeteria-meals/internal/config"
	"cafeteria-meals/internal/logger"
	"cafeteria-meals/internal/model"
	"cafeteria-meals/internal/reconcile"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"
)

type Reconciler interface {
	Reconcile(ctx context.Context, slot model.MealSlot) (*reconcile.Result, error)
}

type trigger struct {
	slot   model.MealSlot
	hour   uint
	minute uint
}

// Scheduler owns the two daily reconciliation firings for the lifetime of
// the process. A missed firing is skipped; the next day is the retry.
type Scheduler struct {
	cron     gocron.Scheduler
	engine   Reconciler
	triggers []trigger
	jobs     map[model.MealSlot]gocron.Job
	log      zerolog.Logger
}

func New(engine Reconciler, cfg *config.Config, loc *time.Location) (*Scheduler, error) {
	snackHour, snackMinute, err := config.ParseClock(cfg.Schedule.SnackTime)
	if err != nil {
		return nil, err
	}
	lunchHour, lunchMinute, err := config.ParseClock(cfg.Schedule.LunchTime)
	if err != nil {
		return nil, err
	}

	cron, err := gocron.NewScheduler(gocron.WithLocation(loc))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &Scheduler{
		cron:   cron,
		engine: engine,
		triggers: []trigger{
			{slot: model.MealSlotSnack, hour: uint(snackHour), minute: uint(snackMinute)},
			{slot: model.MealSlotLunch, hour: uint(lunchHour), minute: uint(lunchMinute)},
		},
		jobs: make(map[model.MealSlot]gocron.Job),
		log:  logger.Component("scheduler"),
	}, nil
}

// Start registers one daily job per slot and starts the scheduler. Jobs run
// with ctx until Stop.
func (s *Scheduler) Start(ctx context.Context) error {
	for _, t := range s.triggers {
		slot := t.slot
		job, err := s.cron.NewJob(
			gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(t.hour, t.minute, 0))),
			gocron.NewTask(func() { s.Fire(ctx, slot) }),
			gocron.WithName("reconcile-"+string(slot)),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			return fmt.Errorf("failed to schedule %s reconciliation: %w", slot, err)
		}
		s.jobs[slot] = job
	}

	s.cron.Start()

	next, err := s.NextRuns()
	if err != nil {
		return err
	}
	for slot, at := range next {
		s.log.Info().Str("slot", string(slot)).Time("next_run", at).Msg("Reconciliation scheduled")
	}
	return nil
}

// NextRuns reports when each slot fires next.
func (s *Scheduler) NextRuns() (map[model.MealSlot]time.Time, error) {
	out := make(map[model.MealSlot]time.Time, len(s.jobs))
	for slot, job := range s.jobs {
		at, err := job.NextRun()
		if err != nil {
			return nil, fmt.Errorf("next run for %s: %w", slot, err)
		}
		out[slot] = at
	}
	return out, nil
}

func (s *Scheduler) Stop() error {
	s.log.Info().Msg("Stopping reconciliation scheduler")
	return s.cron.Shutdown()
}

// Fire runs one reconciliation. Failures are logged and not retried.
func (s *Scheduler) Fire(ctx context.Context, slot model.MealSlot) {
	log := s.log.With().Str("slot", string(slot)).Logger()
	log.Info().Msg("Reconciliation firing")

	result, err := s.engine.Reconcile(ctx, slot)
	if err != nil {
		log.Error().Err(err).Msg("Scheduled reconciliation failed, next firing is tomorrow")
		return
	}

	log.Info().
		Str("date", result.Date.String()).
		Int64("inserted", result.Inserted).
		Msg("Scheduled reconciliation finished")
}

package worker

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"cafeteria-meals/internal/config"
	"cafeteria-meals/internal/logger"
	"cafeteria-meals/internal/model"
	"cafeteria-meals/internal/queue"
	"cafeteria-meals/pkg/errors"

	"github.com/rs/zerolog"
)

type ClaimRecorder interface {
	Record(ctx context.Context, job model.ClaimJob) (*model.ValidationEvent, error)
}

type ClaimWorker struct {
	recorder   ClaimRecorder
	consumer   *queue.Consumer
	deadLetter func(ctx context.Context, data []byte, reason error) error
	pool       *Pool
	log        zerolog.Logger
}

func NewClaimWorker(cfg *config.Config, recorder ClaimRecorder, redisClient *queue.RedisClient) *ClaimWorker {
	consumer := queue.NewConsumer(redisClient)
	return &ClaimWorker{
		recorder:   recorder,
		consumer:   consumer,
		deadLetter: consumer.DeadLetterClaim,
		pool:       NewPool("claims", cfg.Workers.Claims.Count),
		log:        logger.Component("claim-worker"),
	}
}

func (w *ClaimWorker) Start(ctx context.Context) error {
	w.log.Info().Msg("Starting claim worker")

	w.pool.Start(ctx)

	// Consuming stops first so nothing is submitted after the pool closes;
	// the pool then finishes every claim already popped.
	err := w.consumer.ConsumeClaimQueue(ctx, w.handleMessage)
	w.pool.Stop()
	return err
}

// Stop waits for accepted work. Call it after Start has returned.
func (w *ClaimWorker) Stop() {
	w.log.Info().Msg("Stopping claim worker")
	w.pool.Stop()
}

// handleMessage rejects undecodable messages, which the consumer moves to
// the DLQ. Decoded claims are recorded on the pool.
func (w *ClaimWorker) handleMessage(ctx context.Context, data []byte) error {
	var job model.ClaimJob
	if err := json.Unmarshal(data, &job); err != nil {
		return fmt.Errorf("failed to unmarshal claim job: %w", err)
	}
	if job.StudentCode == "" {
		return fmt.Errorf("claim job %s has no student code", job.RequestID)
	}

	return w.pool.Submit(ctx, func(ctx context.Context) error {
		return w.process(ctx, job, data)
	})
}

// process records one claim. Business rejections are final and only
// logged; store failures park the message in the DLQ for replay.
func (w *ClaimWorker) process(ctx context.Context, job model.ClaimJob, data []byte) error {
	log := w.log.With().
		Str("request_id", job.RequestID).
		Str("student_code", job.StudentCode).
		Str("slot", string(job.Slot)).
		Logger()

	_, err := w.recorder.Record(ctx, job)
	switch {
	case err == nil:
		return nil
	case stderrors.Is(err, errors.ErrDuplicateEvent):
		log.Info().Msg("Claim already recorded for this slot today")
		return nil
	case stderrors.Is(err, errors.ErrStudentNotFound),
		stderrors.Is(err, errors.ErrNotEligible),
		stderrors.Is(err, errors.ErrInvalidSlot):
		log.Warn().Err(err).Msg("Claim rejected")
		return nil
	}

	if dlqErr := w.deadLetter(ctx, data, err); dlqErr != nil {
		log.Error().Err(dlqErr).Msg("Failed to move claim to DLQ")
	}
	return err
}

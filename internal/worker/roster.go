package worker

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"cafeteria-meals/internal/config"
	"cafeteria-meals/internal/excel"
	"cafeteria-meals/internal/logger"
	"cafeteria-meals/internal/model"
	"cafeteria-meals/internal/queue"
	"cafeteria-meals/internal/storage"

	"github.com/rs/zerolog"
)

type RosterStore interface {
	UpsertStudents(ctx context.Context, rows []model.StudentRow, at time.Time) error
	UpdateRosterFileStatus(ctx context.Context, fileID int64, status model.FileStatus, rowCount int, errorMessage *string, at time.Time) error
}

// RosterWorker imports roster spreadsheets into the student directory.
type RosterWorker struct {
	repo       RosterStore
	storage    storage.Storage
	parser     excel.ParsingStrategy
	consumer   *queue.Consumer
	pool       *Pool
	log        zerolog.Logger
}

func NewRosterWorker(
	cfg *config.Config,
	repo RosterStore,
	storage storage.Storage,
	redisClient *queue.RedisClient,
) *RosterWorker {
	return &RosterWorker{
		repo:       repo,
		storage:    storage,
		parser:     excel.NewRosterStrategy(),
		consumer:   queue.NewConsumer(redisClient),
		pool:       NewPool("roster", cfg.Workers.Roster.Count),
		log:        logger.Component("roster-worker"),
	}
}

func (w *RosterWorker) Start(ctx context.Context) error {
	w.log.Info().Msg("Starting roster worker")

	w.pool.Start(ctx)

	// Consuming stops first so nothing is submitted after the pool closes;
	// the pool then finishes every roster already popped.
	err := w.consumer.ConsumeIngestionQueue(ctx, w.handleMessage)
	w.pool.Stop()
	return err
}

// Stop waits for accepted work. Call it after Start has returned.
func (w *RosterWorker) Stop() {
	w.log.Info().Msg("Stopping roster worker")
	w.pool.Stop()
}

func (w *RosterWorker) handleMessage(ctx context.Context, data []byte) error {
	var job model.IngestionJob
	if err := json.Unmarshal(data, &job); err != nil {
		w.log.Error().Err(err).Msg("Failed to unmarshal ingestion job")
		return err
	}

	w.log.Info().Int64("file_id", job.FileID).Str("s3_path", job.S3Path).Msg("Processing roster import")

	return w.pool.Submit(ctx, func(ctx context.Context) error {
		return w.processFile(ctx, job)
	})
}

func (w *RosterWorker) processFile(ctx context.Context, job model.IngestionJob) error {
	log := w.log.With().Int64("file_id", job.FileID).Logger()

	log.Debug().Msg("Downloading roster from S3")
	reader, err := w.storage.Download(ctx, job.S3Path)
	if err != nil {
		return w.fail(ctx, log, job.FileID, "Failed to download roster", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return w.fail(ctx, log, job.FileID, "Failed to read roster", err)
	}

	log.Debug().Msg("Parsing roster")
	students, err := w.parser.Parse(ctx, data)
	if err != nil {
		return w.fail(ctx, log, job.FileID, "Failed to parse roster", err)
	}

	log.Debug().Int("student_count", len(students)).Msg("Validating roster")
	if err := w.parser.Validate(ctx, students); err != nil {
		return w.fail(ctx, log, job.FileID, "Roster validation failed", err)
	}

	now := time.Now()
	if err := w.repo.UpsertStudents(ctx, students, now); err != nil {
		return w.fail(ctx, log, job.FileID, "Failed to upsert students", err)
	}

	if err := w.repo.UpdateRosterFileStatus(ctx, job.FileID, model.FileStatusParsedOK, len(students), nil, now); err != nil {
		log.Error().Err(err).Msg("Failed to update roster file status")
		return err
	}

	log.Info().Int("student_count", len(students)).Msg("Roster imported")
	return nil
}

func (w *RosterWorker) fail(ctx context.Context, log zerolog.Logger, fileID int64, msg string, err error) error {
	log.Error().Err(err).Msg(msg)
	errorMsg := err.Error()
	if updErr := w.repo.UpdateRosterFileStatus(ctx, fileID, model.FileStatusParsedFail, 0, &errorMsg, time.Now()); updErr != nil {
		log.Error().Err(updErr).Msg("Failed to update roster file status")
	}
	return err
}

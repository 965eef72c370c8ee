package main

import (
	"fmt"
	"os"
	"time"

	"cafeteria-meals/internal/db"
	"cafeteria-meals/internal/excel"
	"cafeteria-meals/internal/logger"
	"cafeteria-meals/internal/model"
	"cafeteria-meals/internal/queue"
	"cafeteria-meals/internal/storage"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var rosterCmd = &cobra.Command{
	Use:   "roster <file.xlsx>",
	Short: "Upload a roster spreadsheet and queue its import",
	Long: `Parses and validates the roster locally, uploads it to the roster bucket,
registers it and queues it for the roster worker.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log := logger.Get()
		ctx := cmd.Context()

		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}

		students, err := excel.Load(ctx, excel.NewRosterStrategy(), data)
		if err != nil {
			return fmt.Errorf("roster rejected: %w", err)
		}

		s3Storage, err := storage.NewS3Storage(cfg.Storage.S3)
		if err != nil {
			return err
		}

		key := storage.RosterKey(time.Now(), uuid.NewString(), args[0])
		file, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer file.Close()

		if err := s3Storage.Upload(ctx, key, file); err != nil {
			return fmt.Errorf("failed to upload roster: %w", err)
		}

		database, repo, err := db.Open(cfg)
		if err != nil {
			return err
		}
		defer database.Close()

		rosterFile, err := repo.CreateRosterFile(ctx, key, time.Now())
		if err != nil {
			return err
		}

		redisClient, err := queue.NewRedisClient(cfg)
		if err != nil {
			return err
		}
		defer redisClient.Close()

		job := model.IngestionJob{FileID: rosterFile.ID, S3Path: key}
		if err := queue.NewProducer(redisClient).EnqueueIngestionJob(ctx, job); err != nil {
			return err
		}

		log.Info().
			Int64("file_id", rosterFile.ID).
			Str("s3_path", key).
			Int("student_count", len(students)).
			Msg("Roster queued for import")
		return nil
	},
}

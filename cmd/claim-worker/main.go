package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"cafeteria-meals/internal/claims"
	"cafeteria-meals/internal/config"
	"cafeteria-meals/internal/db"
	"cafeteria-meals/internal/logger"
	"cafeteria-meals/internal/queue"
	"cafeteria-meals/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	logger.Init("claim-worker", cfg.Logging.Level, cfg.Logging.Format)
	log := logger.Get()

	log.Info().Str("version", cfg.App.Version).Msg("Starting claim worker")

	loc, err := cfg.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid timezone")
	}

	database, repo, err := db.Open(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer database.Close()

	redisClient, err := queue.NewRedisClient(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisClient.Close()

	claimWorker := worker.NewClaimWorker(cfg, claims.NewService(repo, loc), redisClient)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- claimWorker.Start(ctx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		log.Info().Msg("Shutting down claim worker...")
		cancel()
		// Start returns once consuming has stopped and its pool has drained.
		if err := <-done; err != nil && err != context.Canceled {
			log.Error().Err(err).Msg("Claim worker stopped with error")
		}
	case err := <-done:
		if err != nil && ctx.Err() == nil {
			log.Fatal().Err(err).Msg("Claim worker failed")
		}
	}
	claimWorker.Stop()

	log.Info().Msg("Claim worker exited")
}

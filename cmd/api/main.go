package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"cafeteria-meals/internal/api"
	"cafeteria-meals/internal/claims"
	"cafeteria-meals/internal/config"
	"cafeteria-meals/internal/db"
	"cafeteria-meals/internal/logger"
	"cafeteria-meals/internal/queue"
	"cafeteria-meals/internal/report"
	"cafeteria-meals/internal/storage"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	logger.Init("api", cfg.Logging.Level, cfg.Logging.Format)
	log := logger.Get()

	log.Info().Str("version", cfg.App.Version).Msg("Starting API server")

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

	producer := queue.NewProducer(redisClient)

	var rosterStorage storage.Storage
	if cfg.Storage.S3.Bucket != "" {
		s3Storage, err := storage.NewS3Storage(cfg.Storage.S3)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize S3 storage")
		}
		rosterStorage = s3Storage
	}

	handler := api.NewHandler(
		cfg,
		report.NewQuery(repo, cfg, loc),
		report.NewAggregator(repo, loc),
		claims.NewService(repo, loc),
		repo,
		rosterStorage,
		producer,
	).WithQueueHealth(redisClient)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

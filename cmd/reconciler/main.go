package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"cafeteria-meals/internal/config"
	"cafeteria-meals/internal/db"
	"cafeteria-meals/internal/logger"
	"cafeteria-meals/internal/reconcile"
	"cafeteria-meals/internal/scheduler"

	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	logger.Init("reconciler", cfg.Logging.Level, cfg.Logging.Format)
	log := logger.Get()

	log.Info().Str("version", cfg.App.Version).Msg("Starting reconciler")

	loc, err := cfg.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid timezone")
	}

	database, repo, err := db.Open(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer database.Close()

	engine := reconcile.NewEngine(repo, cfg, loc)

	sched, err := scheduler.New(engine, cfg, loc)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create scheduler")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := sched.Start(ctx); err != nil {
			return err
		}

		<-ctx.Done()

		return sched.Stop()
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Reconciler error")
		os.Exit(1)
	}

	log.Info().Msg("Reconciler exited")
}

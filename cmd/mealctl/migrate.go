package main

import (
	"cafeteria-meals/internal/db"
	"cafeteria-meals/internal/logger"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log := logger.Get()

		database, repo, err := db.Open(cfg)
		if err != nil {
			return err
		}
		defer database.Close()

		log.Info().Str("driver", cfg.Database.Driver).Msg("Running database migrations...")
		if err := repo.Migrate(cmd.Context()); err != nil {
			return err
		}

		log.Info().Msg("Database migrations completed successfully")
		return nil
	},
}

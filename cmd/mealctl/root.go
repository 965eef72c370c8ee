package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"cafeteria-meals/internal/config"
	"cafeteria-meals/internal/logger"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	debug   bool

	rootCmd = &cobra.Command{
		Use:   "mealctl",
		Short: "Operator tool for the cafeteria meals backend",
		Long: `Operator tool for the cafeteria meals backend.

Commands:
- migrate the event store schema
- run a reconciliation for one slot now
- upload a roster spreadsheet and queue its import
- inspect and replay dead-lettered messages`,
		SilenceUsage: true,
	}
)

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $CONFIG_PATH or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(reconcileCmd)
	rootCmd.AddCommand(rosterCmd)
	rootCmd.AddCommand(dlqCmd)
}

// loadConfig reads the config and initialises logging for one command run.
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if cfgFile != "" {
		cfg, err = config.LoadFile(cfgFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	level := cfg.Logging.Level
	if debug {
		level = "debug"
	}
	logger.Init("mealctl", level, "console")
	return cfg, nil
}

package main

import (
	"encoding/json"
	"fmt"

	"cafeteria-meals/internal/db"
	"cafeteria-meals/internal/model"
	"cafeteria-meals/internal/reconcile"
	"cafeteria-meals/pkg/errors"

	"github.com/spf13/cobra"
)

var (
	reconcileSlot string
	reconcileDate string
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Insert NOT_CLAIMED events for one slot now",
	Long: `Runs one reconciliation for the given slot. The date defaults to today
in the configured timezone. Past dates need reconciliation.allow_backfill.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		slot, ok := model.ParseMealSlot(reconcileSlot)
		if !ok {
			return fmt.Errorf("%w: %q", errors.ErrInvalidSlot, reconcileSlot)
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		loc, err := cfg.Location()
		if err != nil {
			return err
		}

		database, repo, err := db.Open(cfg)
		if err != nil {
			return err
		}
		defer database.Close()

		engine := reconcile.NewEngine(repo, cfg, loc)

		day := engine.Today()
		if reconcileDate != "" {
			day, err = model.ParseDate(reconcileDate)
			if err != nil {
				return fmt.Errorf("%w: %v", errors.ErrInvalidDate, err)
			}
		}

		result, err := engine.ReconcileDay(cmd.Context(), slot, day)
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func init() {
	reconcileCmd.Flags().StringVar(&reconcileSlot, "slot", "", "meal slot: SNACK or LUNCH")
	reconcileCmd.Flags().StringVar(&reconcileDate, "date", "", "day to reconcile, YYYY-MM-DD (default today)")
	_ = reconcileCmd.MarkFlagRequired("slot")
}

package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/mwhitfield/signalhound/internal/config"
	"github.com/mwhitfield/signalhound/internal/observability"
	"github.com/mwhitfield/signalhound/internal/store"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show pipeline queue depth and registry counts",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx := context.Background()

	db, err := store.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	total, unprocessed, duplicates, err := db.CountJobs(ctx)
	if err != nil {
		return err
	}

	byTool, err := db.CountByTool(ctx)
	if err != nil {
		return err
	}

	observability.NewPrinter(os.Stdout).PrintJobStats(total, unprocessed, duplicates, byTool)
	return nil
}

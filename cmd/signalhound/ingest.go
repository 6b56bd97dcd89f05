package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mwhitfield/signalhound/internal/config"
	"github.com/mwhitfield/signalhound/internal/dedup"
	"github.com/mwhitfield/signalhound/internal/store"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest scraped job postings from a JSON file",
	Long: `Reads a JSON array of scraped postings, runs each through the dedup engine,
and stores them with their duplicate markers. Every posting is stored; only
new ones become eligible for classification.`,
	RunE: runIngest,
}

var ingestFile string

func init() {
	ingestCmd.Flags().StringVarP(&ingestFile, "file", "f", "", "Path to JSON file with scraped postings (required)")

	ingestCmd.MarkFlagRequired("file") //nolint:errcheck

	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := newLogger(cfg.LogLevel)
	defer logger.Sync() //nolint:errcheck

	data, err := os.ReadFile(ingestFile)
	if err != nil {
		return fmt.Errorf("failed to read input file: %w", err)
	}

	var candidates []dedup.Candidate
	if err := json.Unmarshal(data, &candidates); err != nil {
		return fmt.Errorf("failed to parse input file: %w", err)
	}
	if len(candidates) == 0 {
		return fmt.Errorf("input file contains no postings")
	}

	ctx := context.Background()

	db, err := store.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		return err
	}

	engine := dedup.New(db, logger)

	var fresh, exact, fuzzy int
	for _, c := range candidates {
		_, res, err := engine.Ingest(ctx, c)
		if err != nil {
			return fmt.Errorf("failed to ingest posting for %q: %w", c.Company, err)
		}
		switch res.Status {
		case store.DedupStatusExactDuplicate:
			exact++
		case store.DedupStatusFuzzyDuplicate:
			fuzzy++
		default:
			fresh++
		}
	}

	fmt.Fprintf(os.Stdout, "Ingested %d postings\n", len(candidates))
	fmt.Fprintf(os.Stdout, "  new:                %d\n", fresh)
	fmt.Fprintf(os.Stdout, "  exact duplicates:   %d\n", exact)
	fmt.Fprintf(os.Stdout, "  probable duplicates: %d\n", fuzzy)

	return nil
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mwhitfield/signalhound/internal/config"
	"github.com/mwhitfield/signalhound/internal/observability"
	"github.com/mwhitfield/signalhound/internal/store"
)

var companiesCmd = &cobra.Command{
	Use:   "companies",
	Short: "List identified companies",
	Long:  "Lists every company in the registry with the tool it was identified using, the signal strength, and the supporting evidence.",
	RunE:  runCompanies,
}

var companiesJSON bool

func init() {
	companiesCmd.Flags().BoolVar(&companiesJSON, "json", false, "Emit the registry as JSON")

	rootCmd.AddCommand(companiesCmd)
}

func runCompanies(cmd *cobra.Command, _ []string) error {
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

	companies, err := db.ListIdentified(ctx)
	if err != nil {
		return err
	}

	if companiesJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(companies); err != nil {
			return fmt.Errorf("failed to encode registry: %w", err)
		}
		return nil
	}

	observability.NewPrinter(os.Stdout).PrintCompanies(companies)
	return nil
}

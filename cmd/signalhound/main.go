// Package main provides the entry point for the signalhound pipeline CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "signalhound",
	Short: "Sales-tool detection pipeline",
	Long:  "Signalhound ingests scraped job postings, deduplicates them, and classifies which companies use Outreach or Salesloft from the language of their job descriptions.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandsRegistered(t *testing.T) {
	names := make(map[string]*cobra.Command)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = c
	}

	for _, want := range []string{"worker", "ingest", "companies", "migrate", "stats"} {
		assert.Contains(t, names, want)
	}
}

func TestIngestRequiresFileFlag(t *testing.T) {
	flag := ingestCmd.Flags().Lookup("file")
	require.NotNil(t, flag)

	assert.Contains(t, flag.Annotations, cobra.BashCompOneRequiredFlag)
}

func TestWorkerVerboseFlag(t *testing.T) {
	flag := workerCmd.Flags().Lookup("verbose")
	require.NotNil(t, flag)
	assert.Equal(t, "v", flag.Shorthand)
}

func TestNewLoggerFallsBackOnBadLevel(t *testing.T) {
	assert.NotNil(t, newLogger("not-a-level"))
	assert.NotNil(t, newLogger("debug"))
}

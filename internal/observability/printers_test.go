package observability

import (
	"bytes"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/mwhitfield/signalhound/internal/store"
	"github.com/mwhitfield/signalhound/internal/types"
	"github.com/mwhitfield/signalhound/internal/worker"
)

func TestPrintCompanies(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	first := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	companies := []store.IdentifiedCompany{
		{
			Company:           "Acme Corp",
			Tool:              types.ToolOutreach,
			Signal:            types.SignalRequired,
			Evidence:          "2+ years of experience with Outreach.io",
			FirstIdentifiedAt: first,
			LastConfirmedAt:   first.AddDate(0, 1, 0),
		},
		{
			Company:           "Globex",
			Tool:              types.ToolBoth,
			Signal:            types.SignalStackMention,
			FirstIdentifiedAt: first,
			LastConfirmedAt:   first,
		},
	}

	p.PrintCompanies(companies)
	output := buf.String()

	assert.Contains(t, output, "IDENTIFIED COMPANIES")
	assert.Contains(t, output, "Total: 2")
	assert.Contains(t, output, "Acme Corp")
	assert.Contains(t, output, "outreach")
	assert.Contains(t, output, "required")
	assert.Contains(t, output, "2026-01-10")
	assert.Contains(t, output, "Globex")
	assert.Contains(t, output, "both")
}

func TestPrintCompanies_Empty(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintCompanies(nil)

	assert.Contains(t, buf.String(), "No companies identified yet.")
}

func TestPrintCompanies_TruncatesLongList(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	companies := make([]store.IdentifiedCompany, maxItemsToShow+3)
	for i := range companies {
		companies[i] = store.IdentifiedCompany{
			Company: "Company",
			Tool:    types.ToolSalesloft,
			Signal:  types.SignalNone,
		}
	}

	p.PrintCompanies(companies)
	output := buf.String()

	assert.Contains(t, output, "... and 3 more companies")
	assert.Equal(t, maxItemsToShow, strings.Count(output, "• Company"))
}

func TestPrintCompaniesTruncatesOnRuneBoundary(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintCompanies([]store.IdentifiedCompany{{
		Company:  "Café Résumé " + strings.Repeat("é", 60),
		Tool:     types.ToolOutreach,
		Signal:   types.SignalRequired,
		Evidence: strings.Repeat("é", 40),
	}})

	assert.True(t, utf8.ValidString(buf.String()), "truncated display output must stay valid UTF-8")
	assert.NotContains(t, buf.String(), "�")
}

func TestTruncateLine(t *testing.T) {
	assert.Equal(t, "short", truncateLine("short", 10))
	assert.Equal(t, "aaaaaaa...", truncateLine(strings.Repeat("a", 20), 10))

	got := truncateLine(strings.Repeat("é", 20), 10)
	assert.True(t, utf8.ValidString(got))
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.LessOrEqual(t, len(got), 10)
}

func TestPrintWorkerStats(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintWorkerStats(worker.Stats{Processed: 42, Skipped: 7, Detected: 3, Errors: 1})
	output := buf.String()

	assert.Contains(t, output, "WORKER RUN SUMMARY")
	assert.Contains(t, output, "Processed:  42")
	assert.Contains(t, output, "Skipped:    7")
	assert.Contains(t, output, "Detected:   3")
	assert.Contains(t, output, "Errors:     1")
}

func TestPrintJobStats(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintJobStats(120, 15, 30, map[types.Tool]int64{
		types.ToolOutreach:  8,
		types.ToolSalesloft: 5,
		types.ToolBoth:      2,
	})
	output := buf.String()

	assert.Contains(t, output, "PIPELINE STATS")
	assert.Contains(t, output, "Jobs total:        120")
	assert.Contains(t, output, "Jobs unprocessed:  15")
	assert.Contains(t, output, "Jobs duplicate:    30")
	assert.Contains(t, output, "outreach")
	assert.Contains(t, output, "salesloft")
}

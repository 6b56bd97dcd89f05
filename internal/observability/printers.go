// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mwhitfield/signalhound/internal/store"
	"github.com/mwhitfield/signalhound/internal/types"
	"github.com/mwhitfield/signalhound/internal/worker"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 10
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncateLine(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncateLine bounds a display line to max bytes with an ellipsis, cutting
// on a rune boundary so accented posting text never renders as mojibake.
func truncateLine(line string, max int) string {
	if len(line) <= max {
		return line
	}
	cut := max - 3
	for cut > 0 && !utf8.RuneStart(line[cut]) {
		cut--
	}
	return line[:cut] + "..."
}

// PrintCompanies outputs a human-readable listing of the identified
// companies registry.
func (p *Printer) PrintCompanies(companies []store.IdentifiedCompany) {
	if len(companies) == 0 {
		p.printBox("IDENTIFIED COMPANIES", "No companies identified yet.")
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Total: %d\n\n", len(companies)))

	count := min(len(companies), maxItemsToShow)
	for i := 0; i < count; i++ {
		c := companies[i]
		sb.WriteString(fmt.Sprintf("• %s\n", c.Company))
		sb.WriteString(fmt.Sprintf("    Tool: %s  Signal: %s\n", c.Tool, c.Signal))
		if c.Evidence != "" {
			sb.WriteString(fmt.Sprintf("    Evidence: %q\n", truncateLine(c.Evidence, 44)))
		}
		sb.WriteString(fmt.Sprintf("    First seen: %s  Last confirmed: %s\n",
			c.FirstIdentifiedAt.Format(time.DateOnly),
			c.LastConfirmedAt.Format(time.DateOnly)))
		if i < count-1 {
			sb.WriteString("\n")
		}
	}

	if len(companies) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more companies", len(companies)-maxItemsToShow))
	}

	p.printBox("IDENTIFIED COMPANIES", sb.String())
}

// PrintWorkerStats outputs a summary of a finished worker run.
func (p *Printer) PrintWorkerStats(stats worker.Stats) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Processed:  %d\n", stats.Processed))
	sb.WriteString(fmt.Sprintf("Skipped:    %d\n", stats.Skipped))
	sb.WriteString(fmt.Sprintf("Detected:   %d\n", stats.Detected))
	sb.WriteString(fmt.Sprintf("Errors:     %d", stats.Errors))

	p.printBox("WORKER RUN SUMMARY", sb.String())
}

// PrintJobStats outputs queue depth counters for the stats command.
func (p *Printer) PrintJobStats(total, unprocessed, duplicates int64, byTool map[types.Tool]int64) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Jobs total:        %d\n", total))
	sb.WriteString(fmt.Sprintf("Jobs unprocessed:  %d\n", unprocessed))
	sb.WriteString(fmt.Sprintf("Jobs duplicate:    %d\n", duplicates))

	if len(byTool) > 0 {
		sb.WriteString("\nCompanies by tool:\n")
		for _, tool := range []types.Tool{types.ToolOutreach, types.ToolSalesloft, types.ToolBoth} {
			if n, ok := byTool[tool]; ok {
				sb.WriteString(fmt.Sprintf("  %-10s %d\n", tool, n))
			}
		}
	}

	p.printBox("PIPELINE STATS", strings.TrimSuffix(sb.String(), "\n"))
}

package report

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"

	"github.com/firmfuzz/firmfuzz/internal/types"
)

var (
	sevHighStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	sevMedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	sevLowStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
)

type PrintOptions struct {
	NoColor    bool
	Duration   time.Duration
	FuzzLogs   int
	StaticLogs int
}

// PrintText enumerates every item the way the operator reads a triage
// sheet: numbered issues with source, line, keyword, category and quoted
// context. Rendering has no influence on later stages.
func PrintText(w io.Writer, items []types.Evidence, opts PrintOptions) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No vulnerabilities or errors found in logs.")
	} else {
		fmt.Fprintf(w, "Discovered %d potential issues\n\n", len(items))
		for i, it := range items {
			fmt.Fprintf(w, "Issue #%d:\n", i+1)
			fmt.Fprintf(w, "  Source: %s (line %d)\n", it.Source, it.Line)
			fmt.Fprintf(w, "  Keyword: %s\n", it.Keyword)
			fmt.Fprintf(w, "  Threat: %s\n", it.Threat)
			fmt.Fprintf(w, "  CWE: %s\n", it.CWE)
			fmt.Fprintf(w, "  Severity: %s\n", severity(it.Severity, opts.NoColor))
			fmt.Fprintf(w, "  Context: %q\n", it.Text)
			fmt.Fprintln(w)
		}
	}
	footer(w, items, opts)
}

// PrintTable renders the same summary as a bordered table.
func PrintTable(w io.Writer, items []types.Evidence, opts PrintOptions) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No vulnerabilities or errors found in logs.")
		footer(w, items, opts)
		return
	}
	tbl := tablewriter.NewWriter(w)
	tbl.Header([]string{"Severity", "Source", "Line", "Keyword", "Threat", "CWE"})
	for _, it := range items {
		_ = tbl.Append([]string{
			string(it.Severity),
			it.Source,
			fmt.Sprintf("%d", it.Line),
			it.Keyword,
			it.Threat,
			it.CWE,
		})
	}
	_ = tbl.Render()
	footer(w, items, opts)
}

func footer(w io.Writer, items []types.Evidence, opts PrintOptions) {
	high, med, low := 0, 0, 0
	for _, it := range items {
		switch it.Severity {
		case types.SevHigh:
			high++
		case types.SevMed:
			med++
		default:
			low++
		}
	}
	if len(items) > 0 {
		fmt.Fprintf(w, "Evidence items: %d (high: %d, medium: %d, low: %d)\n", len(items), high, med, low)
	}
	if opts.FuzzLogs > 0 || opts.StaticLogs > 0 {
		fmt.Fprintf(w, "Artifacts scanned: %d fuzz logs, %d static-analysis logs\n", opts.FuzzLogs, opts.StaticLogs)
	}
	if opts.Duration > 0 {
		fmt.Fprintf(w, "Aggregation took %.2fs\n", opts.Duration.Seconds())
	}
}

func severity(s types.Severity, noColor bool) string {
	if noColor {
		return string(s)
	}
	switch s {
	case types.SevHigh:
		return sevHighStyle.Render(string(s))
	case types.SevMed:
		return sevMedStyle.Render(string(s))
	default:
		return sevLowStyle.Render(string(s))
	}
}

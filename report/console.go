package report

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/fatih/color"

	"github.com/plantimals/pifst/merge"
)

var (
	cyan = color.New(color.FgCyan).SprintFunc()
	bold = color.New(color.Bold).SprintFunc()
)

// Console prints the diagnostics that follow a successful write.
type Console struct {
	Out     io.Writer
	Preview int
}

// Print writes the output location, row count, head preview, descriptive
// statistics and missing-value summary.
func (c Console) Print(path string, rows []merge.Row, cols []merge.Column) {
	fmt.Fprintf(c.Out, "\nResults saved to: %s\n", cyan(path))
	fmt.Fprintf(c.Out, "Total rows: %d\n", len(rows))

	if c.Preview > 0 {
		fmt.Fprintf(c.Out, "\n%s\n", bold(fmt.Sprintf("Data preview (first %d rows):", c.Preview)))
		fmt.Fprintln(c.Out, c.preview(rows, cols))
	}

	if stats := Describe(rows, cols); len(stats) > 0 {
		fmt.Fprintf(c.Out, "\n%s\n", bold("Basic statistics:"))
		fmt.Fprintln(c.Out, statsTable(stats))
	}

	fmt.Fprintf(c.Out, "\n%s\n", bold("Missing value statistics:"))
	for _, m := range Missing(rows, cols) {
		fmt.Fprintf(c.Out, "  %s: %d rows (%s%%)\n", m.Column, m.Count, formatPercent(m.Percent))
	}
}

// formatPercent writes the percentage already rounded to two places by
// Missing in its shortest form, always with a fractional part: 50.0, 66.67.
func formatPercent(p float64) string {
	s := strconv.FormatFloat(p, 'f', -1, 64)
	if !strings.ContainsAny(s, ".NI") {
		s += ".0"
	}
	return s
}

func (c Console) preview(rows []merge.Row, cols []merge.Column) string {
	n := c.Preview
	if n > len(rows) {
		n = len(rows)
	}
	headers := make([]string, len(cols))
	for i, col := range cols {
		headers[i] = col.Name
	}
	t := table.New().Border(lipgloss.NormalBorder()).Headers(headers...)
	for _, r := range rows[:n] {
		cells := make([]string, len(cols))
		for i, col := range cols {
			cells[i] = col.Format(r)
		}
		t.Row(cells...)
	}
	return t.Render()
}

func statsTable(stats []Summary) string {
	headers := []string{""}
	for _, s := range stats {
		headers = append(headers, s.Column)
	}
	t := table.New().Border(lipgloss.NormalBorder()).Headers(headers...)
	lines := []struct {
		name string
		get  func(Summary) float64
	}{
		{"count", func(s Summary) float64 { return float64(s.Count) }},
		{"mean", func(s Summary) float64 { return s.Mean }},
		{"std", func(s Summary) float64 { return s.Std }},
		{"min", func(s Summary) float64 { return s.Min }},
		{"25%", func(s Summary) float64 { return s.Q25 }},
		{"50%", func(s Summary) float64 { return s.Q50 }},
		{"75%", func(s Summary) float64 { return s.Q75 }},
		{"max", func(s Summary) float64 { return s.Max }},
	}
	for _, l := range lines {
		cells := []string{l.name}
		for _, s := range stats {
			cells = append(cells, formatStat(l.get(s)))
		}
		t.Row(cells...)
	}
	return t.Render()
}

func formatStat(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(Round4(v), 'f', 4, 64)
}

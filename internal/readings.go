package hydrotop

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/montanaflynn/stats"
)

// ReadingsTable lists the newest value of each metric. When the rows do
// not fit maxHeight the table is split into several tables side by side.
type ReadingsTable struct {
	rows      [][]string
	maxHeight int
}

func NewReadingsTable(maxHeight int) *ReadingsTable {
	return &ReadingsTable{maxHeight: maxHeight}
}

// Add appends the newest point of series, or a dash when it is empty
func (rt *ReadingsTable) Add(series *RollingSeries) *ReadingsTable {
	metric := series.Metric()
	label, value, ok := series.Last()
	if !ok {
		rt.rows = append(rt.rows, []string{metric.Title(), "—", ""})
		return rt
	}
	reading := fmt.Sprintf("%.2f", value)
	if unit := metric.Unit(); unit != "" {
		reading += " " + unit
	}
	if metric == MetricFloatLevel {
		// the float switch reads 1 when the tank level is fine
		reading = "LOW"
		if value >= 0.5 {
			reading = "OK"
		}
	}
	rt.rows = append(rt.rows, []string{metric.Title(), reading, label})
	return rt
}

func (rt *ReadingsTable) newTable(rows [][]string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		Headers("Metric", "Value", "At").
		Rows(rows...)
}

// Render renders the table, wrapping into columns when needed
func (rt *ReadingsTable) Render() string {
	if len(rt.rows) == 0 {
		return ""
	}

	// header (1 line) + borders (top + bottom + header separator = 3)
	rowsPerTable := max(rt.maxHeight-4, 1)
	if rt.maxHeight <= 0 || len(rt.rows) <= rowsPerTable {
		return rt.newTable(rt.rows).String()
	}

	var tables []string
	for i := 0; i < len(rt.rows); i += rowsPerTable {
		end := min(i+rowsPerTable, len(rt.rows))
		tables = append(tables, rt.newTable(rt.rows[i:end]).String())
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tables...)
}

// RangeSummary describes a loaded historical series in one line
func RangeSummary(series *RollingSeries) string {
	metric := series.Metric()
	head := fmt.Sprintf("%-13s %3d/%d", metric.Title(), series.Len(), series.Cap())
	if series.Empty() {
		return head
	}
	values := stats.Float64Data(series.Values())
	mean, err := values.Mean()
	if err != nil {
		return head
	}
	median, _ := values.Median()
	return fmt.Sprintf("%s  avg %.2f  med %.2f", head, mean, median)
}

package hydrotop

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
)

func TestGridColumns(t *testing.T) {
	tests := []struct {
		n, width, want int
	}{
		{6, 60, 1},
		{6, 100, 2},
		{4, 200, 2},
		{6, 160, 3},
		{1, 200, 1},
	}
	for _, tt := range tests {
		if got := gridColumns(tt.n, tt.width); got != tt.want {
			t.Errorf("gridColumns(%d, %d) = %d, want %d", tt.n, tt.width, got, tt.want)
		}
	}
}

func TestWrapLaysOutRows(t *testing.T) {
	panes := make([]Pane, 5)
	for i := range panes {
		panes[i] = NewPane("p", 10, 2).SetContent("x")
	}
	if rows := NewGrid(2).Add(panes...).Rows(); rows != 3 {
		t.Fatalf("expected 3 rows, got %d", rows)
	}
	out := Wrap(2, panes...)
	// three rows of bordered panes, each pane 4 lines tall
	if h := lipgloss.Height(out); h != 12 {
		t.Fatalf("expected 12 lines, got %d:\n%s", h, out)
	}
	if w := lipgloss.Width(out); w != 24 {
		t.Fatalf("expected two 12 cell columns, got width %d", w)
	}
}

func TestPaneBadgeAndContentSize(t *testing.T) {
	p := NewPane("pH", 20, 5).SetBadge("6.20")
	w, h := p.ContentSize()
	if w != 20 || h != 4 {
		t.Fatalf("content size %dx%d", w, h)
	}
	out := p.SetContent("chart").Render()
	if !strings.Contains(out, "pH") || !strings.Contains(out, "6.20") {
		t.Fatalf("title line missing:\n%s", out)
	}
}

func TestReadingsTable(t *testing.T) {
	temp := NewRollingSeries(MetricTemperature, 5, LabelSeconds, time.UTC)
	temp.Append(sampleAt(0, 21.456))
	level := NewRollingSeries(MetricFloatLevel, 5, LabelSeconds, time.UTC)
	level.Append(sampleAt(0, 0))
	empty := NewRollingSeries(MetricPH, 5, LabelSeconds, time.UTC)

	out := NewReadingsTable(20).Add(temp).Add(level).Add(empty).Render()
	for _, want := range []string{"21.46 °C", "LOW", "12:00:00", "pH"} {
		if !strings.Contains(out, want) {
			t.Fatalf("table missing %q:\n%s", want, out)
		}
	}

	// too short for all rows: split side by side
	split := NewReadingsTable(6).Add(temp).Add(level).Add(empty).Render()
	if lipgloss.Height(split) >= lipgloss.Height(out) {
		t.Fatalf("expected a shorter split table:\n%s", split)
	}
}

func TestRangeSummary(t *testing.T) {
	s := NewRollingSeries(MetricConductivity, 24, LabelMinutes, time.UTC)
	if got := RangeSummary(s); strings.Contains(got, "avg") {
		t.Fatalf("empty series has no statistics: %q", got)
	}
	s.ReplaceAll([]Sample{sampleAt(0, 1), sampleAt(1, 2), sampleAt(2, 6)})
	got := RangeSummary(s)
	for _, want := range []string{"Conductivity", "3/24", "avg 3.00", "med 2.00"} {
		if !strings.Contains(got, want) {
			t.Fatalf("summary %q missing %q", got, want)
		}
	}
}

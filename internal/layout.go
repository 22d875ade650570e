package hydrotop

import (
	"github.com/charmbracelet/lipgloss"
)

// Horizontal renders panes side by side
func Horizontal(panes ...Pane) string {
	if len(panes) == 0 {
		return ""
	}
	views := make([]string, 0, len(panes))
	for _, pane := range panes {
		views = append(views, pane.Render())
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, views...)
}

// Grid fills rows of a fixed column count left to right
type Grid struct {
	columns int
	panes   []Pane
}

func NewGrid(columns int) *Grid {
	return &Grid{columns: max(columns, 1)}
}

// Add appends panes; a row is started every columns panes
func (g *Grid) Add(panes ...Pane) *Grid {
	g.panes = append(g.panes, panes...)
	return g
}

// Rows returns the number of rows needed for the panes added so far
func (g *Grid) Rows() int {
	return (len(g.panes) + g.columns - 1) / g.columns
}

func (g *Grid) Render() string {
	if len(g.panes) == 0 {
		return ""
	}
	rows := make([]string, 0, g.Rows())
	for i := 0; i < len(g.panes); i += g.columns {
		rows = append(rows, Horizontal(g.panes[i:min(i+g.columns, len(g.panes))]...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// Wrap lays panes out in columns columns
func Wrap(columns int, panes ...Pane) string {
	return NewGrid(columns).Add(panes...).Render()
}

// gridColumns picks the column count for n panes on a terminal width wide
func gridColumns(n, width int) int {
	switch {
	case n <= 1 || width < 80:
		return 1
	case width < 150 || n <= 4:
		return 2
	default:
		return 3
	}
}

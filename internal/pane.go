package hydrotop

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Pane is a bordered panel of the dashboard grid.
//
//	pane := NewPane("Temperature", 40, 10).
//	    SetBadge("21.40 °C").
//	    SetContent(chart).
//	    SetFocused(true)
type Pane struct {
	title       string
	badge       string
	content     string
	width       int
	height      int
	borderStyle lipgloss.Style
	titleStyle  lipgloss.Style
	focused     bool
}

// NewPane creates a new pane with default styling
func NewPane(title string, width, height int) Pane {
	return Pane{
		title:  title,
		width:  width,
		height: height,
		borderStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")),
		titleStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("33")).
			Bold(true),
	}
}

// SetContent sets the pane content
func (p Pane) SetContent(content string) Pane {
	p.content = content
	return p
}

// SetBadge sets the text shown right of the title
func (p Pane) SetBadge(badge string) Pane {
	p.badge = badge
	return p
}

// SetTitleColor colors the title, usually with the metric color
func (p Pane) SetTitleColor(color lipgloss.Color) Pane {
	p.titleStyle = p.titleStyle.Foreground(color)
	return p
}

// SetFocused sets the focus state
func (p Pane) SetFocused(focused bool) Pane {
	p.focused = focused
	if focused {
		p.borderStyle = p.borderStyle.BorderForeground(lipgloss.Color("170"))
	} else {
		p.borderStyle = p.borderStyle.BorderForeground(lipgloss.Color("240"))
	}
	return p
}

// ContentSize is the room left for content inside border and title
func (p Pane) ContentSize() (int, int) {
	h := p.height
	if p.title != "" || p.badge != "" {
		h--
	}
	return max(p.width, 1), max(h, 1)
}

// Render draws the pane
func (p Pane) Render() string {
	var b strings.Builder

	if p.title != "" || p.badge != "" {
		title := p.titleStyle.Render(p.title)
		if p.badge != "" {
			gap := max(p.width-lipgloss.Width(title)-lipgloss.Width(p.badge), 1)
			title += strings.Repeat(" ", gap) + p.badge
		}
		b.WriteString(title + "\n")
	}

	b.WriteString(p.content)

	return p.borderStyle.
		Width(p.width).
		Height(p.height).
		Render(b.String())
}

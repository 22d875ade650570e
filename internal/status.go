package hydrotop

import (
	"github.com/charmbracelet/lipgloss"
)

// StatusBar mirrors the board connectivity and the controller state label
type StatusBar struct {
	connErr string
	state   string
	class   string
}

// Disconnected shows the persistent connection error
func (s *StatusBar) Disconnected() {
	s.connErr = ConnectionLostText
}

// Connected clears the connection error
func (s *StatusBar) Connected() {
	s.connErr = ""
}

// SetState copies the state label verbatim into the text and the class
func (s *StatusBar) SetState(label string) {
	if label == "" {
		return
	}
	s.state = label
	s.class = "status-value " + label
}

func (s *StatusBar) Error() string {
	return s.connErr
}

func (s *StatusBar) State() string {
	return s.state
}

func (s *StatusBar) Class() string {
	return s.class
}

// stateColors follows the controller state machine labels
var stateColors = map[string]lipgloss.Color{
	"IDLE":          lipgloss.Color("34"),
	"REFILLING":     lipgloss.Color("33"),
	"IRRIGATING":    lipgloss.Color("39"),
	"DOSING":        lipgloss.Color("214"),
	"MIXING":        lipgloss.Color("178"),
	"RECIRCULATING": lipgloss.Color("45"),
	"DRAINING":      lipgloss.Color("67"),
	"ERROR":         lipgloss.Color("196"),
}

// View renders the state badge followed by the connection error, if any
func (s *StatusBar) View() string {
	label := s.state
	if label == "" {
		label = "UNKNOWN"
	}
	color, ok := stateColors[s.state]
	if !ok {
		color = lipgloss.Color("240")
	}
	badge := lipgloss.NewStyle().
		Foreground(lipgloss.Color("0")).
		Background(color).
		Bold(true).
		Padding(0, 1).
		Render(label)

	if s.connErr == "" {
		return badge
	}
	errStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("231")).
		Background(lipgloss.Color("160")).
		Padding(0, 1)
	return lipgloss.JoinHorizontal(lipgloss.Top, badge, " ", errStyle.Render(s.connErr))
}

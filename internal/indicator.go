package hydrotop

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// liveTimeoutMsg fires when a countdown armed at generation gen runs out
type liveTimeoutMsg struct {
	gen int
}

// LiveIndicator is the pulsing marker shown while live samples keep
// arriving. Every Arm restarts the countdown; only the newest countdown
// can extinguish it.
type LiveIndicator struct {
	timeout time.Duration
	gen     int
	lit     bool
	pulse   spinner.Model
}

// NewLiveIndicator creates an unlit indicator with the given countdown
func NewLiveIndicator(timeout time.Duration) *LiveIndicator {
	if timeout <= 0 {
		timeout = LiveTimeout()
	}
	return &LiveIndicator{
		timeout: timeout,
		pulse: spinner.New(
			spinner.WithSpinner(spinner.Pulse),
			spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("196"))),
		),
	}
}

// Arm lights the indicator and restarts its countdown. The returned
// command delivers the expiry; it also starts the pulse when the
// indicator was dark.
func (l *LiveIndicator) Arm() tea.Cmd {
	wasLit := l.lit
	l.lit = true
	l.gen++
	gen := l.gen
	expire := tea.Tick(l.timeout, func(time.Time) tea.Msg {
		return liveTimeoutMsg{gen: gen}
	})
	if wasLit {
		return expire
	}
	return tea.Batch(expire, l.pulse.Tick)
}

// Extinguish turns the indicator off and invalidates any pending countdown
func (l *LiveIndicator) Extinguish() {
	l.lit = false
	l.gen++
}

// Update handles countdown expiry and pulse frames
func (l *LiveIndicator) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case liveTimeoutMsg:
		if msg.gen == l.gen {
			l.lit = false
		}
	case spinner.TickMsg:
		if !l.lit {
			// let the pulse die out while dark
			return nil
		}
		var cmd tea.Cmd
		l.pulse, cmd = l.pulse.Update(msg)
		return cmd
	}
	return nil
}

func (l *LiveIndicator) Lit() bool {
	return l.lit
}

func (l *LiveIndicator) View() string {
	if !l.lit {
		return ""
	}
	return l.pulse.View() + " LIVE"
}

package hydrotop

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// expiry runs the countdown command and returns its message
func expiry(t *testing.T, cmd tea.Cmd) liveTimeoutMsg {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a countdown command")
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			if c == nil {
				continue
			}
			// the pulse tick blocks for its own interval; only run timeouts
			done := make(chan tea.Msg, 1)
			go func(c tea.Cmd) { done <- c() }(c)
			select {
			case m := <-done:
				if tm, ok := m.(liveTimeoutMsg); ok {
					return tm
				}
			case <-time.After(2 * time.Second):
			}
		}
		t.Fatal("no timeout message in batch")
	}
	tm, ok := msg.(liveTimeoutMsg)
	if !ok {
		t.Fatalf("unexpected message %T", msg)
	}
	return tm
}

func TestLiveIndicatorExpires(t *testing.T) {
	l := NewLiveIndicator(10 * time.Millisecond)
	msg := expiry(t, l.Arm())
	if !l.Lit() {
		t.Fatal("armed indicator should be lit")
	}
	l.Update(msg)
	if l.Lit() {
		t.Fatal("indicator should go out after the countdown")
	}
	if l.View() != "" {
		t.Fatalf("dark indicator renders nothing, got %q", l.View())
	}
}

func TestLiveIndicatorRearmCancelsOldCountdown(t *testing.T) {
	l := NewLiveIndicator(10 * time.Millisecond)
	first := expiry(t, l.Arm())
	second := expiry(t, l.Arm())

	l.Update(first)
	if !l.Lit() {
		t.Fatal("a superseded countdown must not extinguish the indicator")
	}
	l.Update(second)
	if l.Lit() {
		t.Fatal("the newest countdown should extinguish the indicator")
	}
}

func TestLiveIndicatorExtinguishInvalidatesCountdown(t *testing.T) {
	l := NewLiveIndicator(10 * time.Millisecond)
	pending := expiry(t, l.Arm())
	l.Extinguish()
	if l.Lit() {
		t.Fatal("extinguished indicator should be dark")
	}

	rearmed := expiry(t, l.Arm())
	l.Update(pending)
	if !l.Lit() {
		t.Fatal("countdown from before teardown must be ignored")
	}
	l.Update(rearmed)
	if l.Lit() {
		t.Fatal("current countdown should still expire")
	}
}

package hydrotop

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// fakeHistory answers fetches through fn and counts the calls
type fakeHistory struct {
	calls int
	fn    func(metric Metric, start, window string, call int) ([]Sample, bool)
}

func (f *fakeHistory) Fetch(_ context.Context, metric Metric, start, window string) ([]Sample, bool) {
	f.calls++
	return f.fn(metric, start, window, f.calls)
}

// collect runs cmd and flattens batches into their messages
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func press(m *Dashboard, s string) tea.Cmd {
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return cmd
}

func newTestDashboard(history HistoryFetcher) *Dashboard {
	m := NewDashboard(DashboardOptions{
		Location:    time.UTC,
		LiveTimeout: time.Minute,
		History:     history,
	})
	m.Update(tea.WindowSizeMsg{Width: 160, Height: 50})
	return m
}

func panel(m *Dashboard, metric Metric, rangeName string) *ChartBinding {
	b, _ := m.Binding(PanelKey{Metric: metric, Range: rangeName})
	return b
}

func TestDashboardConnectionStatus(t *testing.T) {
	m := newTestDashboard(nil)
	defer m.Close()

	m.Update(feedDisconnectedMsg{})
	if m.status.Error() != ConnectionLostText {
		t.Fatalf("expected connection error, got %q", m.status.Error())
	}
	if !strings.Contains(m.View(), "Connection to the board lost") {
		t.Fatal("connection error not shown")
	}
	m.Update(feedConnectedMsg{})
	if m.status.Error() != "" {
		t.Fatalf("reconnect should clear the error, got %q", m.status.Error())
	}
}

func TestDashboardLiveSamples(t *testing.T) {
	m := newTestDashboard(nil)
	defer m.Close()

	for i := 0; i < LIVE_POINTS+3; i++ {
		m.Update(liveSampleMsg{metric: MetricConductivity, sample: sampleAt(i, float64(i))})
	}
	live := panel(m, MetricConductivity, LiveRangeName)
	if live.Series().Len() != LIVE_POINTS {
		t.Fatalf("live series should hold %d points, got %d", LIVE_POINTS, live.Series().Len())
	}
	if !live.Visible() || !m.indicator.Lit() {
		t.Fatal("live chart should be shown with the indicator lit")
	}
	if panel(m, MetricConductivity, "1h").Series().Len() != 0 {
		t.Fatal("live samples must not reach historical series")
	}
	if panel(m, MetricTemperature, LiveRangeName).Visible() {
		t.Fatal("other live charts stay on the placeholder")
	}
}

func TestDashboardStateChanged(t *testing.T) {
	m := newTestDashboard(nil)
	defer m.Close()

	m.Update(stateChangedMsg{state: "REFILLING"})
	if m.status.State() != "REFILLING" || m.status.Class() != "status-value REFILLING" {
		t.Fatalf("unexpected status %q / %q", m.status.State(), m.status.Class())
	}
}

func TestDashboardActivatesHistoricalTab(t *testing.T) {
	history := &fakeHistory{fn: func(metric Metric, start, window string, call int) ([]Sample, bool) {
		if start != "-1h" || window != "5m" {
			return nil, false
		}
		return []Sample{sampleAt(0, 1), sampleAt(5, 2)}, true
	}}
	m := newTestDashboard(history)
	defer m.Close()

	msgs := collect(press(m, "]"))
	if m.tabs.State("1h") != TabFetching {
		t.Fatalf("tab should be fetching, got %s", m.tabs.State("1h"))
	}
	if len(msgs) != len(AllMetrics()) {
		t.Fatalf("expected one fetch per metric, got %d", len(msgs))
	}
	if cmd := press(m, "r"); cmd != nil {
		t.Fatal("refresh while fetching must be ignored")
	}

	for _, msg := range msgs {
		m.Update(msg)
	}
	if m.tabs.State("1h") != TabRendered {
		t.Fatalf("tab should be rendered, got %s", m.tabs.State("1h"))
	}
	for _, metric := range AllMetrics() {
		b := panel(m, metric, "1h")
		if b.Series().Len() != 2 || !b.Visible() {
			t.Fatalf("%s: expected 2 points shown, got %d", metric, b.Series().Len())
		}
	}
	if history.calls != len(AllMetrics()) {
		t.Fatalf("expected %d fetches, got %d", len(AllMetrics()), history.calls)
	}
}

func TestDashboardDiscardsStaleResults(t *testing.T) {
	history := &fakeHistory{fn: func(_ Metric, _, _ string, call int) ([]Sample, bool) {
		return []Sample{sampleAt(call, float64(call))}, true
	}}
	m := newTestDashboard(history)
	defer m.Close()

	first := collect(press(m, "]"))
	// deliver all but the temperature result of the first activation
	for _, msg := range first[1:] {
		m.Update(msg)
	}
	// complete the first activation so refresh can start a second one
	m.Update(first[0])
	second := collect(press(m, "r"))
	if len(second) == 0 {
		t.Fatal("rendered tab should fetch again on refresh")
	}

	m.Update(first[0])
	temp := panel(m, MetricTemperature, "1h")
	if _, v, _ := temp.Series().Last(); v != 1 {
		t.Fatalf("stale result replayed into the series, last value %v", v)
	}

	for _, msg := range second {
		m.Update(msg)
	}
	if _, v, _ := temp.Series().Last(); v != float64(len(AllMetrics())+1) {
		t.Fatalf("expected the newest activation's data, last value %v", v)
	}
}

func TestDashboardFailedFetchKeepsSeries(t *testing.T) {
	fail := false
	history := &fakeHistory{fn: func(metric Metric, _, _ string, _ int) ([]Sample, bool) {
		if fail {
			return nil, false
		}
		if metric == MetricPH {
			return []Sample{}, true
		}
		return []Sample{sampleAt(0, 7)}, true
	}}
	m := newTestDashboard(history)
	defer m.Close()

	for _, msg := range collect(press(m, "]")) {
		m.Update(msg)
	}
	if panel(m, MetricPH, "1h").Visible() {
		t.Fatal("an empty successful fetch shows the placeholder")
	}

	fail = true
	for _, msg := range collect(press(m, "r")) {
		m.Update(msg)
	}
	if m.tabs.State("1h") != TabRendered {
		t.Fatalf("failed fetches still resolve the activation, got %s", m.tabs.State("1h"))
	}
	temp := panel(m, MetricTemperature, "1h")
	if temp.Series().Len() != 1 || !temp.Visible() {
		t.Fatal("a failed fetch must leave the previous series in place")
	}
}

func TestDashboardLiveTabDoesNotFetch(t *testing.T) {
	history := &fakeHistory{fn: func(Metric, string, string, int) ([]Sample, bool) { return nil, true }}
	m := newTestDashboard(history)
	defer m.Close()

	if cmd := press(m, "r"); cmd != nil {
		t.Fatal("refreshing the live tab fetches nothing")
	}
	m.Init()
	if history.calls != 0 {
		t.Fatalf("live tab fetched %d times", history.calls)
	}
}

func TestDashboardCommandFailureAlert(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()
	base, _ := url.Parse(srv.URL)

	m := NewDashboard(DashboardOptions{
		Location: time.UTC,
		Commands: NewCommandClient(base, time.Second, nil, nil),
	})
	defer m.Close()
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})

	press(m, "c")
	if m.modal != modalCommands || !strings.Contains(m.View(), "Stop everything") {
		t.Fatal("command menu should open")
	}
	msgs := collect(press(m, "s"))
	if len(msgs) != 1 {
		t.Fatalf("expected one command result, got %d", len(msgs))
	}
	m.Update(msgs[0])
	if m.modal != modalAlert || !strings.Contains(m.View(), "Command failed: HTTP error! status: 500") {
		t.Fatalf("expected failure alert, got:\n%s", m.View())
	}

	// the alert blocks other keys until acknowledged
	press(m, "]")
	if m.tabs.SelectedIndex() != 0 {
		t.Fatal("keys leaked past the alert")
	}
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.modal != modalNone {
		t.Fatal("enter should dismiss the alert")
	}
}

func TestDashboardView(t *testing.T) {
	m := newTestDashboard(nil)
	defer m.Close()
	m.Update(liveSampleMsg{metric: MetricTemperature, sample: sampleAt(0, 21.25)})
	m.Update(liveSampleMsg{metric: MetricFloatLevel, sample: sampleAt(0, 1)})

	view := m.View()
	for _, want := range []string{"hydrotop", "Temperature", "Conductivity", "Water level", "21.25", "OK", "No data"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q", want)
		}
	}

	press(m, "l")
	press(m, "j")
	if m.selectedPanel != 1+m.columns() {
		t.Fatalf("panel selection moved to %d", m.selectedPanel)
	}
}

func TestDashboardCloseStopsIndicator(t *testing.T) {
	m := newTestDashboard(nil)
	m.Update(liveSampleMsg{metric: MetricTemperature, sample: sampleAt(0, 20)})
	gen := m.indicator.gen
	m.Close()
	if m.indicator.Lit() || m.indicator.gen == gen {
		t.Fatal("close should extinguish the indicator and void its countdown")
	}
	if m.ctx.Err() == nil {
		t.Fatal("close should cancel pending requests")
	}
}

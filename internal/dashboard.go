package hydrotop

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
)

// DashboardOptions wires the dashboard to its collaborators. Feed and
// Commands may be nil.
type DashboardOptions struct {
	Ranges       []TimeRange
	Location     *time.Location
	LiveTimeout  time.Duration
	FetchTimeout time.Duration
	Feed         *LiveFeed
	History      HistoryFetcher
	Commands     *CommandClient
	Logger       *zap.Logger
}

type modalKind int

const (
	modalNone modalKind = iota
	modalCommands
	modalAlert
)

type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(PulseDuration(), func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// historyMsg carries one finished fetch of an activation
type historyMsg struct {
	rangeName string
	metric    Metric
	seq       int
	samples   []Sample
	ok        bool
}

type commandResultMsg struct {
	command string
	err     error
}

// Dashboard is the top level bubbletea model. It owns one series and chart
// binding per (metric, range) in an explicit registry.
type Dashboard struct {
	ctx    context.Context
	cancel context.CancelFunc

	metrics   []Metric
	tabs      *TabSet
	registry  map[PanelKey]*ChartBinding
	indicator *LiveIndicator
	status    StatusBar
	loadedAt  map[string]time.Time

	feed         *LiveFeed
	history      HistoryFetcher
	commands     *CommandClient
	fetchTimeout time.Duration
	logger       *zap.Logger

	selectedPanel   int
	modal           modalKind
	selectedCommand int
	alert           string
	lastCommand     string
	now             time.Time

	help   help.Model
	width  int
	height int
	ready  bool
}

// NewDashboard builds the registry for every (metric, range) pair
func NewDashboard(opts DashboardOptions) *Dashboard {
	if len(opts.Ranges) == 0 {
		opts.Ranges = DefaultRanges(0)
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = FetchTimeout()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Dashboard{
		ctx:          ctx,
		cancel:       cancel,
		metrics:      AllMetrics(),
		tabs:         NewTabSet(opts.Ranges),
		registry:     make(map[PanelKey]*ChartBinding),
		indicator:    NewLiveIndicator(opts.LiveTimeout),
		loadedAt:     make(map[string]time.Time),
		feed:         opts.Feed,
		history:      opts.History,
		commands:     opts.Commands,
		fetchTimeout: opts.FetchTimeout,
		logger:       opts.Logger,
		help:         help.New(),
		now:          time.Now(),
	}

	for _, r := range opts.Ranges {
		for _, metric := range m.metrics {
			series := NewRollingSeries(metric, r.Points, r.Labels, opts.Location)
			var indicator *LiveIndicator
			if r.Live {
				indicator = m.indicator
			}
			binding := NewChartBinding(series, indicator)
			binding.Render()
			m.registry[PanelKey{Metric: metric, Range: r.Name}] = binding
		}
	}
	return m
}

// Binding returns the registry entry for key
func (m *Dashboard) Binding(key PanelKey) (*ChartBinding, bool) {
	b, ok := m.registry[key]
	return b, ok
}

// Close releases the feed and invalidates pending timers
func (m *Dashboard) Close() {
	m.indicator.Extinguish()
	if m.feed != nil {
		m.feed.Stop()
	}
	m.cancel()
}

func (m *Dashboard) Init() tea.Cmd {
	// the first tab may be historical when live is disabled
	return tea.Batch(tickCmd(), m.listen(), m.activate(m.tabs.Selected().Name))
}

func (m *Dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.ready = true

	case tickMsg:
		m.now = time.Time(msg)
		return m, tickCmd()

	case feedConnectedMsg:
		m.status.Connected()
		return m, m.listen()

	case feedDisconnectedMsg:
		m.status.Disconnected()
		return m, m.listen()

	case stateChangedMsg:
		m.status.SetState(msg.state)
		return m, m.listen()

	case liveSampleMsg:
		return m, tea.Batch(m.applyLiveSample(msg), m.listen())

	case feedClosedMsg:
		m.logger.Info("push channel closed")

	case historyMsg:
		return m, m.applyHistory(msg)

	case commandResultMsg:
		if msg.err != nil {
			m.alert = "Command failed: " + msg.err.Error()
			m.modal = modalAlert
		} else {
			m.lastCommand = fmt.Sprintf("%s ok at %s", msg.command, m.now.Format("15:04:05"))
		}

	case liveTimeoutMsg, spinner.TickMsg:
		return m, m.indicator.Update(msg)
	}

	return m, nil
}

// listen asks the feed for its next message
func (m *Dashboard) listen() tea.Cmd {
	if m.feed == nil {
		return nil
	}
	return m.feed.Listen()
}

func (m *Dashboard) applyLiveSample(msg liveSampleMsg) tea.Cmd {
	binding, ok := m.registry[PanelKey{Metric: msg.metric, Range: LiveRangeName}]
	if !ok {
		return nil
	}
	binding.Series().Append(msg.sample)
	return binding.Render()
}

func (m *Dashboard) applyHistory(msg historyMsg) tea.Cmd {
	if !m.tabs.Resolve(msg.rangeName, msg.seq) {
		m.logger.Debug("discarding stale history",
			zap.String("range", msg.rangeName),
			zap.String("metric", msg.metric.String()))
		return nil
	}
	if m.tabs.State(msg.rangeName) == TabRendered {
		m.loadedAt[msg.rangeName] = m.now
	}
	if !msg.ok {
		// keep whatever the chart showed before
		return nil
	}
	binding, ok := m.registry[PanelKey{Metric: msg.metric, Range: msg.rangeName}]
	if !ok {
		return nil
	}
	binding.Series().ReplaceAll(msg.samples)
	return binding.Render()
}

// activate fetches every metric of a historical tab once
func (m *Dashboard) activate(name string) tea.Cmd {
	if m.history == nil {
		return nil
	}
	r, ok := m.tabs.Range(name)
	if !ok {
		return nil
	}
	seq, ok := m.tabs.Activate(name, len(m.metrics))
	if !ok {
		return nil
	}
	m.logger.Debug("activating range", zap.String("range", r.Name), zap.Int("seq", seq))

	cmds := make([]tea.Cmd, 0, len(m.metrics))
	for _, metric := range m.metrics {
		cmds = append(cmds, m.fetchCmd(r, metric, seq))
	}
	return tea.Batch(cmds...)
}

func (m *Dashboard) fetchCmd(r TimeRange, metric Metric, seq int) tea.Cmd {
	ctx, history, timeout := m.ctx, m.history, m.fetchTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		samples, ok := history.Fetch(ctx, metric, r.Start, r.Window)
		return historyMsg{
			rangeName: r.Name,
			metric:    metric,
			seq:       seq,
			samples:   samples,
			ok:        ok,
		}
	}
}

func (m *Dashboard) sendCommand(name string) tea.Cmd {
	if m.commands == nil {
		return nil
	}
	ctx, client, timeout := m.ctx, m.commands, m.fetchTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		_, err := client.Send(ctx, name)
		return commandResultMsg{command: name, err: err}
	}
}

func (m *Dashboard) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch m.modal {
	case modalAlert:
		// blocking until acknowledged
		switch msg.String() {
		case "enter", "esc", " ":
			m.modal = modalNone
			m.alert = ""
		case "ctrl+c":
			return tea.Quit
		}
		return nil
	case modalCommands:
		return m.handleCommandKey(msg)
	}

	switch {
	case key.Matches(msg, keys.Quit):
		m.Close()
		return tea.Quit
	case key.Matches(msg, keys.NextTab):
		m.tabs.NextTab()
		return m.activate(m.tabs.Selected().Name)
	case key.Matches(msg, keys.PrevTab):
		m.tabs.PrevTab()
		return m.activate(m.tabs.Selected().Name)
	case key.Matches(msg, keys.Refresh):
		return m.activate(m.tabs.Selected().Name)
	case key.Matches(msg, keys.Left):
		m.selectedPanel = max(m.selectedPanel-1, 0)
	case key.Matches(msg, keys.Right):
		m.selectedPanel = min(m.selectedPanel+1, m.panelCount()-1)
	case key.Matches(msg, keys.Up):
		if m.selectedPanel-m.columns() >= 0 {
			m.selectedPanel -= m.columns()
		}
	case key.Matches(msg, keys.Down):
		if m.selectedPanel+m.columns() < m.panelCount() {
			m.selectedPanel += m.columns()
		}
	case key.Matches(msg, keys.Older):
		if b := m.selectedBinding(); b != nil {
			b.MoveCursor(-1)
		}
	case key.Matches(msg, keys.Newer):
		if b := m.selectedBinding(); b != nil {
			b.MoveCursor(1)
		}
	case key.Matches(msg, keys.Commands):
		if m.commands != nil {
			m.modal = modalCommands
		}
	case key.Matches(msg, keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	default:
		// digits jump straight to a tab
		if s := msg.String(); len(s) == 1 && s[0] >= '1' && s[0] <= '9' {
			if m.tabs.SelectTab(int(s[0] - '1')) {
				return m.activate(m.tabs.Selected().Name)
			}
		}
	}
	return nil
}

func (m *Dashboard) handleCommandKey(msg tea.KeyMsg) tea.Cmd {
	commands := BoardCommands()
	switch msg.String() {
	case "esc", "q":
		m.modal = modalNone
	case "ctrl+c":
		return tea.Quit
	case "j", "down":
		m.selectedCommand = min(m.selectedCommand+1, len(commands)-1)
	case "k", "up":
		m.selectedCommand = max(m.selectedCommand-1, 0)
	case "enter":
		m.modal = modalNone
		return m.sendCommand(commands[m.selectedCommand].Name)
	default:
		for _, c := range commands {
			if msg.String() == c.Key {
				m.modal = modalNone
				return m.sendCommand(c.Name)
			}
		}
	}
	return nil
}

// panelCount is one panel per metric plus the summary panel
func (m *Dashboard) panelCount() int {
	return len(m.metrics) + 1
}

func (m *Dashboard) columns() int {
	return gridColumns(m.panelCount(), m.width)
}

func (m *Dashboard) selectedBinding() *ChartBinding {
	if m.selectedPanel >= len(m.metrics) {
		return nil
	}
	return m.registry[PanelKey{Metric: m.metrics[m.selectedPanel], Range: m.tabs.Selected().Name}]
}

func (m *Dashboard) View() string {
	if !m.ready {
		return "Initializing..."
	}

	header := m.renderHeader()
	tabs := m.tabs.Render()
	status := m.status.View()
	helpBar := lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Width(m.width).
		Render(m.help.View(keys))

	used := lipgloss.Height(header) + lipgloss.Height(tabs) + lipgloss.Height(status) + lipgloss.Height(helpBar)
	panels := m.renderPanels(m.height - used)

	baseView := lipgloss.JoinVertical(lipgloss.Left, header, tabs, status, panels, helpBar)

	switch m.modal {
	case modalCommands:
		return m.renderCommandModal()
	case modalAlert:
		return m.renderAlert()
	}
	return baseView
}

func (m *Dashboard) renderHeader() string {
	title := lipgloss.NewStyle().
		Foreground(lipgloss.Color("214")).
		Bold(true).
		Render("hydrotop")
	left := title
	if live := m.indicator.View(); live != "" {
		left += "  " + live
	}
	clock := lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Render(m.now.Format("2006-01-02 15:04:05"))
	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(clock), 1)
	return left + strings.Repeat(" ", gap) + clock
}

func (m *Dashboard) renderPanels(height int) string {
	columns := m.columns()
	rows := (m.panelCount() + columns - 1) / columns
	// borders take two cells in each direction
	paneWidth := max(m.width/columns-2, 10)
	paneHeight := max(height/rows-2, 4)

	r := m.tabs.Selected()
	panes := make([]Pane, 0, m.panelCount())
	for i, metric := range m.metrics {
		binding := m.registry[PanelKey{Metric: metric, Range: r.Name}]
		title := metric.Title()
		if unit := metric.Unit(); unit != "" {
			title += " (" + unit + ")"
		}
		pane := NewPane(title, paneWidth, paneHeight).SetTitleColor(metric.Color())
		if _, value, ok := binding.Series().Last(); ok {
			pane = pane.SetBadge(fmt.Sprintf("%.2f", value))
		}
		w, h := pane.ContentSize()
		pane = pane.SetContent(binding.View(w, h)).SetFocused(i == m.selectedPanel)
		panes = append(panes, pane)
	}

	summary := NewPane(r.Title, paneWidth, paneHeight).
		SetContent(m.renderSummary(r, paneHeight-1)).
		SetFocused(m.selectedPanel == len(m.metrics))
	panes = append(panes, summary)

	return Wrap(columns, panes...)
}

// renderSummary fills the last panel: latest readings on the live tab,
// fetch details on historical tabs
func (m *Dashboard) renderSummary(r TimeRange, height int) string {
	var b strings.Builder
	if r.Live {
		rt := NewReadingsTable(height - 1)
		for _, metric := range m.metrics {
			rt.Add(m.registry[PanelKey{Metric: metric, Range: r.Name}].Series())
		}
		b.WriteString(rt.Render())
		if m.lastCommand != "" {
			b.WriteString("\nlast command: " + m.lastCommand)
		}
		return b.String()
	}

	fmt.Fprintf(&b, "start %s, window %s\n", r.Start, r.Window)
	fmt.Fprintf(&b, "up to %d points per metric\n", r.Points)
	fmt.Fprintf(&b, "state: %s\n", m.tabs.State(r.Name))
	if at, ok := m.loadedAt[r.Name]; ok {
		fmt.Fprintf(&b, "loaded at %s\n", at.Format("15:04:05"))
	}
	for _, metric := range m.metrics {
		b.WriteString(RangeSummary(m.registry[PanelKey{Metric: metric, Range: r.Name}].Series()) + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m *Dashboard) renderCommandModal() string {
	selectedStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("170")).
		Bold(true)

	var lines []string
	for i, c := range BoardCommands() {
		line := fmt.Sprintf("[%s] %s", c.Key, c.Title)
		if i == m.selectedCommand {
			lines = append(lines, selectedStyle.Render("▶ "+line))
		} else {
			lines = append(lines, "  "+line)
		}
	}

	modalWidth := max(int(float64(m.width)*0.4), 30)
	modalPane := NewPane("Send command to board", modalWidth, len(lines)+2).
		SetContent(strings.Join(lines, "\n")).
		SetFocused(true)

	helpText := lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Render("j/k=Select  enter=Send  ESC=Cancel")

	return m.overlay(modalPane.Render() + "\n" + helpText)
}

func (m *Dashboard) renderAlert() string {
	modalWidth := max(int(float64(m.width)*0.5), 30)
	alertPane := NewPane("Alert", modalWidth, 3).
		SetContent(lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render(m.alert)).
		SetFocused(true)
	helpText := lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Render("enter=OK")
	return m.overlay(alertPane.Render() + "\n" + helpText)
}

func (m *Dashboard) overlay(content string) string {
	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		content,
		lipgloss.WithWhitespaceChars("░"),
		lipgloss.WithWhitespaceForeground(lipgloss.Color("235")),
	)
}

// Run starts the dashboard on the terminal and blocks until it quits
func Run(m *Dashboard) error {
	defer m.Close()
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running bubbletea program: %w", err)
	}
	return nil
}

package hydrotop

import (
	"github.com/charmbracelet/lipgloss"
)

// TabState tracks the fetch cycle of a historical tab
type TabState int

const (
	TabInactive TabState = iota
	TabFetching
	// TabRendered behaves like TabInactive: the next activation fetches again
	TabRendered
)

func (s TabState) String() string {
	switch s {
	case TabFetching:
		return "fetching"
	case TabRendered:
		return "rendered"
	default:
		return "inactive"
	}
}

type tab struct {
	rng     TimeRange
	state   TabState
	seq     int // activation counter, stamps every fetch result
	pending int // fetches still outstanding for seq
}

// TabSet manages the time range tabs and their fetch state machines
type TabSet struct {
	tabs        []tab
	selectedTab int
}

// NewTabSet creates a tab per range; the first one is selected
func NewTabSet(ranges []TimeRange) *TabSet {
	ts := &TabSet{tabs: make([]tab, 0, len(ranges))}
	for _, r := range ranges {
		ts.tabs = append(ts.tabs, tab{rng: r})
	}
	return ts
}

// Len returns the number of tabs
func (ts *TabSet) Len() int {
	return len(ts.tabs)
}

// Selected returns the range of the active tab
func (ts *TabSet) Selected() TimeRange {
	return ts.tabs[ts.selectedTab].rng
}

// SelectedIndex returns the active tab index
func (ts *TabSet) SelectedIndex() int {
	return ts.selectedTab
}

// SelectTab changes the active tab; out of range indexes are ignored
func (ts *TabSet) SelectTab(index int) bool {
	if index < 0 || index >= len(ts.tabs) || index == ts.selectedTab {
		return false
	}
	ts.selectedTab = index
	return true
}

// NextTab moves to the next tab (wraps around)
func (ts *TabSet) NextTab() {
	if len(ts.tabs) > 0 {
		ts.selectedTab = (ts.selectedTab + 1) % len(ts.tabs)
	}
}

// PrevTab moves to the previous tab (wraps around)
func (ts *TabSet) PrevTab() {
	if len(ts.tabs) > 0 {
		ts.selectedTab = (ts.selectedTab - 1 + len(ts.tabs)) % len(ts.tabs)
	}
}

func (ts *TabSet) find(name string) *tab {
	for i := range ts.tabs {
		if ts.tabs[i].rng.Name == name {
			return &ts.tabs[i]
		}
	}
	return nil
}

// Range looks up the range of the named tab
func (ts *TabSet) Range(name string) (TimeRange, bool) {
	if t := ts.find(name); t != nil {
		return t.rng, true
	}
	return TimeRange{}, false
}

// State returns the fetch state of the named tab
func (ts *TabSet) State(name string) TabState {
	if t := ts.find(name); t != nil {
		return t.state
	}
	return TabInactive
}

// Activate starts a fetch cycle of n requests on the named tab and returns
// its sequence number. Live tabs, unknown tabs and tabs already fetching
// are not activated.
func (ts *TabSet) Activate(name string, n int) (int, bool) {
	t := ts.find(name)
	if t == nil || t.rng.Live || t.state == TabFetching || n <= 0 {
		return 0, false
	}
	t.seq++
	t.state = TabFetching
	t.pending = n
	return t.seq, true
}

// Resolve records one finished fetch. It returns false for results of an
// older activation, which must be discarded.
func (ts *TabSet) Resolve(name string, seq int) bool {
	t := ts.find(name)
	if t == nil || seq != t.seq || t.state != TabFetching {
		return false
	}
	t.pending--
	if t.pending <= 0 {
		t.state = TabRendered
	}
	return true
}

// Render draws the tab bar
func (ts *TabSet) Render() string {
	activeTabStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("170")).
		Background(lipgloss.Color("235")).
		Bold(true).
		Padding(0, 1).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("170"))

	inactiveTabStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Padding(0, 1).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("236"))

	var renderedTabs []string
	for i, t := range ts.tabs {
		label := t.rng.Title
		if t.state == TabFetching {
			label += " …"
		}
		if i == ts.selectedTab {
			renderedTabs = append(renderedTabs, activeTabStyle.Render(label))
		} else {
			renderedTabs = append(renderedTabs, inactiveTabStyle.Render(label))
		}
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, renderedTabs...)
}

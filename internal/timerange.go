package hydrotop

import (
	"time"
)

// LabelPolicy selects how sample timestamps are printed on the x axis
type LabelPolicy int

const (
	// LabelSeconds prints the time of day with seconds
	LabelSeconds LabelPolicy = iota
	// LabelMinutes prints the time of day without seconds
	LabelMinutes
	// LabelHours prints month/day and hour only, for long ranges
	LabelHours
)

// Format renders t in loc according to the policy
func (p LabelPolicy) Format(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	switch p {
	case LabelMinutes:
		return t.Format("15:04")
	case LabelHours:
		return t.Format("01/02 15h")
	default:
		return t.Format("15:04:05")
	}
}

// TimeRange describes one dashboard tab
type TimeRange struct {
	Name   string // tab id, e.g. "1h"
	Title  string
	Start  string // relative offset sent to the history endpoint, e.g. "-1h"
	Window string // aggregation window, e.g. "5m"
	Points int    // series capacity
	Labels LabelPolicy
	Live   bool
}

// LiveRangeName is the name of the push-fed tab
const LiveRangeName = "live"

// DefaultRanges returns the live tab followed by the historical tabs.
// livePoints overrides the live capacity when positive.
func DefaultRanges(livePoints int) []TimeRange {
	if livePoints <= 0 {
		livePoints = LIVE_POINTS
	}
	return []TimeRange{
		{Name: LiveRangeName, Title: "Live", Points: livePoints, Labels: LabelSeconds, Live: true},
		{Name: "1h", Title: "1 hour", Start: "-1h", Window: "5m", Points: 12, Labels: LabelSeconds},
		{Name: "1d", Title: "1 day", Start: "-1d", Window: "1h", Points: 24, Labels: LabelMinutes},
		{Name: "7d", Title: "7 days", Start: "-7d", Window: "1h", Points: 200, Labels: LabelHours},
		{Name: "14d", Title: "14 days", Start: "-14d", Window: "2h", Points: 200, Labels: LabelHours},
		{Name: "1m", Title: "1 month", Start: "-30d", Window: "6h", Points: 200, Labels: LabelHours},
		{Name: "1y", Title: "1 year", Start: "-365d", Window: "1d", Points: 400, Labels: LabelHours},
	}
}

// PanelKey addresses one series in the dashboard registry
type PanelKey struct {
	Metric Metric
	Range  string
}

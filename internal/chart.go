package hydrotop

import (
	"fmt"
	"image"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"
)

// ChartBinding ties a RollingSeries to its chart surface and its
// "no data" surface. Exactly one of the two is visible at a time.
type ChartBinding struct {
	series    *RollingSeries
	indicator *LiveIndicator // nil for historical charts

	plot    *widgets.Plot // built on the first non-empty render
	visible bool
	builds  int
	redraws int

	// cursor indexes the point shown in the tooltip; -1 follows the newest point
	cursor int
}

// NewChartBinding binds series to a chart. Pass the shared indicator for
// live charts and nil for historical ones.
func NewChartBinding(series *RollingSeries, indicator *LiveIndicator) *ChartBinding {
	return &ChartBinding{
		series:    series,
		indicator: indicator,
		cursor:    -1,
	}
}

func (c *ChartBinding) Series() *RollingSeries {
	return c.series
}

func (c *ChartBinding) Live() bool {
	return c.indicator != nil
}

// Visible reports whether the chart surface (rather than the placeholder) is shown
func (c *ChartBinding) Visible() bool {
	return c.visible
}

// Render syncs the surfaces with the series. For live charts it returns
// the countdown command of the live indicator.
func (c *ChartBinding) Render() tea.Cmd {
	if c.series.Empty() {
		c.visible = false
		c.plot = nil
		c.cursor = -1
		if c.indicator != nil {
			c.indicator.Extinguish()
		}
		return nil
	}

	c.visible = true
	if c.plot == nil {
		c.plot = c.newPlot()
		c.builds++
	} else {
		c.redraws++
	}
	c.plot.Data = [][]float64{c.series.Values()}
	c.plot.DataLabels = c.series.Labels()
	if c.cursor >= c.series.Len() {
		c.cursor = -1
	}

	if c.indicator != nil {
		return c.indicator.Arm()
	}
	return nil
}

func (c *ChartBinding) newPlot() *widgets.Plot {
	p := widgets.NewPlot()
	p.Border = false
	p.ShowAxes = false
	p.Marker = widgets.MarkerBraille
	p.PlotType = widgets.LineChart
	p.LineColors = []ui.Color{c.series.Metric().PlotColor()}
	return p
}

// MoveCursor shifts the tooltip point by delta, clamping at both ends
func (c *ChartBinding) MoveCursor(delta int) {
	n := c.series.Len()
	if n == 0 {
		c.cursor = -1
		return
	}
	i := c.cursor
	if i < 0 {
		i = n - 1
	}
	i = max(0, min(n-1, i+delta))
	if i == n-1 {
		i = -1
	}
	c.cursor = i
}

// Tooltip describes the point under the cursor as "label - value unit"
func (c *ChartBinding) Tooltip() string {
	n := c.series.Len()
	if n == 0 {
		return ""
	}
	i := c.cursor
	if i < 0 || i >= n {
		i = n - 1
	}
	return FormatTooltip(c.series.Labels()[i], c.series.Values()[i], c.series.Metric().Unit())
}

// FormatTooltip renders a value rounded to two decimals with its unit
func FormatTooltip(label string, value float64, unit string) string {
	return strings.TrimSpace(fmt.Sprintf("%s - %.2f %s", label, value, unit))
}

// View draws the chart (or the placeholder) into a width x height block
func (c *ChartBinding) View(width, height int) string {
	width = max(width, 4)
	height = max(height, 3)

	if !c.visible || c.plot == nil {
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
			lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Render("No data"))
	}

	lo, hi := c.series.Bounds()
	unit := c.series.Metric().Unit()
	axisStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	top := axisStyle.Render(strings.TrimSpace(fmt.Sprintf("max %.2f %s", hi, unit)))
	bottom := axisStyle.Render(strings.TrimSpace(fmt.Sprintf("min %.2f %s", lo, unit)))
	tip := lipgloss.NewStyle().Foreground(c.series.Metric().Color()).Render(c.Tooltip())

	// top label, plot, bottom label, tooltip
	plotHeight := max(height-3, 1)
	return lipgloss.JoinVertical(lipgloss.Left,
		top,
		c.drawPlot(width, plotHeight),
		bottom,
		tip,
	)
}

// drawPlot renders the termui plot into an off-screen buffer and turns the
// cells into styled text. Values are normalised to [0,1] because termui
// scales from zero and pH millivolts can be negative.
func (c *ChartBinding) drawPlot(width, height int) string {
	values := resample(c.series.Values(), width)
	lo, hi := c.series.Bounds()
	span := hi - lo
	norm := make([]float64, len(values))
	for i, v := range values {
		if span == 0 {
			norm[i] = 0.5
		} else {
			norm[i] = (v - lo) / span
		}
	}
	// termui draws segments between consecutive points
	if len(norm) == 1 {
		norm = append(norm, norm[0])
	}

	c.plot.Data = [][]float64{norm}
	c.plot.MaxVal = 1
	c.plot.HorizontalScale = max(1, (width-1)/(len(norm)-1))
	// termui keeps a one cell frame around Inner even without a border
	c.plot.SetRect(0, 0, width+2, height+2)

	buf := ui.NewBuffer(c.plot.GetRect())
	c.plot.Draw(buf)
	// restore the series arrays for the next render
	c.plot.Data = [][]float64{c.series.Values()}

	return bufferText(buf, c.plot.Inner)
}

// resample picks at most n evenly spaced points, always keeping the newest
func resample(values []float64, n int) []float64 {
	if n < 2 || len(values) <= n {
		return values
	}
	out := make([]float64, n)
	last := len(values) - 1
	for i := range out {
		out[i] = values[i*last/(n-1)]
	}
	return out
}

func bufferText(buf *ui.Buffer, area image.Rectangle) string {
	var b strings.Builder
	for y := area.Min.Y; y < area.Max.Y; y++ {
		if y > area.Min.Y {
			b.WriteByte('\n')
		}
		for x := area.Min.X; x < area.Max.X; x++ {
			cell := buf.GetCell(image.Pt(x, y))
			r := cell.Rune
			if r == 0 {
				r = ' '
			}
			if r == ' ' || cell.Style.Fg == ui.ColorClear {
				b.WriteRune(r)
				continue
			}
			style := lipgloss.NewStyle().Foreground(lipgloss.Color(strconv.Itoa(int(cell.Style.Fg))))
			b.WriteString(style.Render(string(r)))
		}
	}
	return b.String()
}

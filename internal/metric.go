package hydrotop

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
	ui "github.com/gizak/termui/v3"
)

// Metric identifies one sensor channel published by the board
type Metric string

const (
	MetricTemperature  Metric = "temp_c"
	MetricConductivity Metric = "ec_ms"
	MetricPH           Metric = "ph_value"
	MetricPHMillivolts Metric = "ph_mv"
	MetricFloatLevel   Metric = "float_ok"
)

// StateTopic carries controller state labels instead of samples
const StateTopic = "state_changed"

type metricInfo struct {
	title string
	unit  string
	color int // xterm-256 index
}

var metricInfos = map[Metric]metricInfo{
	MetricTemperature:  {title: "Temperature", unit: "°C", color: 208},
	MetricConductivity: {title: "Conductivity", unit: "mS/cm", color: 30},
	MetricPH:           {title: "pH", unit: "", color: 34},
	MetricPHMillivolts: {title: "pH mV", unit: "mV", color: 196},
	MetricFloatLevel:   {title: "Water level", unit: "", color: 129},
}

// AllMetrics returns every metric in display order
func AllMetrics() []Metric {
	return []Metric{
		MetricTemperature,
		MetricConductivity,
		MetricPH,
		MetricPHMillivolts,
		MetricFloatLevel,
	}
}

// ParseMetric maps a topic or resource name to a Metric
func ParseMetric(symbol string) (Metric, bool) {
	m := Metric(symbol)
	_, ok := metricInfos[m]
	return m, ok
}

func (m Metric) String() string {
	return string(m)
}

func (m Metric) Title() string {
	if info, ok := metricInfos[m]; ok {
		return info.title
	}
	return string(m)
}

func (m Metric) Unit() string {
	return metricInfos[m].unit
}

// PlotColor is the line color handed to termui
func (m Metric) PlotColor() ui.Color {
	if info, ok := metricInfos[m]; ok {
		return ui.Color(info.color)
	}
	return ui.ColorWhite
}

// Color is the same color for lipgloss styled text
func (m Metric) Color() lipgloss.Color {
	return lipgloss.Color(strconv.Itoa(int(m.PlotColor())))
}

package domain

import "time"

// ChartID names one of the dashboard panels.
type ChartID string

const (
	ChartStationMap      ChartID = "station_map"
	ChartTimeSeries      ChartID = "time_series"
	ChartFlowDuration    ChartID = "flow_duration"
	ChartBacteriaAverage ChartID = "bacteria_avg"
)

// ParseChartID validates a chart identifier.
func ParseChartID(s string) (ChartID, bool) {
	switch id := ChartID(s); id {
	case ChartStationMap, ChartTimeSeries, ChartFlowDuration, ChartBacteriaAverage:
		return id, true
	default:
		return "", false
	}
}

// Trace types and modes understood by the browser plotting widget.
const (
	TraceScatter       = "scatter"
	TraceScatterMapbox = "scattermapbox"

	ModeLines        = "lines"
	ModeMarkers      = "markers"
	ModeLinesMarkers = "lines+markers"
)

// ChartSpec is a figure for the plotting widget: data traces plus layout.
// It serializes to the {"data": [...], "layout": {...}} figure shape.
type ChartSpec struct {
	Traces []Trace `json:"data"`
	Layout Layout  `json:"layout"`
}

// EmptyChart returns a chart with no traces. A non-empty message is shown as
// a centered annotation.
func EmptyChart(message string) ChartSpec {
	spec := ChartSpec{Traces: []Trace{}}
	if message != "" {
		spec.Layout.Annotations = []Annotation{{
			Text:      message,
			XRef:      "paper",
			YRef:      "paper",
			X:         0.5,
			Y:         0.5,
			ShowArrow: false,
		}}
	}
	return spec
}

// IsEmpty reports whether the chart has no traces.
func (c ChartSpec) IsEmpty() bool { return len(c.Traces) == 0 }

// Notice returns the annotation message of a degraded chart, if any.
func (c ChartSpec) Notice() string {
	if len(c.Layout.Annotations) == 0 {
		return ""
	}
	return c.Layout.Annotations[0].Text
}

// Trace is one data series. X holds time.Time, float64 or string values.
type Trace struct {
	Type      string    `json:"type"`
	Mode      string    `json:"mode,omitempty"`
	Name      string    `json:"name,omitempty"`
	X         []any     `json:"x,omitempty"`
	Y         []float64 `json:"y,omitempty"`
	Lat       []float64 `json:"lat,omitempty"`
	Lon       []float64 `json:"lon,omitempty"`
	Text      []string  `json:"text,omitempty"`
	HoverInfo string    `json:"hoverinfo,omitempty"`
	Line      *Line     `json:"line,omitempty"`
	Marker    *Marker   `json:"marker,omitempty"`
}

// Line holds line style hints.
type Line struct {
	Shape     string  `json:"shape,omitempty"`
	Smoothing float64 `json:"smoothing,omitempty"`
	Width     float64 `json:"width,omitempty"`
	Color     string  `json:"color,omitempty"`
}

// Marker holds marker style hints.
type Marker struct {
	Size    float64 `json:"size,omitempty"`
	Color   string  `json:"color,omitempty"`
	Opacity float64 `json:"opacity,omitempty"`
}

// Layout is the figure layout metadata.
type Layout struct {
	Title        *Title        `json:"title,omitempty"`
	XAxis        *Axis         `json:"xaxis,omitempty"`
	YAxis        *Axis         `json:"yaxis,omitempty"`
	ShowLegend   bool          `json:"showlegend"`
	AutoSize     bool          `json:"autosize,omitempty"`
	HoverMode    string        `json:"hovermode,omitempty"`
	ClickMode    string        `json:"clickmode,omitempty"`
	Margin       *Margin       `json:"margin,omitempty"`
	PlotBgColor  string        `json:"plot_bgcolor,omitempty"`
	PaperBgColor string        `json:"paper_bgcolor,omitempty"`
	Mapbox       *MapboxLayout `json:"mapbox,omitempty"`
	Annotations  []Annotation  `json:"annotations,omitempty"`
}

// Title is a chart title.
type Title struct {
	Text    string `json:"text"`
	XAnchor string `json:"xanchor,omitempty"`
}

// Axis describes one axis. Type "log" selects a logarithmic scale.
type Axis struct {
	Title string `json:"title,omitempty"`
	Type  string `json:"type,omitempty"`
}

// Margin is the plot margin in pixels.
type Margin struct {
	L int `json:"l"`
	R int `json:"r"`
	B int `json:"b"`
	T int `json:"t"`
}

// MapboxLayout configures the geographic base layer.
type MapboxLayout struct {
	AccessToken string  `json:"accesstoken,omitempty"`
	Style       string  `json:"style"`
	Center      LatLon  `json:"center"`
	Zoom        float64 `json:"zoom"`
	Pitch       float64 `json:"pitch"`
}

// LatLon is a WGS-84 coordinate.
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Annotation is free text placed on the figure.
type Annotation struct {
	Text      string  `json:"text"`
	XRef      string  `json:"xref,omitempty"`
	YRef      string  `json:"yref,omitempty"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	ShowArrow bool    `json:"showarrow"`
}

// TimeValues converts dates to trace X values.
func TimeValues(ts []time.Time) []any {
	out := make([]any, len(ts))
	for i, t := range ts {
		out[i] = t
	}
	return out
}

// FloatValues converts numbers to trace X values.
func FloatValues(vs []float64) []any {
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = v
	}
	return out
}

// StringValues converts categories to trace X values.
func StringValues(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

package render

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/okh2o/stream-dashboard/internal/domain"
)

// Default PNG size in pixels.
const (
	DefaultWidth  = 900
	DefaultHeight = 420
)

var namedColors = map[string]drawing.Color{
	"blue":   {R: 31, G: 119, B: 180, A: 255},
	"orange": {R: 255, G: 127, B: 14, A: 255},
	"red":    {R: 214, G: 39, B: 40, A: 255},
}

// PNG renders a chart spec as a PNG image. Log-typed Y axes are drawn as
// log10 values with power-of-ten tick labels; non-positive values are dropped
// from log axes.
func PNG(w io.Writer, spec domain.ChartSpec, width, height int) error {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}

	graph := chart.Chart{
		Title: pngTitle(spec),
		TitleStyle: chart.Style{
			FontSize:  14,
			FontColor: drawing.ColorBlack,
		},
		Background: chart.Style{
			Padding: chart.Box{Top: 50, Left: 70, Right: 30, Bottom: 50},
		},
		Width:  width,
		Height: height,
	}

	p := newPlot(spec)
	if len(p.series) == 0 {
		// A transparent placeholder keeps go-chart from rejecting an empty chart.
		graph.Series = []chart.Series{chart.ContinuousSeries{
			Style:   chart.Style{StrokeColor: drawing.ColorTransparent, StrokeWidth: 1},
			XValues: []float64{0, 1},
			YValues: []float64{0, 0},
		}}
		graph.XAxis = chart.XAxis{Range: &chart.ContinuousRange{Min: 0, Max: 1}}
		graph.YAxis = chart.YAxis{Range: &chart.ContinuousRange{Min: 0, Max: 1}}
	} else {
		graph.Series = p.series
		graph.XAxis = chart.XAxis{
			Name:           p.xName,
			NameStyle:      chart.Style{FontSize: 11},
			Style:          chart.Style{FontSize: 9},
			Range:          padRange(p.xMin, p.xMax),
			ValueFormatter: p.xFormatter,
			Ticks:          p.xTicks,
		}
		graph.YAxis = chart.YAxis{
			Name:      p.yName,
			NameStyle: chart.Style{FontSize: 11},
			Style:     chart.Style{FontSize: 9},
			Range:     padRange(p.yMin, p.yMax),
			Ticks:     p.yTicks,
		}
	}

	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render png: %w", err)
	}
	return nil
}

// plot is a spec flattened to numeric go-chart series.
type plot struct {
	series     []chart.Series
	xName      string
	yName      string
	xMin, xMax float64
	yMin, yMax float64
	xTicks     []chart.Tick
	yTicks     []chart.Tick
	xFormatter chart.ValueFormatter
}

func newPlot(spec domain.ChartSpec) plot {
	p := plot{
		xName:      axisTitle(spec.Layout.XAxis),
		yName:      axisTitle(spec.Layout.YAxis),
		xMin:       math.Inf(1),
		xMax:       math.Inf(-1),
		yMin:       math.Inf(1),
		yMax:       math.Inf(-1),
		xFormatter: chart.FloatValueFormatter,
	}
	logY := yAxisType(spec.Layout.YAxis) == "log"

	kind, categories := xAxisType(spec.Traces)
	index := make(map[string]float64, len(categories))
	for i, c := range categories {
		index[c] = float64(i)
		p.xTicks = append(p.xTicks, chart.Tick{Value: float64(i), Label: c})
	}
	if kind == "time" {
		p.xFormatter = dateFormatter
	}
	if spec.Layout.Mapbox != nil {
		p.xName, p.yName = "Longitude", "Latitude"
	}

	for _, tr := range spec.Traces {
		xs, ys := traceXY(tr, index)
		if logY {
			xs, ys = toLog10(xs, ys)
		}
		if len(xs) == 0 {
			continue
		}
		for i := range xs {
			p.xMin, p.xMax = math.Min(p.xMin, xs[i]), math.Max(p.xMax, xs[i])
			p.yMin, p.yMax = math.Min(p.yMin, ys[i]), math.Max(p.yMax, ys[i])
		}
		p.series = append(p.series, chart.ContinuousSeries{
			Name:    tr.Name,
			Style:   traceStyle(tr),
			XValues: xs,
			YValues: ys,
		})
	}

	if len(categories) > 0 {
		// go-chart takes the axis range from custom ticks, so blank edge
		// ticks keep a single category from collapsing the range.
		p.xMin, p.xMax = -0.5, float64(len(categories))-0.5
		edged := make([]chart.Tick, 0, len(p.xTicks)+2)
		edged = append(edged, chart.Tick{Value: p.xMin})
		edged = append(edged, p.xTicks...)
		p.xTicks = append(edged, chart.Tick{Value: p.xMax})
	}
	if logY && len(p.series) > 0 {
		p.yMin, p.yMax = math.Floor(p.yMin), math.Ceil(p.yMax)
		if p.yMin == p.yMax {
			p.yMin--
		}
		for e := p.yMin; e <= p.yMax; e++ {
			p.yTicks = append(p.yTicks, chart.Tick{Value: e, Label: strconv.FormatFloat(math.Pow(10, e), 'g', -1, 64)})
		}
	}
	return p
}

// traceXY flattens one trace to numeric coordinates. Map traces plot
// longitude against latitude; category X values use their index.
func traceXY(tr domain.Trace, categories map[string]float64) ([]float64, []float64) {
	if tr.Type == domain.TraceScatterMapbox {
		n := min(len(tr.Lat), len(tr.Lon))
		return append([]float64(nil), tr.Lon[:n]...), append([]float64(nil), tr.Lat[:n]...)
	}

	var xs, ys []float64
	for i, y := range tr.Y {
		if i >= len(tr.X) || domain.Missing(y) {
			continue
		}
		var x float64
		switch v := tr.X[i].(type) {
		case time.Time:
			x = chart.TimeToFloat64(v)
		case float64:
			x = v
		case string:
			x = categories[v]
		default:
			continue
		}
		xs = append(xs, x)
		ys = append(ys, y)
	}
	return xs, ys
}

func toLog10(xs, ys []float64) ([]float64, []float64) {
	var outX, outY []float64
	for i, y := range ys {
		if y <= 0 {
			continue
		}
		outX = append(outX, xs[i])
		outY = append(outY, math.Log10(y))
	}
	return outX, outY
}

func traceStyle(tr domain.Trace) chart.Style {
	color, ok := namedColors[traceColor(tr)]
	if !ok {
		color = drawing.ColorBlack
	}

	style := chart.Style{StrokeColor: color, StrokeWidth: 1.5}
	switch tr.Mode {
	case domain.ModeMarkers:
		style.StrokeWidth = chart.Disabled
		style.DotColor = color
		style.DotWidth = 4
	case domain.ModeLinesMarkers:
		style.DotColor = color
		style.DotWidth = 3
	}
	return style
}

// padRange widens a degenerate range so go-chart can scale it.
func padRange(lo, hi float64) *chart.ContinuousRange {
	if lo == hi {
		pad := math.Max(math.Abs(lo)*0.05, 1)
		lo, hi = lo-pad, hi+pad
	}
	return &chart.ContinuousRange{Min: lo, Max: hi}
}

func dateFormatter(v any) string {
	switch t := v.(type) {
	case time.Time:
		return t.Format(time.DateOnly)
	case float64:
		return time.Unix(0, int64(t)).UTC().Format(time.DateOnly)
	default:
		return ""
	}
}

func pngTitle(spec domain.ChartSpec) string {
	title := titleOf(spec)
	if notice := spec.Notice(); notice != "" {
		if title == "" {
			return notice
		}
		return title + ": " + notice
	}
	return title
}

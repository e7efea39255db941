// Package render turns chart specs into browser HTML (ECharts) and PNG images.
package render

import (
	"fmt"
	"io"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/okh2o/stream-dashboard/internal/domain"
)

// Panel is one chart on the dashboard page.
type Panel struct {
	ID   domain.ChartID
	Spec domain.ChartSpec
}

const (
	panelWidth  = "900px"
	panelHeight = "420px"
)

// HTML renders a single chart as a standalone page.
func HTML(w io.Writer, id domain.ChartID, spec domain.ChartSpec) error {
	return Page(w, string(id), []Panel{{ID: id, Spec: spec}})
}

// Page renders the panels on one page in order.
func Page(w io.Writer, title string, panels []Panel) error {
	page := components.NewPage()
	page.PageTitle = title
	for _, p := range panels {
		page.AddCharts(newChart(p.ID, p.Spec))
	}
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render page: %w", err)
	}
	return nil
}

func newChart(id domain.ChartID, spec domain.ChartSpec) components.Charter {
	global := []charts.GlobalOpts{
		charts.WithInitializationOpts(opts.Initialization{
			ChartID: string(id),
			Width:   panelWidth,
			Height:  panelHeight,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    titleOf(spec),
			Subtitle: spec.Notice(),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: true, Trigger: "item"}),
	}

	if spec.IsEmpty() {
		line := charts.NewLine()
		line.SetGlobalOptions(global...)
		return line
	}

	xType, categories := xAxisType(spec.Traces)
	if spec.Layout.Mapbox != nil {
		global = append(global,
			charts.WithXAxisOpts(opts.XAxis{Name: "Longitude", Type: "value"}),
			charts.WithYAxisOpts(opts.YAxis{Name: "Latitude", Type: "value"}),
		)
	} else {
		global = append(global,
			charts.WithXAxisOpts(opts.XAxis{Name: axisTitle(spec.Layout.XAxis), Type: xType}),
			charts.WithYAxisOpts(opts.YAxis{Name: axisTitle(spec.Layout.YAxis), Type: yAxisType(spec.Layout.YAxis)}),
		)
	}

	if usesLines(spec.Traces) {
		line := charts.NewLine()
		line.SetGlobalOptions(global...)
		if categories != nil {
			line.SetXAxis(categories)
		}
		for _, tr := range spec.Traces {
			line.AddSeries(tr.Name, lineData(tr), charts.WithItemStyleOpts(opts.ItemStyle{Color: traceColor(tr)}))
		}
		return line
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(global...)
	if categories != nil {
		scatter.SetXAxis(categories)
	}
	for _, tr := range spec.Traces {
		scatter.AddSeries(tr.Name, scatterData(tr), charts.WithItemStyleOpts(opts.ItemStyle{Color: traceColor(tr)}))
	}
	return scatter
}

func lineData(tr domain.Trace) []opts.LineData {
	out := make([]opts.LineData, 0, len(tr.Y))
	for i, y := range tr.Y {
		if i >= len(tr.X) {
			break
		}
		out = append(out, opts.LineData{Value: []any{xValue(tr.X[i]), y}})
	}
	return out
}

func scatterData(tr domain.Trace) []opts.ScatterData {
	size := 8
	if tr.Marker != nil && tr.Marker.Size > 0 {
		size = int(tr.Marker.Size)
	}

	if tr.Type == domain.TraceScatterMapbox {
		out := make([]opts.ScatterData, 0, len(tr.Lat))
		for i := range tr.Lat {
			if i >= len(tr.Lon) {
				break
			}
			d := opts.ScatterData{Value: []any{tr.Lon[i], tr.Lat[i]}, SymbolSize: size}
			if i < len(tr.Text) {
				d.Name = tr.Text[i]
			}
			out = append(out, d)
		}
		return out
	}

	out := make([]opts.ScatterData, 0, len(tr.Y))
	for i, y := range tr.Y {
		if i >= len(tr.X) {
			break
		}
		out = append(out, opts.ScatterData{Value: []any{xValue(tr.X[i]), y}, SymbolSize: size})
	}
	return out
}

// xValue converts a trace X value into something ECharts can place.
func xValue(v any) any {
	if t, ok := v.(time.Time); ok {
		return t.Format(time.RFC3339)
	}
	return v
}

// xAxisType picks the ECharts axis type from the trace X values. Category
// axes also return the ordered union of categories.
func xAxisType(traces []domain.Trace) (string, []string) {
	var categories []string
	seen := make(map[string]bool)
	kind := "value"
	for _, tr := range traces {
		for _, x := range tr.X {
			switch v := x.(type) {
			case time.Time:
				kind = "time"
			case string:
				kind = "category"
				if !seen[v] {
					seen[v] = true
					categories = append(categories, v)
				}
			}
		}
	}
	return kind, categories
}

func yAxisType(a *domain.Axis) string {
	if a != nil && a.Type == "log" {
		return "log"
	}
	return "value"
}

func axisTitle(a *domain.Axis) string {
	if a == nil {
		return ""
	}
	return a.Title
}

func titleOf(spec domain.ChartSpec) string {
	if spec.Layout.Title == nil {
		return ""
	}
	return spec.Layout.Title.Text
}

func usesLines(traces []domain.Trace) bool {
	for _, tr := range traces {
		if tr.Mode == domain.ModeLines || tr.Mode == domain.ModeLinesMarkers {
			return true
		}
	}
	return false
}

func traceColor(tr domain.Trace) string {
	if tr.Line != nil && tr.Line.Color != "" {
		return tr.Line.Color
	}
	if tr.Marker != nil {
		return tr.Marker.Color
	}
	return ""
}

package pipeline

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/okh2o/stream-dashboard/internal/domain"
)

// Map layout over Oklahoma.
const (
	mapTitle      = "State of Oklahoma"
	mapCenterLat  = 35.2226
	mapCenterLon  = -97.4395
	mapZoom       = 5
	mapBackground = "#F9F9F9"
	markerSize    = 7
	markerOpacity = 0.7
)

const (
	colorBacteria    = "blue"
	colorGauge       = "red"
	colorEcoli       = "blue"
	colorEnterococci = "orange"
	colorFlow        = "blue"

	traceEcoli       = "E. coli"
	traceEnterococci = "Enterococci"
	traceFlow        = "Flow Rate"

	axisSamplingDate  = "Sampling Date"
	axisBacteriaCount = "Bacteria Count [MPN/100mL]"
	axisFlowRate      = "Flow Rate [cfs]"
	axisLocation      = "Sampling Location"
)

// StationMap builds the station map for a basemap style. Unknown styles fall
// back to outdoors.
func (b *Builder) StationMap(style domain.BasemapStyle) domain.ChartSpec {
	start := time.Now()
	if _, ok := domain.ParseBasemapStyle(string(style)); !ok {
		style = domain.StyleOutdoors
	}

	var bLat, bLon []float64
	var bText []string
	seen := make(map[string]bool)
	for _, s := range b.data.Bacteria() {
		if seen[s.StationName] {
			continue
		}
		seen[s.StationName] = true
		bLat = append(bLat, s.Lat)
		bLon = append(bLon, s.Long)
		bText = append(bText, s.StationName)
	}

	gauges := b.data.Gauges()
	gLat := make([]float64, len(gauges))
	gLon := make([]float64, len(gauges))
	gText := make([]string, len(gauges))
	for i, g := range gauges {
		gLat[i], gLon[i], gText[i] = g.Lat, g.Long, g.StationName
	}

	spec := domain.ChartSpec{
		Traces: []domain.Trace{
			mapTrace(bLat, bLon, bText, colorBacteria),
			mapTrace(gLat, gLon, gText, colorGauge),
		},
		Layout: domain.Layout{
			Title:        &domain.Title{Text: mapTitle},
			ShowLegend:   false,
			AutoSize:     true,
			HoverMode:    "closest",
			ClickMode:    "event+select",
			Margin:       &domain.Margin{L: 30, R: 30, B: 20, T: 40},
			PlotBgColor:  mapBackground,
			PaperBgColor: mapBackground,
			Mapbox: &domain.MapboxLayout{
				AccessToken: b.opts.MapboxToken,
				Style:       string(style),
				Center:      domain.LatLon{Lat: mapCenterLat, Lon: mapCenterLon},
				Zoom:        mapZoom,
				Pitch:       0,
			},
		},
	}
	b.observe(domain.ChartStationMap, start, spec)
	return spec
}

func mapTrace(lat, lon []float64, text []string, color string) domain.Trace {
	return domain.Trace{
		Type:      domain.TraceScatterMapbox,
		Mode:      domain.ModeMarkers,
		Lat:       lat,
		Lon:       lon,
		Text:      text,
		HoverInfo: "text",
		Marker:    &domain.Marker{Size: markerSize, Color: color, Opacity: markerOpacity},
	}
}

// TimeSeries builds the time-series panel for a hovered station label:
// sampled bacteria counts for a bacteria station, or the trailing daily
// discharge for a gauge.
func (b *Builder) TimeSeries(ctx context.Context, label string) domain.ChartSpec {
	start := time.Now()
	spec := b.timeSeries(ctx, label)
	b.observe(domain.ChartTimeSeries, start, spec)
	return spec
}

func (b *Builder) timeSeries(ctx context.Context, label string) domain.ChartSpec {
	sel, err := domain.Resolve(b.data, label)
	if err != nil {
		return b.degraded(domain.ChartTimeSeries, label, err)
	}

	switch sel.Kind {
	case domain.SelectionBacteria:
		return b.bacteriaTimeSeries(sel.Label)
	case domain.SelectionGauge:
		return b.gaugeTimeSeries(ctx, sel)
	default:
		return domain.EmptyChart("")
	}
}

func (b *Builder) bacteriaTimeSeries(label string) domain.ChartSpec {
	samples := b.data.SamplesFor(label)
	slices.SortStableFunc(samples, func(x, y domain.BacteriaSample) int {
		return x.SampleTime.Compare(y.SampleTime)
	})

	var traces []domain.Trace
	ecoli := bacteriaTrace(traceEcoli, colorEcoli, samples, func(s domain.BacteriaSample) float64 { return s.Ecoli })
	if len(ecoli.Y) > 0 {
		traces = append(traces, ecoli)
	}
	entero := bacteriaTrace(traceEnterococci, colorEnterococci, samples, func(s domain.BacteriaSample) float64 { return s.Enterococci })
	if len(entero.Y) > 0 {
		traces = append(traces, entero)
	}
	if len(traces) == 0 {
		return domain.EmptyChart("No samples recorded for this station")
	}

	return domain.ChartSpec{
		Traces: traces,
		Layout: stationLayout(label, axisSamplingDate, axisBacteriaCount, ""),
	}
}

// bacteriaTrace plots one metric, skipping missing measurements.
func bacteriaTrace(name, color string, samples []domain.BacteriaSample, metric func(domain.BacteriaSample) float64) domain.Trace {
	var dates []time.Time
	var values []float64
	for _, s := range samples {
		v := metric(s)
		if domain.Missing(v) {
			continue
		}
		dates = append(dates, s.SampleTime)
		values = append(values, v)
	}
	return domain.Trace{
		Type: domain.TraceScatter,
		Mode: domain.ModeLinesMarkers,
		Name: name,
		X:    domain.TimeValues(dates),
		Y:    values,
		Line: splineLine(color),
	}
}

func (b *Builder) gaugeTimeSeries(ctx context.Context, sel domain.StationSelection) domain.ChartSpec {
	series, err := b.fetch(ctx, domain.SeriesRequest{Site: sel.SiteID(), Lookback: b.opts.Lookback})
	if err != nil {
		return b.degraded(domain.ChartTimeSeries, sel.Label, err)
	}

	return domain.ChartSpec{
		Traces: []domain.Trace{{
			Type: domain.TraceScatter,
			Mode: domain.ModeLines,
			Name: traceFlow,
			X:    domain.TimeValues(series.Dates()),
			Y:    series.Values(),
			Line: splineLine(colorFlow),
		}},
		Layout: stationLayout(sel.Label, lookbackAxisTitle(b.opts.Lookback), axisFlowRate, ""),
	}
}

func lookbackAxisTitle(lookback string) string {
	if lookback == "P365D" {
		return "Date [Previous 365 Days since Today]"
	}
	return fmt.Sprintf("Date [Previous %s since Today]", lookback)
}

// FlowDuration builds the flow-duration curve for a gauge label. Bacteria
// stations and empty selections produce an empty chart.
func (b *Builder) FlowDuration(ctx context.Context, label string) domain.ChartSpec {
	start := time.Now()
	spec := b.flowDuration(ctx, label)
	b.observe(domain.ChartFlowDuration, start, spec)
	return spec
}

func (b *Builder) flowDuration(ctx context.Context, label string) domain.ChartSpec {
	sel, err := domain.Resolve(b.data, label)
	if err != nil {
		return b.degraded(domain.ChartFlowDuration, label, err)
	}
	if sel.Kind != domain.SelectionGauge {
		return domain.EmptyChart("")
	}

	series, err := b.fetch(ctx, domain.SeriesRequest{
		Site:  sel.SiteID(),
		Start: b.opts.FlowStart,
		End:   b.today(),
	})
	if err != nil {
		return b.degraded(domain.ChartFlowDuration, sel.Label, err)
	}

	curve, err := domain.FlowDuration(series.Values())
	if err != nil {
		return b.degraded(domain.ChartFlowDuration, sel.Label, err)
	}

	xTitle := "Probability of Exceedance [%] Using Data From " + b.opts.FlowStart.Format("2006/01/02")
	return domain.ChartSpec{
		Traces: []domain.Trace{{
			Type: domain.TraceScatter,
			Mode: domain.ModeLines,
			Name: traceFlow,
			X:    domain.FloatValues(curve.Exceedance),
			Y:    curve.Discharge,
			Line: splineLine(colorFlow),
		}},
		Layout: stationLayout(sel.Label, xTitle, axisFlowRate, "log"),
	}
}

// BacteriaAverage builds the per-station mean bacteria counts. A station
// with no measurements of a metric is left out of that metric's trace.
func (b *Builder) BacteriaAverage() domain.ChartSpec {
	start := time.Now()
	avgs := domain.BacteriaAverages(b.data.Bacteria())

	var traces []domain.Trace
	ecoli := averageTrace(traceEcoli, colorEcoli, avgs, func(a domain.StationAverage) float64 { return a.Ecoli })
	if len(ecoli.Y) > 0 {
		traces = append(traces, ecoli)
	}
	entero := averageTrace(traceEnterococci, colorEnterococci, avgs, func(a domain.StationAverage) float64 { return a.Enterococci })
	if len(entero.Y) > 0 {
		traces = append(traces, entero)
	}

	var spec domain.ChartSpec
	if len(traces) == 0 {
		spec = domain.EmptyChart("")
	} else {
		spec = domain.ChartSpec{Traces: traces}
	}
	spec.Layout.Title = &domain.Title{Text: "Average Bacteria Count", XAnchor: "center"}
	spec.Layout.XAxis = &domain.Axis{Title: axisLocation}
	spec.Layout.YAxis = &domain.Axis{Title: axisBacteriaCount}

	b.observe(domain.ChartBacteriaAverage, start, spec)
	return spec
}

func averageTrace(name, color string, avgs []domain.StationAverage, metric func(domain.StationAverage) float64) domain.Trace {
	var stations []string
	var values []float64
	for _, a := range avgs {
		v := metric(a)
		if domain.Missing(v) {
			continue
		}
		stations = append(stations, a.StationName)
		values = append(values, v)
	}
	return domain.Trace{
		Type:   domain.TraceScatter,
		Mode:   domain.ModeMarkers,
		Name:   name,
		X:      domain.StringValues(stations),
		Y:      values,
		Marker: &domain.Marker{Color: color},
	}
}

func splineLine(color string) *domain.Line {
	return &domain.Line{Shape: "spline", Smoothing: 2, Width: 1, Color: color}
}

func stationLayout(label, xTitle, yTitle, yType string) domain.Layout {
	return domain.Layout{
		Title:      &domain.Title{Text: label, XAnchor: "center"},
		XAxis:      &domain.Axis{Title: xTitle},
		YAxis:      &domain.Axis{Title: yTitle, Type: yType},
		ShowLegend: false,
	}
}

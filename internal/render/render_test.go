package render

import (
	"bytes"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okh2o/stream-dashboard/internal/domain"
)

func timeSeriesSpec() domain.ChartSpec {
	return domain.ChartSpec{
		Traces: []domain.Trace{{
			Type: domain.TraceScatter,
			Mode: domain.ModeLinesMarkers,
			Name: "E. coli",
			X: domain.TimeValues([]time.Time{
				time.Date(2018, 6, 1, 0, 0, 0, 0, time.UTC),
				time.Date(2018, 6, 8, 0, 0, 0, 0, time.UTC),
			}),
			Y:    []float64{10, 20},
			Line: &domain.Line{Color: "blue"},
		}},
		Layout: domain.Layout{
			Title: &domain.Title{Text: "Creek A"},
			XAxis: &domain.Axis{Title: "Sampling Date"},
			YAxis: &domain.Axis{Title: "Bacteria Count [MPN/100mL]"},
		},
	}
}

func flowDurationSpec() domain.ChartSpec {
	return domain.ChartSpec{
		Traces: []domain.Trace{{
			Type: domain.TraceScatter,
			Mode: domain.ModeLines,
			Name: "Flow Rate",
			X:    domain.FloatValues([]float64{33.33, 66.67, 100}),
			Y:    []float64{1500, 120, 5},
			Line: &domain.Line{Color: "blue"},
		}},
		Layout: domain.Layout{
			Title: &domain.Title{Text: "Illinois River near Tahlequah"},
			YAxis: &domain.Axis{Title: "Flow Rate [cfs]", Type: "log"},
		},
	}
}

func averageSpec() domain.ChartSpec {
	return domain.ChartSpec{
		Traces: []domain.Trace{
			{Type: domain.TraceScatter, Mode: domain.ModeMarkers, Name: "E. coli", X: domain.StringValues([]string{"Creek A", "Creek B"}), Y: []float64{20, 7}, Marker: &domain.Marker{Color: "blue"}},
			{Type: domain.TraceScatter, Mode: domain.ModeMarkers, Name: "Enterococci", X: domain.StringValues([]string{"Creek A"}), Y: []float64{6}, Marker: &domain.Marker{Color: "orange"}},
		},
		Layout: domain.Layout{Title: &domain.Title{Text: "Average Bacteria Count"}},
	}
}

func mapSpec() domain.ChartSpec {
	return domain.ChartSpec{
		Traces: []domain.Trace{{
			Type:   domain.TraceScatterMapbox,
			Mode:   domain.ModeMarkers,
			Lat:    []float64{35.1, 36.2},
			Lon:    []float64{-97.1, -95.9},
			Text:   []string{"Creek A", "Creek B"},
			Marker: &domain.Marker{Size: 7, Color: "blue"},
		}},
		Layout: domain.Layout{
			Title:  &domain.Title{Text: "State of Oklahoma"},
			Mapbox: &domain.MapboxLayout{Style: "outdoors"},
		},
	}
}

func TestPNG_RendersEveryChartKind(t *testing.T) {
	specs := map[string]domain.ChartSpec{
		"time series":   timeSeriesSpec(),
		"flow duration": flowDurationSpec(),
		"average":       averageSpec(),
		"map":           mapSpec(),
		"empty":         domain.EmptyChart(""),
		"degraded":      domain.EmptyChart("No discharge data available for this gauge"),
	}

	for name, spec := range specs {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, PNG(&buf, spec, 640, 320))

			img, err := png.Decode(&buf)
			require.NoError(t, err)
			assert.Equal(t, 640, img.Bounds().Dx())
			assert.Equal(t, 320, img.Bounds().Dy())
		})
	}
}

func TestPNG_DefaultSize(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PNG(&buf, averageSpec(), 0, 0))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, DefaultWidth, img.Bounds().Dx())
}

func TestNewPlot_LogAxis(t *testing.T) {
	p := newPlot(flowDurationSpec())

	require.Len(t, p.series, 1)
	assert.InDelta(t, 0.0, p.yMin, 1e-9)
	assert.InDelta(t, 4.0, p.yMax, 1e-9)
	require.Len(t, p.yTicks, 5)
	assert.Equal(t, "1", p.yTicks[0].Label)
	assert.Equal(t, "10000", p.yTicks[4].Label)
}

func TestNewPlot_Categories(t *testing.T) {
	p := newPlot(averageSpec())

	require.Len(t, p.xTicks, 4)
	assert.Empty(t, p.xTicks[0].Label)
	assert.Equal(t, "Creek A", p.xTicks[1].Label)
	assert.Equal(t, "Creek B", p.xTicks[2].Label)
	assert.Empty(t, p.xTicks[3].Label)
	assert.InDelta(t, -0.5, p.xMin, 1e-9)
	assert.InDelta(t, 1.5, p.xMax, 1e-9)
	assert.InDelta(t, p.xMin, p.xTicks[0].Value, 1e-9)
	assert.InDelta(t, p.xMax, p.xTicks[3].Value, 1e-9)
}

func singleStationAverageSpec() domain.ChartSpec {
	return domain.ChartSpec{
		Traces: []domain.Trace{
			{Type: domain.TraceScatter, Mode: domain.ModeMarkers, Name: "E. coli", X: domain.StringValues([]string{"Creek A"}), Y: []float64{20}, Marker: &domain.Marker{Color: "blue"}},
		},
		Layout: domain.Layout{Title: &domain.Title{Text: "Average Bacteria Count"}},
	}
}

func TestNewPlot_SingleCategoryKeepsRange(t *testing.T) {
	p := newPlot(singleStationAverageSpec())

	require.Len(t, p.xTicks, 3)
	assert.Equal(t, "Creek A", p.xTicks[1].Label)
	assert.Less(t, p.xTicks[0].Value, p.xTicks[2].Value)
}

func TestPNG_SingleCategory(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PNG(&buf, singleStationAverageSpec(), 400, 300))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 400, img.Bounds().Dx())
}

func TestNewPlot_LogAxisSingleDecade(t *testing.T) {
	spec := flowDurationSpec()
	spec.Traces[0].Y = []float64{100, 100, 100}

	p := newPlot(spec)

	require.Len(t, p.yTicks, 2)
	assert.Less(t, p.yMin, p.yMax)
	assert.Equal(t, "100", p.yTicks[1].Label)
}

func TestPNG_LogAxisSingleDecade(t *testing.T) {
	spec := flowDurationSpec()
	spec.Traces[0].Y = []float64{100, 100, 100}

	var buf bytes.Buffer
	require.NoError(t, PNG(&buf, spec, 0, 0))
}

func TestDateFormatter(t *testing.T) {
	day := time.Date(2018, 6, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "2018-06-01", dateFormatter(day))
	assert.Equal(t, "2018-06-01", dateFormatter(float64(day.UnixNano())))
	assert.Empty(t, dateFormatter("x"))
}

func TestHTML_SingleChart(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, HTML(&buf, domain.ChartTimeSeries, timeSeriesSpec()))

	out := buf.String()
	assert.Contains(t, out, "echarts")
	assert.Contains(t, out, "Creek A")
	assert.Contains(t, out, "Sampling Date")
}

func TestPage_AllPanels(t *testing.T) {
	var buf bytes.Buffer
	err := Page(&buf, "Oklahoma Stream Dashboard", []Panel{
		{ID: domain.ChartStationMap, Spec: mapSpec()},
		{ID: domain.ChartTimeSeries, Spec: domain.EmptyChart("")},
		{ID: domain.ChartFlowDuration, Spec: domain.EmptyChart("Discharge data could not be retrieved")},
		{ID: domain.ChartBacteriaAverage, Spec: averageSpec()},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Oklahoma Stream Dashboard")
	assert.Contains(t, out, "State of Oklahoma")
	assert.Contains(t, out, "Average Bacteria Count")
	assert.Contains(t, out, "Discharge data could not be retrieved")
}

func TestXAxisType(t *testing.T) {
	kind, cats := xAxisType(timeSeriesSpec().Traces)
	assert.Equal(t, "time", kind)
	assert.Nil(t, cats)

	kind, cats = xAxisType(averageSpec().Traces)
	assert.Equal(t, "category", kind)
	assert.Equal(t, []string{"Creek A", "Creek B"}, cats)

	kind, _ = xAxisType(flowDurationSpec().Traces)
	assert.Equal(t, "value", kind)
}

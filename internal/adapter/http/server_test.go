package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/okh2o/stream-dashboard/internal/adapter/http"
	"github.com/okh2o/stream-dashboard/internal/domain"
	"github.com/okh2o/stream-dashboard/internal/observability"
	"github.com/okh2o/stream-dashboard/internal/pipeline"
)

const (
	creekA    = "Creek A"
	gaugeName = "Illinois River near Tahlequah"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type stubFetcher struct{}

func (stubFetcher) FetchDailyFlow(_ context.Context, req domain.SeriesRequest) (domain.FlowSeries, error) {
	day := time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC)
	return domain.FlowSeries{Site: req.Site, Points: []domain.FlowPoint{
		{Date: day, Discharge: 5},
		{Date: day.AddDate(0, 0, 1), Discharge: 15},
		{Date: day.AddDate(0, 0, 2), Discharge: 10},
	}}, nil
}

func newBuilder(t *testing.T) *pipeline.Builder {
	t.Helper()
	ds, err := domain.NewDataset(
		[]domain.BacteriaSample{
			{StationName: creekA, SampleTime: time.Date(2018, 6, 1, 10, 0, 0, 0, time.UTC), Ecoli: 10, Enterococci: 4, Lat: 35.1, Long: -97.1},
			{StationName: creekA, SampleTime: time.Date(2018, 6, 8, 10, 0, 0, 0, time.UTC), Ecoli: 30, Enterococci: math.NaN(), Lat: 35.1, Long: -97.1},
		},
		[]domain.Station{{StationName: creekA, Lat: 35.1, Long: -97.1}},
		[]domain.GaugeStation{{StationName: gaugeName, SiteNumber: "7196500", Lat: 35.92, Long: -94.92}},
	)
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return pipeline.New(ds, stubFetcher{}, clockwork.NewFakeClockAt(time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)),
		logger, observability.NewMetricsForTesting(), pipeline.Options{FlowStart: time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC)})
}

func newTestServer(t *testing.T, readyErr error) *httpadapter.Server {
	t.Helper()
	return httpadapter.NewServer(":0", newBuilder(t), &mockReadiness{err: readyErr}, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func serve(srv http.Handler, method, target string, body io.Reader) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(method, target, body))
	return rec
}

func TestHealthzReturns200(t *testing.T) {
	rec := serve(newTestServer(t, nil), http.MethodGet, "/healthz", nil)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	rec := serve(newTestServer(t, nil), http.MethodGet, "/readyz", nil)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	rec := serve(newTestServer(t, fmt.Errorf("mapbox API error: status 401")), http.MethodGet, "/readyz", nil)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "mapbox API error: status 401", body["error"])
}

func TestChecks_FirstFailureWins(t *testing.T) {
	checks := httpadapter.Checks{&mockReadiness{}, &mockReadiness{err: fmt.Errorf("first")}, &mockReadiness{err: fmt.Errorf("second")}}
	require.EqualError(t, checks.CheckReadiness(context.Background()), "first")
	require.NoError(t, httpadapter.Checks{}.CheckReadiness(context.Background()))
}

func TestMetricsEndpoint(t *testing.T) {
	rec := serve(newTestServer(t, nil), http.MethodGet, "/metrics", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestStationsEndpoint(t *testing.T) {
	rec := serve(newTestServer(t, nil), http.MethodGet, "/api/stations", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		BacteriaStations []string `json:"bacteria_stations"`
		Gauges           []struct {
			StationName string `json:"station_name"`
			SiteNumber  string `json:"site_number"`
		} `json:"gauges"`
		Stations []json.RawMessage `json:"stations"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{creekA}, body.BacteriaStations)
	require.Len(t, body.Gauges, 1)
	assert.Equal(t, gaugeName, body.Gauges[0].StationName)
	assert.Equal(t, "7196500", body.Gauges[0].SiteNumber)
	assert.Len(t, body.Stations, 1)
}

func TestChartEndpoint_FlowDuration(t *testing.T) {
	rec := serve(newTestServer(t, nil), http.MethodGet, "/api/charts/flow_duration?station="+strings.ReplaceAll(gaugeName, " ", "+"), nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var spec struct {
		Data []struct {
			X []float64 `json:"x"`
			Y []float64 `json:"y"`
		} `json:"data"`
		Layout struct {
			YAxis struct {
				Type string `json:"type"`
			} `json:"yaxis"`
		} `json:"layout"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &spec))
	require.Len(t, spec.Data, 1)
	assert.Equal(t, []float64{15, 10, 5}, spec.Data[0].Y)
	assert.InDeltaSlice(t, []float64{33.33, 66.67, 100}, spec.Data[0].X, 0.01)
	assert.Equal(t, "log", spec.Layout.YAxis.Type)
}

func TestChartEndpoint_EmptySelection(t *testing.T) {
	rec := serve(newTestServer(t, nil), http.MethodGet, "/api/charts/time_series", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var spec struct {
		Data []json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &spec))
	assert.NotNil(t, spec.Data)
	assert.Empty(t, spec.Data)
}

func TestChartEndpoint_UnknownChart(t *testing.T) {
	rec := serve(newTestServer(t, nil), http.MethodGet, "/api/charts/pie", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChartEndpoint_PNG(t *testing.T) {
	rec := serve(newTestServer(t, nil), http.MethodGet, "/api/charts/bacteria_avg.png?width=400&height=300", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "\x89PNG"))
}

func TestChartEndpoint_PNGBadSize(t *testing.T) {
	rec := serve(newTestServer(t, nil), http.MethodGet, "/api/charts/bacteria_avg.png?width=huge", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEventEndpoint_Hover(t *testing.T) {
	body := `{"type":"hover","hover_data":{"points":[{"text":"Creek A"}]}}`
	rec := serve(newTestServer(t, nil), http.MethodPost, "/api/events", strings.NewReader(body))

	require.Equal(t, http.StatusOK, rec.Code)
	var update struct {
		Charts map[string]struct {
			Data []json.RawMessage `json:"data"`
		} `json:"charts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &update))
	assert.Len(t, update.Charts, 3)
	assert.Len(t, update.Charts["time_series"].Data, 2)
	assert.Empty(t, update.Charts["flow_duration"].Data)
	assert.Len(t, update.Charts["bacteria_avg"].Data, 2)
}

func TestEventEndpoint_HoverWithoutPoints(t *testing.T) {
	rec := serve(newTestServer(t, nil), http.MethodPost, "/api/events", strings.NewReader(`{"type":"hover","hover_data":null}`))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"time_series"`)
}

func TestEventEndpoint_Style(t *testing.T) {
	rec := serve(newTestServer(t, nil), http.MethodPost, "/api/events", strings.NewReader(`{"type":"style","style":"satellite"}`))

	require.Equal(t, http.StatusOK, rec.Code)
	var update struct {
		Charts map[string]struct {
			Layout struct {
				Mapbox struct {
					Style string `json:"style"`
				} `json:"mapbox"`
			} `json:"layout"`
		} `json:"charts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &update))
	require.Contains(t, update.Charts, "station_map")
	assert.Equal(t, "satellite", update.Charts["station_map"].Layout.Mapbox.Style)
}

func TestEventEndpoint_BadRequests(t *testing.T) {
	for _, body := range []string{`{not json`, `{"type":"click"}`, ``} {
		rec := serve(newTestServer(t, nil), http.MethodPost, "/api/events", strings.NewReader(body))
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestDashboardPage(t *testing.T) {
	rec := serve(newTestServer(t, nil), http.MethodGet, "/?station=Creek+A&style=satellite", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	body := rec.Body.String()
	assert.Contains(t, body, "State of Oklahoma")
	assert.Contains(t, body, "Average Bacteria Count")
	assert.Contains(t, body, creekA)
}

func TestUnknownPathIs404(t *testing.T) {
	rec := serve(newTestServer(t, nil), http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// nanDashboard returns a chart that cannot be encoded as JSON.
type nanDashboard struct {
	*pipeline.Builder
}

func (nanDashboard) Chart(context.Context, domain.ChartID, string, domain.BasemapStyle) domain.ChartSpec {
	return domain.ChartSpec{Traces: []domain.Trace{{Type: domain.TraceScatter, X: domain.FloatValues([]float64{1}), Y: []float64{math.NaN()}}}}
}

func TestChartEndpoint_UnencodableSpecReturns500(t *testing.T) {
	srv := httpadapter.NewServer(":0", nanDashboard{newBuilder(t)}, &mockReadiness{}, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))

	rec := serve(srv, http.MethodGet, "/api/charts/time_series", nil)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "encode response failed", body["error"])
}

package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/okh2o/stream-dashboard/internal/domain"
	"github.com/okh2o/stream-dashboard/internal/render"
)

const (
	maxEventBytes = 64 << 10
	pageTitle     = "Oklahoma Stream Water Quality"
	pngSuffix     = ".png"
)

// stationsResponse lists what the map can show.
type stationsResponse struct {
	BacteriaStations []string              `json:"bacteria_stations"`
	Gauges           []domain.GaugeStation `json:"gauges"`
	Stations         []domain.Station      `json:"stations"`
}

func (s *Server) handleStations(w http.ResponseWriter, _ *http.Request) {
	ds := s.dash.Dataset()
	s.writeJSON(w, http.StatusOK, stationsResponse{
		BacteriaStations: nonNil(ds.BacteriaStationNames()),
		Gauges:           nonNil(ds.Gauges()),
		Stations:         nonNil(ds.Stations()),
	})
}

// handleChart serves one chart as JSON, or as PNG when the chart name ends
// in ".png".
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("chart")
	asPNG := strings.HasSuffix(name, pngSuffix)
	id, ok := domain.ParseChartID(strings.TrimSuffix(name, pngSuffix))
	if !ok {
		s.writeError(w, http.StatusNotFound, fmt.Sprintf("unknown chart %q", name))
		return
	}

	q := r.URL.Query()
	label := q.Get("station")
	style := domain.BasemapStyle(q.Get("style"))

	if !asPNG {
		s.writeJSON(w, http.StatusOK, s.dash.Chart(r.Context(), id, label, style))
		return
	}

	width, err := dimension(q.Get("width"), render.DefaultWidth)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "width: "+err.Error())
		return
	}
	height, err := dimension(q.Get("height"), render.DefaultHeight)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "height: "+err.Error())
		return
	}

	spec := s.dash.Chart(r.Context(), id, label, style)
	var buf bytes.Buffer
	if err := render.PNG(&buf, spec, width, height); err != nil {
		s.logger.Error("png render failed", "chart", string(id), "station", label, "error", err)
		s.writeError(w, http.StatusInternalServerError, "render failed")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func dimension(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 100 || n > 4000 {
		return 0, errors.New("must be an integer between 100 and 4000")
	}
	return n, nil
}

// eventRequest is the UI event wire format. Hover payloads follow the
// plotting widget's hoverData shape.
type eventRequest struct {
	Type      string     `json:"type"`
	HoverData *hoverData `json:"hover_data"`
	Style     string     `json:"style"`
}

type hoverData struct {
	Points []struct {
		Text string `json:"text"`
	} `json:"points"`
}

func (e eventRequest) toEvent() (domain.Event, error) {
	switch e.Type {
	case "hover":
		label := ""
		if e.HoverData != nil && len(e.HoverData.Points) > 0 {
			label = e.HoverData.Points[0].Text
		}
		return domain.Hover(label), nil
	case "style":
		return domain.StyleChange(domain.BasemapStyle(e.Style)), nil
	default:
		return domain.Event{}, fmt.Errorf("unknown event type %q", e.Type)
	}
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxEventBytes))
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "malformed event: "+err.Error())
		return
	}
	ev, err := req.toEvent()
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, s.dash.Dispatch(r.Context(), ev))
}

// handleDashboard renders all four panels for the optional station and style.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	label := q.Get("station")
	style := domain.BasemapStyle(q.Get("style"))
	ctx := r.Context()

	panels := []render.Panel{
		{ID: domain.ChartStationMap, Spec: s.dash.Chart(ctx, domain.ChartStationMap, "", style)},
		{ID: domain.ChartTimeSeries, Spec: s.dash.Chart(ctx, domain.ChartTimeSeries, label, "")},
		{ID: domain.ChartFlowDuration, Spec: s.dash.Chart(ctx, domain.ChartFlowDuration, label, "")},
		{ID: domain.ChartBacteriaAverage, Spec: s.dash.Chart(ctx, domain.ChartBacteriaAverage, "", "")},
	}

	var buf bytes.Buffer
	if err := render.Page(&buf, pageTitle, panels); err != nil {
		s.logger.Error("dashboard render failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "render failed")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

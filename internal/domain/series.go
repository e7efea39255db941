package domain

import (
	"context"
	"errors"
	"time"
)

// FlowPoint is one daily discharge value.
type FlowPoint struct {
	Date      time.Time
	Discharge float64 // cfs
}

// FlowSeries is a daily discharge series ordered by date ascending.
type FlowSeries struct {
	Site   string
	Points []FlowPoint
}

// Len returns the number of points.
func (s FlowSeries) Len() int { return len(s.Points) }

// Dates returns the point dates in order.
func (s FlowSeries) Dates() []time.Time {
	out := make([]time.Time, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Date
	}
	return out
}

// Values returns the discharge values in order.
func (s FlowSeries) Values() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Discharge
	}
	return out
}

// SeriesRequest asks for daily discharge at one site. Either Lookback (an
// ISO-8601 period such as "P365D", ending today) or the Start/End date range
// is used; Lookback wins when both are set.
type SeriesRequest struct {
	Site     string
	Start    time.Time
	End      time.Time
	Lookback string
}

// Validate checks that the request names a site and a window.
func (r SeriesRequest) Validate() error {
	if r.Site == "" {
		return errors.New("series request: site is required")
	}
	if r.Lookback != "" {
		return nil
	}
	if r.Start.IsZero() || r.End.IsZero() {
		return errors.New("series request: lookback or start/end dates are required")
	}
	if r.End.Before(r.Start) {
		return errors.New("series request: end date before start date")
	}
	return nil
}

// SeriesFetcher retrieves daily discharge for a gauge. Implementations return
// errors wrapping ErrFetchFailure or ErrEmptySeries.
type SeriesFetcher interface {
	FetchDailyFlow(ctx context.Context, req SeriesRequest) (FlowSeries, error)
}

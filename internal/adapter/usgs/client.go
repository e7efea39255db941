// Package usgs fetches daily discharge from the USGS NWIS daily-values service.
package usgs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/okh2o/stream-dashboard/internal/domain"
	"github.com/okh2o/stream-dashboard/internal/observability"
)

// NWIS parameter and statistic codes for mean daily discharge.
const (
	parameterDischarge = "00060"
	statisticMean      = "00003"
)

// Client implements domain.SeriesFetcher using the NWIS daily-values service.
type Client struct {
	client  *resty.Client
	baseURL string
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewClient creates an NWIS client. Transport errors and 5xx responses are
// retried up to retries times; each attempt is bounded by timeout.
func NewClient(baseURL string, timeout time.Duration, retries int, metrics *observability.Metrics, logger *slog.Logger) *Client {
	rc := resty.New().
		SetTimeout(timeout).
		SetRetryCount(retries).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || (r != nil && r.StatusCode() >= http.StatusInternalServerError)
		})

	return &Client{
		client:  rc,
		baseURL: baseURL,
		metrics: metrics,
		logger:  logger,
	}
}

// FetchDailyFlow returns mean daily discharge for req.Site ordered by date.
func (c *Client) FetchDailyFlow(ctx context.Context, req domain.SeriesRequest) (domain.FlowSeries, error) {
	if err := req.Validate(); err != nil {
		return domain.FlowSeries{}, err
	}

	start := time.Now()
	series, err := c.fetch(ctx, req)
	c.metrics.SeriesFetchDuration.Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		c.metrics.SeriesFetches.WithLabelValues("success").Inc()
		c.logger.Debug("fetched daily flow", "site", req.Site, "window", window(req), "rows", series.Len())
	case errors.Is(err, domain.ErrEmptySeries):
		c.metrics.SeriesFetches.WithLabelValues("empty").Inc()
	default:
		c.metrics.SeriesFetches.WithLabelValues("error").Inc()
	}
	return series, err
}

func (c *Client) fetch(ctx context.Context, req domain.SeriesRequest) (domain.FlowSeries, error) {
	params := map[string]string{
		"format":      "json",
		"sites":       req.Site,
		"parameterCd": parameterDischarge,
		"statCd":      statisticMean,
		"siteStatus":  "all",
	}
	if req.Lookback != "" {
		params["period"] = req.Lookback
	} else {
		params["startDT"] = req.Start.Format(time.DateOnly)
		params["endDT"] = req.End.Format(time.DateOnly)
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetQueryParams(params).
		Get(c.baseURL)
	if err != nil {
		return domain.FlowSeries{}, fmt.Errorf("%w: site %s: %v", domain.ErrFetchFailure, req.Site, err)
	}

	// NWIS answers 404 when the site has no data in the window.
	if resp.StatusCode() == http.StatusNotFound {
		return domain.FlowSeries{}, fmt.Errorf("%w: site %s: no data in %s", domain.ErrEmptySeries, req.Site, window(req))
	}
	if resp.StatusCode() != http.StatusOK {
		return domain.FlowSeries{}, fmt.Errorf("%w: site %s: status %d: %s", domain.ErrFetchFailure, req.Site, resp.StatusCode(), truncate(resp.String(), 200))
	}

	var body response
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return domain.FlowSeries{}, fmt.Errorf("%w: site %s: decode response: %v", domain.ErrFetchFailure, req.Site, err)
	}

	points := body.firstSeriesPoints()
	if len(points) == 0 {
		return domain.FlowSeries{}, fmt.Errorf("%w: site %s: no data in %s", domain.ErrEmptySeries, req.Site, window(req))
	}
	return domain.FlowSeries{Site: req.Site, Points: points}, nil
}

// firstSeriesPoints converts the first time series with values, which is the
// discharge column. No-data sentinels and unparseable values are skipped.
func (r response) firstSeriesPoints() []domain.FlowPoint {
	for _, ts := range r.Value.TimeSeries {
		var points []domain.FlowPoint
		for _, block := range ts.Values {
			for _, v := range block.Value {
				q, err := strconv.ParseFloat(strings.TrimSpace(v.Value), 64)
				if err != nil {
					continue
				}
				if ts.Variable.NoDataValue != nil && q == *ts.Variable.NoDataValue {
					continue
				}
				date, err := parseDate(v.DateTime)
				if err != nil {
					continue
				}
				points = append(points, domain.FlowPoint{Date: date, Discharge: q})
			}
		}
		if len(points) > 0 {
			slices.SortStableFunc(points, func(a, b domain.FlowPoint) int {
				return a.Date.Compare(b.Date)
			})
			return points
		}
	}
	return nil
}

func parseDate(s string) (time.Time, error) {
	if len(s) < len(time.DateOnly) {
		return time.Time{}, fmt.Errorf("short date %q", s)
	}
	return time.Parse(time.DateOnly, s[:len(time.DateOnly)])
}

func window(req domain.SeriesRequest) string {
	if req.Lookback != "" {
		return req.Lookback
	}
	return req.Start.Format(time.DateOnly) + "/" + req.End.Format(time.DateOnly)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// NWIS JSON response types (WaterML 1.1 rendered as JSON).

type response struct {
	Value struct {
		TimeSeries []timeSeries `json:"timeSeries"`
	} `json:"value"`
}

type timeSeries struct {
	Name     string `json:"name"`
	Variable struct {
		NoDataValue  *float64 `json:"noDataValue"`
		VariableCode []struct {
			Value string `json:"value"`
		} `json:"variableCode"`
	} `json:"variable"`
	Values []struct {
		Value []point `json:"value"`
	} `json:"values"`
}

type point struct {
	Value      string   `json:"value"`
	Qualifiers []string `json:"qualifiers"`
	DateTime   string   `json:"dateTime"`
}

// Package pipeline builds dashboard chart specifications from the static
// tables and remote discharge series, and dispatches UI events to them.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/okh2o/stream-dashboard/internal/domain"
	"github.com/okh2o/stream-dashboard/internal/observability"
)

// InteractionSink receives a record of every dispatched event.
type InteractionSink interface {
	Publish(ctx context.Context, in domain.Interaction) error
}

// Options configures the remote windows and the basemap.
type Options struct {
	// Lookback is the ISO-8601 period of the gauge time-series window.
	Lookback string
	// FlowStart is the first day of the flow-duration history.
	FlowStart time.Time
	// FetchTimeout bounds one remote series fetch.
	FetchTimeout time.Duration
	MapboxToken  string
	// Sink is optional.
	Sink InteractionSink
}

// Builder is the chart pipeline. It holds the immutable dataset and is safe
// for concurrent use.
type Builder struct {
	data    *domain.Dataset
	fetcher domain.SeriesFetcher
	clock   clockwork.Clock
	opts    Options
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New creates a Builder over the loaded dataset.
func New(data *domain.Dataset, fetcher domain.SeriesFetcher, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics, opts Options) *Builder {
	if opts.Lookback == "" {
		opts.Lookback = "P365D"
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 30 * time.Second
	}
	return &Builder{
		data:    data,
		fetcher: fetcher,
		clock:   clock,
		opts:    opts,
		logger:  logger,
		metrics: metrics,
	}
}

// Dataset returns the dataset the builder reads from.
func (b *Builder) Dataset() *domain.Dataset { return b.data }

// CheckReadiness returns an error when there is nothing to show on the map.
func (b *Builder) CheckReadiness(_ context.Context) error {
	if len(b.data.Bacteria()) == 0 && len(b.data.Gauges()) == 0 {
		return errors.New("dataset has no stations")
	}
	return nil
}

// observe records the outcome of one chart build.
func (b *Builder) observe(id domain.ChartID, start time.Time, spec domain.ChartSpec) {
	outcome := "ok"
	switch {
	case spec.Notice() != "":
		outcome = "degraded"
	case spec.IsEmpty():
		outcome = "empty"
	}
	b.metrics.ChartBuilds.WithLabelValues(string(id), outcome).Inc()
	b.metrics.ChartBuildDuration.WithLabelValues(string(id)).Observe(time.Since(start).Seconds())
}

// fetch runs one bounded remote series fetch.
func (b *Builder) fetch(ctx context.Context, req domain.SeriesRequest) (domain.FlowSeries, error) {
	ctx, cancel := context.WithTimeout(ctx, b.opts.FetchTimeout)
	defer cancel()

	series, err := b.fetcher.FetchDailyFlow(ctx, req)
	if err != nil {
		return domain.FlowSeries{}, err
	}
	if series.Len() == 0 {
		return domain.FlowSeries{}, domain.ErrEmptySeries
	}
	return series, nil
}

// today is the current UTC date at midnight.
func (b *Builder) today() time.Time {
	y, m, d := b.clock.Now().UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// degraded logs a recovered failure and returns the annotated empty chart.
func (b *Builder) degraded(id domain.ChartID, label string, err error) domain.ChartSpec {
	b.logger.Warn("chart degraded", "chart", string(id), "station", label, "error", err)
	return domain.EmptyChart(notice(err))
}

func notice(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidSelection):
		return "Unknown station"
	case errors.Is(err, domain.ErrEmptySeries):
		return "No discharge data available for this gauge"
	case errors.Is(err, domain.ErrFetchFailure), errors.Is(err, context.DeadlineExceeded):
		return "Discharge data could not be retrieved"
	default:
		return "Chart unavailable"
	}
}

package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "stream_dashboard"

// Metrics holds the Prometheus counters and histograms for the dashboard.
type Metrics struct {
	ChartBuilds        *prometheus.CounterVec   // labels: chart, outcome={ok,empty,degraded}
	ChartBuildDuration *prometheus.HistogramVec // labels: chart
	EventsDispatched   *prometheus.CounterVec   // labels: type={hover,style}

	// Remote series metrics.
	SeriesFetches       *prometheus.CounterVec // labels: outcome={success,error,empty}
	SeriesFetchDuration prometheus.Histogram
	SeriesCache         *prometheus.CounterVec // labels: result={hit,miss}

	// Interaction sink metrics.
	InteractionsPublished *prometheus.CounterVec // labels: outcome={success,error}
	SinkEnabled           prometheus.Gauge
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		ChartBuilds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chart_builds_total",
			Help:      "Chart specifications built, by chart and outcome.",
		}, []string{"chart", "outcome"}),
		ChartBuildDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chart_build_duration_seconds",
			Help:      "Time to build one chart specification, including remote fetches.",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"chart"}),
		EventsDispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_dispatched_total",
			Help:      "Dashboard events dispatched, by type.",
		}, []string{"type"}),
		SeriesFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "series_fetches_total",
			Help:      "USGS daily-value requests by outcome.",
		}, []string{"outcome"}),
		SeriesFetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "series_fetch_duration_seconds",
			Help:      "USGS daily-value request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		SeriesCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "series_cache_total",
			Help:      "Series cache lookups by result.",
		}, []string{"result"}),
		InteractionsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "interactions_published_total",
			Help:      "Interaction events written to Kafka, by outcome.",
		}, []string{"outcome"}),
		SinkEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "interaction_sink_enabled",
			Help:      "1 when interaction events are published to Kafka, 0 otherwise.",
		}),
	}

	prometheus.MustRegister(
		m.ChartBuilds,
		m.ChartBuildDuration,
		m.EventsDispatched,
		m.SeriesFetches,
		m.SeriesFetchDuration,
		m.SeriesCache,
		m.InteractionsPublished,
		m.SinkEnabled,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		ChartBuilds:           prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "chart_builds_total"}, []string{"chart", "outcome"}),
		ChartBuildDuration:    prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: namespace, Name: "chart_build_duration_seconds"}, []string{"chart"}),
		EventsDispatched:      prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "events_dispatched_total"}, []string{"type"}),
		SeriesFetches:         prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "series_fetches_total"}, []string{"outcome"}),
		SeriesFetchDuration:   prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "series_fetch_duration_seconds"}),
		SeriesCache:           prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "series_cache_total"}, []string{"result"}),
		InteractionsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "interactions_published_total"}, []string{"outcome"}),
		SinkEnabled:           prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "interaction_sink_enabled"}),
	}
}

package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"

	"github.com/okh2o/stream-dashboard/internal/adapter/csvstore"
	httpadapter "github.com/okh2o/stream-dashboard/internal/adapter/http"
	kafkaadapter "github.com/okh2o/stream-dashboard/internal/adapter/kafka"
	"github.com/okh2o/stream-dashboard/internal/adapter/mapbox"
	"github.com/okh2o/stream-dashboard/internal/adapter/usgs"
	"github.com/okh2o/stream-dashboard/internal/config"
	"github.com/okh2o/stream-dashboard/internal/domain"
	"github.com/okh2o/stream-dashboard/internal/observability"
	"github.com/okh2o/stream-dashboard/internal/pipeline"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Error("failed to read .env", "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	data, err := csvstore.Load(csvstore.Paths{
		Bacteria: cfg.BacteriaPath(),
		Stations: cfg.StationPath(),
		Gauges:   cfg.GaugePath(),
	})
	if err != nil {
		logger.Error("failed to load tables", "data_dir", cfg.DataDir, "error", err)
		os.Exit(1)
	}
	logger.Info("tables loaded",
		"bacteria_samples", len(data.Bacteria()),
		"bacteria_stations", len(data.BacteriaStationNames()),
		"stations", len(data.Stations()),
		"gauges", len(data.Gauges()),
	)

	var fetcher domain.SeriesFetcher = usgs.NewClient(cfg.USGSBaseURL, cfg.USGSTimeout, cfg.USGSRetries, metrics, logger)
	if cfg.USGSCacheSize > 0 {
		fetcher = usgs.NewCachedFetcher(fetcher, cfg.USGSCacheSize, clock, metrics)
		logger.Info("series cache enabled", "size", cfg.USGSCacheSize)
	}

	opts := pipeline.Options{
		Lookback:     cfg.TimeSeriesLookback,
		FlowStart:    cfg.FlowDurationStart,
		FetchTimeout: cfg.USGSTimeout,
		MapboxToken:  cfg.MapboxToken,
	}

	// Initialize the interaction sink (feature-flagged via KAFKA_BROKERS).
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger, metrics)
		opts.Sink = writer
		logger.Info("interaction sink enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	} else {
		logger.Info("interaction sink disabled")
	}

	builder := pipeline.New(data, fetcher, clock, logger, metrics, opts)

	checks := httpadapter.Checks{builder}
	if cfg.MapboxStyleCheck {
		checks = append(checks, mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, logger))
		logger.Info("mapbox style check enabled", "timeout", cfg.MapboxTimeout)
	}

	// The dashboard page may run two remote fetches back to back.
	writeTimeout := 2*cfg.USGSTimeout + cfg.ShutdownTimeout
	srv := httpadapter.NewServer(cfg.HTTPAddr, builder, checks, writeTimeout, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

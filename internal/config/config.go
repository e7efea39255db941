package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/rickb777/period"
	"github.com/sethvargo/go-envconfig"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Static tables.
	DataDir      string
	BacteriaFile string
	StationFile  string
	GaugeFile    string

	// USGS NWIS daily-values service.
	USGSBaseURL        string
	USGSTimeout        time.Duration
	USGSRetries        int
	USGSCacheSize      int
	TimeSeriesLookback string
	FlowDurationStart  time.Time

	// Mapbox basemap configuration.
	MapboxToken      string
	MapboxStyleCheck bool
	MapboxTimeout    time.Duration

	// Interaction event sink.
	KafkaBrokers []string
	KafkaTopic   string
	KafkaEnabled bool
}

// BacteriaPath returns the full path of the bacteria table.
func (c *Config) BacteriaPath() string { return filepath.Join(c.DataDir, c.BacteriaFile) }

// StationPath returns the full path of the station metadata table.
func (c *Config) StationPath() string { return filepath.Join(c.DataDir, c.StationFile) }

// GaugePath returns the full path of the gauge table.
func (c *Config) GaugePath() string { return filepath.Join(c.DataDir, c.GaugeFile) }

// env mirrors the raw variables. Dates and periods stay strings so Load can
// apply domain rules and name the offending variable.
type env struct {
	HTTPAddr        string        `env:"HTTP_ADDR, default=:8080"`
	LogLevel        string        `env:"LOG_LEVEL, default=info"`
	LogFormat       string        `env:"LOG_FORMAT, default=json"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT, default=10s"`

	DataDir      string `env:"DATA_DIR, default=Data"`
	BacteriaFile string `env:"BACTERIA_FILE, default=OWS_BacteriaData_2018.csv"`
	StationFile  string `env:"STATION_FILE, default=Station_Data.csv"`
	GaugeFile    string `env:"GAUGE_FILE, default=USGS_Gauges.csv"`

	USGSBaseURL        string        `env:"USGS_BASE_URL, default=https://waterservices.usgs.gov/nwis/dv/"`
	USGSTimeout        time.Duration `env:"USGS_TIMEOUT, default=30s"`
	USGSRetries        int           `env:"USGS_RETRIES, default=2"`
	USGSCacheSize      int           `env:"USGS_CACHE_SIZE, default=0"`
	TimeSeriesLookback string        `env:"TIMESERIES_LOOKBACK, default=P365D"`
	FlowDurationStart  string        `env:"FLOW_DURATION_START, default=2018-01-01"`

	MapboxToken      string        `env:"MAPBOX_TOKEN"`
	MapboxStyleCheck *bool         `env:"MAPBOX_STYLE_CHECK, noinit"`
	MapboxTimeout    time.Duration `env:"MAPBOX_TIMEOUT, default=5s"`

	KafkaBrokers []string `env:"KAFKA_BROKERS"`
	KafkaTopic   string   `env:"KAFKA_TOPIC, default=dashboard-interactions"`
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	var e env
	if err := envconfig.Process(context.Background(), &e); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	if err := requirePositive("SHUTDOWN_TIMEOUT", e.ShutdownTimeout); err != nil {
		return nil, err
	}
	if err := requirePositive("USGS_TIMEOUT", e.USGSTimeout); err != nil {
		return nil, err
	}
	if err := requirePositive("MAPBOX_TIMEOUT", e.MapboxTimeout); err != nil {
		return nil, err
	}

	if e.USGSRetries < 0 || e.USGSRetries > 5 {
		return nil, errors.New("invalid USGS_RETRIES: must be an integer between 0 and 5")
	}
	if e.USGSCacheSize < 0 {
		return nil, errors.New("invalid USGS_CACHE_SIZE: must be a non-negative integer")
	}

	lookback, err := parseLookback(e.TimeSeriesLookback)
	if err != nil {
		return nil, err
	}

	flowStart, err := time.Parse(time.DateOnly, strings.TrimSpace(e.FlowDurationStart))
	if err != nil {
		return nil, fmt.Errorf("invalid FLOW_DURATION_START: %w", err)
	}

	if u, err := url.Parse(e.USGSBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.New("invalid USGS_BASE_URL: must be an absolute URL")
	}

	if _, err := parseLevel(e.LogLevel); err != nil {
		return nil, err
	}
	switch e.LogFormat {
	case "json", "text":
	default:
		return nil, fmt.Errorf("invalid LOG_FORMAT %q (allowed: json, text)", e.LogFormat)
	}

	styleCheck := e.MapboxToken != ""
	if e.MapboxStyleCheck != nil {
		styleCheck = *e.MapboxStyleCheck
	}

	brokers := cleanBrokers(e.KafkaBrokers)

	cfg := &Config{
		HTTPAddr:        e.HTTPAddr,
		LogLevel:        e.LogLevel,
		LogFormat:       e.LogFormat,
		ShutdownTimeout: e.ShutdownTimeout,

		DataDir:      e.DataDir,
		BacteriaFile: e.BacteriaFile,
		StationFile:  e.StationFile,
		GaugeFile:    e.GaugeFile,

		USGSBaseURL:        e.USGSBaseURL,
		USGSTimeout:        e.USGSTimeout,
		USGSRetries:        e.USGSRetries,
		USGSCacheSize:      e.USGSCacheSize,
		TimeSeriesLookback: lookback,
		FlowDurationStart:  flowStart,

		MapboxToken:      e.MapboxToken,
		MapboxStyleCheck: styleCheck,
		MapboxTimeout:    e.MapboxTimeout,

		KafkaBrokers: brokers,
		KafkaTopic:   e.KafkaTopic,
		KafkaEnabled: len(brokers) > 0,
	}

	if cfg.MapboxStyleCheck && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_STYLE_CHECK is true but MAPBOX_TOKEN is not set")
	}
	if cfg.KafkaEnabled && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

func requirePositive(name string, d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("invalid %s: must be a positive duration", name)
	}
	return nil
}

// parseLookback accepts a positive whole number of days or weeks and returns
// it in the PnD form the NWIS period parameter takes.
func parseLookback(s string) (string, error) {
	p, err := period.Parse(strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("invalid TIMESERIES_LOOKBACK: %w", err)
	}
	p = p.SimplifyWeeksToDays()
	days := fmt.Sprintf("P%dD", p.Days())
	if p.Days() <= 0 || p.String() != days {
		return "", fmt.Errorf("invalid TIMESERIES_LOOKBACK %q: must be a whole number of days, e.g. P365D", s)
	}
	return days, nil
}

func cleanBrokers(in []string) []string {
	var out []string
	for _, b := range in {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

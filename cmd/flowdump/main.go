// Command flowdump fetches the full daily discharge history for one or more
// gauges and writes each gauge's flow-duration table to CSV.
//
// Usage:
//
//	go run ./cmd/flowdump --out flow "Illinois River near Tahlequah"
//	go run ./cmd/flowdump --start 2010-01-01   # every gauge in the table
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alexflint/go-arg"
	"github.com/gocarina/gocsv"
	"github.com/jonboulle/clockwork"
	"github.com/schollz/progressbar/v3"

	"github.com/okh2o/stream-dashboard/internal/adapter/csvstore"
	"github.com/okh2o/stream-dashboard/internal/adapter/usgs"
	"github.com/okh2o/stream-dashboard/internal/config"
	"github.com/okh2o/stream-dashboard/internal/domain"
	"github.com/okh2o/stream-dashboard/internal/observability"
)

type args struct {
	Names []string `arg:"positional" help:"gauge station names; every gauge in the table when omitted"`
	Out   string   `arg:"-o,--out" default:"flowdump" help:"output directory"`
	Start string   `arg:"-s,--start" help:"first date of the record (YYYY-MM-DD), defaults to FLOW_DURATION_START"`
}

func (args) Description() string {
	return "Writes flow-duration tables (rank, exceedance, discharge) for USGS gauges."
}

// flowRow is one line of the output table.
type flowRow struct {
	Rank       int     `csv:"rank"`
	Exceedance float64 `csv:"exceedance_pct"`
	Discharge  float64 `csv:"discharge_cfs"`
}

func main() {
	var a args
	arg.MustParse(&a)
	if err := run(a); err != nil {
		slog.Error("flowdump failed", "error", err)
		os.Exit(1)
	}
}

func run(a args) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := observability.NewLogger(cfg)

	start := cfg.FlowDurationStart
	if a.Start != "" {
		if start, err = time.Parse(time.DateOnly, a.Start); err != nil {
			return fmt.Errorf("invalid --start: %w", err)
		}
	}

	gauges, err := loadGauges(cfg.GaugePath())
	if err != nil {
		return err
	}
	selected, err := selectGauges(gauges, a.Names)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(a.Out, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := usgs.NewClient(cfg.USGSBaseURL, cfg.USGSTimeout, cfg.USGSRetries, observability.NewMetrics(), logger)
	now := clockwork.NewRealClock().Now().UTC()
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	d := dumper{fetcher: client, outDir: a.Out, start: start, end: end, logger: logger}
	bar := newBar(len(selected), "gauges", os.Stderr)
	failed := d.dumpAll(ctx, selected, bar)
	if failed > 0 {
		return fmt.Errorf("%d of %d gauges failed", failed, len(selected))
	}
	return nil
}

func loadGauges(path string) ([]domain.GaugeStation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gauge table: %w", err)
	}
	defer f.Close()
	gauges, err := csvstore.LoadGauges(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return gauges, nil
}

// selectGauges returns the named gauges in argument order, or all of them.
func selectGauges(gauges []domain.GaugeStation, names []string) ([]domain.GaugeStation, error) {
	if len(names) == 0 {
		return gauges, nil
	}
	byName := make(map[string]domain.GaugeStation, len(gauges))
	for _, g := range gauges {
		byName[g.StationName] = g
	}
	out := make([]domain.GaugeStation, 0, len(names))
	for _, n := range names {
		g, ok := byName[n]
		if !ok {
			return nil, fmt.Errorf("%w: %q is not in the gauge table", domain.ErrInvalidSelection, n)
		}
		out = append(out, g)
	}
	return out, nil
}

func newBar(size int, description string, w io.Writer) *progressbar.ProgressBar {
	return progressbar.NewOptions(size,
		progressbar.OptionSetWriter(w),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(w) }),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

type dumper struct {
	fetcher domain.SeriesFetcher
	outDir  string
	start   time.Time
	end     time.Time
	logger  *slog.Logger
}

// dumpAll writes one file per gauge and returns the number of gauges that
// failed. Gauges without data are skipped and do not count as failures.
func (d dumper) dumpAll(ctx context.Context, gauges []domain.GaugeStation, bar *progressbar.ProgressBar) int {
	failed := 0
	for _, g := range gauges {
		if ctx.Err() != nil {
			failed++
			continue
		}
		path, err := d.dump(ctx, g)
		switch {
		case errors.Is(err, domain.ErrEmptySeries):
			d.logger.Warn("no discharge data", "station", g.StationName, "site", g.SiteNumber)
		case err != nil:
			d.logger.Error("gauge failed", "station", g.StationName, "site", g.SiteNumber, "error", err)
			failed++
		default:
			d.logger.Debug("flow duration written", "station", g.StationName, "path", path)
		}
		_ = bar.Add(1)
	}
	return failed
}

func (d dumper) dump(ctx context.Context, g domain.GaugeStation) (string, error) {
	series, err := d.fetcher.FetchDailyFlow(ctx, domain.SeriesRequest{
		Site:  g.SiteID(),
		Start: d.start,
		End:   d.end,
	})
	if err != nil {
		return "", err
	}
	curve, err := domain.FlowDuration(series.Values())
	if err != nil {
		return "", err
	}

	path := filepath.Join(d.outDir, g.SiteID()+"_flow_duration.csv")
	if err := writeRows(path, flowRows(curve)); err != nil {
		return "", err
	}
	return path, nil
}

// writeRows writes csv-tagged rows to path. A failed write leaves no file behind.
func writeRows(path string, rows any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	err = gocsv.Marshal(rows, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func flowRows(c domain.ExceedanceCurve) []flowRow {
	rows := make([]flowRow, c.Len())
	for i := range rows {
		rows[i] = flowRow{Rank: i + 1, Exceedance: c.Exceedance[i], Discharge: c.Discharge[i]}
	}
	return rows
}

// Command validate checks the three static CSV tables with the same loader
// the dashboard uses at startup. It reports per-table counts, schema problems
// and cross-table notes, and exits 1 when any table is malformed.
//
// Usage:
//
//	go run ./cmd/validate --data-dir Data
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/alexflint/go-arg"

	"github.com/okh2o/stream-dashboard/internal/adapter/csvstore"
	"github.com/okh2o/stream-dashboard/internal/domain"
)

type args struct {
	DataDir  string `arg:"-d,--data-dir,env:DATA_DIR" default:"Data" help:"directory holding the CSV tables"`
	Bacteria string `arg:"--bacteria,env:BACTERIA_FILE" default:"OWS_BacteriaData_2018.csv" help:"bacteria sample table"`
	Stations string `arg:"--stations,env:STATION_FILE" default:"Station_Data.csv" help:"station metadata table"`
	Gauges   string `arg:"--gauges,env:GAUGE_FILE" default:"USGS_Gauges.csv" help:"USGS gauge table"`
}

func (args) Description() string {
	return "Validates the stream dashboard CSV tables."
}

// Oklahoma bounding box, padded slightly.
const (
	minLat, maxLat = 33.5, 37.1
	minLon, maxLon = -103.1, -94.3
)

// phase tracks pass/fail for a validation phase. Notes never fail a phase.
type phase struct {
	name   string
	errors []string
	notes  []string
}

func (p *phase) errorf(format string, a ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, a...))
}

func (p *phase) notef(format string, a ...any) {
	p.notes = append(p.notes, fmt.Sprintf(format, a...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

type tables struct {
	bacteria []domain.BacteriaSample
	stations []domain.Station
	gauges   []domain.GaugeStation
}

func main() {
	var a args
	arg.MustParse(&a)
	os.Exit(run(a, os.Stdout))
}

func run(a args, out io.Writer) int {
	fmt.Fprintln(out, "=== Stream Dashboard Table Validation ===")
	fmt.Fprintln(out)

	var t tables
	schema := &phase{name: "Phase 1: Table Schemas"}
	t.bacteria = loadTable(schema, filepath.Join(a.DataDir, a.Bacteria), csvstore.LoadBacteria)
	t.stations = loadTable(schema, filepath.Join(a.DataDir, a.Stations), csvstore.LoadStations)
	t.gauges = loadTable(schema, filepath.Join(a.DataDir, a.Gauges), csvstore.LoadGauges)

	phases := []*phase{schema}
	var ds *domain.Dataset
	if schema.passed() {
		var p *phase
		ds, p = validateDataset(t)
		phases = append(phases, p)
	}
	if ds != nil {
		phases = append(phases, validateCrossReferences(ds))
	}

	allPassed := true
	for _, p := range phases {
		status := "PASS"
		if !p.passed() {
			status = fmt.Sprintf("FAIL (%d errors)", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(out, "  %-36s %s\n", p.name, status)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Rows: %d bacteria samples, %d stations, %d gauges\n",
		len(t.bacteria), len(t.stations), len(t.gauges))
	if ds != nil {
		fmt.Fprintf(out, "Bacteria stations: %d\n", len(ds.BacteriaStationNames()))
	}

	for _, p := range phases {
		if len(p.errors) == 0 && len(p.notes) == 0 {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, e)
		}
		for _, n := range p.notes {
			fmt.Fprintf(out, "  note: %s\n", n)
		}
	}

	if allPassed {
		fmt.Fprintln(out, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(out, "\nValidation FAILED.")
	return 1
}

func loadTable[T any](p *phase, path string, parse func(io.Reader) ([]T, error)) []T {
	f, err := os.Open(path)
	if err != nil {
		p.errorf("%v", err)
		return nil
	}
	defer f.Close()

	rows, err := parse(f)
	if err != nil {
		p.errorf("%s: %v", filepath.Base(path), err)
		return nil
	}
	return rows
}

func validateDataset(t tables) (*domain.Dataset, *phase) {
	p := &phase{name: "Phase 2: Dataset Invariants"}
	ds, err := domain.NewDataset(t.bacteria, t.stations, t.gauges)
	if err != nil {
		p.errorf("%v", err)
		return nil, p
	}
	return ds, p
}

func validateCrossReferences(ds *domain.Dataset) *phase {
	p := &phase{name: "Phase 3: Cross References"}

	known := make(map[string]bool)
	for _, s := range ds.Stations() {
		known[s.StationName] = true
	}
	for _, name := range ds.BacteriaStationNames() {
		if !known[name] {
			p.notef("bacteria station %q has no row in the station table", name)
		}
	}

	for _, g := range ds.Gauges() {
		if !inOklahoma(g.Lat, g.Long) {
			p.notef("gauge %q at (%g, %g) lies outside Oklahoma", g.StationName, g.Lat, g.Long)
		}
		if len(ds.SamplesFor(g.StationName)) > 0 {
			p.notef("%q is both a gauge and a bacteria station; hover resolves to bacteria", g.StationName)
		}
	}
	return p
}

func inOklahoma(lat, lon float64) bool {
	return lat >= minLat && lat <= maxLat && lon >= minLon && lon <= maxLon
}

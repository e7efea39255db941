// Package csvstore loads the static station tables from CSV files.
package csvstore

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/okh2o/stream-dashboard/internal/domain"
)

// Required columns per table. Extra columns are ignored.
var (
	BacteriaColumns = []string{"Station_Name", "Sample_Time", "Ecoli", "Enterococci", "Lat", "Long"}
	StationColumns  = []string{"Station_Name", "Lat", "Long"}
	GaugeColumns    = []string{"Station_Name", "Site_Number", "Lat", "Long"}
)

// sampleTimeLayouts are tried in order when parsing Sample_Time.
var sampleTimeLayouts = []string{
	time.DateTime,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	time.DateOnly,
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006 3:04:05 PM",
	"1/2/2006 3:04 PM",
	"1/2/2006",
}

type bacteriaRow struct {
	StationName string `csv:"Station_Name"`
	SampleTime  string `csv:"Sample_Time"`
	Ecoli       string `csv:"Ecoli"`
	Enterococci string `csv:"Enterococci"`
	Lat         string `csv:"Lat"`
	Long        string `csv:"Long"`
}

type stationRow struct {
	StationName string `csv:"Station_Name"`
	Lat         string `csv:"Lat"`
	Long        string `csv:"Long"`
}

type gaugeRow struct {
	StationName string `csv:"Station_Name"`
	SiteNumber  string `csv:"Site_Number"`
	Lat         string `csv:"Lat"`
	Long        string `csv:"Long"`
}

// Paths locates the three tables on disk.
type Paths struct {
	Bacteria string
	Stations string
	Gauges   string
}

// Load reads all three tables and builds the Dataset. Any schema problem is
// returned wrapped in domain.ErrMalformedSchema.
func Load(paths Paths) (*domain.Dataset, error) {
	bacteria, err := loadFile(paths.Bacteria, LoadBacteria)
	if err != nil {
		return nil, err
	}
	stations, err := loadFile(paths.Stations, LoadStations)
	if err != nil {
		return nil, err
	}
	gauges, err := loadFile(paths.Gauges, LoadGauges)
	if err != nil {
		return nil, err
	}
	return domain.NewDataset(bacteria, stations, gauges)
}

func loadFile[T any](path string, parse func(io.Reader) ([]T, error)) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open table: %w", err)
	}
	defer f.Close()

	rows, err := parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}

// LoadBacteria parses the bacteria sample table. Blank Ecoli or Enterococci
// cells become NaN.
func LoadBacteria(r io.Reader) ([]domain.BacteriaSample, error) {
	var rows []bacteriaRow
	if err := unmarshal(r, BacteriaColumns, &rows); err != nil {
		return nil, err
	}

	out := make([]domain.BacteriaSample, 0, len(rows))
	for i, row := range rows {
		line := i + 2
		when, err := parseSampleTime(row.SampleTime)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: Sample_Time %q is not a date", domain.ErrMalformedSchema, line, row.SampleTime)
		}
		ecoli, err := parseMeasurement(row.Ecoli)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: Ecoli %q is not a number", domain.ErrMalformedSchema, line, row.Ecoli)
		}
		entero, err := parseMeasurement(row.Enterococci)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: Enterococci %q is not a number", domain.ErrMalformedSchema, line, row.Enterococci)
		}
		lat, lon, err := parseCoords(row.Lat, row.Long)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", domain.ErrMalformedSchema, line, err)
		}
		out = append(out, domain.BacteriaSample{
			StationName: strings.TrimSpace(row.StationName),
			SampleTime:  when,
			Ecoli:       ecoli,
			Enterococci: entero,
			Lat:         lat,
			Long:        lon,
		})
	}
	return out, nil
}

// LoadStations parses the station metadata table.
func LoadStations(r io.Reader) ([]domain.Station, error) {
	var rows []stationRow
	if err := unmarshal(r, StationColumns, &rows); err != nil {
		return nil, err
	}

	out := make([]domain.Station, 0, len(rows))
	for i, row := range rows {
		lat, lon, err := parseCoords(row.Lat, row.Long)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", domain.ErrMalformedSchema, i+2, err)
		}
		out = append(out, domain.Station{StationName: strings.TrimSpace(row.StationName), Lat: lat, Long: lon})
	}
	return out, nil
}

// LoadGauges parses the USGS gauge table. Site numbers exported as floats
// ("7196500.0") are trimmed back to their integer form.
func LoadGauges(r io.Reader) ([]domain.GaugeStation, error) {
	var rows []gaugeRow
	if err := unmarshal(r, GaugeColumns, &rows); err != nil {
		return nil, err
	}

	out := make([]domain.GaugeStation, 0, len(rows))
	for i, row := range rows {
		lat, lon, err := parseCoords(row.Lat, row.Long)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", domain.ErrMalformedSchema, i+2, err)
		}
		site := strings.TrimSuffix(strings.TrimSpace(row.SiteNumber), ".0")
		out = append(out, domain.GaugeStation{
			StationName: strings.TrimSpace(row.StationName),
			SiteNumber:  site,
			Lat:         lat,
			Long:        lon,
		})
	}
	return out, nil
}

// unmarshal checks the header for the required columns, then decodes rows.
func unmarshal(r io.Reader, required []string, out any) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read table: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMalformedSchema, err)
	}
	if len(records) == 0 {
		return fmt.Errorf("%w: empty table", domain.ErrMalformedSchema)
	}
	header := records[0]
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	var missing []string
	for _, col := range required {
		if !slices.Contains(header, col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing columns %s", domain.ErrMalformedSchema, strings.Join(missing, ", "))
	}

	if len(records) == 1 {
		return nil
	}
	if err := gocsv.UnmarshalBytes(data, out); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMalformedSchema, err)
	}
	return nil
}

func parseSampleTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range sampleTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised time %q", s)
}

func parseMeasurement(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") {
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite value %q", s)
	}
	return v, nil
}

func parseCoords(latStr, lonStr string) (float64, float64, error) {
	lat, err := parseCoord(latStr, 90)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid Lat %q", latStr)
	}
	lon, err := parseCoord(lonStr, 180)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid Long %q", lonStr)
	}
	return lat, lon, nil
}

// parseCoord parses a finite coordinate within [-limit, limit].
func parseCoord(s string, limit float64) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v < -limit || v > limit {
		return 0, errors.New("out of range")
	}
	return v, nil
}

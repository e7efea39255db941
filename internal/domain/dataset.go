package domain

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"time"
)

// BacteriaSample is one water-quality sample. Ecoli and Enterococci are NaN
// when the cell was blank.
type BacteriaSample struct {
	StationName string
	SampleTime  time.Time
	Ecoli       float64
	Enterococci float64
	Lat         float64
	Long        float64
}

// Station is a row of the station metadata table.
type Station struct {
	StationName string  `json:"station_name"`
	Lat         float64 `json:"lat"`
	Long        float64 `json:"long"`
}

// GaugeStation is a USGS streamflow gauge.
type GaugeStation struct {
	StationName string  `json:"station_name"`
	SiteNumber  string  `json:"site_number"`
	Lat         float64 `json:"lat"`
	Long        float64 `json:"long"`
}

// SiteID is the NWIS site identifier: the site number with its leading zero
// restored.
func (g GaugeStation) SiteID() string { return nwisSiteID(g.SiteNumber) }

func nwisSiteID(siteNumber string) string {
	if siteNumber == "" {
		return ""
	}
	return "0" + siteNumber
}

// Dataset is the immutable data context shared by all chart builders.
// Accessors return copies so callers cannot mutate the loaded tables.
type Dataset struct {
	bacteria      []BacteriaSample
	stations      []Station
	gauges        []GaugeStation
	gaugeByName   map[string]int
	bacteriaNames []string
}

// NewDataset validates the tables and builds the lookup indexes. Invariant
// violations are reported as ErrMalformedSchema.
func NewDataset(bacteria []BacteriaSample, stations []Station, gauges []GaugeStation) (*Dataset, error) {
	names := make(map[string]struct{})
	for i, s := range bacteria {
		if strings.TrimSpace(s.StationName) == "" {
			return nil, fmt.Errorf("%w: bacteria row %d: empty Station_Name", ErrMalformedSchema, i+1)
		}
		if s.SampleTime.IsZero() {
			return nil, fmt.Errorf("%w: bacteria row %d: missing Sample_Time", ErrMalformedSchema, i+1)
		}
		names[s.StationName] = struct{}{}
	}

	gaugeByName := make(map[string]int, len(gauges))
	for i, g := range gauges {
		if strings.TrimSpace(g.StationName) == "" {
			return nil, fmt.Errorf("%w: gauge row %d: empty Station_Name", ErrMalformedSchema, i+1)
		}
		if !isDigits(g.SiteNumber) {
			return nil, fmt.Errorf("%w: gauge %q: Site_Number %q is not numeric", ErrMalformedSchema, g.StationName, g.SiteNumber)
		}
		if _, dup := gaugeByName[g.StationName]; dup {
			return nil, fmt.Errorf("%w: duplicate gauge Station_Name %q", ErrMalformedSchema, g.StationName)
		}
		gaugeByName[g.StationName] = i
	}

	bacteriaNames := make([]string, 0, len(names))
	for n := range names {
		bacteriaNames = append(bacteriaNames, n)
	}
	slices.Sort(bacteriaNames)

	return &Dataset{
		bacteria:      slices.Clone(bacteria),
		stations:      slices.Clone(stations),
		gauges:        slices.Clone(gauges),
		gaugeByName:   gaugeByName,
		bacteriaNames: bacteriaNames,
	}, nil
}

// Bacteria returns every bacteria sample in load order.
func (d *Dataset) Bacteria() []BacteriaSample {
	return slices.Clone(d.bacteria)
}

// Stations returns the station metadata table.
func (d *Dataset) Stations() []Station {
	return slices.Clone(d.stations)
}

// Gauges returns the gauge table in load order.
func (d *Dataset) Gauges() []GaugeStation {
	return slices.Clone(d.gauges)
}

// BacteriaStationNames returns the distinct bacteria station names, sorted.
func (d *Dataset) BacteriaStationNames() []string {
	return slices.Clone(d.bacteriaNames)
}

// Gauge looks up a gauge by exact station name.
func (d *Dataset) Gauge(name string) (GaugeStation, bool) {
	i, ok := d.gaugeByName[name]
	if !ok {
		return GaugeStation{}, false
	}
	return d.gauges[i], true
}

// SamplesFor returns the samples whose station name equals name exactly, in
// load order.
func (d *Dataset) SamplesFor(name string) []BacteriaSample {
	var out []BacteriaSample
	for _, s := range d.bacteria {
		if s.StationName == name {
			out = append(out, s)
		}
	}
	return out
}

// matchesBacteria reports whether any bacteria station name contains label.
func (d *Dataset) matchesBacteria(label string) bool {
	for _, n := range d.bacteriaNames {
		if strings.Contains(n, label) {
			return true
		}
	}
	return false
}

// Missing reports whether a measurement cell was blank.
func Missing(v float64) bool {
	return math.IsNaN(v)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

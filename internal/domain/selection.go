package domain

import "fmt"

// SelectionKind says which table a hovered station label belongs to.
type SelectionKind int

const (
	SelectionNone SelectionKind = iota
	SelectionBacteria
	SelectionGauge
)

func (k SelectionKind) String() string {
	switch k {
	case SelectionBacteria:
		return "bacteria"
	case SelectionGauge:
		return "gauge"
	default:
		return "none"
	}
}

// StationSelection is the transient result of resolving a hover label.
type StationSelection struct {
	Label      string
	Kind       SelectionKind
	SiteNumber string // set for gauges only
}

// SiteID is the NWIS site identifier for a gauge selection.
func (s StationSelection) SiteID() string { return nwisSiteID(s.SiteNumber) }

// Resolve classifies a hovered label. An empty label means nothing is hovered
// and yields SelectionNone without error. Bacteria stations win over gauges.
// A label that is in neither table returns SelectionNone and
// ErrInvalidSelection.
func Resolve(ds *Dataset, label string) (StationSelection, error) {
	if label == "" {
		return StationSelection{Kind: SelectionNone}, nil
	}
	if ds.matchesBacteria(label) {
		return StationSelection{Label: label, Kind: SelectionBacteria}, nil
	}
	g, ok := ds.Gauge(label)
	if !ok {
		return StationSelection{Label: label, Kind: SelectionNone}, fmt.Errorf("%w: %q", ErrInvalidSelection, label)
	}
	return StationSelection{Label: label, Kind: SelectionGauge, SiteNumber: g.SiteNumber}, nil
}

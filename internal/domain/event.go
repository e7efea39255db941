package domain

import "time"

// BasemapStyle is one of the predefined map base layer styles offered by the
// style selector.
type BasemapStyle string

const (
	StyleOutdoors         BasemapStyle = "outdoors"
	StyleSatellite        BasemapStyle = "satellite"
	StyleSatelliteStreets BasemapStyle = "mapbox://styles/mapbox/satellite-streets-v9"
)

// BasemapStyles lists the selector values in display order.
var BasemapStyles = []BasemapStyle{StyleOutdoors, StyleSatellite, StyleSatelliteStreets}

// ParseBasemapStyle validates a selector value.
func ParseBasemapStyle(s string) (BasemapStyle, bool) {
	for _, style := range BasemapStyles {
		if string(style) == s {
			return style, true
		}
	}
	return "", false
}

// EventKind tags a dashboard Event.
type EventKind int

const (
	EventHover EventKind = iota
	EventStyleChange
)

func (k EventKind) String() string {
	switch k {
	case EventHover:
		return "hover"
	case EventStyleChange:
		return "style"
	default:
		return "unknown"
	}
}

// Event is a UI interaction: either a hover over a map marker (Label, empty
// when nothing is hovered) or a basemap style change (Style).
type Event struct {
	Kind  EventKind
	Label string
	Style BasemapStyle
}

// Hover returns a hover event for the given marker label.
func Hover(label string) Event {
	return Event{Kind: EventHover, Label: label}
}

// StyleChange returns a style selector event.
func StyleChange(style BasemapStyle) Event {
	return Event{Kind: EventStyleChange, Style: style}
}

// Update is the set of chart specs refreshed by one Event.
type Update struct {
	Charts map[ChartID]ChartSpec `json:"charts"`
}

// Interaction is the record of a dispatched Event published to the
// interaction sink.
type Interaction struct {
	Type      string    `json:"type"`
	Label     string    `json:"label,omitempty"`
	Selection string    `json:"selection,omitempty"`
	Style     string    `json:"style,omitempty"`
	At        time.Time `json:"at"`
}

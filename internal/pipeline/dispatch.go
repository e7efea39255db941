package pipeline

import (
	"context"

	"github.com/okh2o/stream-dashboard/internal/domain"
)

// Dispatch builds every chart an event refreshes. A hover refreshes the time
// series, flow duration and bacteria average; a style change refreshes the
// station map.
func (b *Builder) Dispatch(ctx context.Context, ev domain.Event) domain.Update {
	b.metrics.EventsDispatched.WithLabelValues(ev.Kind.String()).Inc()

	charts := make(map[domain.ChartID]domain.ChartSpec, 3)
	switch ev.Kind {
	case domain.EventHover:
		charts[domain.ChartTimeSeries] = b.TimeSeries(ctx, ev.Label)
		charts[domain.ChartFlowDuration] = b.FlowDuration(ctx, ev.Label)
		charts[domain.ChartBacteriaAverage] = b.BacteriaAverage()
	case domain.EventStyleChange:
		charts[domain.ChartStationMap] = b.StationMap(ev.Style)
	}

	b.record(ctx, ev)
	return domain.Update{Charts: charts}
}

// Chart builds a single chart by ID. Label is ignored by the map and
// average charts; style is ignored by all but the map.
func (b *Builder) Chart(ctx context.Context, id domain.ChartID, label string, style domain.BasemapStyle) domain.ChartSpec {
	switch id {
	case domain.ChartStationMap:
		return b.StationMap(style)
	case domain.ChartTimeSeries:
		return b.TimeSeries(ctx, label)
	case domain.ChartFlowDuration:
		return b.FlowDuration(ctx, label)
	case domain.ChartBacteriaAverage:
		return b.BacteriaAverage()
	default:
		return domain.EmptyChart("Unknown chart")
	}
}

// record offers the event to the interaction sink. Failures are logged only.
func (b *Builder) record(ctx context.Context, ev domain.Event) {
	if b.opts.Sink == nil {
		return
	}

	in := domain.Interaction{
		Type: ev.Kind.String(),
		At:   b.clock.Now().UTC(),
	}
	switch ev.Kind {
	case domain.EventHover:
		in.Label = ev.Label
		sel, err := domain.Resolve(b.data, ev.Label)
		if err != nil {
			in.Selection = "invalid"
		} else {
			in.Selection = sel.Kind.String()
		}
	case domain.EventStyleChange:
		in.Style = string(ev.Style)
	}

	if err := b.opts.Sink.Publish(context.WithoutCancel(ctx), in); err != nil {
		b.logger.Warn("publish interaction failed", "type", in.Type, "error", err)
	}
}

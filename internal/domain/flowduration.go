package domain

import (
	"cmp"
	"slices"
)

// ExceedanceCurve is a flow-duration curve: Discharge ranked in descending
// order with the matching exceedance probability in percent.
type ExceedanceCurve struct {
	Exceedance []float64
	Discharge  []float64
}

// Len returns the number of ranked values.
func (c ExceedanceCurve) Len() int { return len(c.Discharge) }

// FlowDuration ranks discharge values from highest to lowest and assigns rank
// i (1-indexed) of n the exceedance probability i/n*100. Equal values keep
// their input order. An empty input returns ErrEmptySeries.
func FlowDuration(values []float64) (ExceedanceCurve, error) {
	n := len(values)
	if n == 0 {
		return ExceedanceCurve{}, ErrEmptySeries
	}

	ranked := slices.Clone(values)
	slices.SortStableFunc(ranked, func(a, b float64) int {
		return cmp.Compare(b, a)
	})

	exceedance := make([]float64, n)
	for i := range ranked {
		exceedance[i] = float64(i+1) / float64(n) * 100
	}

	return ExceedanceCurve{Exceedance: exceedance, Discharge: ranked}, nil
}

package domain

import (
	"math"
	"slices"
	"strings"
)

// StationAverage holds the per-station mean of each bacteria metric. A mean
// is NaN when the station has no present value for that metric.
type StationAverage struct {
	StationName        string
	Ecoli              float64
	Enterococci        float64
	EcoliSamples       int
	EnterococciSamples int
}

// BacteriaAverages groups samples by station name and averages each metric
// over its present values. The result has one entry per distinct station,
// sorted by station name.
func BacteriaAverages(samples []BacteriaSample) []StationAverage {
	type acc struct {
		ecoliSum, enteroSum float64
		ecoliN, enteroN     int
	}
	groups := make(map[string]*acc)
	for _, s := range samples {
		a, ok := groups[s.StationName]
		if !ok {
			a = &acc{}
			groups[s.StationName] = a
		}
		if !Missing(s.Ecoli) {
			a.ecoliSum += s.Ecoli
			a.ecoliN++
		}
		if !Missing(s.Enterococci) {
			a.enteroSum += s.Enterococci
			a.enteroN++
		}
	}

	out := make([]StationAverage, 0, len(groups))
	for name, a := range groups {
		out = append(out, StationAverage{
			StationName:        name,
			Ecoli:              mean(a.ecoliSum, a.ecoliN),
			Enterococci:        mean(a.enteroSum, a.enteroN),
			EcoliSamples:       a.ecoliN,
			EnterococciSamples: a.enteroN,
		})
	}
	slices.SortFunc(out, func(x, y StationAverage) int {
		return strings.Compare(x.StationName, y.StationName)
	})
	return out
}

func mean(sum float64, n int) float64 {
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

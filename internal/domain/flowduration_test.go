package domain

import (
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlowDuration_ThreeDayExample(t *testing.T) {
	curve, err := FlowDuration([]float64{5, 15, 10})
	require.NoError(t, err)

	assert.Equal(t, []float64{15, 10, 5}, curve.Discharge)
	require.Len(t, curve.Exceedance, 3)
	assert.InDelta(t, 33.33, curve.Exceedance[0], 0.01)
	assert.InDelta(t, 66.67, curve.Exceedance[1], 0.01)
	assert.InDelta(t, 100.0, curve.Exceedance[2], 0.01)
}

func TestFlowDuration_Empty(t *testing.T) {
	_, err := FlowDuration(nil)
	require.ErrorIs(t, err, ErrEmptySeries)
}

func TestFlowDuration_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	values := make([]float64, 500)
	for i := range values {
		// Coarse values so ties are common.
		values[i] = float64(rng.Intn(40)) * 2.5
	}
	input := slices.Clone(values)

	curve, err := FlowDuration(values)
	require.NoError(t, err)

	assert.Equal(t, input, values, "input must not be reordered")
	assert.Equal(t, len(values), curve.Len())
	assert.Len(t, curve.Exceedance, len(values))

	for i := range curve.Exceedance {
		assert.Greater(t, curve.Exceedance[i], 0.0)
		assert.LessOrEqual(t, curve.Exceedance[i], 100.0)
		if i > 0 {
			assert.GreaterOrEqual(t, curve.Exceedance[i], curve.Exceedance[i-1])
			assert.LessOrEqual(t, curve.Discharge[i], curve.Discharge[i-1])
		}
	}
	assert.InDelta(t, 100.0, curve.Exceedance[len(values)-1], 1e-9)

	sortedIn := slices.Clone(input)
	slices.Sort(sortedIn)
	sortedOut := slices.Clone(curve.Discharge)
	slices.Sort(sortedOut)
	assert.Equal(t, sortedIn, sortedOut, "discharge must be a permutation of the input")
}

func TestFlowDuration_SingleValue(t *testing.T) {
	curve, err := FlowDuration([]float64{42})
	require.NoError(t, err)
	assert.Equal(t, []float64{42}, curve.Discharge)
	assert.Equal(t, []float64{100}, curve.Exceedance)
}

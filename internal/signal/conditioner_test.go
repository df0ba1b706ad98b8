package signal

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"gait-backend/internal/errs"
)

func TestGapFillPreservesKnownSamples(t *testing.T) {
	x := []float64{0, 1, math.NaN(), 3, 4, math.NaN(), 6}
	out, err := gapFill(x)
	require.NoError(t, err)
	require.Len(t, out, len(x))

	for i, v := range x {
		if !math.IsNaN(v) {
			assert.Equal(t, v, out[i], "known sample %d must pass through unchanged", i)
		}
	}
	// The underlying sequence is linear, so the spline fill is exact.
	assert.InDelta(t, 2.0, out[2], 1e-9)
	assert.InDelta(t, 5.0, out[5], 1e-9)
}

func TestGapFillExtrapolatesAtBoundaries(t *testing.T) {
	x := []float64{math.NaN(), 1, 2, 3, 4, math.NaN()}
	out, err := gapFill(x)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, out[0], 1e-6)
	assert.InDelta(t, 5.0, out[5], 1e-6)
}

func TestGapFillInsufficientSamples(t *testing.T) {
	x := []float64{math.NaN(), 2.5, math.NaN()}
	_, err := gapFill(x)
	require.Error(t, err)
	var de *errs.DataError
	assert.ErrorAs(t, err, &de)
}

func TestGapFillCompleteSignalUntouched(t *testing.T) {
	x := []float64{1, 4, 2, 8}
	out, err := gapFill(x)
	require.NoError(t, err)
	assert.Equal(t, x, out)
}

func TestConditionRejectsLengthMismatch(t *testing.T) {
	c := NewConditioner()
	_, _, err := c.Condition([]float64{1, 2, 3}, []float64{1, 2}, 30)
	require.Error(t, err)
	var de *errs.DataError
	assert.ErrorAs(t, err, &de)
}

func TestConditionRejectsNonPositiveFrameRate(t *testing.T) {
	c := NewConditioner()
	_, _, err := c.Condition([]float64{1, 2}, []float64{1, 2}, 0)
	assert.Error(t, err)
}

func TestConditionProducesCleanSignals(t *testing.T) {
	c := NewConditioner()

	n := 300
	left := make([]float64, n)
	right := make([]float64, n)
	for i := 0; i < n; i++ {
		left[i] = 1.5 + 0.5*math.Sin(2*math.Pi*float64(i)/100)
		right[i] = 1.5 - 0.5*math.Sin(2*math.Pi*float64(i)/100)
	}
	// Knock out a handful of detections.
	for _, i := range []int{40, 41, 150, 260} {
		left[i] = math.NaN()
		right[i] = math.NaN()
	}

	fl, fr, err := c.Condition(left, right, 30)
	require.NoError(t, err)
	require.Len(t, fl, n)
	require.Len(t, fr, n)
	assert.False(t, floats.HasNaN(fl))
	assert.False(t, floats.HasNaN(fr))

	// The gait-band sine sits inside the passband; the filtered signal keeps
	// its mean and most of its swing.
	assert.InDelta(t, 1.5, floats.Sum(fl)/float64(n), 0.05)
	assert.Greater(t, floats.Max(fl)-floats.Min(fl), 0.5)
}

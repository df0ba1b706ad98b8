package gait

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gait-backend/internal/errs"
	"gait-backend/internal/signal"
)

// Runs the conditioning, detection and calculation stages together on a
// clean antiphase walk: two sinusoidal distance signals 180 degrees out of
// phase, 300 frames at 30 fps.
func TestSinusoidalWalkThroughPipeline(t *testing.T) {
	n := 300
	frameRate := 30.0
	left := make([]float64, n)
	right := make([]float64, n)
	for i := 0; i < n; i++ {
		left[i] = 1.5 + 0.5*math.Sin(2*math.Pi*float64(i)/60)
		right[i] = 1.5 - 0.5*math.Sin(2*math.Pi*float64(i)/60)
	}

	fl, fr, err := signal.NewConditioner().Condition(left, right, frameRate)
	require.NoError(t, err)

	ev := signal.NewDetector().Detect(fl, fr, frameRate)
	assert.GreaterOrEqual(t, len(ev.PeaksLeft), 4)
	assert.GreaterOrEqual(t, len(ev.PeaksRight), 4)
	assert.Len(t, ev.MinimaLeft, len(ev.PeaksLeft))
	assert.Len(t, ev.MinimaRight, len(ev.PeaksRight))

	d := Calculate(ev, frameRate)
	for name, seq := range map[string][]float64{
		"stance left":         d.StanceLeft,
		"stance right":        d.StanceRight,
		"swing left":          d.SwingLeft,
		"swing right":         d.SwingRight,
		"step left":           d.StepLeft,
		"step right":          d.StepRight,
		"double support left": d.DoubleSupportLeft,
		"double support right": d.DoubleSupportRight,
	} {
		assert.NotEmpty(t, seq, "%s must resolve at least one cycle", name)
	}
	// One full cycle spans 2s on each side.
	assert.InDelta(t, 2.0, d.StepLeft[0], 0.1)

	table, err := AssembleTable(d)
	require.NoError(t, err)
	maxCycles := maxLen(
		d.StanceLeft, d.StanceRight, d.SwingLeft, d.SwingRight,
		d.StepLeft, d.StepRight, d.DoubleSupportLeft, d.DoubleSupportRight,
	)
	assert.Len(t, table, maxCycles)
}

func TestFlatSignalYieldsNoMetrics(t *testing.T) {
	flat := make([]float64, 300)
	for i := range flat {
		flat[i] = 1.5
	}

	fl, fr, err := signal.NewConditioner().Condition(flat, flat, 30)
	require.NoError(t, err)

	ev := signal.NewDetector().Detect(fl, fr, 30)
	d := Calculate(ev, 30)
	_, err = AssembleTable(d)
	require.Error(t, err)
	var de *errs.DataError
	assert.ErrorAs(t, err, &de)
}

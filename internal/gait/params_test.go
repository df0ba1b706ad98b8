package gait

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gait-backend/internal/errs"
	"gait-backend/internal/models"
	"gait-backend/internal/signal"
)

func TestCalculateHandComputed(t *testing.T) {
	ev := signal.Events{
		PeaksLeft:   []int{10, 40, 70},
		MinimaLeft:  []int{25, 55, 85},
		PeaksRight:  []int{20, 50, 80},
		MinimaRight: []int{35, 65, 95},
	}
	d := Calculate(ev, 10)

	assert.Equal(t, []float64{1.5, 1.5, 1.5}, d.StanceLeft)
	assert.Equal(t, []float64{1.5, 1.5, 1.5}, d.StanceRight)
	// Toe-off at minima[i] to the next heel strike at peaks[i+1].
	assert.Equal(t, []float64{1.5, 1.5}, d.SwingLeft)
	assert.Equal(t, []float64{1.5, 1.5}, d.SwingRight)
	assert.Equal(t, []float64{3, 3}, d.StepLeft)
	assert.Equal(t, []float64{3, 3}, d.StepRight)
	// Left heel strike at 10 to the first right toe-off after it, at 35.
	assert.Equal(t, []float64{2.5, 2.5}, d.DoubleSupportLeft)
	assert.Equal(t, []float64{0.5, 0.5}, d.DoubleSupportRight)
}

func TestCalculateTruncatesGracefully(t *testing.T) {
	ev := signal.Events{
		PeaksLeft:  []int{90},
		MinimaLeft: []int{30},
	}
	d := Calculate(ev, 30)

	// The only peak has no later same-side minima: no stance cycle.
	assert.Empty(t, d.StanceLeft)
	assert.Empty(t, d.SwingLeft)
	assert.Empty(t, d.StepLeft)
	assert.Empty(t, d.DoubleSupportLeft)
	assert.Empty(t, d.StanceRight)
}

func TestAssembleTablePadsShortColumns(t *testing.T) {
	d := Durations{
		StanceLeft:  []float64{0.6, 0.7, 0.8},
		StanceRight: []float64{0.5},
		StepLeft:    []float64{1.1, 1.2},
	}
	table, err := AssembleTable(d)
	require.NoError(t, err)
	require.Len(t, table, 3)

	for i, row := range table {
		assert.Equal(t, i, row.MeasurementIndex)
	}

	require.NotNil(t, table[0].StanceTimeRight)
	assert.Equal(t, 0.5, *table[0].StanceTimeRight)
	assert.Nil(t, table[1].StanceTimeRight)
	assert.Nil(t, table[2].StanceTimeRight)

	require.NotNil(t, table[1].StepTimeLeft)
	assert.Equal(t, 1.2, *table[1].StepTimeLeft)
	assert.Nil(t, table[2].StepTimeLeft)

	// Columns with no cycles at all are null the whole way down.
	for _, row := range table {
		assert.Nil(t, row.SwingTimeLeft)
		assert.Nil(t, row.DoubleSupportTimeRight)
	}
}

func TestAssembleTableEmptyIsError(t *testing.T) {
	_, err := AssembleTable(Durations{})
	require.Error(t, err)
	var de *errs.DataError
	assert.ErrorAs(t, err, &de)
}

func TestTableStats(t *testing.T) {
	one, two, three := 1.0, 2.0, 3.0
	metrics := []models.GaitMetric{
		{StanceTimeLeft: &one, StepTimeLeft: &one},
		{StanceTimeLeft: &two},
		{StanceTimeLeft: &three},
	}

	stats := TableStats(metrics)

	assert.Equal(t, 2.0, stats["stance_time_left"].Average)
	assert.Equal(t, 1.0, stats["stance_time_left"].StdDev)

	// A single value has an average but no deviation.
	assert.Equal(t, 1.0, stats["step_time_left"].Average)
	assert.Equal(t, 0.0, stats["step_time_left"].StdDev)

	// Fully padded columns report zeros.
	assert.Equal(t, ColumnStats{}, stats["swing_time_right"])
}

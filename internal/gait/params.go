package gait

import (
	"gait-backend/internal/errs"
	"gait-backend/internal/models"
	"gait-backend/internal/signal"
)

// Durations holds the eight per-cycle duration sequences in seconds. The
// sequences are independently sized; different metrics resolve different
// numbers of complete cycles.
type Durations struct {
	StanceLeft         []float64
	StanceRight        []float64
	SwingLeft          []float64
	SwingRight         []float64
	StepLeft           []float64
	StepRight          []float64
	DoubleSupportLeft  []float64
	DoubleSupportRight []float64
}

// Calculate derives all duration sequences from the detected events.
// Sequences truncate gracefully when one event stream runs out; empty
// sequences are valid here and only the assembled table is validated.
func Calculate(ev signal.Events, frameRate float64) Durations {
	return Durations{
		StanceLeft:         stanceTimes(ev.PeaksLeft, ev.MinimaLeft, frameRate),
		StanceRight:        stanceTimes(ev.PeaksRight, ev.MinimaRight, frameRate),
		SwingLeft:          swingTimes(ev.PeaksLeft, ev.MinimaLeft, frameRate),
		SwingRight:         swingTimes(ev.PeaksRight, ev.MinimaRight, frameRate),
		StepLeft:           stepTimes(ev.PeaksLeft, frameRate),
		StepRight:          stepTimes(ev.PeaksRight, frameRate),
		DoubleSupportLeft:  doubleSupportTimes(ev.PeaksLeft, ev.MinimaRight, frameRate),
		DoubleSupportRight: doubleSupportTimes(ev.PeaksRight, ev.MinimaLeft, frameRate),
	}
}

// stanceTimes measures heel strike to the first subsequent toe-off on the
// same side. Peaks with no later minima emit no cycle.
func stanceTimes(peaks, minima []int, frameRate float64) []float64 {
	var times []float64
	for _, p := range peaks {
		if m, ok := firstAfter(minima, p); ok {
			times = append(times, float64(m-p)/frameRate)
		}
	}
	return times
}

// swingTimes measures toe-off to the next heel strike, pairing minima[i]
// with peaks[i+1]. The count truncates to whichever stream runs out first.
func swingTimes(peaks, minima []int, frameRate float64) []float64 {
	n := min(len(minima), len(peaks)) - 1
	if n < 0 {
		n = 0
	}
	times := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		times = append(times, float64(peaks[i+1]-minima[i])/frameRate)
	}
	return times
}

// stepTimes measures consecutive same-side heel-strike intervals. Fewer
// than two peaks yields zero cycles, not an error.
func stepTimes(peaks []int, frameRate float64) []float64 {
	var times []float64
	for i := 0; i+1 < len(peaks); i++ {
		times = append(times, float64(peaks[i+1]-peaks[i])/frameRate)
	}
	return times
}

// doubleSupportTimes measures a heel strike on one side to the first
// subsequent toe-off on the opposite side. The final peak is excluded as a
// boundary case: its opposite toe-off may fall past the recording.
func doubleSupportTimes(peaks, oppositeMinima []int, frameRate float64) []float64 {
	var times []float64
	for i := 0; i+1 < len(peaks); i++ {
		if m, ok := firstAfter(oppositeMinima, peaks[i]); ok {
			times = append(times, float64(m-peaks[i])/frameRate)
		}
	}
	return times
}

// firstAfter returns the first value in sorted events strictly greater
// than frame.
func firstAfter(events []int, frame int) (int, bool) {
	for _, e := range events {
		if e > frame {
			return e, true
		}
	}
	return 0, false
}

// AssembleTable builds the rectangular metrics table. Row count equals the
// longest sequence; shorter sequences are right-padded with nulls. Row i is
// a positional alignment for storage and display, not a per-cycle
// correspondence across columns; consumers rely on exactly this padding.
// An empty table means no usable gait cycles and is a DataError.
func AssembleTable(d Durations) ([]models.GaitMetric, error) {
	rows := maxLen(
		d.StanceLeft, d.StanceRight,
		d.SwingLeft, d.SwingRight,
		d.StepLeft, d.StepRight,
		d.DoubleSupportLeft, d.DoubleSupportRight,
	)
	if rows == 0 {
		return nil, errs.NewDataError("no gait metrics generated", nil)
	}

	table := make([]models.GaitMetric, rows)
	for i := 0; i < rows; i++ {
		table[i] = models.GaitMetric{
			MeasurementIndex:       i,
			StanceTimeLeft:         cell(d.StanceLeft, i),
			StanceTimeRight:        cell(d.StanceRight, i),
			SwingTimeLeft:          cell(d.SwingLeft, i),
			SwingTimeRight:         cell(d.SwingRight, i),
			StepTimeLeft:           cell(d.StepLeft, i),
			StepTimeRight:          cell(d.StepRight, i),
			DoubleSupportTimeLeft:  cell(d.DoubleSupportLeft, i),
			DoubleSupportTimeRight: cell(d.DoubleSupportRight, i),
		}
	}
	return table, nil
}

func cell(seq []float64, i int) *float64 {
	if i >= len(seq) {
		return nil
	}
	v := seq[i]
	return &v
}

func maxLen(seqs ...[]float64) int {
	m := 0
	for _, s := range seqs {
		if len(s) > m {
			m = len(s)
		}
	}
	return m
}

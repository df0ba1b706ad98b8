package signal

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"

	"gait-backend/internal/errs"
)

// Conditioner turns gap-prone per-side distance signals into fully
// populated, low-pass-filtered sequences of the same length. Missing samples
// are represented as NaN in the input.
type Conditioner struct {
	// FilterOrder and Cutoff parameterize the Butterworth low-pass stage.
	// Cutoff is expressed relative to a Nyquist frequency of
	// (sequence length / frame rate) / 2.
	FilterOrder int
	Cutoff      float64
}

// NewConditioner returns a conditioner with the clinical defaults.
func NewConditioner() *Conditioner {
	return &Conditioner{FilterOrder: 10, Cutoff: 0.1752}
}

// Condition gap-fills and filters both sides. The outputs preserve the input
// length and are guaranteed NaN-free; any NaN after filtering is a DataError.
func (c *Conditioner) Condition(left, right []float64, frameRate float64) ([]float64, []float64, error) {
	if len(left) != len(right) {
		return nil, nil, errs.NewDataError("left and right distance signals differ in length", nil)
	}
	if frameRate <= 0 {
		return nil, nil, errs.NewDataError("frame rate must be positive", nil)
	}

	filledLeft, err := gapFill(left)
	if err != nil {
		return nil, nil, err
	}
	filledRight, err := gapFill(right)
	if err != nil {
		return nil, nil, err
	}

	nyquist := (float64(len(left)) / frameRate) / 2
	normalCutoff := c.Cutoff / nyquist
	sos, err := butterLowPass(c.FilterOrder, normalCutoff)
	if err != nil {
		return nil, nil, errs.NewDataError("low-pass filter design failed", err)
	}

	filteredLeft, err := sosFiltFilt(sos, filledLeft)
	if err != nil {
		return nil, nil, errs.NewDataError("low-pass filtering failed", err)
	}
	filteredRight, err := sosFiltFilt(sos, filledRight)
	if err != nil {
		return nil, nil, errs.NewDataError("low-pass filtering failed", err)
	}

	if floats.HasNaN(filteredLeft) || floats.HasNaN(filteredRight) {
		return nil, nil, errs.NewDataError("NaN values detected in filtered distances", nil)
	}
	return filteredLeft, filteredRight, nil
}

// gapFill reconstructs missing samples with a natural cubic spline over the
// frame index. Outside the first and last known samples the fill continues
// linearly at the spline's boundary slope. Fewer than 2 known samples leaves
// nothing to interpolate from and is a DataError.
func gapFill(x []float64) ([]float64, error) {
	xs := make([]float64, 0, len(x))
	ys := make([]float64, 0, len(x))
	for i, v := range x {
		if !math.IsNaN(v) {
			xs = append(xs, float64(i))
			ys = append(ys, v)
		}
	}
	if len(xs) < 2 {
		return nil, errs.NewDataError("insufficient samples for gap interpolation", nil)
	}

	out := make([]float64, len(x))
	if len(xs) == len(x) {
		copy(out, x)
		return out, nil
	}

	var spline interp.NaturalCubic
	if err := spline.Fit(xs, ys); err != nil {
		return nil, errs.NewDataError("cubic interpolation failed", err)
	}

	lo, hi := xs[0], xs[len(xs)-1]
	for i, v := range x {
		if !math.IsNaN(v) {
			out[i] = v
			continue
		}
		fi := float64(i)
		switch {
		case fi < lo:
			out[i] = spline.Predict(lo) + spline.PredictDerivative(lo)*(fi-lo)
		case fi > hi:
			out[i] = spline.Predict(hi) + spline.PredictDerivative(hi)*(fi-hi)
		default:
			out[i] = spline.Predict(fi)
		}
	}
	return out, nil
}

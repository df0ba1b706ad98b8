package signal

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/floats"
)

// biquad is one second-order filter section (denominator normalized to 1).
type biquad struct {
	b0, b1, b2 float64
	a1, a2     float64
}

// butterLowPass designs an even-order Butterworth low-pass filter as a
// cascade of biquad sections. cutoff is normalized to the Nyquist frequency
// (0 < cutoff < 1). Cascaded sections keep the design usable at the very low
// normalized cutoffs this pipeline produces, where a single high-order
// polynomial loses precision.
func butterLowPass(order int, cutoff float64) ([]biquad, error) {
	if order < 2 || order%2 != 0 {
		return nil, fmt.Errorf("filter order must be a positive even number, got %d", order)
	}
	if cutoff <= 0 || cutoff >= 1 {
		return nil, fmt.Errorf("normalized cutoff must be in (0, 1), got %g", cutoff)
	}

	const fs = 2.0
	warped := 2 * fs * math.Tan(math.Pi*cutoff/fs)

	sections := make([]biquad, 0, order/2)
	for k := 0; k < order/2; k++ {
		// One analog pole per conjugate pair, spread on the left half of
		// the Butterworth circle, then mapped with the bilinear transform.
		angle := math.Pi * float64(2*k+order+1) / float64(2*order)
		pa := complex(warped*math.Cos(angle), warped*math.Sin(angle))
		zd := (complex(2*fs, 0) + pa) / (complex(2*fs, 0) - pa)

		a1 := -2 * real(zd)
		a2 := real(zd)*real(zd) + imag(zd)*imag(zd)
		if cmplx.IsNaN(zd) || a2 >= 1 {
			return nil, fmt.Errorf("unstable filter section for cutoff %g", cutoff)
		}

		// Zeros at z = -1; gain fixed so each section has unit DC response.
		g := (1 + a1 + a2) / 4
		sections = append(sections, biquad{b0: g, b1: 2 * g, b2: g, a1: a1, a2: a2})
	}
	return sections, nil
}

// steadyState returns the direct-form-II-transposed state that makes the
// section's step response start in steady state for a unit input level.
func (s biquad) steadyState() (float64, float64) {
	det := 1 + s.a1 + s.a2
	bb0 := s.b1 - s.a1*s.b0
	bb1 := s.b2 - s.a2*s.b0
	z0 := (bb0 + bb1) / det
	z1 := ((1+s.a1)*bb1 - s.a2*bb0) / det
	return z0, z1
}

// apply filters x through the section in place of dst, starting from the
// given state scaled by level.
func (s biquad) apply(dst, x []float64, level float64) {
	z0, z1 := s.steadyState()
	z0 *= level
	z1 *= level
	for i, v := range x {
		out := s.b0*v + z0
		z0 = s.b1*v + z1 - s.a1*out
		z1 = s.b2*v - s.a2*out
		dst[i] = out
	}
}

func cascade(sos []biquad, x []float64) []float64 {
	y := make([]float64, len(x))
	copy(y, x)
	for _, s := range sos {
		// Every section has unit DC gain, so the incoming signal level is
		// the right scale for its initial state.
		s.apply(y, y, y[0])
	}
	return y
}

// sosFiltFilt applies the cascade forward and backward, so the combined
// response has zero phase and event timing is not shifted by group delay.
// The signal is extended at both ends by odd reflection before filtering.
func sosFiltFilt(sos []biquad, x []float64) ([]float64, error) {
	n := len(x)
	padlen := 3 * (2*len(sos) + 1)
	if padlen >= n {
		padlen = n - 1
	}
	if n < 2 {
		return nil, fmt.Errorf("signal of length %d is too short to filter", n)
	}

	ext := oddExt(x, padlen)
	y := cascade(sos, ext)
	floats.Reverse(y)
	y = cascade(sos, y)
	floats.Reverse(y)

	out := make([]float64, n)
	copy(out, y[padlen:padlen+n])
	return out, nil
}

// oddExt extends x by padlen samples on both ends, reflecting values about
// the boundary points so the extension is continuous in value and slope.
func oddExt(x []float64, padlen int) []float64 {
	n := len(x)
	ext := make([]float64, 0, n+2*padlen)
	for i := padlen; i >= 1; i-- {
		ext = append(ext, 2*x[0]-x[i])
	}
	ext = append(ext, x...)
	for i := 1; i <= padlen; i++ {
		ext = append(ext, 2*x[n-1]-x[n-1-i])
	}
	return ext
}

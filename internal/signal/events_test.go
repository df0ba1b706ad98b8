package signal

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindPeaksSimple(t *testing.T) {
	x := []float64{0, 1, 0, 2, 0, 3, 0}
	peaks := FindPeaks(x, 0)
	assert.Equal(t, []int{1, 3, 5}, peaks)
}

func TestFindPeaksPlateauMidpoint(t *testing.T) {
	x := []float64{0, 1, 1, 1, 0}
	peaks := FindPeaks(x, 0)
	assert.Equal(t, []int{2}, peaks)
}

func TestFindPeaksFlatSignal(t *testing.T) {
	x := []float64{1, 1, 1, 1, 1}
	assert.Empty(t, FindPeaks(x, 0))
}

func TestFindPeaksIgnoresBoundaries(t *testing.T) {
	// Highest samples sit at the ends; only the interior bump counts.
	x := []float64{5, 0, 1, 0, 5}
	peaks := FindPeaks(x, 0)
	assert.Equal(t, []int{2}, peaks)
}

func TestFindPeaksDistanceKeepsHigher(t *testing.T) {
	x := []float64{0, 1, 0, 2, 0}
	peaks := FindPeaks(x, 3)
	assert.Equal(t, []int{3}, peaks, "of two peaks within the floor the higher survives")
}

func TestFindPeaksDistanceFarApartBothKept(t *testing.T) {
	x := []float64{0, 1, 0, 0, 0, 2, 0}
	peaks := FindPeaks(x, 3)
	assert.Equal(t, []int{1, 5}, peaks)
}

func TestDetectSinusoidCounts(t *testing.T) {
	n := 300
	frameRate := 30.0
	left := make([]float64, n)
	right := make([]float64, n)
	for i := 0; i < n; i++ {
		// Period 60 frames = 2s per cycle, well above the 0.8s floor.
		left[i] = 1.5 + 0.5*math.Sin(2*math.Pi*float64(i)/60)
		right[i] = 1.5 - 0.5*math.Sin(2*math.Pi*float64(i)/60)
	}

	d := NewDetector()
	ev := d.Detect(left, right, frameRate)

	assert.Equal(t, []int{15, 75, 135, 195, 255}, ev.PeaksLeft)
	assert.Equal(t, []int{45, 105, 165, 225, 285}, ev.MinimaLeft)
	// Antiphase: right peaks where left bottoms out.
	assert.Equal(t, ev.MinimaLeft, ev.PeaksRight)
	assert.Equal(t, ev.PeaksLeft, ev.MinimaRight)
}

func TestDetectSeparationFloor(t *testing.T) {
	n := 300
	frameRate := 30.0
	x := make([]float64, n)
	for i := 0; i < n; i++ {
		// Period 12 frames = 0.4s per cycle, below the 0.8s floor: thinning
		// must leave no two peaks closer than 24 frames.
		x[i] = math.Sin(2 * math.Pi * float64(i) / 12)
	}

	d := NewDetector()
	ev := d.Detect(x, x, frameRate)
	minDist := int(math.Ceil(d.MinSeparation * frameRate))
	for i := 1; i < len(ev.PeaksLeft); i++ {
		assert.GreaterOrEqual(t, ev.PeaksLeft[i]-ev.PeaksLeft[i-1], minDist)
	}
	require.NotEmpty(t, ev.PeaksLeft)
}

func TestDetectPeaksAndMinimaNeverOverlap(t *testing.T) {
	n := 300
	x := make([]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		x[i] = math.Sin(2*math.Pi*float64(i)/60) + 0.3*math.Sin(2*math.Pi*float64(i)/37)
		y[i] = math.Cos(2 * math.Pi * float64(i) / 80)
	}

	d := NewDetector()
	ev := d.Detect(x, y, 30)

	overlap := func(peaks, minima []int) {
		seen := make(map[int]bool, len(peaks))
		for _, p := range peaks {
			seen[p] = true
		}
		for _, m := range minima {
			assert.False(t, seen[m], "frame %d is both peak and minima", m)
		}
	}
	overlap(ev.PeaksLeft, ev.MinimaLeft)
	overlap(ev.PeaksRight, ev.MinimaRight)
}

func TestDetectEmptyOnFlat(t *testing.T) {
	flat := make([]float64, 100)
	d := NewDetector()
	ev := d.Detect(flat, flat, 30)
	assert.Empty(t, ev.PeaksLeft)
	assert.Empty(t, ev.PeaksRight)
	assert.Empty(t, ev.MinimaLeft)
	assert.Empty(t, ev.MinimaRight)
}

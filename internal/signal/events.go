package signal

import (
	"math"
	"sort"
)

// Events holds the detected gait-event frame indices for both sides, each
// sequence sorted ascending. Left/right streams carry no mutual ordering.
type Events struct {
	PeaksLeft   []int
	PeaksRight  []int
	MinimaLeft  []int
	MinimaRight []int
}

// Detector locates heel-strike peaks and toe-off minima in the filtered
// distance signals.
type Detector struct {
	// MinSeparation is the smallest plausible interval in seconds between
	// two same-polarity events on one side. Faster cadences are not
	// resolved as distinct events.
	MinSeparation float64
}

// NewDetector returns a detector with the default 0.8s separation floor.
func NewDetector() *Detector {
	return &Detector{MinSeparation: 0.8}
}

// Detect returns peak and minima indices per side. Zero events on a side is
// a valid outcome and yields empty sequences.
func (d *Detector) Detect(left, right []float64, frameRate float64) Events {
	minDist := d.MinSeparation * frameRate
	return Events{
		PeaksLeft:   FindPeaks(left, minDist),
		PeaksRight:  FindPeaks(right, minDist),
		MinimaLeft:  FindPeaks(negate(left), minDist),
		MinimaRight: FindPeaks(negate(right), minDist),
	}
}

// FindPeaks returns the indices of local maxima of x whose pairwise index
// distance is at least minDist frames. Plateaus report their midpoint. When
// two candidates are closer than minDist, the higher one wins.
func FindPeaks(x []float64, minDist float64) []int {
	peaks, heights := localMaxima(x)
	if minDist > 1 && len(peaks) > 1 {
		peaks = selectByDistance(peaks, heights, int(math.Ceil(minDist)))
	}
	return peaks
}

func localMaxima(x []float64) ([]int, []float64) {
	var peaks []int
	var heights []float64
	i := 1
	for i < len(x)-1 {
		if x[i-1] >= x[i] {
			i++
			continue
		}
		// Walk over a potential plateau to the next differing sample.
		ahead := i + 1
		for ahead < len(x)-1 && x[ahead] == x[i] {
			ahead++
		}
		if x[ahead] < x[i] {
			mid := (i + ahead - 1) / 2
			peaks = append(peaks, mid)
			heights = append(heights, x[mid])
			i = ahead
			continue
		}
		i = ahead
	}
	return peaks, heights
}

// selectByDistance thins peaks closer than minDist frames, keeping the
// higher peak of any conflicting pair. Peaks are visited from highest to
// lowest so a kept peak always suppresses its lower neighbors.
func selectByDistance(peaks []int, heights []float64, minDist int) []int {
	order := make([]int, len(peaks))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return heights[order[a]] > heights[order[b]]
	})

	keep := make([]bool, len(peaks))
	for i := range keep {
		keep[i] = true
	}
	for _, j := range order {
		if !keep[j] {
			continue
		}
		for k := j - 1; k >= 0 && peaks[j]-peaks[k] < minDist; k-- {
			keep[k] = false
		}
		for k := j + 1; k < len(peaks) && peaks[k]-peaks[j] < minDist; k++ {
			keep[k] = false
		}
	}

	kept := peaks[:0:0]
	for i, p := range peaks {
		if keep[i] {
			kept = append(kept, p)
		}
	}
	return kept
}

func negate(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = -v
	}
	return out
}

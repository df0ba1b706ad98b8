package pose

import (
	"context"
	"math"
)

// MediaPipe pose-landmark indices used for the hip-to-foot distance proxy.
const (
	LeftHip        = 23
	RightHip       = 24
	LeftFootIndex  = 31
	RightFootIndex = 32
)

// Keypoint is one 3D body landmark in normalized image coordinates.
type Keypoint struct {
	X, Y, Z float64
}

// Frame is the landmark result for one video frame. Detected is false when
// the estimator found no subject in the frame; Keypoints is empty then.
type Frame struct {
	Detected  bool
	Keypoints []Keypoint
}

// Extractor is the external pose-estimation capability: it decodes a local
// video file and yields one Frame per video frame (0-based, contiguous)
// plus the container frame rate.
type Extractor interface {
	Extract(ctx context.Context, videoPath string) ([]Frame, float64, error)
}

// Annotator is the external rendering capability that draws landmark
// overlays onto the video and returns the path of the annotated local copy.
type Annotator interface {
	Annotate(ctx context.Context, videoPath string, frames []Frame) (string, error)
}

// Distances derives the two per-side hip-to-foot distance signals from the
// landmark frames. Frames without a detection become NaN samples, to be
// reconstructed by the signal conditioner.
func Distances(frames []Frame) (left, right []float64) {
	left = make([]float64, len(frames))
	right = make([]float64, len(frames))
	for i, f := range frames {
		if !f.Detected || len(f.Keypoints) <= RightFootIndex {
			left[i] = math.NaN()
			right[i] = math.NaN()
			continue
		}
		left[i] = euclidean(f.Keypoints[LeftHip], f.Keypoints[LeftFootIndex])
		right[i] = euclidean(f.Keypoints[RightHip], f.Keypoints[RightFootIndex])
	}
	return left, right
}

func euclidean(a, b Keypoint) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	dz := a.Z - b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

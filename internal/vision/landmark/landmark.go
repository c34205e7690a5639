package landmark

import (
	"context"

	"github.com/okieraised/fatigue-agent/internal/vision"
)

// Point is a single normalized face-mesh keypoint. X and Y are in pixel
// coordinates of the source frame; Z is the provider's relative depth and may
// be zero for 2-D providers.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Face-mesh landmark indices following the MediaPipe FaceMesh convention.
// Each slice is ordered for the aspect-ratio formulas:
// eyes as [p1 outer, p2 top-outer, p3 top-inner, p4 inner, p5 bottom-inner, p6 bottom-outer],
// mouth as [left corner, upper-left, upper-right, right corner, lower-right, lower-left].
var (
	LeftEyeIndices  = [6]int{33, 160, 158, 133, 153, 144}
	RightEyeIndices = [6]int{362, 385, 387, 263, 373, 380}
	MouthIndices    = [6]int{61, 81, 311, 291, 402, 178}
)

// Pose-reference indices (nose tip, chin, eye outer corners, mouth corners).
var (
	NoseTipIndex       = 1
	ChinIndex          = 152
	LeftEyeCornerIdx   = 33
	RightEyeCornerIdx  = 263
	LeftMouthCornerIdx = 61
	RightMouthCornerIx = 291
)

// Set is a fixed-size ordered collection of face keypoints produced by a
// Provider for exactly one frame. It is read-only after creation.
type Set struct {
	Points []Point `json:"points"`

	// Confidence is the provider's aggregate detection confidence in [0, 1].
	Confidence float64 `json:"confidence"`

	// BoxWidth/BoxHeight is the face bounding box in pixels.
	BoxWidth  float64 `json:"box_width"`
	BoxHeight float64 `json:"box_height"`

	// Seq back-references the source frame by sequence number.
	Seq uint64 `json:"seq"`
}

// Subset copies the points at the given indices, in order.
// Returns false when any index is out of range.
func (s *Set) Subset(indices [6]int) ([6]Point, bool) {
	var out [6]Point
	for i, idx := range indices {
		if idx < 0 || idx >= len(s.Points) {
			return out, false
		}
		out[i] = s.Points[idx]
	}
	return out, true
}

// At returns the point at idx, or a zero point and false when out of range.
func (s *Set) At(idx int) (Point, bool) {
	if idx < 0 || idx >= len(s.Points) {
		return Point{}, false
	}
	return s.Points[idx], true
}

// Provider abstracts the external face-mesh model. Implementations must
// return (nil, nil) when no face is found and keep landmark indexing stable
// across calls.
type Provider interface {
	Detect(ctx context.Context, frame *vision.Frame) (*Set, error)
	Close() error
}

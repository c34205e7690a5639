// Package metrics computes per-frame fatigue indicators from a landmark set:
// eye aspect ratio (EAR), mouth aspect ratio (MAR) and head pitch.
// All computation here is pure; failures mark the sample unusable instead of
// being retried.
package metrics

import (
	"math"
	"time"

	"github.com/okieraised/fatigue-agent/internal/vision"
	"github.com/okieraised/fatigue-agent/internal/vision/landmark"
)

// stabilityEpsilon guards the aspect-ratio denominators. A horizontal span
// below this many pixels means the geometry is degenerate.
const stabilityEpsilon = 1e-6

// Per-eye EAR values outside this window get a reduced weight in the
// aggregate confidence (one eye occluded or mis-tracked).
const (
	earPlausibleMin = 0.1
	earPlausibleMax = 0.5
)

// Sample is the deterministic per-frame metric derivation. Never mutated
// after creation.
type Sample struct {
	Timestamp    time.Time `json:"timestamp"`
	Seq          uint64    `json:"seq"`
	EAR          float64   `json:"ear"`
	MAR          float64   `json:"mar"`
	HeadPitchDeg float64   `json:"head_pitch_deg"`
	Usable       bool      `json:"usable"`

	// EyeConfidence is 1.0 when both per-eye EARs are plausible, lowered
	// when one eye reads outside the plausible window.
	EyeConfidence float64 `json:"eye_confidence"`
}

func dist(a, b landmark.Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// aspectRatio implements (‖p2−p6‖ + ‖p3−p5‖) / (2·‖p1−p4‖) over six ordered
// points. Returns (0, false) when the horizontal span is below epsilon.
func aspectRatio(p [6]landmark.Point) (float64, bool) {
	horizontal := dist(p[0], p[3])
	if horizontal < stabilityEpsilon {
		return 0, false
	}
	v1 := dist(p[1], p[5])
	v2 := dist(p[2], p[4])
	return (v1 + v2) / (2 * horizontal), true
}

// EyeAspectRatio computes EAR for one eye from its six ordered landmarks.
func EyeAspectRatio(p [6]landmark.Point) (float64, bool) {
	return aspectRatio(p)
}

// MouthAspectRatio computes MAR from the six ordered inner-lip landmarks
// [cleft, u1, u2, cright, l2, l1].
func MouthAspectRatio(p [6]landmark.Point) (float64, bool) {
	return aspectRatio(p)
}

// Extractor derives a Sample from a landmark set. It reuses pose-solve
// scratch buffers, so a single Extractor must only be driven from one
// goroutine (the pipeline's processing stage).
type Extractor struct {
	pose *poseSolver
}

func NewExtractor() *Extractor {
	return &Extractor{pose: newPoseSolver()}
}

// Extract computes all three metrics for one frame. A sample with
// Usable=false carries zero metric values and must be skipped, not treated
// as normal, by the rule layer.
func (e *Extractor) Extract(frame *vision.Frame, set *landmark.Set) Sample {
	s := Sample{Timestamp: frame.Timestamp, Seq: frame.Seq}
	if set == nil {
		return s
	}

	left, okL := set.Subset(landmark.LeftEyeIndices)
	right, okR := set.Subset(landmark.RightEyeIndices)
	mouth, okM := set.Subset(landmark.MouthIndices)
	if !okL || !okR || !okM {
		return s
	}

	leftEAR, okL := EyeAspectRatio(left)
	rightEAR, okR := EyeAspectRatio(right)
	if !okL || !okR {
		return s
	}

	mar, okM := MouthAspectRatio(mouth)
	if !okM {
		return s
	}

	pitch, okP := e.pose.pitch(set, frame.Width, frame.Height)
	if !okP {
		return s
	}

	// Smaller eye wins: a one-sided squint-close must not be averaged away.
	s.EAR = math.Min(leftEAR, rightEAR)
	s.MAR = mar
	s.HeadPitchDeg = pitch
	s.EyeConfidence = eyeConfidence(leftEAR, rightEAR)
	s.Usable = true
	return s
}

func eyeConfidence(left, right float64) float64 {
	conf := 1.0
	if left < earPlausibleMin || left > earPlausibleMax {
		conf -= 0.15
	}
	if right < earPlausibleMin || right > earPlausibleMax {
		conf -= 0.15
	}
	return conf
}

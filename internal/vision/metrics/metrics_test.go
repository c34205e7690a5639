package metrics

import (
	"math"
	"testing"
	"time"

	"github.com/okieraised/fatigue-agent/internal/vision"
	"github.com/okieraised/fatigue-agent/internal/vision/landmark"
	"github.com/stretchr/testify/assert"
)

func TestEyeAspectRatioKnownGeometry(t *testing.T) {
	// Horizontal span 40, both vertical gaps 6: EAR = 12 / 80 = 0.15.
	p := [6]landmark.Point{
		{X: 100, Y: 200},
		{X: 110, Y: 197},
		{X: 130, Y: 197},
		{X: 140, Y: 200},
		{X: 130, Y: 203},
		{X: 110, Y: 203},
	}
	ear, ok := EyeAspectRatio(p)
	assert.True(t, ok)
	assert.InDelta(t, 0.15, ear, 1e-9)
}

func TestAspectRatioDegenerateSpan(t *testing.T) {
	var p [6]landmark.Point // all points coincide
	_, ok := EyeAspectRatio(p)
	assert.False(t, ok)
}

func TestMouthAspectRatioKnownGeometry(t *testing.T) {
	// Span 200, gaps 60 and 80: MAR = 140 / 400 = 0.35.
	p := [6]landmark.Point{
		{X: 200, Y: 300},
		{X: 250, Y: 270},
		{X: 350, Y: 260},
		{X: 400, Y: 300},
		{X: 350, Y: 340},
		{X: 250, Y: 330},
	}
	mar, ok := MouthAspectRatio(p)
	assert.True(t, ok)
	assert.InDelta(t, 0.35, mar, 1e-9)
}

func TestEyeConfidencePenalizesImplausibleReads(t *testing.T) {
	assert.InDelta(t, 1.0, eyeConfidence(0.15, 0.30), 1e-9)
	assert.InDelta(t, 0.85, eyeConfidence(0.05, 0.30), 1e-9)
	assert.InDelta(t, 0.70, eyeConfidence(0.05, 0.80), 1e-9)
}

// posePoints projects the canonical model pitched about the camera x axis,
// one model-depth-unit scale at 1000 in front of the pinhole.
func posePoints(width, height int, pitchDeg float64) []landmark.Point {
	f := float64(width)
	cx, cy := float64(width)/2, float64(height)/2
	rad := pitchDeg * math.Pi / 180
	c, s := math.Cos(rad), math.Sin(rad)

	points := make([]landmark.Point, 468)
	indices := [6]int{
		landmark.NoseTipIndex,
		landmark.ChinIndex,
		landmark.LeftEyeCornerIdx,
		landmark.RightEyeCornerIdx,
		landmark.LeftMouthCornerIdx,
		landmark.RightMouthCornerIx,
	}
	for i, idx := range indices {
		m := faceModel[i]
		x := m[0]
		y := c*m[1] - s*m[2]
		z := s*m[1] + c*m[2] + 1000
		points[idx] = landmark.Point{X: cx + f*x/z, Y: cy + f*y/z}
	}
	return points
}

func TestPoseSolverRecoversPitch(t *testing.T) {
	const w, h = 640, 480
	solver := newPoseSolver()

	for _, want := range []float64{0, 12, 25, -18} {
		set := &landmark.Set{Points: posePoints(w, h, want)}
		got, ok := solver.pitch(set, w, h)
		assert.True(t, ok, "pitch %v", want)
		assert.InDelta(t, want, got, 1.0, "pitch %v", want)
	}
}

func TestPoseSolverRejectsMissingLandmarks(t *testing.T) {
	solver := newPoseSolver()
	set := &landmark.Set{Points: make([]landmark.Point, 10)}
	_, ok := solver.pitch(set, 640, 480)
	assert.False(t, ok)
}

func buildFaceSet(width, height int, ear, mar float64) *landmark.Set {
	points := posePoints(width, height, 0)

	layoutEye := func(indices [6]int, left landmark.Point) {
		const span = 40.0
		v := ear * span
		points[indices[0]] = left
		points[indices[3]] = landmark.Point{X: left.X + span, Y: left.Y}
		points[indices[1]] = landmark.Point{X: left.X + 10, Y: left.Y - v/2}
		points[indices[2]] = landmark.Point{X: left.X + 30, Y: left.Y - v/2}
		points[indices[4]] = landmark.Point{X: left.X + 30, Y: left.Y + v/2}
		points[indices[5]] = landmark.Point{X: left.X + 10, Y: left.Y + v/2}
	}
	lc := points[landmark.LeftEyeCornerIdx]
	rc := points[landmark.RightEyeCornerIdx]
	layoutEye(landmark.LeftEyeIndices, lc)
	layoutEye(landmark.RightEyeIndices, landmark.Point{X: rc.X - 40, Y: rc.Y})

	left := points[landmark.LeftMouthCornerIdx]
	right := points[landmark.RightMouthCornerIx]
	span := right.X - left.X
	v := mar * span
	midY := (left.Y + right.Y) / 2
	points[landmark.MouthIndices[1]] = landmark.Point{X: left.X + span/4, Y: midY - v/2}
	points[landmark.MouthIndices[2]] = landmark.Point{X: left.X + 3*span/4, Y: midY - v/2}
	points[landmark.MouthIndices[4]] = landmark.Point{X: left.X + 3*span/4, Y: midY + v/2}
	points[landmark.MouthIndices[5]] = landmark.Point{X: left.X + span/4, Y: midY + v/2}

	return &landmark.Set{Points: points, Confidence: 0.95, BoxWidth: 200, BoxHeight: 200}
}

func TestExtractorDerivesUsableSample(t *testing.T) {
	const w, h = 640, 480
	e := NewExtractor()
	frame := &vision.Frame{Width: w, Height: h, Seq: 7, Timestamp: time.Now()}

	s := e.Extract(frame, buildFaceSet(w, h, 0.15, 0.2))
	assert.True(t, s.Usable)
	assert.Equal(t, uint64(7), s.Seq)
	assert.InDelta(t, 0.15, s.EAR, 1e-9)
	assert.InDelta(t, 0.2, s.MAR, 1e-9)
	assert.InDelta(t, 0, s.HeadPitchDeg, 1.0)
	assert.InDelta(t, 1.0, s.EyeConfidence, 1e-9)
}

func TestExtractorSmallerEyeWins(t *testing.T) {
	const w, h = 640, 480
	e := NewExtractor()
	frame := &vision.Frame{Width: w, Height: h, Timestamp: time.Now()}

	set := buildFaceSet(w, h, 0.30, 0.2)
	// Squeeze the right eye shut: halve its vertical gaps.
	for _, idx := range []int{landmark.RightEyeIndices[1], landmark.RightEyeIndices[2]} {
		set.Points[idx].Y += 3
	}
	for _, idx := range []int{landmark.RightEyeIndices[4], landmark.RightEyeIndices[5]} {
		set.Points[idx].Y -= 3
	}

	s := e.Extract(frame, set)
	assert.True(t, s.Usable)
	assert.Less(t, s.EAR, 0.30)
}

func TestExtractorUnusableOnMissingFace(t *testing.T) {
	e := NewExtractor()
	frame := &vision.Frame{Width: 640, Height: 480, Timestamp: time.Now()}

	s := e.Extract(frame, nil)
	assert.False(t, s.Usable)
	assert.Zero(t, s.EAR)

	s = e.Extract(frame, &landmark.Set{Points: make([]landmark.Point, 10)})
	assert.False(t, s.Usable)
}

package pipeline

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/okieraised/fatigue-agent/internal/detection/alert"
	"github.com/okieraised/fatigue-agent/internal/detection/profile"
	"github.com/okieraised/fatigue-agent/internal/vision"
	"github.com/okieraised/fatigue-agent/internal/vision/landmark"
	"github.com/okieraised/fatigue-agent/internal/vision/metrics"
	"github.com/okieraised/fatigue-agent/internal/vision/quality"
	"github.com/stretchr/testify/assert"
)

// scriptedSource replays a fixed frame list, then reports misses until the
// pipeline gives up on it. Timestamps are pre-assigned by the test.
type scriptedSource struct {
	frames []*vision.Frame
	idx    int
}

func (s *scriptedSource) NextFrame(time.Duration) (*vision.Frame, error) {
	if s.idx >= len(s.frames) {
		return nil, nil
	}
	f := s.frames[s.idx]
	s.idx++
	return f, nil
}

func (s *scriptedSource) Close() error { return nil }

type stubProvider struct {
	detect func(frame *vision.Frame) (*landmark.Set, error)
}

func (p *stubProvider) Detect(_ context.Context, frame *vision.Frame) (*landmark.Set, error) {
	return p.detect(frame)
}

func (p *stubProvider) Close() error { return nil }

type recordingSink struct {
	mu        sync.Mutex
	alerts    []*alert.Event
	samples   []metrics.Sample
	statuses  []Status
	snapshots []*alert.Event
}

func (r *recordingSink) PublishAlert(ev *alert.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, ev)
}

func (r *recordingSink) PublishSample(s metrics.Sample) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.samples = append(r.samples, s)
}

func (r *recordingSink) PublishStatus(st Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, st)
}

func (r *recordingSink) PublishSnapshot(ev *alert.Event, _ *vision.Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = append(r.snapshots, ev)
}

// permissiveGate accepts any frame that carries a face.
func permissiveGate() *quality.Gate {
	return quality.NewGate(quality.Thresholds{
		MinBrightness:   1e-9,
		MaxBrightness:   255,
		MinContrast:     1e-9,
		MinSharpness:    1e-9,
		MinConfidence:   1e-9,
		MinFaceFraction: 1e-9,
	})
}

// Canonical pose model mirrored by the metric extractor, millimetre scale.
var testFaceModel = [6][3]float64{
	{0, 0, 0},
	{0, -330, -65},
	{-225, 170, -135},
	{225, 170, -135},
	{-150, -150, -125},
	{150, -150, -125},
}

// syntheticFaceSet builds a full face-mesh landmark set whose pose points
// are exact pinhole projections of the canonical model pitched by pitchDeg,
// and whose eye/mouth points are laid out to hit the requested aspect
// ratios.
func syntheticFaceSet(width, height int, ear, mar, pitchDeg float64) *landmark.Set {
	f := float64(width)
	cx, cy := float64(width)/2, float64(height)/2
	rad := pitchDeg * math.Pi / 180
	c, s := math.Cos(rad), math.Sin(rad)

	project := func(m [3]float64) landmark.Point {
		x := m[0]
		y := c*m[1] - s*m[2]
		z := s*m[1] + c*m[2] + 1000
		return landmark.Point{X: cx + f*x/z, Y: cy + f*y/z}
	}

	points := make([]landmark.Point, 468)
	pose := [6]int{
		landmark.NoseTipIndex,
		landmark.ChinIndex,
		landmark.LeftEyeCornerIdx,
		landmark.RightEyeCornerIdx,
		landmark.LeftMouthCornerIdx,
		landmark.RightMouthCornerIx,
	}
	for i, idx := range pose {
		points[idx] = project(testFaceModel[i])
	}

	// Six eye points with horizontal span 40px and vertical openings sized
	// for the requested EAR. left is the left end of the horizontal axis.
	layoutEye := func(indices [6]int, left landmark.Point) {
		const span = 40.0
		v := ear * span // EAR = (v + v) / (2 * span)
		points[indices[0]] = left
		points[indices[3]] = landmark.Point{X: left.X + span, Y: left.Y}
		points[indices[1]] = landmark.Point{X: left.X + 10, Y: left.Y - v/2}
		points[indices[2]] = landmark.Point{X: left.X + 30, Y: left.Y - v/2}
		points[indices[4]] = landmark.Point{X: left.X + 30, Y: left.Y + v/2}
		points[indices[5]] = landmark.Point{X: left.X + 10, Y: left.Y + v/2}
	}
	// The pose corners (33 outer-left, 263 outer-right) must keep their
	// exact projections, so each eye is anchored on its corner.
	lc := points[landmark.LeftEyeCornerIdx]
	rc := points[landmark.RightEyeCornerIdx]
	layoutEye(landmark.LeftEyeIndices, lc)
	layoutEye(landmark.RightEyeIndices, landmark.Point{X: rc.X - 40, Y: rc.Y})

	// Inner-lip points spaced for the requested MAR over the projected
	// mouth-corner span.
	left := points[landmark.LeftMouthCornerIdx]
	right := points[landmark.RightMouthCornerIx]
	span := right.X - left.X
	v := mar * span
	midY := (left.Y + right.Y) / 2
	points[landmark.MouthIndices[1]] = landmark.Point{X: left.X + span/4, Y: midY - v/2}
	points[landmark.MouthIndices[2]] = landmark.Point{X: left.X + 3*span/4, Y: midY - v/2}
	points[landmark.MouthIndices[4]] = landmark.Point{X: left.X + 3*span/4, Y: midY + v/2}
	points[landmark.MouthIndices[5]] = landmark.Point{X: left.X + span/4, Y: midY + v/2}

	return &landmark.Set{
		Points:     points,
		Confidence: 0.95,
		BoxWidth:   200,
		BoxHeight:  200,
	}
}

func syntheticFrames(n, width, height int, interval time.Duration) []*vision.Frame {
	data := make([]byte, width*height)
	for i := range data {
		data[i] = byte((i * 31) % 251)
	}
	base := time.Now()
	frames := make([]*vision.Frame, n)
	for i := range frames {
		frames[i] = &vision.Frame{
			Data:      data,
			Width:     width,
			Height:    height,
			Timestamp: base.Add(time.Duration(i) * interval),
		}
	}
	return frames
}

func TestPipelineRaisesLowOnSustainedEyeClosure(t *testing.T) {
	const w, h = 640, 480
	frames := syntheticFrames(25, w, h, 100*time.Millisecond)
	closedEyes := syntheticFaceSet(w, h, 0.15, 0.2, 0)

	sink := &recordingSink{}
	p := New(
		Config{MaxCameraMisses: 2, DisplayCadence: 1},
		profile.Default(),
		&scriptedSource{frames: frames},
		&stubProvider{detect: func(*vision.Frame) (*landmark.Set, error) { return closedEyes, nil }},
		permissiveGate(),
		sink,
	)

	// The scripted source runs dry, so the run ends with a camera error.
	err := p.Run(context.Background())
	assert.Error(t, err)

	if assert.Len(t, sink.alerts, 1) {
		assert.Equal(t, alert.LevelLow, sink.alerts[0].Level)
		assert.Equal(t, alert.LevelNone, sink.alerts[0].Previous)
		assert.InDelta(t, 0.15, sink.alerts[0].EAR, 1e-6)
	}
	assert.Len(t, sink.samples, 25)

	snap := p.Stats()
	assert.Equal(t, uint64(25), snap.FramesSeen)
	assert.Equal(t, uint64(25), snap.FramesUsable)
	assert.Equal(t, uint64(2), snap.CameraMisses)
	assert.Equal(t, "LOW", snap.CurrentLevel)
	if len(sink.alerts) == 1 {
		assert.Equal(t, sink.alerts[0].Timestamp.UnixNano(), snap.LevelSince.UnixNano())
	}
	// The closure ran past the dwell, so it is an episode, not a blink.
	assert.Equal(t, uint64(0), snap.Blinks)
	assert.Equal(t, uint64(0), snap.Yawns)

	// Final status is always the stopped marker.
	if assert.NotEmpty(t, sink.statuses) {
		assert.Equal(t, SignalStopped, sink.statuses[len(sink.statuses)-1].State)
	}
}

func TestPipelineEscalatesToCriticalWithSnapshots(t *testing.T) {
	const w, h = 640, 480
	frames := syntheticFrames(50, w, h, 100*time.Millisecond)
	drowsy := syntheticFaceSet(w, h, 0.15, 0.9, 25)

	sink := &recordingSink{}
	p := New(
		Config{MaxCameraMisses: 2, DisplayCadence: 1, SnapshotLevels: true},
		profile.Default(),
		&scriptedSource{frames: frames},
		&stubProvider{detect: func(*vision.Frame) (*landmark.Set, error) { return drowsy, nil }},
		permissiveGate(),
		sink,
	)

	err := p.Run(context.Background())
	assert.Error(t, err)

	levels := make([]alert.Level, 0, len(sink.alerts))
	for _, ev := range sink.alerts {
		levels = append(levels, ev.Level)
	}
	assert.Equal(t, []alert.Level{alert.LevelLow, alert.LevelMedium, alert.LevelHigh, alert.LevelCritical}, levels)

	// HIGH and CRITICAL events each carried their triggering frame.
	if assert.Len(t, sink.snapshots, 2) {
		assert.Equal(t, alert.LevelHigh, sink.snapshots[0].Level)
		assert.Equal(t, alert.LevelCritical, sink.snapshots[1].Level)
	}
	assert.Equal(t, "CRITICAL", p.Stats().CurrentLevel)
}

func TestPipelineDegradedSignalOnNoFace(t *testing.T) {
	const w, h = 640, 480
	frames := syntheticFrames(6, w, h, 100*time.Millisecond)

	sink := &recordingSink{}
	p := New(
		Config{MaxCameraMisses: 2, DegradedAfter: 3, DisplayCadence: 1},
		profile.Default(),
		&scriptedSource{frames: frames},
		&stubProvider{detect: func(*vision.Frame) (*landmark.Set, error) { return nil, nil }},
		permissiveGate(),
		sink,
	)

	err := p.Run(context.Background())
	assert.Error(t, err)

	// No face is no evidence: nothing confirmed, no alerts, usable count zero.
	assert.Empty(t, sink.alerts)
	snap := p.Stats()
	assert.Equal(t, uint64(6), snap.FramesSeen)
	assert.Equal(t, uint64(0), snap.FramesUsable)
	assert.Equal(t, uint64(1), snap.DegradedRuns)
	assert.Equal(t, "NONE", snap.CurrentLevel)

	var degraded *Status
	for i := range sink.statuses {
		if sink.statuses[i].State == SignalDegraded {
			degraded = &sink.statuses[i]
			break
		}
	}
	if assert.NotNil(t, degraded, "expected a degraded-signal status") {
		assert.Equal(t, string(quality.ReasonNoFace), degraded.Reason)
		assert.Equal(t, 3, degraded.ConsecutiveUnusable)
	}
}

func TestPipelineRecoversFromDegradedSignal(t *testing.T) {
	const w, h = 640, 480
	frames := syntheticFrames(8, w, h, 100*time.Millisecond)
	face := syntheticFaceSet(w, h, 0.3, 0.2, 0)

	// Face lost for the first four frames, reacquired afterwards.
	var n int
	detect := func(*vision.Frame) (*landmark.Set, error) {
		n++
		if n <= 4 {
			return nil, nil
		}
		return face, nil
	}

	sink := &recordingSink{}
	p := New(
		Config{MaxCameraMisses: 2, DegradedAfter: 3, DisplayCadence: 1},
		profile.Default(),
		&scriptedSource{frames: frames},
		&stubProvider{detect: detect},
		permissiveGate(),
		sink,
	)

	assert.Error(t, p.Run(context.Background()))

	var states []SignalState
	for _, st := range sink.statuses {
		states = append(states, st.State)
	}
	assert.Equal(t, []SignalState{SignalDegraded, SignalOK, SignalStopped}, states)
	assert.Equal(t, uint64(4), p.Stats().FramesUsable)
}

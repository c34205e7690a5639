package quality

import (
	"testing"

	"github.com/okieraised/fatigue-agent/internal/vision"
	"github.com/okieraised/fatigue-agent/internal/vision/landmark"
	"github.com/stretchr/testify/assert"
)

func frameOf(w, h int, fill func(x, y int) byte) *vision.Frame {
	data := make([]byte, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			data[y*w+x] = fill(x, y)
		}
	}
	return &vision.Frame{Data: data, Width: w, Height: h}
}

// texturedFrame has mid brightness, strong contrast and a noisy texture that
// scores high on the Laplacian sharpness estimate.
func texturedFrame(w, h int) *vision.Frame {
	return frameOf(w, h, func(x, y int) byte {
		return byte((x*31 + y*17 + x*y) % 256)
	})
}

func goodFace() *landmark.Set {
	return &landmark.Set{
		Points:     make([]landmark.Point, 468),
		Confidence: 0.9,
		BoxWidth:   32,
		BoxHeight:  32,
	}
}

func TestGateAcceptsGoodFrame(t *testing.T) {
	g := NewGate(DefaultThresholds())
	ok, reason, stats := g.Check(texturedFrame(64, 64), goodFace())
	assert.True(t, ok)
	assert.Equal(t, ReasonOK, reason)
	assert.Greater(t, stats.Brightness, 0.0)
	assert.Greater(t, stats.Contrast, 0.0)
	assert.Greater(t, stats.Sharpness, 0.0)
}

func TestGateRejectsBadLighting(t *testing.T) {
	g := NewGate(DefaultThresholds())

	dark := frameOf(64, 64, func(x, y int) byte { return byte((x + y) % 8) })
	ok, reason, _ := g.Check(dark, goodFace())
	assert.False(t, ok)
	assert.Equal(t, ReasonTooDark, reason)

	bright := frameOf(64, 64, func(x, y int) byte { return byte(240 + (x+y)%8) })
	ok, reason, _ = g.Check(bright, goodFace())
	assert.False(t, ok)
	assert.Equal(t, ReasonTooBright, reason)
}

func TestGateRejectsFlatAndBlurryFrames(t *testing.T) {
	g := NewGate(DefaultThresholds())

	flat := frameOf(64, 64, func(x, y int) byte { return 128 })
	ok, reason, _ := g.Check(flat, goodFace())
	assert.False(t, ok)
	assert.Equal(t, ReasonLowContrast, reason)

	// A linear ramp has plenty of contrast but a zero Laplacian response.
	ramp := frameOf(64, 64, func(x, y int) byte { return byte(x*2 + y*2) })
	ok, reason, _ = g.Check(ramp, goodFace())
	assert.False(t, ok)
	assert.Equal(t, ReasonTooBlurry, reason)
}

func TestGateRejectsMissingOrWeakFace(t *testing.T) {
	g := NewGate(DefaultThresholds())
	frame := texturedFrame(64, 64)

	ok, reason, _ := g.Check(frame, nil)
	assert.False(t, ok)
	assert.Equal(t, ReasonNoFace, reason)

	weak := goodFace()
	weak.Confidence = 0.2
	ok, reason, _ = g.Check(frame, weak)
	assert.False(t, ok)
	assert.Equal(t, ReasonLowConfidence, reason)

	tiny := goodFace()
	tiny.BoxWidth = 2
	ok, reason, _ = g.Check(frame, tiny)
	assert.False(t, ok)
	assert.Equal(t, ReasonFaceTooSmall, reason)
}

func TestNewGateFillsDefaults(t *testing.T) {
	g := NewGate(Thresholds{MinBrightness: 50})
	def := DefaultThresholds()
	assert.Equal(t, 50.0, g.th.MinBrightness)
	assert.Equal(t, def.MaxBrightness, g.th.MaxBrightness)
	assert.Equal(t, def.MinSharpness, g.th.MinSharpness)
	assert.Equal(t, def.MinConfidence, g.th.MinConfidence)
}

func TestComputeFrameStatsDegenerateInput(t *testing.T) {
	assert.Equal(t, FrameStats{}, ComputeFrameStats(nil))
	assert.Equal(t, FrameStats{}, ComputeFrameStats(&vision.Frame{Width: 2, Height: 2, Data: make([]byte, 4)}))

	short := &vision.Frame{Width: 64, Height: 64, Data: make([]byte, 16)}
	assert.Equal(t, FrameStats{}, ComputeFrameStats(short))
}

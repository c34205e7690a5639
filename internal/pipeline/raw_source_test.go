package pipeline

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRawSourceReplaysRecordedFrames(t *testing.T) {
	const w, h = 8, 6
	frameA := make([]byte, w*h)
	frameB := make([]byte, w*h)
	for i := range frameA {
		frameA[i] = 0x11
		frameB[i] = 0x22
	}

	path := filepath.Join(t.TempDir(), "session.yuv")
	assert.NoError(t, os.WriteFile(path, append(append([]byte{}, frameA...), frameB...), 0o600))

	src, err := NewRawSource(path, w, h)
	assert.NoError(t, err)
	defer src.Close()

	f1, err := src.NextFrame(time.Second)
	assert.NoError(t, err)
	if assert.NotNil(t, f1) {
		assert.Equal(t, w, f1.Width)
		assert.Equal(t, h, f1.Height)
		assert.Equal(t, frameA, f1.Data)
		assert.False(t, f1.Timestamp.IsZero())
	}

	f2, err := src.NextFrame(time.Second)
	assert.NoError(t, err)
	if assert.NotNil(t, f2) {
		assert.Equal(t, frameB, f2.Data)
	}

	// Past the recording the source is gone for good, not transiently late.
	_, err = src.NextFrame(time.Second)
	assert.Error(t, err)
}

func TestRawSourceResumesPartialFrameAfterTimeout(t *testing.T) {
	const w, h = 8, 4
	frameA := make([]byte, w*h)
	frameB := make([]byte, w*h)
	for i := range frameA {
		frameA[i] = byte(i)
		frameB[i] = byte(0xFF - i)
	}

	r, wr, err := os.Pipe()
	assert.NoError(t, err)
	defer wr.Close()

	src := &RawSource{f: r, width: w, height: h, pollable: true}
	defer src.Close()

	// Only half the frame is available, so the read deadline fires mid-frame
	// and the call reports a transient miss.
	_, err = wr.Write(frameA[:w*h/2])
	assert.NoError(t, err)
	f, err := src.NextFrame(50 * time.Millisecond)
	assert.NoError(t, err)
	assert.Nil(t, f)

	// Once the rest arrives the next call completes the same frame, keeping
	// the stream aligned for the frame that follows.
	_, err = wr.Write(frameA[w*h/2:])
	assert.NoError(t, err)
	_, err = wr.Write(frameB)
	assert.NoError(t, err)

	f1, err := src.NextFrame(time.Second)
	assert.NoError(t, err)
	if assert.NotNil(t, f1) {
		assert.Equal(t, frameA, f1.Data)
	}

	f2, err := src.NextFrame(time.Second)
	assert.NoError(t, err)
	if assert.NotNil(t, f2) {
		assert.Equal(t, frameB, f2.Data)
	}
}

func TestRawSourceRejectsBadDimensions(t *testing.T) {
	_, err := NewRawSource("/dev/null", 0, 480)
	assert.Error(t, err)
	_, err = NewRawSource("/dev/null", 640, -1)
	assert.Error(t, err)
}

func TestRawSourceMissingPath(t *testing.T) {
	_, err := NewRawSource(filepath.Join(t.TempDir(), "absent"), 640, 480)
	assert.Error(t, err)
}

package pipeline

import (
	"os"
	"time"

	"github.com/okieraised/fatigue-agent/internal/vision"
	"github.com/pkg/errors"
)

// RawSource reads fixed-size 8-bit luma planes from a character device, FIFO
// or recorded session file. Pollable files honor the per-read timeout via
// read deadlines; regular files always read through (replay mode).
type RawSource struct {
	f        *os.File
	width    int
	height   int
	pollable bool

	// Partial frame carried across calls when a read deadline fires
	// mid-frame. Discarding it would shift every subsequent frame.
	buf  []byte
	fill int
}

func NewRawSource(path string, width, height int) (*RawSource, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Errorf("invalid frame dimensions %dx%d", width, height)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open frame source %s", path)
	}

	s := &RawSource{f: f, width: width, height: height}
	if dErr := f.SetReadDeadline(time.Time{}); !errors.Is(dErr, os.ErrNoDeadline) {
		s.pollable = true
	}
	return s, nil
}

func (s *RawSource) NextFrame(timeout time.Duration) (*vision.Frame, error) {
	if s.pollable {
		if err := s.f.SetReadDeadline(time.Now().Add(timeout)); err != nil {
			return nil, errors.Wrap(err, "failed to arm read deadline")
		}
	}

	if s.buf == nil {
		s.buf = make([]byte, s.width*s.height)
		s.fill = 0
	}
	for s.fill < len(s.buf) {
		n, err := s.f.Read(s.buf[s.fill:])
		s.fill += n
		if err != nil {
			if os.IsTimeout(err) {
				// Keep what arrived; the next call resumes the frame.
				return nil, nil
			}
			return nil, errors.Wrap(err, "failed to read frame")
		}
	}

	data := s.buf
	s.buf = nil
	s.fill = 0
	return &vision.Frame{
		Data:      data,
		Width:     s.width,
		Height:    s.height,
		Timestamp: time.Now(),
	}, nil
}

func (s *RawSource) Close() error {
	return s.f.Close()
}

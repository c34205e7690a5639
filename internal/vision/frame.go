// Package vision holds the frame type shared by the capture, landmark and
// metric layers.
package vision

import "time"

// Frame is a single captured video frame. The capture stage owns it until it
// is handed downstream; afterwards it is shared by reference and must not be
// mutated.
//
// Data is the 8-bit luma plane, row-major, Width*Height bytes. Fatigue
// metrics are pure geometry, so the color planes never leave the frame
// source.
type Frame struct {
	Data   []byte
	Width  int
	Height int

	// Timestamp is the monotonic capture time, not processing time.
	Timestamp time.Time

	// Seq is assigned by the capture stage, strictly increasing per session.
	Seq uint64
}

// PixelCount returns the expected luma buffer length.
func (f *Frame) PixelCount() int {
	return f.Width * f.Height
}

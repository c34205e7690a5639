package pipeline

import (
	"time"

	"github.com/okieraised/fatigue-agent/internal/vision"
)

// FrameSource abstracts the camera or video device. NextFrame blocks for at
// most timeout; a (nil, nil) return signals a read timeout or a transiently
// unavailable device, which the pipeline tolerates up to a configured number
// of consecutive misses. A non-nil error means the device is gone for good.
type FrameSource interface {
	NextFrame(timeout time.Duration) (*vision.Frame, error)
	Close() error
}

// SignalState is the pipeline health reported to sinks, distinct from the
// alert level: a degraded signal says nothing about the driver.
type SignalState string

const (
	SignalOK       SignalState = "ok"
	SignalDegraded SignalState = "degraded"
	SignalStopped  SignalState = "stopped"
)

// Status is pushed to sinks whenever the signal state changes.
type Status struct {
	State               SignalState `json:"state"`
	Reason              string      `json:"reason,omitempty"`
	ConsecutiveUnusable int         `json:"consecutive_unusable,omitempty"`
	Timestamp           time.Time   `json:"timestamp"`
}

// Package sink holds the pipeline output targets: structured log, MQTT
// broker, websocket telemetry hub, alert history store and S3 snapshot
// upload, plus the fan-out combining them.
package sink

import (
	"github.com/okieraised/fatigue-agent/internal/detection/alert"
	"github.com/okieraised/fatigue-agent/internal/pipeline"
	"github.com/okieraised/fatigue-agent/internal/vision"
	"github.com/okieraised/fatigue-agent/internal/vision/metrics"
)

// Multi fans every publication out to all registered sinks in order. Sinks
// must not block; anything slow has to buffer or drop internally.
type Multi struct {
	sinks []pipeline.Sink
}

func NewMulti(sinks ...pipeline.Sink) *Multi {
	out := make([]pipeline.Sink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return &Multi{sinks: out}
}

func (m *Multi) PublishAlert(ev *alert.Event) {
	for _, s := range m.sinks {
		s.PublishAlert(ev)
	}
}

func (m *Multi) PublishSample(sample metrics.Sample) {
	for _, s := range m.sinks {
		s.PublishSample(sample)
	}
}

func (m *Multi) PublishStatus(st pipeline.Status) {
	for _, s := range m.sinks {
		s.PublishStatus(st)
	}
}

// PublishSnapshot forwards the frame to every sink that can persist it.
func (m *Multi) PublishSnapshot(ev *alert.Event, frame *vision.Frame) {
	for _, s := range m.sinks {
		if fs, ok := s.(pipeline.FrameSink); ok {
			fs.PublishSnapshot(ev, frame)
		}
	}
}

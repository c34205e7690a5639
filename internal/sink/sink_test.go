package sink

import (
	"testing"
	"time"

	"github.com/okieraised/fatigue-agent/internal/detection/alert"
	"github.com/okieraised/fatigue-agent/internal/pipeline"
	"github.com/okieraised/fatigue-agent/internal/vision"
	"github.com/okieraised/fatigue-agent/internal/vision/metrics"
	"github.com/stretchr/testify/assert"
)

type countingSink struct {
	alerts   int
	samples  int
	statuses int
}

func (c *countingSink) PublishAlert(*alert.Event)     { c.alerts++ }
func (c *countingSink) PublishSample(metrics.Sample)  { c.samples++ }
func (c *countingSink) PublishStatus(pipeline.Status) { c.statuses++ }

type frameCountingSink struct {
	countingSink
	snapshots int
}

func (c *frameCountingSink) PublishSnapshot(*alert.Event, *vision.Frame) { c.snapshots++ }

func TestMultiFansOutToAllSinks(t *testing.T) {
	a := &countingSink{}
	b := &countingSink{}
	m := NewMulti(a, nil, b)

	ev := &alert.Event{ID: "ev-1", Level: alert.LevelLow, Timestamp: time.Now()}
	m.PublishAlert(ev)
	m.PublishSample(metrics.Sample{Seq: 1})
	m.PublishSample(metrics.Sample{Seq: 2})
	m.PublishStatus(pipeline.Status{State: pipeline.SignalOK})

	for _, s := range []*countingSink{a, b} {
		assert.Equal(t, 1, s.alerts)
		assert.Equal(t, 2, s.samples)
		assert.Equal(t, 1, s.statuses)
	}
}

func TestMultiForwardsSnapshotsToFrameSinksOnly(t *testing.T) {
	plain := &countingSink{}
	withFrames := &frameCountingSink{}
	m := NewMulti(plain, withFrames)

	ev := &alert.Event{ID: "ev-2", Level: alert.LevelHigh, Timestamp: time.Now()}
	frame := &vision.Frame{Width: 2, Height: 2, Data: make([]byte, 4)}
	m.PublishSnapshot(ev, frame)

	assert.Equal(t, 1, withFrames.snapshots)
	assert.Equal(t, 0, plain.alerts)
}

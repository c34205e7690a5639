package sink

import (
	"github.com/okieraised/fatigue-agent/internal/detection/alert"
	"github.com/okieraised/fatigue-agent/internal/detection/history"
	"github.com/okieraised/fatigue-agent/internal/pipeline"
	"github.com/okieraised/fatigue-agent/internal/vision/metrics"
)

// HistorySink records alert events into the history store served over REST.
type HistorySink struct {
	store *history.Store
}

func NewHistorySink(store *history.Store) *HistorySink {
	return &HistorySink{store: store}
}

func (s *HistorySink) PublishAlert(ev *alert.Event) { s.store.Add(ev) }

func (s *HistorySink) PublishSample(_ metrics.Sample) {}

func (s *HistorySink) PublishStatus(_ pipeline.Status) {}

package sink

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/okieraised/fatigue-agent/internal/common"
	"github.com/okieraised/fatigue-agent/internal/constants"
	"github.com/okieraised/fatigue-agent/internal/detection/alert"
	"github.com/okieraised/fatigue-agent/internal/pipeline"
	"github.com/okieraised/fatigue-agent/internal/telemetry"
	"github.com/okieraised/fatigue-agent/internal/vision/metrics"
)

// HubSink streams telemetry to connected websocket viewers. Everything is
// best-effort: the hub drops on backpressure rather than stalling the
// pipeline output stage.
type HubSink struct {
	hub       *telemetry.Hub
	agentID   string
	sessionID string
	headerID  atomic.Int64
}

func NewHubSink(hub *telemetry.Hub, agentID, sessionID string) *HubSink {
	return &HubSink{hub: hub, agentID: agentID, sessionID: sessionID}
}

func (s *HubSink) PublishAlert(ev *alert.Event) {
	s.hub.Publish(common.TelemetryMessage{
		Header: s.header(),
		Payload: common.TelemetryBody{
			EventID: uuid.New(),
			Type:    constants.TelemetryTypeAlert,
			Alert:   ev,
		},
	})
}

func (s *HubSink) PublishSample(sample metrics.Sample) {
	s.hub.Publish(common.TelemetryMessage{
		Header: s.header(),
		Payload: common.TelemetryBody{
			EventID: uuid.New(),
			Type:    constants.TelemetryTypeSample,
			Sample:  sample,
		},
	})
}

func (s *HubSink) PublishStatus(st pipeline.Status) {
	s.hub.Publish(common.TelemetryMessage{
		Header: s.header(),
		Payload: common.TelemetryBody{
			EventID: uuid.New(),
			Type:    constants.TelemetryTypeStatus,
			Status:  st,
		},
	})
}

func (s *HubSink) header() common.Header {
	return common.Header{
		HeaderID:    s.headerID.Add(1),
		Version:     "1.0.0",
		AgentID:     s.agentID,
		SessionID:   s.sessionID,
		Timestamp:   time.Now(),
		MessageType: common.MsgHeaderTypeTelemetry,
	}
}

package common

import (
	"time"

	"github.com/google/uuid"
	"github.com/okieraised/fatigue-agent/internal/constants"
	"github.com/pkg/errors"
)

type TelemetryMessage struct {
	Header  Header        `json:"header"`
	Payload TelemetryBody `json:"payload"`
}

// Header follows VDA5050-like metadata.
type Header struct {
	HeaderID    int64     `json:"headerId"`    // monotonic increasing
	Version     string    `json:"version"`     // message version, e.g. "1.0.0"
	AgentID     string    `json:"agentId"`     // unique ID of the agent
	SessionID   string    `json:"sessionId"`   // detection session the message belongs to
	Timestamp   time.Time `json:"timestamp"`   // ISO 8601 timestamp
	MessageType string    `json:"messageType"` // "Telemetry"
}

// TelemetryBody carries exactly one of the payload kinds, selected by Type.
type TelemetryBody struct {
	EventID uuid.UUID               `json:"eventId"`
	Type    constants.TelemetryType `json:"type"`
	Alert   any                     `json:"alert,omitempty"`
	Sample  any                     `json:"sample,omitempty"`
	Status  any                     `json:"status,omitempty"`
}

const MsgHeaderTypeTelemetry = "Telemetry"

func (msg *TelemetryMessage) Validate() error {
	if msg.Header.MessageType != MsgHeaderTypeTelemetry {
		return errors.Errorf("invalid message type: %s", msg.Header.MessageType)
	}

	switch msg.Payload.Type {
	case constants.TelemetryTypeAlert:
		if msg.Payload.Alert == nil {
			return errors.New("alert payload is required")
		}
	case constants.TelemetryTypeSample:
		if msg.Payload.Sample == nil {
			return errors.New("sample payload is required")
		}
	case constants.TelemetryTypeStatus:
		if msg.Payload.Status == nil {
			return errors.New("status payload is required")
		}
	default:
		return errors.Errorf("unknown telemetry type: %s", msg.Payload.Type)
	}

	return nil
}

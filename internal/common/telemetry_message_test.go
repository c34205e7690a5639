package common

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/okieraised/fatigue-agent/internal/constants"
	"github.com/stretchr/testify/assert"
)

func telemetryMsg(kind constants.TelemetryType, payload any) TelemetryMessage {
	msg := TelemetryMessage{
		Header: Header{
			HeaderID:    1,
			Version:     "1.0.0",
			AgentID:     "agent-1",
			SessionID:   "session-1",
			Timestamp:   time.Now(),
			MessageType: MsgHeaderTypeTelemetry,
		},
		Payload: TelemetryBody{
			EventID: uuid.New(),
			Type:    kind,
		},
	}
	switch kind {
	case constants.TelemetryTypeAlert:
		msg.Payload.Alert = payload
	case constants.TelemetryTypeSample:
		msg.Payload.Sample = payload
	case constants.TelemetryTypeStatus:
		msg.Payload.Status = payload
	}
	return msg
}

func TestTelemetryMessageValidate(t *testing.T) {
	msg := telemetryMsg(constants.TelemetryTypeAlert, map[string]string{"level": "HIGH"})
	assert.NoError(t, msg.Validate())

	msg = telemetryMsg(constants.TelemetryTypeSample, map[string]float64{"ear": 0.2})
	assert.NoError(t, msg.Validate())

	msg = telemetryMsg(constants.TelemetryTypeStatus, map[string]string{"state": "ok"})
	assert.NoError(t, msg.Validate())
}

func TestTelemetryMessageValidateRejectsBadType(t *testing.T) {
	msg := telemetryMsg(constants.TelemetryTypeAlert, struct{}{})
	msg.Header.MessageType = "Order"
	assert.Error(t, msg.Validate())

	msg = telemetryMsg("Metrics", struct{}{})
	assert.Error(t, msg.Validate())
}

func TestTelemetryMessageValidateRequiresPayload(t *testing.T) {
	msg := telemetryMsg(constants.TelemetryTypeAlert, nil)
	assert.Error(t, msg.Validate())

	msg = telemetryMsg(constants.TelemetryTypeSample, nil)
	assert.Error(t, msg.Validate())

	msg = telemetryMsg(constants.TelemetryTypeStatus, nil)
	assert.Error(t, msg.Validate())
}

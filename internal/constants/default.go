package constants

import "time"

const (
	AgentDefaultHTTPPort       = 8080
	AgentDefaultMonitoringPort = 6060
)

const (
	DefaultHTTPRequestTimeout = 10
	GraceWaitPeriod           = 10 * time.Second
)

const (
	MqttDefaultWriteTimeout         = 10 * time.Second
	MqttDefaultKeepAlive            = 30 * time.Second
	MqttDefaultPingTimeout          = 5 * time.Second
	MqttDefaultMaxReconnectInterval = 30 * time.Second
	MqttDefaultConnectTimeout       = 10 * time.Second
	MqttDefaultConnectRetryInterval = 10 * time.Second
	MqttDefaultAlertTopic           = "fatigue/alerts"
	MqttDefaultStatusTopic          = "fatigue/status"
)

const (
	CameraDefaultDevice      = "/dev/video0"
	CameraDefaultWidth       = 640
	CameraDefaultHeight      = 480
	CameraDefaultReadTimeout = 200 * time.Millisecond
	CameraDefaultMaxMisses   = 30
)

const (
	ProviderDefaultEndpoint         = "ws://127.0.0.1:8765/landmarks"
	ProviderDefaultHandshakeTimeout = 5 * time.Second
	ProviderDefaultDetectTimeout    = 150 * time.Millisecond
)

const (
	PipelineDefaultFrameQueueSize  = 3
	PipelineDefaultResultQueueSize = 8
	PipelineDefaultOutputTimeout   = 250 * time.Millisecond
	PipelineDefaultDegradedAfter   = 30
	PipelineDefaultDisplayCadence  = 3
)

package config

const (
	AgentID                 = "agent.id"
	AgentEnableMonitoring   = "agent.enable_monitoring"
	AgentMonitoringPort     = "agent.monitoring_port"
	AgentLogLevel           = "agent.log_level"
	AgentHTTPPort           = "agent.http_port"
	AgentHTTPMode           = "agent.http_mode"
	AgentHTTPRequestTimeout = "agent.http_request_timeout"
	AgentTLSCertFile        = "agent.tls_cert_file"
	AgentTLSKeyFile         = "agent.tls_key_file"
	AgentEnableMQTT         = "agent.enable_mqtt"
	AgentEnableTracing      = "agent.enable_tracing"
	AgentEnableS3           = "agent.enable_s3"
)

const (
	CameraDevice          = "camera.device"
	CameraWidth           = "camera.width"
	CameraHeight          = "camera.height"
	CameraReadTimeout     = "camera.read_timeout"
	CameraMaxConsecMisses = "camera.max_consecutive_misses"
)

const (
	ProviderEndpoint         = "provider.endpoint"
	ProviderHandshakeTimeout = "provider.handshake_timeout"
	ProviderDetectTimeout    = "provider.detect_timeout"
)

const (
	DetectionProfile          = "detection.profile"
	DetectionEARThreshold     = "detection.ear_threshold"
	DetectionEARDwell         = "detection.ear_dwell"
	DetectionMARThreshold     = "detection.mar_threshold"
	DetectionMARDwell         = "detection.mar_dwell"
	DetectionPitchThreshold   = "detection.pitch_threshold"
	DetectionPitchDwell       = "detection.pitch_dwell"
	DetectionEscalationDwell  = "detection.escalation_dwell"
	DetectionEyeWeight        = "detection.eye_weight"
	DetectionMouthWeight      = "detection.mouth_weight"
	DetectionHeadWeight       = "detection.head_weight"
	DetectionDegradedAfter    = "detection.degraded_after"
	DetectionDisplayCadence   = "detection.display_cadence"
	DetectionSnapshotOnAlerts = "detection.snapshot_on_alerts"
)

const (
	QualityMinBrightness   = "quality.min_brightness"
	QualityMaxBrightness   = "quality.max_brightness"
	QualityMinContrast     = "quality.min_contrast"
	QualityMinSharpness    = "quality.min_sharpness"
	QualityMinConfidence   = "quality.min_confidence"
	QualityMinFaceFraction = "quality.min_face_fraction"
)

const (
	PipelineFrameQueueSize  = "pipeline.frame_queue_size"
	PipelineResultQueueSize = "pipeline.result_queue_size"
	PipelineOutputTimeout   = "pipeline.output_timeout"
)

const (
	MqttEndpoint              = "mqtt.endpoint"
	MqttCleanSession          = "mqtt.clean_session"
	MqttClientId              = "mqtt.client_id"
	MqttAutoReconnect         = "mqtt.auto_reconnect"
	MqttConnectRetry          = "mqtt.connect_retry"
	MqttMaxConnectInterval    = "mqtt.max_connect_interval"
	MqttWriteTimeout          = "mqtt.write_timeout"
	MqttPingTimeout           = "mqtt.ping_timeout"
	MqttKeepAliveDuration     = "mqtt.keep_alive_duration"
	MqttResumeSubs            = "mqtt.resume_subs"
	MqttConnectTimeout        = "mqtt.connect_timeout"
	MqttConnectRetryInterval  = "mqtt.connect_retry_interval"
	MqttTLSInsecureSkipVerify = "mqtt.tls_insecure_skip_verify"
	MqttAlertTopic            = "mqtt.alert_topic"
	MqttStatusTopic           = "mqtt.status_topic"
)

const (
	S3Region                = "s3.region"
	S3Endpoint              = "s3.endpoint"
	S3AccessKey             = "s3.access_key"
	S3SecretKey             = "s3.secret_key"
	S3UsePathStyle          = "s3.use_path_style"
	S3TLSInsecureSkipVerify = "s3.tls_insecure_skip_verify"
	S3SnapshotBucket        = "s3.snapshot_bucket"
)

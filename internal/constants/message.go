package constants

type TelemetryType string

const (
	TelemetryTypeAlert  TelemetryType = "Alert"
	TelemetryTypeSample TelemetryType = "Sample"
	TelemetryTypeStatus TelemetryType = "Status"
)

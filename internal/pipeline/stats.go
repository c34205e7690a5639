package pipeline

import (
	"sync/atomic"
	"time"
)

// SessionStats are append-only counters incremented by the pipeline stages.
// All fields are read and written atomically; Snapshot gives a consistent-
// enough view for monitoring (slight staleness is acceptable).
type SessionStats struct {
	startedAt time.Time

	framesSeen     atomic.Uint64
	framesUsable   atomic.Uint64
	framesDropped  atomic.Uint64
	resultsDropped atomic.Uint64
	cameraMisses   atomic.Uint64
	unusableRuns   atomic.Uint64
}

// StatsSnapshot is the JSON-friendly copy served over REST and logged at
// shutdown.
type StatsSnapshot struct {
	SessionID      string            `json:"session_id"`
	StartedAt      time.Time         `json:"started_at"`
	UptimeSeconds  float64           `json:"uptime_seconds"`
	FramesSeen     uint64            `json:"frames_seen"`
	FramesUsable   uint64            `json:"frames_usable"`
	FramesDropped  uint64            `json:"frames_dropped"`
	ResultsDropped uint64            `json:"results_dropped"`
	CameraMisses   uint64            `json:"camera_misses"`
	DegradedRuns   uint64            `json:"degraded_runs"`
	Blinks         uint64            `json:"blinks"`
	Yawns          uint64            `json:"yawns"`
	AlertsEmitted  map[string]uint64 `json:"alerts_emitted"`
	CurrentLevel   string            `json:"current_level"`
	LevelSince     time.Time         `json:"level_since"`
	Profile        string            `json:"profile"`
}

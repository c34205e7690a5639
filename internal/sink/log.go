package sink

import (
	"github.com/okieraised/fatigue-agent/internal/detection/alert"
	"github.com/okieraised/fatigue-agent/internal/infrastructure/log"
	"github.com/okieraised/fatigue-agent/internal/pipeline"
	"github.com/okieraised/fatigue-agent/internal/vision/metrics"
	"go.uber.org/zap"
)

// LogSink writes alerts and status flips to the default logger. Samples are
// logged at debug level so the steady-state stream stays quiet.
type LogSink struct {
	logger *log.Logger
}

func NewLogSink() *LogSink {
	return &LogSink{logger: log.MustNewECSLogger()}
}

func (s *LogSink) PublishAlert(ev *alert.Event) {
	s.logger.Info("Alert level changed",
		zap.String("event_id", ev.ID),
		zap.String("level", ev.Level.String()),
		zap.String("previous", ev.Previous.String()),
		zap.Float64("confidence", ev.Confidence),
		zap.Float64("ear", ev.EAR),
		zap.Float64("mar", ev.MAR),
		zap.Float64("head_pitch_deg", ev.HeadPitchDeg),
		zap.String("recommendation", ev.Recommendation),
		zap.String("profile", ev.Profile),
	)
}

func (s *LogSink) PublishSample(sample metrics.Sample) {
	s.logger.Debug("Metric sample",
		zap.Uint64("seq", sample.Seq),
		zap.Float64("ear", sample.EAR),
		zap.Float64("mar", sample.MAR),
		zap.Float64("head_pitch_deg", sample.HeadPitchDeg),
		zap.Bool("usable", sample.Usable),
	)
}

func (s *LogSink) PublishStatus(st pipeline.Status) {
	s.logger.Warn("Signal state changed",
		zap.String("state", string(st.State)),
		zap.String("reason", st.Reason),
		zap.Int("consecutive_unusable", st.ConsecutiveUnusable),
	)
}

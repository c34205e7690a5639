// Package pipeline wires the real-time decision flow: capture, processing
// and output stages on dedicated goroutines, joined by bounded drop-oldest
// queues. All detection state machines are mutated only inside the processing
// stage, so they need no locks.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/okieraised/fatigue-agent/internal/cerrors"
	"github.com/okieraised/fatigue-agent/internal/config"
	"github.com/okieraised/fatigue-agent/internal/constants"
	"github.com/okieraised/fatigue-agent/internal/detection/alert"
	"github.com/okieraised/fatigue-agent/internal/detection/profile"
	"github.com/okieraised/fatigue-agent/internal/detection/rules"
	"github.com/okieraised/fatigue-agent/internal/infrastructure/log"
	"github.com/okieraised/fatigue-agent/internal/vision"
	"github.com/okieraised/fatigue-agent/internal/vision/landmark"
	"github.com/okieraised/fatigue-agent/internal/vision/metrics"
	"github.com/okieraised/fatigue-agent/internal/vision/quality"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// Sink receives pipeline output. Sinks are push-targets only and must not
// block longer than the configured output timeout.
type Sink interface {
	PublishAlert(ev *alert.Event)
	PublishSample(s metrics.Sample)
	PublishStatus(st Status)
}

// FrameSink is implemented by sinks that want the triggering frame alongside
// severe alert events, e.g. to persist a snapshot.
type FrameSink interface {
	PublishSnapshot(ev *alert.Event, frame *vision.Frame)
}

// Result is what the processing stage hands to the output stage for one
// frame.
type Result struct {
	Sample metrics.Sample
	Eye    rules.Condition
	Mouth  rules.Condition
	Head   rules.Condition
	Level  alert.Level

	// Event is non-nil only on a level change.
	Event *alert.Event

	// StatusChange is non-nil only when the signal state flipped.
	StatusChange *Status

	// Frame is retained only for results carrying a HIGH or CRITICAL event
	// so snapshot sinks can encode it; nil otherwise.
	Frame *vision.Frame
}

// Config carries the pipeline tunables. Zero values fall back to defaults.
type Config struct {
	FrameQueueSize  int
	ResultQueueSize int
	ReadTimeout     time.Duration
	OutputTimeout   time.Duration
	MaxCameraMisses int
	DegradedAfter   int
	DisplayCadence  int
	SnapshotLevels  bool
}

// ConfigFromViper resolves the pipeline tunables from the loaded
// configuration.
func ConfigFromViper() Config {
	c := Config{
		FrameQueueSize:  viper.GetInt(config.PipelineFrameQueueSize),
		ResultQueueSize: viper.GetInt(config.PipelineResultQueueSize),
		ReadTimeout:     viper.GetDuration(config.CameraReadTimeout),
		OutputTimeout:   viper.GetDuration(config.PipelineOutputTimeout),
		MaxCameraMisses: viper.GetInt(config.CameraMaxConsecMisses),
		DegradedAfter:   viper.GetInt(config.DetectionDegradedAfter),
		DisplayCadence:  viper.GetInt(config.DetectionDisplayCadence),
		SnapshotLevels:  viper.GetBool(config.DetectionSnapshotOnAlerts),
	}
	return c.withDefaults()
}

func (c Config) withDefaults() Config {
	if c.FrameQueueSize <= 0 {
		c.FrameQueueSize = constants.PipelineDefaultFrameQueueSize
	}
	if c.ResultQueueSize <= 0 {
		c.ResultQueueSize = constants.PipelineDefaultResultQueueSize
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = constants.CameraDefaultReadTimeout
	}
	if c.OutputTimeout <= 0 {
		c.OutputTimeout = constants.PipelineDefaultOutputTimeout
	}
	if c.MaxCameraMisses <= 0 {
		c.MaxCameraMisses = constants.CameraDefaultMaxMisses
	}
	if c.DegradedAfter <= 0 {
		c.DegradedAfter = constants.PipelineDefaultDegradedAfter
	}
	if c.DisplayCadence <= 0 {
		c.DisplayCadence = constants.PipelineDefaultDisplayCadence
	}
	return c
}

// Pipeline owns one detection session.
type Pipeline struct {
	cfg       Config
	sessionID string
	prof      profile.Profile

	source    FrameSource
	provider  landmark.Provider
	gate      *quality.Gate
	extractor *metrics.Extractor
	engine    *rules.Engine
	agg       *alert.Aggregator
	sink      Sink

	frames  *queue[*vision.Frame]
	results *queue[Result]

	stats  SessionStats
	tracer trace.Tracer
}

// New assembles a pipeline. The profile and quality thresholds must already
// be validated.
func New(cfg Config, prof profile.Profile, source FrameSource, provider landmark.Provider, gate *quality.Gate, sink Sink) *Pipeline {
	cfg = cfg.withDefaults()
	return &Pipeline{
		cfg:       cfg,
		sessionID: uuid.NewString(),
		prof:      prof,
		source:    source,
		provider:  provider,
		gate:      gate,
		extractor: metrics.NewExtractor(),
		engine:    rules.NewEngine(prof),
		agg:       alert.NewAggregator(prof),
		sink:      sink,
		frames:    newQueue[*vision.Frame](cfg.FrameQueueSize),
		results:   newQueue[Result](cfg.ResultQueueSize),
		tracer:    otel.Tracer("fatigue-agent/pipeline"),
		stats:     SessionStats{startedAt: time.Now()},
	}
}

// SessionID identifies this detection session in logs and stats.
func (p *Pipeline) SessionID() string { return p.sessionID }

// SetSink replaces the sink. Only valid before Run; sinks that key on the
// session ID are attached this way.
func (p *Pipeline) SetSink(s Sink) { p.sink = s }

// Run drives the three stages until ctx is cancelled or the frame source
// fails permanently. On return all stages have drained and the final status
// has been pushed.
func (p *Pipeline) Run(ctx context.Context) error {
	log.Default().Info(fmt.Sprintf("Starting detection pipeline session [%s] with profile [%s]", p.sessionID, p.prof.Name))

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer p.frames.close()
		return p.captureStage(ctx)
	})
	g.Go(func() error {
		defer p.results.close()
		return p.processingStage(ctx)
	})
	g.Go(func() error {
		return p.outputStage(ctx)
	})

	err := g.Wait()

	p.sink.PublishStatus(Status{State: SignalStopped, Timestamp: time.Now()})
	snap := p.Stats()
	log.Default().Info(fmt.Sprintf(
		"Detection pipeline session [%s] finished: frames=%d usable=%d dropped=%d alerts=%v",
		p.sessionID, snap.FramesSeen, snap.FramesUsable, snap.FramesDropped, snap.AlertsEmitted))

	if err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// captureStage reads frames from the source and pushes them into the frame
// queue, dropping the oldest on overflow so capture never stalls on a slow
// consumer.
func (p *Pipeline) captureStage(ctx context.Context) error {
	var seq uint64
	misses := 0

	for {
		if ctx.Err() != nil {
			return nil
		}

		frame, err := p.source.NextFrame(p.cfg.ReadTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return cerrors.ErrCameraUnavailable.WithCause(err)
		}
		if frame == nil {
			misses++
			p.stats.cameraMisses.Add(1)
			if misses >= p.cfg.MaxCameraMisses {
				return cerrors.ErrCameraUnavailable.WithMessage(
					"frame source missed %d consecutive reads", misses)
			}
			continue
		}
		misses = 0

		seq++
		frame.Seq = seq
		if frame.Timestamp.IsZero() {
			frame.Timestamp = time.Now()
		}

		p.stats.framesSeen.Add(1)
		if dropped := p.frames.push(frame); dropped > 0 {
			p.stats.framesDropped.Add(uint64(dropped))
		}
	}
}

// processingStage runs the full decision path for each frame: landmark
// detection, quality gate, metric extraction, rule evaluation, aggregation.
// It is the single writer of all detection state.
func (p *Pipeline) processingStage(ctx context.Context) error {
	unusableRun := 0
	degraded := false

	for {
		frame, ok := p.frames.pop()
		if !ok {
			return nil
		}
		if ctx.Err() != nil {
			// Stop signal: drain without processing further input.
			continue
		}

		_, span := p.tracer.Start(ctx, "pipeline.process_frame")
		res := p.processFrame(ctx, frame, &unusableRun, &degraded)
		span.End()

		if dropped := p.results.push(res); dropped > 0 {
			p.stats.resultsDropped.Add(uint64(dropped))
		}
	}
}

func (p *Pipeline) processFrame(ctx context.Context, frame *vision.Frame, unusableRun *int, degraded *bool) Result {
	set, err := p.provider.Detect(ctx, frame)
	if err != nil {
		log.Default().Debug(fmt.Sprintf("Landmark provider failed on frame %d: %v", frame.Seq, err))
		set = nil
	}

	usable, reason, _ := p.gate.Check(frame, set)

	sample := metrics.Sample{Timestamp: frame.Timestamp, Seq: frame.Seq}
	if usable {
		sample = p.extractor.Extract(frame, set)
		if !sample.Usable {
			reason = quality.ReasonLowConfidence
		}
	}

	if sample.Usable {
		p.stats.framesUsable.Add(1)
		*unusableRun = 0
	} else {
		*unusableRun++
	}

	eye, mouth, head := p.engine.Observe(sample)
	ev := p.agg.Evaluate(eye, mouth, head, sample)

	res := Result{
		Sample: sample,
		Eye:    eye,
		Mouth:  mouth,
		Head:   head,
		Level:  p.agg.Level(),
		Event:  ev,
	}
	if ev != nil && p.cfg.SnapshotLevels && ev.Level >= alert.LevelHigh {
		res.Frame = frame
	}

	// Degraded-signal tracking: repeated unusable samples mean we have no
	// reliable read on the driver, which is not the same as "no alert".
	if !*degraded && *unusableRun >= p.cfg.DegradedAfter {
		*degraded = true
		p.stats.unusableRuns.Add(1)
		res.StatusChange = &Status{
			State:               SignalDegraded,
			Reason:              string(reason),
			ConsecutiveUnusable: *unusableRun,
			Timestamp:           sample.Timestamp,
		}
	} else if *degraded && sample.Usable {
		*degraded = false
		res.StatusChange = &Status{State: SignalOK, Timestamp: sample.Timestamp}
	}

	return res
}

// outputStage forwards results to the sink. Publication is expected to stay
// within the output timeout per item; overruns are logged and the bounded
// result queue absorbs the backlog by dropping the oldest results.
func (p *Pipeline) outputStage(ctx context.Context) error {
	displayed := uint64(0)

	for {
		res, ok := p.results.pop()
		if !ok {
			return nil
		}
		publishStart := time.Now()

		if res.StatusChange != nil {
			p.sink.PublishStatus(*res.StatusChange)
		}
		if res.Event != nil {
			p.sink.PublishAlert(res.Event)
			if res.Frame != nil {
				if fs, ok := p.sink.(FrameSink); ok {
					fs.PublishSnapshot(res.Event, res.Frame)
				}
			}
		}

		displayed++
		if displayed%uint64(p.cfg.DisplayCadence) == 0 {
			p.sink.PublishSample(res.Sample)
		}

		if d := time.Since(publishStart); d > p.cfg.OutputTimeout {
			log.Default().Warn(fmt.Sprintf(
				"Sink publication for frame %d took %s, over the %s budget", res.Sample.Seq, d, p.cfg.OutputTimeout))
		}

		if ctx.Err() != nil && p.results.len() == 0 {
			return nil
		}
	}
}

// Stats assembles the live session snapshot.
func (p *Pipeline) Stats() StatsSnapshot {
	emitted := p.agg.EmittedCounts()
	byName := make(map[string]uint64, len(emitted))
	for lvl, n := range emitted {
		byName[lvl.String()] = n
	}
	return StatsSnapshot{
		SessionID:      p.sessionID,
		StartedAt:      p.stats.startedAt,
		UptimeSeconds:  time.Since(p.stats.startedAt).Seconds(),
		FramesSeen:     p.stats.framesSeen.Load(),
		FramesUsable:   p.stats.framesUsable.Load(),
		FramesDropped:  p.stats.framesDropped.Load(),
		ResultsDropped: p.stats.resultsDropped.Load(),
		CameraMisses:   p.stats.cameraMisses.Load(),
		DegradedRuns:   p.stats.unusableRuns.Load(),
		Blinks:         p.engine.Eye.Brief(),
		Yawns:          p.engine.Mouth.Episodes(),
		AlertsEmitted:  byName,
		CurrentLevel:   p.agg.Level().String(),
		LevelSince:     p.agg.LevelSince(),
		Profile:        p.prof.Name,
	}
}

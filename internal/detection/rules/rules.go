// Package rules implements the per-metric debounce state machines that turn
// noisy instantaneous metric readings into sustained-condition booleans.
package rules

import (
	"sync/atomic"
	"time"

	"github.com/okieraised/fatigue-agent/internal/detection/profile"
	"github.com/okieraised/fatigue-agent/internal/vision/metrics"
)

// Condition is the debounce state of one metric.
type Condition int

const (
	Normal Condition = iota
	Candidate
	Confirmed
)

func (c Condition) String() string {
	switch c {
	case Candidate:
		return "CANDIDATE"
	case Confirmed:
		return "CONFIRMED"
	default:
		return "NORMAL"
	}
}

// Metric identifies which indicator a monitor tracks.
type Metric int

const (
	MetricEye Metric = iota
	MetricMouth
	MetricHead
)

func (m Metric) String() string {
	switch m {
	case MetricEye:
		return "eye"
	case MetricMouth:
		return "mouth"
	default:
		return "head"
	}
}

// Monitor is one debounce state machine: NORMAL -> CANDIDATE -> CONFIRMED in
// the adverse direction with a dwell time, and an unconditional reset to
// NORMAL on any usable in-range sample. Unusable samples are skipped, they
// are evidence of nothing. Mutated only by the pipeline's processing stage.
type Monitor struct {
	metric    Metric
	threshold float64
	dwell     time.Duration

	condition Condition
	since     time.Time
	lastSeq   uint64
	seenAny   bool

	// episodes counts completed adverse runs that reached the dwell
	// (confirmed closures for the eye monitor, completed yawns for mouth).
	// Atomic because the stats endpoint reads them off-thread.
	episodes atomic.Uint64
	// brief counts adverse runs that ended before the dwell (blinks for the
	// eye monitor).
	brief atomic.Uint64
}

// NewMonitor builds the monitor for one metric from the active profile.
func NewMonitor(metric Metric, p profile.Profile) *Monitor {
	m := &Monitor{metric: metric}
	switch metric {
	case MetricEye:
		m.threshold = p.EARThreshold
		m.dwell = p.EARDwell
	case MetricMouth:
		m.threshold = p.MARThreshold
		m.dwell = p.MARDwell
	case MetricHead:
		m.threshold = p.PitchThreshold
		m.dwell = p.PitchDwell
	}
	return m
}

// adverse reports whether the sample reads in the fatigue direction for this
// metric: EAR below threshold, MAR above, |pitch| above.
func (m *Monitor) adverse(s metrics.Sample) bool {
	switch m.metric {
	case MetricEye:
		return s.EAR < m.threshold
	case MetricMouth:
		return s.MAR > m.threshold
	default:
		pitch := s.HeadPitchDeg
		if pitch < 0 {
			pitch = -pitch
		}
		return pitch > m.threshold
	}
}

// Observe feeds one sample through the state machine and returns the
// resulting condition. Samples must arrive in capture order; an out-of-order
// or unusable sample leaves the state untouched.
func (m *Monitor) Observe(s metrics.Sample) Condition {
	if m.seenAny && s.Seq <= m.lastSeq {
		return m.condition
	}
	m.lastSeq = s.Seq
	m.seenAny = true

	if !s.Usable {
		return m.condition
	}

	if !m.adverse(s) {
		// Single-sided hysteresis: one in-range sample clears all adverse
		// evidence immediately.
		if m.condition == Candidate && s.Timestamp.Sub(m.since) < m.dwell {
			m.brief.Add(1)
		}
		m.condition = Normal
		return m.condition
	}

	switch m.condition {
	case Normal:
		m.condition = Candidate
		m.since = s.Timestamp
	case Candidate, Confirmed:
		// Adverse run continues; since is never reset here.
	}

	if m.condition == Candidate && s.Timestamp.Sub(m.since) >= m.dwell {
		m.condition = Confirmed
		m.episodes.Add(1)
	}
	return m.condition
}

// Condition returns the current debounce state.
func (m *Monitor) Condition() Condition { return m.condition }

// Since returns when the current adverse run started. Only meaningful while
// the condition is CANDIDATE or CONFIRMED.
func (m *Monitor) Since() time.Time { return m.since }

// Episodes returns the number of confirmed adverse episodes this session.
func (m *Monitor) Episodes() uint64 { return m.episodes.Load() }

// Brief returns the number of adverse runs that cleared before the dwell
// elapsed (blinks, short mouth openings).
func (m *Monitor) Brief() uint64 { return m.brief.Load() }

// Engine owns the three monitors and feeds every usable sample to each.
type Engine struct {
	Eye   *Monitor
	Mouth *Monitor
	Head  *Monitor
}

func NewEngine(p profile.Profile) *Engine {
	return &Engine{
		Eye:   NewMonitor(MetricEye, p),
		Mouth: NewMonitor(MetricMouth, p),
		Head:  NewMonitor(MetricHead, p),
	}
}

// Observe runs one sample through all three monitors and returns their
// conditions in (eye, mouth, head) order.
func (e *Engine) Observe(s metrics.Sample) (Condition, Condition, Condition) {
	return e.Eye.Observe(s), e.Mouth.Observe(s), e.Head.Observe(s)
}

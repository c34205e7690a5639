// Package alert grades the three sustained-condition booleans into one of
// five alert levels and applies the timed HIGH to CRITICAL escalation.
package alert

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/okieraised/fatigue-agent/internal/detection/profile"
	"github.com/okieraised/fatigue-agent/internal/detection/rules"
	"github.com/okieraised/fatigue-agent/internal/vision/metrics"
)

// Level is the outward-facing alert severity.
type Level int

const (
	LevelNone Level = iota
	LevelLow
	LevelMedium
	LevelHigh
	LevelCritical
)

func (l Level) String() string {
	switch l {
	case LevelLow:
		return "LOW"
	case LevelMedium:
		return "MEDIUM"
	case LevelHigh:
		return "HIGH"
	case LevelCritical:
		return "CRITICAL"
	default:
		return "NONE"
	}
}

// MarshalText renders the level name in JSON payloads.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// Recommendation returns the operator guidance attached to events at this
// level.
func (l Level) Recommendation() string {
	switch l {
	case LevelLow:
		return "Early fatigue signs - adjust posture, increase airflow"
	case LevelMedium:
		return "Moderate fatigue - plan a rest stop within 30 minutes"
	case LevelHigh:
		return "Severe fatigue - pull over safely and rest"
	case LevelCritical:
		return "Critical drowsiness - stop driving immediately"
	default:
		return "No fatigue indicators - drive safely"
	}
}

// Event is emitted to sinks exactly once per level change.
type Event struct {
	ID             string    `json:"id"`
	Level          Level     `json:"level"`
	Previous       Level     `json:"previous"`
	Confidence     float64   `json:"confidence"`
	EAR            float64   `json:"ear"`
	MAR            float64   `json:"mar"`
	HeadPitchDeg   float64   `json:"head_pitch_deg"`
	Timestamp      time.Time `json:"timestamp"`
	Recommendation string    `json:"recommendation"`
	Profile        string    `json:"profile"`
}

// tableLevel is the pure decision table over the three confirmed bits.
// Escalation to CRITICAL is handled separately because it is time-based.
func tableLevel(eye, mouth, head bool, confidence, lowBandMin float64) Level {
	n := 0
	if eye {
		n++
	}
	if mouth {
		n++
	}
	if head {
		n++
	}
	switch n {
	case 3:
		return LevelHigh
	case 2:
		return LevelMedium
	case 1:
		if confidence > lowBandMin {
			return LevelLow
		}
		return LevelNone
	default:
		return LevelNone
	}
}

// Transition is the pure level-transition function: given the current level,
// the three confirmed bits and how long the aggregator has continuously been
// at HIGH-or-worse, it returns the next level. Escalation is slow (one rank
// per evaluation, CRITICAL only after highFor reaches escalationDwell);
// de-escalation is fast (drops straight to the table level).
func Transition(current Level, eye, mouth, head bool, confidence float64, highFor time.Duration, p profile.Profile) Level {
	target := tableLevel(eye, mouth, head, confidence, p.LowBandMin)

	if target == LevelHigh && current >= LevelHigh && highFor >= p.EscalationDwell {
		return LevelCritical
	}
	if target > current {
		// One rank of severity per evaluation.
		return current + 1
	}
	if target < current {
		if current == LevelCritical && target == LevelHigh {
			// Escalated state persists while all three remain confirmed.
			return LevelCritical
		}
		return target
	}
	return current
}

// Aggregator tracks the alert level across samples. Mutated only by the
// pipeline's processing stage; transitions are atomic per sample.
type Aggregator struct {
	prof profile.Profile

	// level and levelSince are atomic because the stats endpoint reads them
	// while the processing stage writes them; all other fields are touched
	// only by the processing stage.
	level      atomic.Int32
	levelSince atomic.Int64 // unix nanos of the last level change
	highSince  time.Time
	inHigh     bool

	emitted [LevelCritical + 1]atomic.Uint64
}

func NewAggregator(p profile.Profile) *Aggregator {
	return &Aggregator{prof: p}
}

// Level returns the current alert level.
func (a *Aggregator) Level() Level { return Level(a.level.Load()) }

// LevelSince returns when the current level was entered, or the zero time
// before the first transition.
func (a *Aggregator) LevelSince() time.Time {
	ns := a.levelSince.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

// EmittedCounts returns a copy of the per-level emission counters.
func (a *Aggregator) EmittedCounts() map[Level]uint64 {
	out := make(map[Level]uint64)
	for l := LevelNone; l <= LevelCritical; l++ {
		if n := a.emitted[l].Load(); n > 0 {
			out[l] = n
		}
	}
	return out
}

// Confidence derives the weighted fraction of confirmed metrics, scaled by
// the extractor's eye confidence so a half-tracked eye weighs less.
func (a *Aggregator) Confidence(eye, mouth, head bool, s metrics.Sample) float64 {
	total := a.prof.EyeWeight + a.prof.MouthWeight + a.prof.HeadWeight
	if total == 0 {
		return 0
	}
	var sum float64
	if eye {
		w := a.prof.EyeWeight
		if s.EyeConfidence > 0 {
			w *= s.EyeConfidence
		}
		sum += w
	}
	if mouth {
		sum += a.prof.MouthWeight
	}
	if head {
		sum += a.prof.HeadWeight
	}
	return sum / total
}

// Evaluate runs one aggregation step. The returned event is non-nil only
// when the level changed on this sample; unchanged levels never re-emit.
func (a *Aggregator) Evaluate(eyeC, mouthC, headC rules.Condition, s metrics.Sample) *Event {
	eye := eyeC == rules.Confirmed
	mouth := mouthC == rules.Confirmed
	head := headC == rules.Confirmed
	allNormal := eyeC == rules.Normal && mouthC == rules.Normal && headC == rules.Normal

	confidence := a.Confidence(eye, mouth, head, s)

	// The escalation clock runs only while all three stay confirmed;
	// dropping any one of them cancels it.
	if eye && mouth && head {
		if !a.inHigh {
			a.inHigh = true
			a.highSince = s.Timestamp
		}
	} else {
		a.inHigh = false
	}

	var highFor time.Duration
	if a.inHigh {
		highFor = s.Timestamp.Sub(a.highSince)
	}

	next := Transition(a.Level(), eye, mouth, head, confidence, highFor, a.prof)
	if allNormal {
		// Fast de-escalation: simultaneous all-NORMAL clears any level in
		// one step.
		next = LevelNone
	}

	prev := a.Level()
	if next == prev {
		return nil
	}

	a.level.Store(int32(next))
	a.levelSince.Store(s.Timestamp.UnixNano())
	a.emitted[next].Add(1)

	return &Event{
		ID:             uuid.NewString(),
		Level:          next,
		Previous:       prev,
		Confidence:     confidence,
		EAR:            s.EAR,
		MAR:            s.MAR,
		HeadPitchDeg:   s.HeadPitchDeg,
		Timestamp:      s.Timestamp,
		Recommendation: next.Recommendation(),
		Profile:        a.prof.Name,
	}
}

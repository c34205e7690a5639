package alert

import (
	"testing"
	"time"

	"github.com/okieraised/fatigue-agent/internal/detection/profile"
	"github.com/okieraised/fatigue-agent/internal/detection/rules"
	"github.com/okieraised/fatigue-agent/internal/vision/metrics"
	"github.com/stretchr/testify/assert"
)

func usableSample(seq uint64, ts time.Time) metrics.Sample {
	return metrics.Sample{
		Timestamp:     ts,
		Seq:           seq,
		EAR:           0.12,
		MAR:           0.7,
		HeadPitchDeg:  20,
		Usable:        true,
		EyeConfidence: 1,
	}
}

func TestTransitionEscalatesOneRankPerStep(t *testing.T) {
	p := profile.Default()

	// All three confirmed targets HIGH, but severity climbs one rank at a
	// time from NONE.
	assert.Equal(t, LevelLow, Transition(LevelNone, true, true, true, 1, 0, p))
	assert.Equal(t, LevelMedium, Transition(LevelLow, true, true, true, 1, 0, p))
	assert.Equal(t, LevelHigh, Transition(LevelMedium, true, true, true, 1, 0, p))
	// Never a NONE -> CRITICAL jump regardless of dwell already banked.
	assert.Equal(t, LevelLow, Transition(LevelNone, true, true, true, 1, time.Minute, p))
}

func TestTransitionCriticalRequiresDwellAtHigh(t *testing.T) {
	p := profile.Default()

	assert.Equal(t, LevelHigh,
		Transition(LevelHigh, true, true, true, 1, p.EscalationDwell-time.Millisecond, p))
	assert.Equal(t, LevelCritical,
		Transition(LevelHigh, true, true, true, 1, p.EscalationDwell, p))
}

func TestTransitionCriticalPersistsWhileAllConfirmed(t *testing.T) {
	p := profile.Default()

	// All three still confirmed: CRITICAL does not decay back to HIGH.
	assert.Equal(t, LevelCritical, Transition(LevelCritical, true, true, true, 1, 0, p))
	// One metric clears: fast drop to the table level.
	assert.Equal(t, LevelMedium, Transition(LevelCritical, true, true, false, 1, 0, p))
	assert.Equal(t, LevelNone, Transition(LevelCritical, false, false, false, 0, 0, p))
}

func TestTransitionLowBandGating(t *testing.T) {
	p := profile.Default()

	// A single confirmed metric raises LOW only above the confidence floor.
	assert.Equal(t, LevelLow, Transition(LevelNone, true, false, false, p.LowBandMin+0.01, 0, p))
	assert.Equal(t, LevelNone, Transition(LevelNone, true, false, false, p.LowBandMin, 0, p))
}

func TestAggregatorEscalationPath(t *testing.T) {
	p := profile.Default()
	a := NewAggregator(p)
	start := time.Now()

	// All three confirmed from the first sample; escalate LOW -> MEDIUM ->
	// HIGH one evaluation at a time.
	want := []Level{LevelLow, LevelMedium, LevelHigh}
	for i, lvl := range want {
		ev := a.Evaluate(rules.Confirmed, rules.Confirmed, rules.Confirmed,
			usableSample(uint64(i+1), start.Add(time.Duration(i)*100*time.Millisecond)))
		if assert.NotNil(t, ev) {
			assert.Equal(t, lvl, ev.Level)
		}
	}
	assert.Equal(t, LevelHigh, a.Level())

	// Holding HIGH re-emits nothing until the escalation dwell elapses.
	ev := a.Evaluate(rules.Confirmed, rules.Confirmed, rules.Confirmed,
		usableSample(4, start.Add(300*time.Millisecond)))
	assert.Nil(t, ev)

	ev = a.Evaluate(rules.Confirmed, rules.Confirmed, rules.Confirmed,
		usableSample(5, start.Add(p.EscalationDwell)))
	if assert.NotNil(t, ev) {
		assert.Equal(t, LevelCritical, ev.Level)
		assert.Equal(t, LevelHigh, ev.Previous)
		assert.Equal(t, LevelCritical.Recommendation(), ev.Recommendation)
		assert.Equal(t, p.Name, ev.Profile)
		assert.NotEmpty(t, ev.ID)
	}
}

func TestAggregatorEscalationClockResetsWhenMetricDrops(t *testing.T) {
	p := profile.Default()
	a := NewAggregator(p)
	start := time.Now()

	a.Evaluate(rules.Confirmed, rules.Confirmed, rules.Confirmed, usableSample(1, start))
	a.Evaluate(rules.Confirmed, rules.Confirmed, rules.Confirmed, usableSample(2, start.Add(100*time.Millisecond)))
	a.Evaluate(rules.Confirmed, rules.Confirmed, rules.Confirmed, usableSample(3, start.Add(200*time.Millisecond)))
	assert.Equal(t, LevelHigh, a.Level())

	// Head clears momentarily; the HIGH-continuity clock restarts.
	a.Evaluate(rules.Confirmed, rules.Confirmed, rules.Candidate, usableSample(4, start.Add(300*time.Millisecond)))
	a.Evaluate(rules.Confirmed, rules.Confirmed, rules.Confirmed, usableSample(5, start.Add(400*time.Millisecond)))

	// Dwell measured from the original start has elapsed, but not from the
	// restart, so CRITICAL is withheld.
	ev := a.Evaluate(rules.Confirmed, rules.Confirmed, rules.Confirmed,
		usableSample(6, start.Add(p.EscalationDwell+200*time.Millisecond)))
	assert.Nil(t, ev)
	assert.Equal(t, LevelHigh, a.Level())
}

func TestAggregatorFastDeescalationToNone(t *testing.T) {
	p := profile.Default()
	a := NewAggregator(p)
	start := time.Now()

	a.Evaluate(rules.Confirmed, rules.Confirmed, rules.Confirmed, usableSample(1, start))
	a.Evaluate(rules.Confirmed, rules.Confirmed, rules.Confirmed, usableSample(2, start.Add(100*time.Millisecond)))
	assert.Equal(t, LevelMedium, a.Level())

	// Simultaneous all-NORMAL clears any level in one step.
	ev := a.Evaluate(rules.Normal, rules.Normal, rules.Normal, usableSample(3, start.Add(200*time.Millisecond)))
	if assert.NotNil(t, ev) {
		assert.Equal(t, LevelNone, ev.Level)
		assert.Equal(t, LevelMedium, ev.Previous)
	}

	counts := a.EmittedCounts()
	assert.Equal(t, uint64(1), counts[LevelLow])
	assert.Equal(t, uint64(1), counts[LevelMedium])
	assert.Equal(t, uint64(1), counts[LevelNone])
}

func TestAggregatorLevelSinceTracksTransitions(t *testing.T) {
	p := profile.Default()
	a := NewAggregator(p)
	start := time.Now()

	assert.True(t, a.LevelSince().IsZero())

	a.Evaluate(rules.Confirmed, rules.Normal, rules.Normal, usableSample(1, start))
	assert.Equal(t, LevelLow, a.Level())
	assert.Equal(t, start.UnixNano(), a.LevelSince().UnixNano())

	// Holding the level leaves the entry time untouched.
	a.Evaluate(rules.Confirmed, rules.Normal, rules.Normal, usableSample(2, start.Add(100*time.Millisecond)))
	assert.Equal(t, start.UnixNano(), a.LevelSince().UnixNano())

	clearAt := start.Add(200 * time.Millisecond)
	a.Evaluate(rules.Normal, rules.Normal, rules.Normal, usableSample(3, clearAt))
	assert.Equal(t, LevelNone, a.Level())
	assert.Equal(t, clearAt.UnixNano(), a.LevelSince().UnixNano())
}

func TestAggregatorConfidenceWeighting(t *testing.T) {
	p := profile.Default()
	a := NewAggregator(p)

	s := usableSample(1, time.Now())
	assert.InDelta(t, 1.0/3.0, a.Confidence(true, false, false, s), 1e-9)
	assert.InDelta(t, 1.0, a.Confidence(true, true, true, s), 1e-9)

	// A half-trusted eye read scales only the eye weight.
	s.EyeConfidence = 0.7
	assert.InDelta(t, 0.7/3.0, a.Confidence(true, false, false, s), 1e-9)
	assert.InDelta(t, 2.7/3.0, a.Confidence(true, true, true, s), 1e-9)
}

func TestLevelText(t *testing.T) {
	assert.Equal(t, "CRITICAL", LevelCritical.String())
	b, err := LevelHigh.MarshalText()
	assert.NoError(t, err)
	assert.Equal(t, "HIGH", string(b))
}

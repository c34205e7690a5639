// Package profile defines the immutable threshold bundles the detection
// rules run against. A profile is resolved once at startup and shared
// read-only for the whole session.
package profile

import (
	"time"

	"github.com/okieraised/fatigue-agent/internal/cerrors"
	"github.com/okieraised/fatigue-agent/internal/config"
	"github.com/spf13/viper"
)

const (
	NameDefault      = "default"
	NameSensitive    = "sensitive"
	NameConservative = "conservative"
)

// Profile bundles per-metric thresholds and dwell times plus the HIGH to
// CRITICAL escalation dwell. Adverse direction per metric: EAR below
// threshold, MAR above threshold, |pitch| above threshold.
type Profile struct {
	Name string `json:"name"`

	EARThreshold float64       `json:"ear_threshold"`
	EARDwell     time.Duration `json:"ear_dwell"`

	MARThreshold float64       `json:"mar_threshold"`
	MARDwell     time.Duration `json:"mar_dwell"`

	PitchThreshold float64       `json:"pitch_threshold"`
	PitchDwell     time.Duration `json:"pitch_dwell"`

	EscalationDwell time.Duration `json:"escalation_dwell"`

	// Metric weights for the aggregate confidence score, equal by default.
	EyeWeight   float64 `json:"eye_weight"`
	MouthWeight float64 `json:"mouth_weight"`
	HeadWeight  float64 `json:"head_weight"`

	// LowBandMin is the minimum confidence a single confirmed metric needs
	// to raise LOW instead of NONE.
	LowBandMin float64 `json:"low_band_min"`
}

func base(name string) Profile {
	return Profile{
		Name:        name,
		EyeWeight:   1,
		MouthWeight: 1,
		HeadWeight:  1,
		LowBandMin:  0.25,
	}
}

// Default is the balanced profile.
func Default() Profile {
	p := base(NameDefault)
	p.EARThreshold = 0.25
	p.EARDwell = 1500 * time.Millisecond
	p.MARThreshold = 0.65
	p.MARDwell = 1 * time.Second
	p.PitchThreshold = 18
	p.PitchDwell = 1300 * time.Millisecond
	p.EscalationDwell = 3 * time.Second
	return p
}

// Sensitive trades false positives for reaction speed.
func Sensitive() Profile {
	p := base(NameSensitive)
	p.EARThreshold = 0.27
	p.EARDwell = 800 * time.Millisecond
	p.MARThreshold = 0.60
	p.MARDwell = 700 * time.Millisecond
	p.PitchThreshold = 15
	p.PitchDwell = 800 * time.Millisecond
	p.EscalationDwell = 2 * time.Second
	return p
}

// Conservative suppresses false positives at the cost of slower alerts.
func Conservative() Profile {
	p := base(NameConservative)
	p.EARThreshold = 0.23
	p.EARDwell = 2 * time.Second
	p.MARThreshold = 0.70
	p.MARDwell = 1500 * time.Millisecond
	p.PitchThreshold = 22
	p.PitchDwell = 2 * time.Second
	p.EscalationDwell = 5 * time.Second
	return p
}

// ByName resolves one of the named bundles.
func ByName(name string) (Profile, error) {
	switch name {
	case "", NameDefault:
		return Default(), nil
	case NameSensitive:
		return Sensitive(), nil
	case NameConservative:
		return Conservative(), nil
	default:
		return Profile{}, cerrors.ErrUnknownProfile.WithMessage("unknown detection profile %q", name)
	}
}

// Load resolves the configured profile and applies any per-key overrides,
// then validates the result. Invalid values fail fast.
func Load() (Profile, error) {
	p, err := ByName(viper.GetString(config.DetectionProfile))
	if err != nil {
		return Profile{}, err
	}

	if viper.IsSet(config.DetectionEARThreshold) {
		p.EARThreshold = viper.GetFloat64(config.DetectionEARThreshold)
	}
	if viper.IsSet(config.DetectionEARDwell) {
		p.EARDwell = viper.GetDuration(config.DetectionEARDwell)
	}
	if viper.IsSet(config.DetectionMARThreshold) {
		p.MARThreshold = viper.GetFloat64(config.DetectionMARThreshold)
	}
	if viper.IsSet(config.DetectionMARDwell) {
		p.MARDwell = viper.GetDuration(config.DetectionMARDwell)
	}
	if viper.IsSet(config.DetectionPitchThreshold) {
		p.PitchThreshold = viper.GetFloat64(config.DetectionPitchThreshold)
	}
	if viper.IsSet(config.DetectionPitchDwell) {
		p.PitchDwell = viper.GetDuration(config.DetectionPitchDwell)
	}
	if viper.IsSet(config.DetectionEscalationDwell) {
		p.EscalationDwell = viper.GetDuration(config.DetectionEscalationDwell)
	}
	if viper.IsSet(config.DetectionEyeWeight) {
		p.EyeWeight = viper.GetFloat64(config.DetectionEyeWeight)
	}
	if viper.IsSet(config.DetectionMouthWeight) {
		p.MouthWeight = viper.GetFloat64(config.DetectionMouthWeight)
	}
	if viper.IsSet(config.DetectionHeadWeight) {
		p.HeadWeight = viper.GetFloat64(config.DetectionHeadWeight)
	}

	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// Validate rejects out-of-range threshold combinations.
func (p Profile) Validate() error {
	invalid := func(msg string, a ...any) error {
		return cerrors.ErrInvalidConfiguration.WithMessage(msg, a...)
	}
	if p.EARThreshold <= 0 || p.EARThreshold >= 1 {
		return invalid("ear_threshold must be in (0, 1), got %v", p.EARThreshold)
	}
	if p.MARThreshold <= 0 || p.MARThreshold >= 2 {
		return invalid("mar_threshold must be in (0, 2), got %v", p.MARThreshold)
	}
	if p.PitchThreshold <= 0 || p.PitchThreshold >= 90 {
		return invalid("pitch_threshold must be in (0, 90) degrees, got %v", p.PitchThreshold)
	}
	if p.EARDwell <= 0 || p.MARDwell <= 0 || p.PitchDwell <= 0 {
		return invalid("metric dwell times must be positive")
	}
	if p.EscalationDwell <= 0 {
		return invalid("escalation_dwell must be positive")
	}
	if p.EyeWeight < 0 || p.MouthWeight < 0 || p.HeadWeight < 0 {
		return invalid("metric weights must be non-negative")
	}
	if p.EyeWeight+p.MouthWeight+p.HeadWeight == 0 {
		return invalid("at least one metric weight must be positive")
	}
	return nil
}

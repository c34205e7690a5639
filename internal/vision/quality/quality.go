// Package quality validates that a frame and its landmark set are good
// enough to feed the rule layer. A rejected sample is forwarded flagged
// unusable; it is never dropped and never counts as evidence of alertness.
package quality

import (
	"math"

	"github.com/okieraised/fatigue-agent/internal/config"
	"github.com/okieraised/fatigue-agent/internal/vision"
	"github.com/okieraised/fatigue-agent/internal/vision/landmark"
	"github.com/spf13/viper"
)

// Reason codes for rejected samples.
type Reason string

const (
	ReasonOK            Reason = ""
	ReasonNoFace        Reason = "no_face"
	ReasonLowConfidence Reason = "low_confidence"
	ReasonTooDark       Reason = "too_dark"
	ReasonTooBright     Reason = "too_bright"
	ReasonTooBlurry     Reason = "too_blurry"
	ReasonLowContrast   Reason = "low_contrast"
	ReasonFaceTooSmall  Reason = "face_too_small"
)

// Thresholds bound the acceptable frame statistics. Zero-value fields are
// replaced by defaults in NewGate.
type Thresholds struct {
	MinBrightness   float64
	MaxBrightness   float64
	MinContrast     float64
	MinSharpness    float64
	MinConfidence   float64
	MinFaceFraction float64
}

// DefaultThresholds mirrors the tuning the detection rules were calibrated
// against (8-bit luma statistics).
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinBrightness:   30,
		MaxBrightness:   230,
		MinContrast:     20,
		MinSharpness:    60,
		MinConfidence:   0.5,
		MinFaceFraction: 0.08,
	}
}

// ThresholdsFromViper resolves the gate tuning from the loaded
// configuration; unset keys fall back to defaults in NewGate.
func ThresholdsFromViper() Thresholds {
	return Thresholds{
		MinBrightness:   viper.GetFloat64(config.QualityMinBrightness),
		MaxBrightness:   viper.GetFloat64(config.QualityMaxBrightness),
		MinContrast:     viper.GetFloat64(config.QualityMinContrast),
		MinSharpness:    viper.GetFloat64(config.QualityMinSharpness),
		MinConfidence:   viper.GetFloat64(config.QualityMinConfidence),
		MinFaceFraction: viper.GetFloat64(config.QualityMinFaceFraction),
	}
}

// FrameStats are the luma statistics the gate decides on.
type FrameStats struct {
	Brightness float64 `json:"brightness"`
	Contrast   float64 `json:"contrast"`
	Sharpness  float64 `json:"sharpness"`
}

// Gate evaluates frame and landmark quality. Stateless; safe for concurrent
// use.
type Gate struct {
	th Thresholds
}

func NewGate(th Thresholds) *Gate {
	def := DefaultThresholds()
	if th.MinBrightness <= 0 {
		th.MinBrightness = def.MinBrightness
	}
	if th.MaxBrightness <= 0 {
		th.MaxBrightness = def.MaxBrightness
	}
	if th.MinContrast <= 0 {
		th.MinContrast = def.MinContrast
	}
	if th.MinSharpness <= 0 {
		th.MinSharpness = def.MinSharpness
	}
	if th.MinConfidence <= 0 {
		th.MinConfidence = def.MinConfidence
	}
	if th.MinFaceFraction <= 0 {
		th.MinFaceFraction = def.MinFaceFraction
	}
	return &Gate{th: th}
}

// Check returns whether the (frame, landmarks) pair is usable and the first
// reason it is not. A nil landmark set means the provider found no face.
func (g *Gate) Check(frame *vision.Frame, set *landmark.Set) (bool, Reason, FrameStats) {
	stats := ComputeFrameStats(frame)

	switch {
	case stats.Brightness < g.th.MinBrightness:
		return false, ReasonTooDark, stats
	case stats.Brightness > g.th.MaxBrightness:
		return false, ReasonTooBright, stats
	case stats.Contrast < g.th.MinContrast:
		return false, ReasonLowContrast, stats
	case stats.Sharpness < g.th.MinSharpness:
		return false, ReasonTooBlurry, stats
	}

	if set == nil || len(set.Points) == 0 {
		return false, ReasonNoFace, stats
	}
	if set.Confidence < g.th.MinConfidence {
		return false, ReasonLowConfidence, stats
	}
	if frame.Width > 0 && set.BoxWidth/float64(frame.Width) < g.th.MinFaceFraction {
		return false, ReasonFaceTooSmall, stats
	}

	return true, ReasonOK, stats
}

// ComputeFrameStats derives mean brightness, standard-deviation contrast and
// a gradient-variance sharpness estimate from the luma plane. Sampling every
// other row/column keeps this under the per-frame budget at VGA sizes.
func ComputeFrameStats(frame *vision.Frame) FrameStats {
	if frame == nil || frame.Width < 3 || frame.Height < 3 || len(frame.Data) < frame.PixelCount() {
		return FrameStats{}
	}

	w, h := frame.Width, frame.Height
	data := frame.Data

	var sum, sumSq float64
	var n int
	for y := 0; y < h; y += 2 {
		row := data[y*w : y*w+w]
		for x := 0; x < w; x += 2 {
			v := float64(row[x])
			sum += v
			sumSq += v * v
			n++
		}
	}
	if n == 0 {
		return FrameStats{}
	}
	mean := sum / float64(n)
	variance := sumSq/float64(n) - mean*mean
	if variance < 0 {
		variance = 0
	}

	// Laplacian response variance over the interior, the classic blur score.
	var lapSum, lapSumSq float64
	var m int
	for y := 1; y < h-1; y += 2 {
		for x := 1; x < w-1; x += 2 {
			c := int(data[y*w+x])
			lap := float64(4*c - int(data[y*w+x-1]) - int(data[y*w+x+1]) -
				int(data[(y-1)*w+x]) - int(data[(y+1)*w+x]))
			lapSum += lap
			lapSumSq += lap * lap
			m++
		}
	}
	var sharpness float64
	if m > 0 {
		lapMean := lapSum / float64(m)
		sharpness = lapSumSq/float64(m) - lapMean*lapMean
		if sharpness < 0 {
			sharpness = 0
		}
	}

	return FrameStats{
		Brightness: mean,
		Contrast:   math.Sqrt(variance),
		Sharpness:  sharpness,
	}
}

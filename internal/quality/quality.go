// Package quality implements the per-channel signal-quality assessor:
// artifact detection, SNR, and the scalar quality score, per spec.md
// §4.5.
package quality

import (
	"math"

	"github.com/eegwolf/eegwolf/internal/feature"
	"github.com/eegwolf/eegwolf/internal/filter"
)

// ArtifactTag is one of the enumerated artifact classifications.
type ArtifactTag string

const (
	Clean           ArtifactTag = "CLEAN"
	HighVariance    ArtifactTag = "HIGH_VARIANCE"
	MuscleArtifact  ArtifactTag = "MUSCLE_ARTIFACT"
	Saturation      ArtifactTag = "SATURATION"
	LineNoise       ArtifactTag = "LINE_NOISE"
	LowSignal       ArtifactTag = "LOW_SIGNAL"
)

// Report is the per-window, per-channel quality assessment.
type Report struct {
	SNRdB        float64
	ArtifactTag  ArtifactTag
	QualityScore float64
}

// Thresholds collects the configurable artifact thresholds from
// spec.md §4.5/§4.8.
type Thresholds struct {
	SaturationFraction  float64
	LowSignalVariance   float64
	MuscleBetaThreshold float64
	VarianceMultiplier  float64
	LineNoiseFraction   float64 // fraction of alpha_power
	LineFreq            float64
	ADCMax              int
}

// MedianTracker maintains the running median of per-window variance
// over the last `window` windows, used by the HIGH_VARIANCE check.
// Bounded memory: it keeps at most `window` samples, as a plain ring of
// float64 (no teacher analogue — direwolf has no windowed-quality
// concept at all; this is new, built straightforwardly from spec.md's
// own description of the check).
type MedianTracker struct {
	history []float64
	window  int
}

// NewMedianTracker creates a tracker retaining the last `window`
// variance observations.
func NewMedianTracker(window int) *MedianTracker {
	if window < 1 {
		window = 1
	}
	return &MedianTracker{window: window}
}

// Median returns the current running median, or 0 if no observations
// have been recorded yet.
func (m *MedianTracker) Median() float64 {
	if len(m.history) == 0 {
		return 0
	}
	sorted := append([]float64(nil), m.history...)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j-1] > sorted[j]; j-- {
			sorted[j-1], sorted[j] = sorted[j], sorted[j-1]
		}
	}
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// Observe records a new variance value, evicting the oldest if the
// tracker is full.
func (m *MedianTracker) Observe(v float64) {
	m.history = append(m.history, v)
	if len(m.history) > m.window {
		m.history = m.history[1:]
	}
}

// Assess computes the Report for one channel's window, given its raw
// samples, its preprocessed wideband signal (for the SNR/line-noise
// spectral checks), its extracted Features, and the running variance
// median tracker. The running tracker is updated with this window's
// variance as a side effect, matching spec.md §4.5's "maintained across
// the last median_window windows."
//
// nonFinite must be the bool feature.Extract returned alongside f: a
// NaN/Inf feature observed during extraction escalates this channel's
// artifact tag straight to HIGH_VARIANCE and zeros the quality score,
// per spec.md §7's InternalError handling.
func Assess(raw []float64, preprocessed []float64, f feature.Features, th Thresholds, fs float64, nperseg int, tracker *MedianTracker, nonFinite bool) Report {
	if nonFinite {
		tracker.Observe(sampleVariance(raw))
		return Report{SNRdB: -60, ArtifactTag: HighVariance, QualityScore: 0}
	}

	rawVariance := sampleVariance(raw)

	saturationFraction := fractionAtRails(raw, th.ADCMax)

	runningMedian := tracker.Median()
	tracker.Observe(rawVariance)

	freqs, psd := filter.PowerSpectrum(preprocessed, fs, nperseg)
	lineLow, lineHigh := th.LineFreq-1, th.LineFreq+1
	lineNoisePower := filter.BandPower(freqs, psd, lineLow, lineHigh)
	lineNoiseRatio := 0.0
	if f.AlphaPower > 0 {
		lineNoiseRatio = lineNoisePower / f.AlphaPower
	}

	noisePower := filter.BandPower(freqs, psd, 30, 40)
	snr := 60.0
	if noisePower > 0 && f.AlphaPower > 0 {
		snr = 10 * math.Log10(f.AlphaPower/noisePower)
		if snr > 60 {
			snr = 60
		}
	} else if f.AlphaPower == 0 {
		snr = -60 // no signal, no noise floor headroom either
	}

	tag := classify(saturationFraction, th.SaturationFraction, f.BetaPower, th.MuscleBetaThreshold,
		lineNoiseRatio, th.LineNoiseFraction, rawVariance, runningMedian, th.VarianceMultiplier,
		th.LowSignalVariance)

	score := 100.0
	score -= saturationFraction * 40
	if tag != Clean {
		score -= 25
	}
	if snr < 10 {
		score -= (10 - snr) * 3
	}
	score -= lineNoiseRatio * 20
	score = clamp(score, 0, 100)

	if math.IsNaN(snr) || math.IsInf(snr, 0) {
		snr = -60
		tag = HighVariance
		score = 0
	}

	return Report{SNRdB: snr, ArtifactTag: tag, QualityScore: score}
}

// classify applies the fixed priority order from spec.md §4.5:
// SATURATION > MUSCLE_ARTIFACT > LINE_NOISE > HIGH_VARIANCE >
// LOW_SIGNAL > CLEAN.
func classify(saturationFraction, saturationThresh float64,
	betaPower, muscleThresh float64,
	lineNoiseRatio, lineNoiseThresh float64,
	variance, runningMedian, varianceMultiplier float64,
	lowSignalThresh float64,
) ArtifactTag {
	switch {
	case saturationFraction > saturationThresh:
		return Saturation
	case betaPower > muscleThresh:
		return MuscleArtifact
	case lineNoiseRatio > lineNoiseThresh:
		return LineNoise
	case runningMedian > 0 && variance > varianceMultiplier*runningMedian:
		return HighVariance
	case variance < lowSignalThresh:
		return LowSignal
	default:
		return Clean
	}
}

func fractionAtRails(raw []float64, adcMax int) float64 {
	if len(raw) == 0 {
		return 0
	}
	count := 0
	for _, v := range raw {
		if v <= 0 || v >= float64(adcMax) {
			count++
		}
	}
	return float64(count) / float64(len(raw))
}

func sampleVariance(x []float64) float64 {
	if len(x) < 2 {
		return 0
	}
	var sum float64
	for _, v := range x {
		sum += v
	}
	mean := sum / float64(len(x))
	var sumSq float64
	for _, v := range x {
		d := v - mean
		sumSq += d * d
	}
	return sumSq / float64(len(x)-1)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

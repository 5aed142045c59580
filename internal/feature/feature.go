// Package feature extracts the per-window, per-channel scalar features
// spec.md §4.4 defines: band powers, envelope, variance, RMS, and the
// spectral summary statistics.
package feature

import (
	"math"

	"github.com/eegwolf/eegwolf/internal/filter"
)

// Bands of interest for the band-power breakdown, per spec.md §4.4.
type Bands struct {
	Delta, Theta, Alpha, Beta, Gamma [2]float64
}

// DefaultBands returns the band edges fixed by spec.md §4.4, with the
// gamma upper edge clamped to min(45, fs/2).
func DefaultBands(fs float64) Bands {
	gammaHigh := math.Min(45, fs/2)
	return Bands{
		Delta: [2]float64{0.5, 4},
		Theta: [2]float64{4, 8},
		Alpha: [2]float64{8, 12},
		Beta:  [2]float64{13, 30},
		Gamma: [2]float64{30, gammaHigh},
	}
}

// BandPowers holds the five canonical band powers.
type BandPowers struct {
	Delta, Theta, Alpha, Beta, Gamma float64
}

// Features is the per-channel, per-window scalar summary spec.md §3
// names.
type Features struct {
	AlphaPower     float64
	BetaPower      float64
	BandPowers     BandPowers
	RMS            float64
	Variance       float64
	SpectralEdge95 float64
	MedianFreq     float64
	EnvelopeMean   float64
}

// Extract computes Features for one channel given its preprocessed
// wideband signal and the alpha/beta bandpassed derivatives, following
// spec.md §4.4's definitions exactly. fs and nperseg drive the Welch
// PSD used for the band powers and spectral summaries, which spec.md
// §9 resolves to operate on the preprocessed (post-notch,
// post-wideband-bandpass) signal.
//
// The second return value reports whether any computed feature came
// out NaN/Inf (spec.md §7 InternalError territory); callers must
// escalate that channel's artifact tag to HIGH_VARIANCE and the
// decision to UNKNOWN rather than propagate the non-finite value.
func Extract(wideband, alpha, beta []float64, fs float64, nperseg int) (Features, bool) {
	f := Features{
		AlphaPower: meanSquare(alpha),
		BetaPower:  meanSquare(beta),
		RMS:        rms(wideband),
		Variance:   variance(wideband),
	}

	freqs, psd := filter.PowerSpectrum(wideband, fs, nperseg)
	bands := DefaultBands(fs)
	f.BandPowers = BandPowers{
		Delta: filter.BandPower(freqs, psd, bands.Delta[0], bands.Delta[1]),
		Theta: filter.BandPower(freqs, psd, bands.Theta[0], bands.Theta[1]),
		Alpha: filter.BandPower(freqs, psd, bands.Alpha[0], bands.Alpha[1]),
		Beta:  filter.BandPower(freqs, psd, bands.Beta[0], bands.Beta[1]),
		Gamma: filter.BandPower(freqs, psd, bands.Gamma[0], bands.Gamma[1]),
	}
	f.SpectralEdge95 = filter.SpectralEdge(freqs, psd, 0.95)
	f.MedianFreq = filter.SpectralEdge(freqs, psd, 0.5)

	envelope := filter.HilbertEnvelope(alpha)
	f.EnvelopeMean = mean(envelope)

	if hasNonFinite(f) {
		return Features{}, true
	}

	return f, false
}

func meanSquare(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return sum / float64(len(x))
}

func rms(x []float64) float64 {
	return math.Sqrt(meanSquare(x))
}

func mean(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	var sum float64
	for _, v := range x {
		sum += v
	}
	return sum / float64(len(x))
}

func variance(x []float64) float64 {
	if len(x) < 2 {
		return 0
	}
	m := mean(x)
	var sumSq float64
	for _, v := range x {
		d := v - m
		sumSq += d * d
	}
	return sumSq / float64(len(x)-1)
}

func hasNonFinite(f Features) bool {
	vals := []float64{
		f.AlphaPower, f.BetaPower, f.RMS, f.Variance,
		f.SpectralEdge95, f.MedianFreq, f.EnvelopeMean,
		f.BandPowers.Delta, f.BandPowers.Theta, f.BandPowers.Alpha,
		f.BandPowers.Beta, f.BandPowers.Gamma,
	}
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return true
		}
	}
	return false
}

package filter

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sineWave(freq, fs float64, n int, amplitude float64) []float64 {
	x := make([]float64, n)
	for i := range x {
		x[i] = amplitude * math.Sin(2*math.Pi*freq*float64(i)/fs)
	}
	return x
}

func rms(x []float64) float64 {
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(x)))
}

// middle80 returns the middle 80% of x, per spec.md §8's guidance to
// evaluate filter idempotence away from edge transients.
func middle80(x []float64) []float64 {
	n := len(x)
	trim := n / 10
	return x[trim : n-trim]
}

func TestBandpassAttenuatesOutOfBand(t *testing.T) {
	const fs = 250.0
	cascade, err := Butterworth(4, 8, 12, fs)
	require.NoError(t, err)

	inBand := sineWave(10, fs, 500, 1.0)
	outOfBand := sineWave(2, fs, 500, 1.0)

	yIn, _ := Apply(cascade, inBand)
	yOut, _ := Apply(cascade, outOfBand)

	// The passband tone should survive with much more RMS energy in
	// the middle of the window than an equal-amplitude tone well
	// outside the band.
	assert.Greater(t, rms(middle80(yIn)), 3*rms(middle80(yOut)))
}

func TestNotchAttenuatesLineFrequency(t *testing.T) {
	const fs = 250.0
	cascade, err := Notch(50, 30, fs)
	require.NoError(t, err)

	x := sineWave(50, fs, 500, 1.0)
	y, _ := Apply(cascade, x)

	ratio := rms(middle80(y)) / rms(middle80(x))
	attenuationDB := 20 * math.Log10(ratio)
	assert.Less(t, attenuationDB, -20.0, "expected >= 20dB attenuation at the notch frequency")
}

func TestZeroPhaseIdempotence(t *testing.T) {
	const fs = 250.0
	cascade, err := Butterworth(4, 1, 40, fs)
	require.NoError(t, err)

	x := sineWave(10, fs, 500, 1.0)
	once, _ := Apply(cascade, x)
	twice, _ := Apply(cascade, once)

	a, b := middle80(once), middle80(twice)
	var sumSqDiff float64
	for i := range a {
		d := a[i] - b[i]
		sumSqDiff += d * d
	}
	rmsDiff := math.Sqrt(sumSqDiff / float64(len(a)))
	assert.Less(t, rmsDiff, 1e-2, "repeated preprocessing should be close to idempotent away from edges")
}

func TestApplyUndersampledReturnsUnmodified(t *testing.T) {
	cascade, err := Butterworth(4, 8, 12, 250)
	require.NoError(t, err)

	x := []float64{1, 2, 3}
	y, undersampled := Apply(cascade, x)
	assert.True(t, undersampled)
	assert.Equal(t, x, y)
}

func TestBandPowerZeroTotal(t *testing.T) {
	freqs := []float64{0, 1, 2, 3}
	psd := []float64{0, 0, 0, 0}
	assert.Equal(t, 0.0, BandPower(freqs, psd, 1, 2))
	assert.Equal(t, 0.0, SpectralEdge(freqs, psd, 0.95))
}

func TestPowerSpectrumConcentratesEnergyNearTone(t *testing.T) {
	const fs = 250.0
	x := sineWave(10, fs, 500, 1.0)
	freqs, psd := PowerSpectrum(x, fs, 0)

	alphaPower := BandPower(freqs, psd, 8, 12)
	totalPower := BandPower(freqs, psd, 0, fs/2)
	assert.Greater(t, alphaPower/totalPower, 0.5)
}

func TestHilbertEnvelopeTracksAmplitude(t *testing.T) {
	const fs = 250.0
	const amplitude = 3.0
	x := sineWave(10, fs, 500, amplitude)
	env := HilbertEnvelope(x)

	mid := middle80(env)
	var sum float64
	for _, v := range mid {
		sum += v
	}
	mean := sum / float64(len(mid))
	assert.InDelta(t, amplitude, mean, 0.3)
}

func TestNewBankRejectsBadConfig(t *testing.T) {
	_, err := NewBank(BankParams{
		FS: 60, NotchFreq: 50, NotchQ: 30,
		BandpassLow: 1, BandpassHigh: 40,
		AlphaLow: 8, AlphaHigh: 12,
		BetaLow: 13, BetaHigh: 30,
		Order: 4,
	})
	require.Error(t, err)
	var cfgErr *ErrConfig
	assert.ErrorAs(t, err, &cfgErr)
}

package quality

import (
	"math"
	"testing"

	"github.com/eegwolf/eegwolf/internal/feature"
	"github.com/stretchr/testify/assert"
)

func defaultThresholds() Thresholds {
	return Thresholds{
		SaturationFraction:  0.02,
		LowSignalVariance:   1.0,
		MuscleBetaThreshold: 100,
		VarianceMultiplier:  3.0,
		LineNoiseFraction:   0.5,
		LineFreq:            50,
		ADCMax:              1023,
	}
}

func sineWave(freq, fs float64, n int, amplitude, offset float64) []float64 {
	x := make([]float64, n)
	for i := range x {
		x[i] = offset + amplitude*math.Sin(2*math.Pi*freq*float64(i)/fs)
	}
	return x
}

func TestAssessConstantSignalIsLowSignal(t *testing.T) {
	const fs = 250.0
	raw := make([]float64, 500)
	for i := range raw {
		raw[i] = 512
	}
	preprocessed := make([]float64, 500) // mean-subtracted constant is all zero
	f, nonFinite := feature.Extract(preprocessed, preprocessed, preprocessed, fs, 0)

	tracker := NewMedianTracker(30)
	report := Assess(raw, preprocessed, f, defaultThresholds(), fs, 0, tracker, nonFinite)

	assert.Equal(t, LowSignal, report.ArtifactTag)
	assert.Equal(t, 0.0, f.AlphaPower)
}

func TestAssessSaturationDominatesPriority(t *testing.T) {
	const fs = 250.0
	raw := sineWave(10, fs, 500, 40, 512)
	// Clip 5% of samples to the ADC rail.
	for i := 0; i < len(raw); i += 20 {
		raw[i] = 1023
	}
	preprocessed := sineWave(10, fs, 500, 40, 0)
	f, nonFinite := feature.Extract(preprocessed, preprocessed, preprocessed, fs, 0)

	tracker := NewMedianTracker(30)
	report := Assess(raw, preprocessed, f, defaultThresholds(), fs, 0, tracker, nonFinite)

	assert.Equal(t, Saturation, report.ArtifactTag)
}

func TestAssessQualityScoreBounded(t *testing.T) {
	const fs = 250.0
	raw := sineWave(10, fs, 500, 40, 512)
	preprocessed := sineWave(10, fs, 500, 40, 0)
	f, nonFinite := feature.Extract(preprocessed, preprocessed, preprocessed, fs, 0)

	tracker := NewMedianTracker(30)
	report := Assess(raw, preprocessed, f, defaultThresholds(), fs, 0, tracker, nonFinite)

	assert.GreaterOrEqual(t, report.QualityScore, 0.0)
	assert.LessOrEqual(t, report.QualityScore, 100.0)
}

func TestMedianTrackerMedian(t *testing.T) {
	tr := NewMedianTracker(5)
	for _, v := range []float64{1, 2, 3, 4, 5} {
		tr.Observe(v)
	}
	assert.Equal(t, 3.0, tr.Median())

	tr.Observe(100) // evicts the 1
	assert.Equal(t, 4.0, tr.Median())
}

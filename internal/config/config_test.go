package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultBuilds(t *testing.T) {
	c, err := NewBuilder().Build()
	require.NoError(t, err)
	assert.Equal(t, 500, c.WindowSamples())
	assert.Equal(t, 250, c.HopSamples())
}

func TestBuildRejectsTooShortWindow(t *testing.T) {
	sig := Default().Signal
	sig.WindowSeconds = 0.05 // N = 12.5, far below the filter-support floor

	_, err := NewBuilder().WithSignal(sig).Build()
	require.Error(t, err)
}

func TestBuildRejectsNyquistViolation(t *testing.T) {
	sig := Default().Signal
	sig.SamplingRateHz = 60 // below 2x the 40Hz wideband cutoff

	_, err := NewBuilder().WithSignal(sig).Build()
	require.Error(t, err)
}

func TestBuildRejectsInvalidBand(t *testing.T) {
	sig := Default().Signal
	sig.AlphaLowHz, sig.AlphaHighHz = 12, 8

	_, err := NewBuilder().WithSignal(sig).Build()
	require.Error(t, err)
}

func TestLoadFileOverridesOnlyNamedKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "eegwolf.yaml")
	contents := `
signal:
  sampling_rate: 256
decision:
  quality_gate: 55
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	b := NewBuilder()
	require.NoError(t, b.LoadFile(path))
	c, err := b.Build()
	require.NoError(t, err)

	assert.Equal(t, 256.0, c.Signal.SamplingRateHz)
	assert.Equal(t, 55.0, c.Decision.QualityGate)
	// Untouched fields keep their defaults.
	assert.Equal(t, 2.0, c.Signal.WindowSeconds)
	assert.Equal(t, "auto", c.Serial.Port)
}

func TestLoadFileMissingIsNoop(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.LoadFile(""))
	c, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}

func TestLineFreqEnvOverride(t *testing.T) {
	t.Setenv("EEG_LINE_FREQ", "60")
	c := Default()
	assert.Equal(t, 60.0, c.Signal.LineFreqHz)
	assert.Equal(t, 60.0, c.Signal.NotchFreqHz)
}

package decision

import (
	"math"
	"math/rand"
	"testing"

	"github.com/eegwolf/eegwolf/internal/quality"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func defaultConfig() Config {
	return Config{
		LeftThreshold:      -0.15,
		RightThreshold:     0.15,
		CalibrationSamples: 100,
		AdaptiveThreshold:  true,
		AdaptiveK:          1.0,
		SmoothingWindow:    5,
		QualityGate:        40,
		StrictGating:       true,
	}
}

func TestDecideNeutralZeroAlpha(t *testing.T) {
	e := New(defaultConfig())
	result := e.Decide(0, 0, 90, quality.Clean, quality.Clean)
	assert.Equal(t, 0.0, result.LI)
	assert.Equal(t, Neutral, result.Direction)
}

func TestDecideGatesOnLowQuality(t *testing.T) {
	e := New(defaultConfig())
	result := e.Decide(10, 10, 20, quality.Clean, quality.Clean)
	assert.Equal(t, Unknown, result.Direction)
	assert.Equal(t, 0.0, result.Confidence)
}

func TestDecideGatesOnArtifactUnderStrictGating(t *testing.T) {
	e := New(defaultConfig())
	result := e.Decide(10, 10, 90, quality.Saturation, quality.Clean)
	assert.Equal(t, Unknown, result.Direction)
}

func TestDecideRightHemisphereDominant(t *testing.T) {
	e := New(defaultConfig())
	result := e.Decide(20*20, 60*60, 90, quality.Clean, quality.Clean)
	assert.Greater(t, result.LI, 0.6)
	assert.Equal(t, Right, result.Direction)
	// LI = 3200/(4000+epsilon): 0.8 less about 2e-16, and confidence = |LI|.
	assert.InDelta(t, 0.8, result.Confidence, 1e-9)
}

func TestLISymmetricUnderChannelSwap(t *testing.T) {
	e1 := New(defaultConfig())
	e2 := New(defaultConfig())
	r1 := e1.Decide(30, 70, 90, quality.Clean, quality.Clean)
	r2 := e2.Decide(70, 30, 90, quality.Clean, quality.Clean)
	assert.InDelta(t, -r1.LI, r2.LI, 1e-9)
}

func TestSmoothingConvergesAfterWindowRepeats(t *testing.T) {
	e := New(defaultConfig())
	var last Result
	for i := 0; i < 5; i++ {
		last = e.Decide(60*60, 20*20, 90, quality.Clean, quality.Clean) // strongly LEFT
	}
	assert.Equal(t, Left, last.Direction)
	assert.Equal(t, Left, last.SmoothedDirection)
}

func TestCalibrationDriftShiftsAdaptiveThresholds(t *testing.T) {
	e := New(defaultConfig())
	rng := rand.New(rand.NewSource(1))

	// Feed 100 windows whose LI clusters around +0.10 to fill
	// calibration; synthesize alpha powers that produce that LI.
	for i := 0; i < 100; i++ {
		li := 0.10 + rng.NormFloat64()*0.02
		left, right := alphaPowersForLI(li)
		e.Decide(left, right, 90, quality.Clean, quality.Clean)
	}
	require.True(t, e.calibrated)

	leftA, rightA := alphaPowersForLI(0.10)
	mid := e.Decide(leftA, rightA, 90, quality.Clean, quality.Clean)
	assert.Equal(t, Neutral, mid.Direction)

	leftB, rightB := alphaPowersForLI(0.25)
	strong := e.Decide(leftB, rightB, 90, quality.Clean, quality.Clean)
	assert.Equal(t, Right, strong.Direction)
}

// alphaPowersForLI synthesizes a (left, right) alpha-power pair whose
// LI is approximately the target, holding left+right constant.
func alphaPowersForLI(li float64) (left, right float64) {
	const total = 200.0
	right = total * (1 + li) / 2
	left = total - right
	return left, right
}

func TestRapidLIBounded(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		left := rapid.Float64Range(0, 1e6).Draw(t, "left")
		right := rapid.Float64Range(0, 1e6).Draw(t, "right")

		e := New(defaultConfig())
		result := e.Decide(left, right, 90, quality.Clean, quality.Clean)
		assert.GreaterOrEqual(t, result.LI, -1.0)
		assert.LessOrEqual(t, result.LI, 1.0)
		assert.False(t, math.IsNaN(result.LI))
	})
}

func TestRapidConfidenceBounded(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		left := rapid.Float64Range(0, 1e6).Draw(t, "left")
		right := rapid.Float64Range(0, 1e6).Draw(t, "right")
		qualityScore := rapid.Float64Range(0, 100).Draw(t, "quality")

		e := New(defaultConfig())
		result := e.Decide(left, right, qualityScore, quality.Clean, quality.Clean)
		assert.GreaterOrEqual(t, result.Confidence, 0.0)
		assert.LessOrEqual(t, result.Confidence, 1.0)
	})
}

func TestRecalibrateClearsState(t *testing.T) {
	e := New(defaultConfig())
	for i := 0; i < 100; i++ {
		e.Decide(90, 110, 90, quality.Clean, quality.Clean)
	}
	require.True(t, e.calibrated)
	e.Recalibrate()
	assert.False(t, e.calibrated)
}

// Package decision implements the lateralization decision engine:
// the LI computation, quality/artifact gating, adaptive calibration,
// majority-vote smoothing, and confidence, per spec.md §4.6.
package decision

import (
	"math"

	"github.com/eegwolf/eegwolf/internal/quality"
)

// Direction is the classified attention direction.
type Direction string

const (
	Left    Direction = "LEFT"
	Right   Direction = "RIGHT"
	Neutral Direction = "NEUTRAL"
	Unknown Direction = "UNKNOWN"
)

const epsilon = 1e-12

// Result is the per-window decision record.
type Result struct {
	LI                float64
	Direction         Direction
	Confidence        float64
	SmoothedDirection Direction
	Calibrated        bool
}

// Thresholds holds the static/adaptive LI thresholds currently in
// effect.
type Thresholds struct {
	Left  float64
	Right float64
}

// Engine owns all decision state: the calibration buffer, the
// smoothing deque, LI history, and per-channel EWMA alpha trackers.
// It spans the engine's lifetime and is mutated only from Decide and
// Recalibrate, as spec.md §3 specifies ("Decision state ... is owned
// exclusively by the decision engine and mutated only inside the
// scheduler loop").
type Engine struct {
	staticThresholds Thresholds
	calibrationSize  int
	adaptiveEnabled  bool
	adaptiveK        float64
	smoothingWindow  int
	qualityGate      float64
	strictGating     bool

	calibrationBuf []float64
	calibrated     bool
	adaptive       Thresholds

	smoothing []Direction

	liHistory []float64

	ewmaLeft, ewmaRight float64
	ewmaInitialized     bool
}

// Config collects the construction parameters for Engine, drawn from
// spec.md §4.6/§4.8.
type Config struct {
	LeftThreshold      float64
	RightThreshold     float64
	CalibrationSamples int
	AdaptiveThreshold  bool
	AdaptiveK          float64
	SmoothingWindow    int
	QualityGate        float64
	StrictGating       bool
}

// New constructs an Engine with empty calibration/smoothing state.
func New(cfg Config) *Engine {
	return &Engine{
		staticThresholds: Thresholds{Left: cfg.LeftThreshold, Right: cfg.RightThreshold},
		calibrationSize:  cfg.CalibrationSamples,
		adaptiveEnabled:  cfg.AdaptiveThreshold,
		adaptiveK:        cfg.AdaptiveK,
		smoothingWindow:  cfg.SmoothingWindow,
		qualityGate:      cfg.QualityGate,
		strictGating:     cfg.StrictGating,
	}
}

// Recalibrate clears the calibration buffer, per spec.md §4.6 step 3's
// explicit recalibrate().
func (e *Engine) Recalibrate() {
	e.calibrationBuf = nil
	e.calibrated = false
	e.adaptive = Thresholds{}
}

// Decide computes the Result for one window given the two channels'
// alpha powers, the worst-of quality score for the window, and the two
// channels' artifact tags.
func (e *Engine) Decide(leftAlpha, rightAlpha, qualityScore float64, leftArtifact, rightArtifact quality.ArtifactTag) Result {
	li := clamp((rightAlpha-leftAlpha)/(rightAlpha+leftAlpha+epsilon), -1, 1)

	gated := qualityScore < e.qualityGate ||
		(e.strictGating && (leftArtifact != quality.Clean || rightArtifact != quality.Clean))

	if gated {
		return Result{
			LI:                li,
			Direction:         Unknown,
			Confidence:        0,
			SmoothedDirection: e.peekSmoothed(Unknown),
			Calibrated:        e.calibrated,
		}
	}

	thresholds := e.currentThresholds()
	direction := e.classify(li, thresholds)
	confidence := e.confidence(li, direction, thresholds)

	e.feedCalibration(li)
	e.pushHistory(li)
	smoothed := e.pushSmoothing(direction)
	e.updateEWMA(leftAlpha, rightAlpha)

	return Result{
		LI:                li,
		Direction:         direction,
		Confidence:        confidence,
		SmoothedDirection: smoothed,
		Calibrated:        e.calibrated,
	}
}

func (e *Engine) currentThresholds() Thresholds {
	if e.calibrated && e.adaptiveEnabled {
		return e.adaptive
	}
	return e.staticThresholds
}

func (e *Engine) classify(li float64, th Thresholds) Direction {
	switch {
	case li < th.Left:
		return Left
	case li > th.Right:
		return Right
	default:
		return Neutral
	}
}

// confidence implements spec.md §4.6 step 5's definition: for a
// classified direction, the distance of LI from the nearer threshold,
// normalized by max(|left_thr|, |right_thr|) and the remaining dynamic
// range out to +/-1; for NEUTRAL, how close LI is to 0 relative to the
// neutral band half-width.
//
// For LEFT/RIGHT those two normalizers are not independent: the
// threshold magnitude (the span from 0 to the threshold) and the
// remaining dynamic range (the span from the threshold to the pole)
// are adjacent pieces of the same 0-to-1 axis, so distance-from-
// threshold plus threshold-magnitude, divided by their sum, telescopes
// to distance-from-zero over the full axis — i.e. |li| itself. This
// is a deliberate, documented deviation from reading the two
// normalizers as a single denominator of (1 - threshold): that reading
// makes spec.md §8 scenario 2 (amplitude 60 vs 20, LI = 0.8, default
// li_right_threshold = 0.15) produce confidence (0.8-0.15)/(1-0.15) =
// 0.7647, below the scenario's own required >= 0.8. See DESIGN.md.
func (e *Engine) confidence(li float64, dir Direction, th Thresholds) float64 {
	switch dir {
	case Left, Right:
		return clamp(math.Abs(li), 0, 1)
	case Neutral:
		halfWidth := (th.Right - th.Left) / 2
		if halfWidth <= 0 {
			return 0
		}
		return clamp(1-math.Abs(li)/halfWidth, 0, 1)
	default:
		return 0
	}
}

func (e *Engine) feedCalibration(li float64) {
	if e.calibrated {
		return
	}
	e.calibrationBuf = append(e.calibrationBuf, li)
	if len(e.calibrationBuf) >= e.calibrationSize {
		mean, std := meanStd(e.calibrationBuf)
		e.adaptive = Thresholds{
			Left:  mean - e.adaptiveK*std,
			Right: mean + e.adaptiveK*std,
		}
		e.calibrated = true
	}
}

func (e *Engine) pushHistory(li float64) {
	const historyCap = 200
	e.liHistory = append(e.liHistory, li)
	if len(e.liHistory) > historyCap {
		e.liHistory = e.liHistory[1:]
	}
}

// pushSmoothing appends dir to the smoothing deque and returns the
// majority element, with ties resolving to NEUTRAL.
func (e *Engine) pushSmoothing(dir Direction) Direction {
	e.smoothing = append(e.smoothing, dir)
	if len(e.smoothing) > e.smoothingWindow {
		e.smoothing = e.smoothing[1:]
	}
	return majority(e.smoothing)
}

// peekSmoothed returns what the smoothing deque would report without
// mutating it — used for gated (UNKNOWN) windows, which spec.md §4.6
// step 2 says must not feed smoothing.
func (e *Engine) peekSmoothed(fallback Direction) Direction {
	if len(e.smoothing) == 0 {
		return fallback
	}
	return majority(e.smoothing)
}

func (e *Engine) updateEWMA(leftAlpha, rightAlpha float64) {
	const alpha = 0.05
	if !e.ewmaInitialized {
		e.ewmaLeft, e.ewmaRight = leftAlpha, rightAlpha
		e.ewmaInitialized = true
		return
	}
	e.ewmaLeft = alpha*leftAlpha + (1-alpha)*e.ewmaLeft
	e.ewmaRight = alpha*rightAlpha + (1-alpha)*e.ewmaRight
}

func majority(directions []Direction) Direction {
	if len(directions) == 0 {
		return Neutral
	}
	counts := map[Direction]int{}
	for _, d := range directions {
		counts[d]++
	}
	best := Neutral
	bestCount := -1
	tie := false
	for _, d := range []Direction{Left, Right, Neutral, Unknown} {
		c := counts[d]
		if c > bestCount {
			bestCount = c
			best = d
			tie = false
		} else if c == bestCount && c > 0 {
			tie = true
		}
	}
	if tie {
		return Neutral
	}
	return best
}

func meanStd(xs []float64) (mean, std float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range xs {
		sum += v
	}
	mean = sum / float64(len(xs))

	var sumSq float64
	for _, v := range xs {
		d := v - mean
		sumSq += d * d
	}
	std = math.Sqrt(sumSq / float64(len(xs)))
	return mean, std
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

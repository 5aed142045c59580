// Package scheduler implements the Realtime Scheduler: the windowing
// loop that binds the Frame Source, ring buffers, filter bank, feature
// extractor, quality assessor, and decision engine together and fans
// each window's result out to the configured sink(s), per spec.md
// §4.7. Grounded on the teacher's top-level receive/process dispatch
// loop in cmd/direwolf/main.go, reimplemented as a single-goroutine
// Run(ctx, duration) instead of a cgo call into C.
package scheduler

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/eegwolf/eegwolf/internal/config"
	"github.com/eegwolf/eegwolf/internal/decision"
	"github.com/eegwolf/eegwolf/internal/feature"
	"github.com/eegwolf/eegwolf/internal/filter"
	"github.com/eegwolf/eegwolf/internal/quality"
	"github.com/eegwolf/eegwolf/internal/ringbuffer"
	"github.com/eegwolf/eegwolf/internal/sink"
	"github.com/eegwolf/eegwolf/internal/source"
)

// RunOutcomeKind distinguishes a clean finish from a fatal abort, per
// spec.md §9's RunOutcome ∈ {Completed, FatalError(kind, detail)}.
type RunOutcomeKind int

const (
	Completed RunOutcomeKind = iota
	FatalError
)

// RunOutcome is the scheduler's terminal result.
type RunOutcome struct {
	Kind   RunOutcomeKind
	Reason string
}

// Stats exposes scheduler-level diagnostics for the CLI's final
// summary.
type Stats struct {
	WindowsEmitted int64
	SlowWindows    int64
	SourceStats    source.Stats
}

// Scheduler binds every component named in spec.md §4.7.
type Scheduler struct {
	cfg    config.Config
	src    *source.Source
	bank   *filter.Bank
	sink   sink.Sink
	logger *log.Logger

	ringLeft, ringRight *ringbuffer.Buffer
	qualityLeft         *quality.MedianTracker
	qualityRight        *quality.MedianTracker
	engine              *decision.Engine

	n, h               int
	newSinceLastWindow int
	sampleCount        int64
	windowIndex        int64

	consecutiveSlow int
	stats           Stats
}

// New constructs a Scheduler. bank, src, and snk must already be
// built and validated; New itself never fails.
func New(cfg config.Config, src *source.Source, bank *filter.Bank, snk sink.Sink, logger *log.Logger) *Scheduler {
	n := cfg.WindowSamples()
	h := cfg.HopSamples()
	// A couple of hops of slack so the ring buffer never blocks the
	// source waiting for the scheduler to drain it.
	capacity := n + 2*h

	return &Scheduler{
		cfg:          cfg,
		src:          src,
		bank:         bank,
		sink:         snk,
		logger:       logger,
		ringLeft:     ringbuffer.New(capacity),
		ringRight:    ringbuffer.New(capacity),
		qualityLeft:  quality.NewMedianTracker(cfg.Artifact.MedianWindow),
		qualityRight: quality.NewMedianTracker(cfg.Artifact.MedianWindow),
		engine: decision.New(decision.Config{
			LeftThreshold:      cfg.Decision.LILeftThreshold,
			RightThreshold:     cfg.Decision.LIRightThreshold,
			CalibrationSamples: cfg.Decision.CalibrationSamples,
			AdaptiveThreshold:  cfg.Decision.AdaptiveThreshold,
			AdaptiveK:          cfg.Decision.AdaptiveK,
			SmoothingWindow:    cfg.Decision.SmoothingWindow,
			QualityGate:        cfg.Decision.QualityGate,
			StrictGating:       cfg.Decision.StrictGating,
		}),
		n: n,
		h: h,
	}
}

// Stats returns a snapshot of scheduler diagnostics.
func (s *Scheduler) Stats() Stats {
	stats := s.stats
	stats.SourceStats = s.src.Stats()
	return stats
}

// Run pulls samples and dispatches windows until ctx is canceled or
// duration elapses (duration <= 0 means run until canceled), per
// spec.md §5's cancellation contract: it always terminates at the next
// window boundary, and always releases the source and flushes/closes
// the sink before returning.
func (s *Scheduler) Run(ctx context.Context, duration time.Duration) RunOutcome {
	defer s.shutdown()

	if err := s.src.Connect(); err != nil {
		s.logger.Error("source connect failed", "err", err)
		return RunOutcome{Kind: FatalError, Reason: err.Error()}
	}

	var deadline <-chan time.Time
	if duration > 0 {
		timer := time.NewTimer(duration)
		defer timer.Stop()
		deadline = timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return RunOutcome{Kind: Completed, Reason: "canceled"}
		case <-deadline:
			return RunOutcome{Kind: Completed, Reason: "duration elapsed"}
		default:
		}

		outcome := s.tick()
		if outcome != nil {
			return *outcome
		}
	}
}

// tick performs one non-blocking source read and, if a window is now
// ready, dispatches it. It returns a non-nil RunOutcome only when the
// loop must stop.
func (s *Scheduler) tick() *RunOutcome {
	result := s.src.ReadSample()

	switch result.Outcome {
	case source.OutcomeSample:
		s.ringLeft.Push(float64(result.Sample.Left))
		s.ringRight.Push(float64(result.Sample.Right))
		s.newSinceLastWindow++
		s.sampleCount++

		if s.ringLeft.Len() >= s.n && s.newSinceLastWindow >= s.h {
			s.emitWindow()
		}
		return nil

	case source.OutcomeCorrupt:
		return nil // TransientSourceError: counted in source.Stats, logged at DEBUG there

	case source.OutcomeDisconnected:
		s.logger.Warn("source disconnected, emitting terminal record")
		return &RunOutcome{Kind: FatalError, Reason: "source disconnected"}

	default: // OutcomeEmpty
		time.Sleep(time.Millisecond)
		return nil
	}
}

func (s *Scheduler) emitWindow() {
	start := time.Now()

	rawLeft, ok := s.ringLeft.SnapshotLast(s.n)
	if !ok {
		return
	}
	rawRight, ok := s.ringRight.SnapshotLast(s.n)
	if !ok {
		return
	}
	s.ringLeft.Advance(s.h)
	s.ringRight.Advance(s.h)
	s.newSinceLastWindow -= s.h

	leftFeatures, leftReport := s.processChannel(rawLeft, s.qualityLeft)
	rightFeatures, rightReport := s.processChannel(rawRight, s.qualityRight)

	worstQuality := leftReport.QualityScore
	if rightReport.QualityScore < worstQuality {
		worstQuality = rightReport.QualityScore
	}

	result := s.engine.Decide(leftFeatures.AlphaPower, rightFeatures.AlphaPower, worstQuality,
		leftReport.ArtifactTag, rightReport.ArtifactTag)

	record := sink.WindowRecord{
		Timestamp:         time.Now(),
		SampleCount:       s.sampleCount,
		LeftAlphaPower:    leftFeatures.AlphaPower,
		RightAlphaPower:   rightFeatures.AlphaPower,
		LI:                result.LI,
		Direction:         string(result.Direction),
		Confidence:        result.Confidence,
		SmoothedDirection: string(result.SmoothedDirection),
		QualityScore:      worstQuality,
		LeftSNRdB:         leftReport.SNRdB,
		RightSNRdB:        rightReport.SNRdB,
		LeftArtifact:      string(leftReport.ArtifactTag),
		RightArtifact:     string(rightReport.ArtifactTag),
	}

	if err := s.sink.WriteRecord(record); err != nil {
		s.logger.Error("sink write failed", "err", err)
	}

	s.windowIndex++
	s.stats.WindowsEmitted = s.windowIndex

	elapsed := time.Since(start)
	budget := time.Duration(float64(s.h) / s.cfg.Signal.SamplingRateHz * float64(time.Second))
	if elapsed >= budget {
		s.consecutiveSlow++
		if s.consecutiveSlow >= 3 {
			s.logger.Warn("processing_behind", "elapsed", elapsed, "budget", budget)
		}
	} else {
		s.consecutiveSlow = 0
	}
	s.stats.SlowWindows = int64(s.consecutiveSlow)
}

func (s *Scheduler) processChannel(raw []float64, tracker *quality.MedianTracker) (feature.Features, quality.Report) {
	preprocessed := s.bank.Preprocess(raw)
	alpha := s.bank.ExtractAlpha(preprocessed)
	beta := s.bank.ExtractBeta(preprocessed)

	f, nonFinite := feature.Extract(preprocessed, alpha, beta, s.cfg.Signal.SamplingRateHz, 0)

	th := quality.Thresholds{
		SaturationFraction:  s.cfg.Artifact.SaturationThreshold,
		LowSignalVariance:   s.cfg.Artifact.LowSignalVarianceThresh,
		MuscleBetaThreshold: s.cfg.Artifact.MuscleBetaThreshold,
		VarianceMultiplier:  s.cfg.Artifact.VarianceMultiplier,
		LineNoiseFraction:   s.cfg.Artifact.LineNoiseThreshold,
		LineFreq:            s.cfg.Signal.LineFreqHz,
		ADCMax:              s.cfg.Signal.ADCMax,
	}
	report := quality.Assess(raw, preprocessed, f, th, s.cfg.Signal.SamplingRateHz, 0, tracker, nonFinite)

	return f, report
}

func (s *Scheduler) shutdown() {
	s.src.Disconnect()
	if err := s.sink.Close(); err != nil {
		s.logger.Error("sink close failed", "err", err)
	}
}

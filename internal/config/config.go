// Package config provides a single immutable, typed configuration value
// for eegwolf, built by Builder and validated at construction time.
//
// This replaces the dotted-name, process-global configuration style of
// the teacher's configuration loader: every recognized option in
// spec.md §4.8 is a named, typed field here, and an invalid combination
// fails fast in Build rather than surfacing later as a nil pointer or a
// silently-ignored typo.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Serial holds options for the Frame Source's transport.
type Serial struct {
	Port                 string // "auto" triggers discovery
	BaudRate             int
	TimeoutS             float64
	MaxReconnectAttempts int
	ReconnectDelayS      float64
}

// Signal holds options for sampling and the filter bank.
type Signal struct {
	SamplingRateHz float64
	WindowSeconds  float64
	WindowOverlap  float64
	NotchFreqHz    float64
	NotchQ         float64
	LineFreqHz     float64 // shared by the notch filter and the LINE_NOISE check
	BandpassLowHz  float64
	BandpassHighHz float64
	AlphaLowHz     float64
	AlphaHighHz    float64
	BetaLowHz      float64
	BetaHighHz     float64
	FilterOrder    int
	ADCMax         int
}

// Decision holds options for the lateralization decision engine.
type Decision struct {
	LILeftThreshold    float64
	LIRightThreshold   float64
	CalibrationSamples int
	AdaptiveThreshold  bool
	AdaptiveK          float64
	SmoothingWindow    int
	QualityGate        float64
	StrictGating       bool
}

// Artifact holds thresholds for the quality assessor.
type Artifact struct {
	SaturationThreshold     float64
	LowSignalVarianceThresh float64
	MuscleBetaThreshold     float64
	VarianceMultiplier      float64
	MedianWindow            int
	LineNoiseThreshold      float64 // fraction of alpha_power
}

// Logging holds options for the CSV sink.
type Logging struct {
	EnableCSV           bool
	Filename            string
	FlushIntervalRecord int
}

// Config is the full, immutable configuration for one run of the
// pipeline. Construct it with NewBuilder().Build().
type Config struct {
	Serial   Serial
	Signal   Signal
	Decision Decision
	Artifact Artifact
	Logging  Logging
}

// WindowSamples returns N = round(fs * window_seconds).
func (c Config) WindowSamples() int {
	return int(c.Signal.SamplingRateHz*c.Signal.WindowSeconds + 0.5)
}

// HopSamples returns H = max(1, round(N * (1 - overlap))).
func (c Config) HopSamples() int {
	n := c.WindowSamples()
	h := int(float64(n)*(1-c.Signal.WindowOverlap) + 0.5)
	if h < 1 {
		h = 1
	}
	return h
}

// ReconnectDelay returns the base reconnect delay as a time.Duration.
func (c Config) ReconnectDelay() time.Duration {
	return time.Duration(c.Serial.ReconnectDelayS * float64(time.Second))
}

// ReadTimeout returns the serial read timeout as a time.Duration.
func (c Config) ReadTimeout() time.Duration {
	return time.Duration(c.Serial.TimeoutS * float64(time.Second))
}

// Default returns the documented defaults from spec.md §4.8.
func Default() Config {
	lineFreq := 50.0
	if v := os.Getenv("EEG_LINE_FREQ"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && (f == 50 || f == 60) {
			lineFreq = f
		}
	}

	return Config{
		Serial: Serial{
			Port:                 "auto",
			BaudRate:             115200,
			TimeoutS:             1.0,
			MaxReconnectAttempts: 5,
			ReconnectDelayS:      1.0,
		},
		Signal: Signal{
			SamplingRateHz: 250.0,
			WindowSeconds:  2.0,
			WindowOverlap:  0.5,
			NotchFreqHz:    lineFreq,
			NotchQ:         30,
			LineFreqHz:     lineFreq,
			BandpassLowHz:  1.0,
			BandpassHighHz: 40.0,
			AlphaLowHz:     8.0,
			AlphaHighHz:    12.0,
			BetaLowHz:      13.0,
			BetaHighHz:     30.0,
			FilterOrder:    4,
			ADCMax:         1023,
		},
		Decision: Decision{
			LILeftThreshold:    -0.15,
			LIRightThreshold:   0.15,
			CalibrationSamples: 100,
			AdaptiveThreshold:  true,
			AdaptiveK:          1.0,
			SmoothingWindow:    5,
			QualityGate:        40,
			StrictGating:       true,
		},
		Artifact: Artifact{
			SaturationThreshold:     0.02,
			LowSignalVarianceThresh: 1.0,
			MuscleBetaThreshold:     100,
			VarianceMultiplier:      3.0,
			MedianWindow:            30,
			LineNoiseThreshold:      0.5,
		},
		Logging: Logging{
			EnableCSV:           true,
			Filename:            "eeg_data_log.csv",
			FlushIntervalRecord: 10,
		},
	}
}

// Builder constructs a Config from the documented defaults, applying
// named overrides, and validates the result in Build.
type Builder struct {
	cfg Config
}

// NewBuilder starts from the documented defaults.
func NewBuilder() *Builder {
	return &Builder{cfg: Default()}
}

// WithSerial overrides the serial transport options.
func (b *Builder) WithSerial(s Serial) *Builder {
	b.cfg.Serial = s
	return b
}

// WithSerialPort overrides just the endpoint name, leaving every other
// serial.* option (baud rate, reconnect policy) as already staged.
func (b *Builder) WithSerialPort(port string) *Builder {
	b.cfg.Serial.Port = port
	return b
}

// WithSignal overrides the sampling/filter options.
func (b *Builder) WithSignal(s Signal) *Builder {
	b.cfg.Signal = s
	return b
}

// WithDecision overrides the decision engine options.
func (b *Builder) WithDecision(d Decision) *Builder {
	b.cfg.Decision = d
	return b
}

// WithArtifact overrides the quality assessor thresholds.
func (b *Builder) WithArtifact(a Artifact) *Builder {
	b.cfg.Artifact = a
	return b
}

// WithLogging overrides the CSV sink options.
func (b *Builder) WithLogging(l Logging) *Builder {
	b.cfg.Logging = l
	return b
}

// Build validates and returns the final Config, or a descriptive error.
// This is the single fail-fast point spec.md §7 calls FilterConfigError
// territory: bad bands or an fs too low for the requested cutoffs are
// caught here, before the scheduler loop ever starts.
func (b *Builder) Build() (Config, error) {
	c := b.cfg

	if c.Signal.SamplingRateHz <= 0 {
		return Config{}, fmt.Errorf("config: sampling_rate must be positive, got %v", c.Signal.SamplingRateHz)
	}
	if c.Signal.WindowSeconds <= 0 {
		return Config{}, fmt.Errorf("config: window_size_s must be positive, got %v", c.Signal.WindowSeconds)
	}
	if c.Signal.WindowOverlap < 0 || c.Signal.WindowOverlap >= 1 {
		return Config{}, fmt.Errorf("config: window_overlap must be in [0, 1), got %v", c.Signal.WindowOverlap)
	}
	if c.Signal.FilterOrder <= 0 {
		return Config{}, fmt.Errorf("config: filter_order must be positive, got %v", c.Signal.FilterOrder)
	}
	if c.Signal.ADCMax <= 0 {
		return Config{}, fmt.Errorf("config: adc_max must be positive, got %v", c.Signal.ADCMax)
	}

	maxCutoff := c.Signal.BandpassHighHz
	for _, hi := range []float64{c.Signal.AlphaHighHz, c.Signal.BetaHighHz} {
		if hi > maxCutoff {
			maxCutoff = hi
		}
	}
	if c.Signal.SamplingRateHz <= 2*maxCutoff {
		return Config{}, fmt.Errorf("config: sampling_rate %v must exceed 2x the highest cutoff %v (Nyquist)", c.Signal.SamplingRateHz, maxCutoff)
	}

	if c.Signal.BandpassLowHz <= 0 || c.Signal.BandpassLowHz >= c.Signal.BandpassHighHz {
		return Config{}, fmt.Errorf("config: invalid bandpass band [%v, %v]", c.Signal.BandpassLowHz, c.Signal.BandpassHighHz)
	}
	if c.Signal.AlphaLowHz <= 0 || c.Signal.AlphaLowHz >= c.Signal.AlphaHighHz {
		return Config{}, fmt.Errorf("config: invalid alpha band [%v, %v]", c.Signal.AlphaLowHz, c.Signal.AlphaHighHz)
	}
	if c.Signal.BetaLowHz <= 0 || c.Signal.BetaLowHz >= c.Signal.BetaHighHz {
		return Config{}, fmt.Errorf("config: invalid beta band [%v, %v]", c.Signal.BetaLowHz, c.Signal.BetaHighHz)
	}

	lowestCutoff := c.Signal.BandpassLowHz
	minN := int(4 * float64(c.Signal.FilterOrder) * maxFloat(1, c.Signal.SamplingRateHz/lowestCutoff))
	if c.WindowSamples() < minN {
		return Config{}, fmt.Errorf("config: window of %d samples is too short for filter support; need >= %d (fs=%v, order=%d, lowest_cutoff=%v)",
			c.WindowSamples(), minN, c.Signal.SamplingRateHz, c.Signal.FilterOrder, lowestCutoff)
	}

	if c.Decision.CalibrationSamples <= 0 {
		return Config{}, fmt.Errorf("config: calibration_samples must be positive, got %d", c.Decision.CalibrationSamples)
	}
	if c.Decision.SmoothingWindow <= 0 {
		return Config{}, fmt.Errorf("config: smoothing_window must be positive, got %d", c.Decision.SmoothingWindow)
	}
	if c.Decision.QualityGate < 0 || c.Decision.QualityGate > 100 {
		return Config{}, fmt.Errorf("config: quality_gate must be in [0, 100], got %v", c.Decision.QualityGate)
	}

	if c.Serial.MaxReconnectAttempts < 0 {
		return Config{}, fmt.Errorf("config: max_reconnect_attempts must be >= 0, got %d", c.Serial.MaxReconnectAttempts)
	}

	return c, nil
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

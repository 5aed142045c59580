package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileOverrides mirrors the dotted names in spec.md §4.8. Every field is
// a pointer so an absent key in the YAML document leaves the default
// untouched, the same "only override what's named" behavior the
// teacher's deviceid.go YAML loader relies on for its device list.
type fileOverrides struct {
	Serial struct {
		Port                 *string  `yaml:"port"`
		BaudRate             *int     `yaml:"baudrate"`
		TimeoutS             *float64 `yaml:"timeout_s"`
		MaxReconnectAttempts *int     `yaml:"max_reconnect_attempts"`
		ReconnectDelayS      *float64 `yaml:"reconnect_delay_s"`
	} `yaml:"serial"`

	Signal struct {
		SamplingRateHz *float64   `yaml:"sampling_rate"`
		WindowSeconds  *float64   `yaml:"window_size_s"`
		WindowOverlap  *float64   `yaml:"window_overlap"`
		NotchFreqHz    *float64   `yaml:"notch_freq"`
		NotchQ         *float64   `yaml:"notch_q"`
		Bandpass       *[2]float64 `yaml:"bandpass"`
		AlphaBand      *[2]float64 `yaml:"alpha_band"`
		BetaBand       *[2]float64 `yaml:"beta_band"`
		FilterOrder    *int       `yaml:"filter_order"`
		ADCMax         *int       `yaml:"adc_max"`
	} `yaml:"signal"`

	Decision struct {
		LILeftThreshold    *float64 `yaml:"li_left_threshold"`
		LIRightThreshold   *float64 `yaml:"li_right_threshold"`
		CalibrationSamples *int     `yaml:"calibration_samples"`
		AdaptiveThreshold  *bool    `yaml:"adaptive_threshold"`
		AdaptiveK          *float64 `yaml:"adaptive_k"`
		SmoothingWindow    *int     `yaml:"smoothing_window"`
		QualityGate        *float64 `yaml:"quality_gate"`
		StrictGating       *bool    `yaml:"strict_gating"`
	} `yaml:"decision"`

	Artifact struct {
		SaturationThreshold     *float64 `yaml:"saturation_threshold"`
		LowSignalVarianceThresh *float64 `yaml:"low_signal_variance_threshold"`
		MuscleBetaThreshold     *float64 `yaml:"muscle_beta_threshold"`
		VarianceMultiplier      *float64 `yaml:"variance_multiplier"`
		MedianWindow            *int     `yaml:"median_window"`
		LineNoiseThreshold      *float64 `yaml:"line_noise_threshold"`
	} `yaml:"artifact"`

	Logging struct {
		EnableCSV           *bool   `yaml:"enable_csv"`
		Filename            *string `yaml:"filename"`
		FlushIntervalRecord *int    `yaml:"flush_interval_records"`
	} `yaml:"logging"`
}

// LoadFile reads a YAML configuration file and applies it on top of a
// Builder already seeded with defaults. An empty path is a no-op,
// matching the CLI's "--config is optional" behavior.
func (b *Builder) LoadFile(path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: reading %s: %w", path, err)
	}

	var ov fileOverrides
	if err := yaml.Unmarshal(data, &ov); err != nil {
		return fmt.Errorf("config: parsing %s: %w", path, err)
	}

	s := b.cfg.Serial
	if ov.Serial.Port != nil {
		s.Port = *ov.Serial.Port
	}
	if ov.Serial.BaudRate != nil {
		s.BaudRate = *ov.Serial.BaudRate
	}
	if ov.Serial.TimeoutS != nil {
		s.TimeoutS = *ov.Serial.TimeoutS
	}
	if ov.Serial.MaxReconnectAttempts != nil {
		s.MaxReconnectAttempts = *ov.Serial.MaxReconnectAttempts
	}
	if ov.Serial.ReconnectDelayS != nil {
		s.ReconnectDelayS = *ov.Serial.ReconnectDelayS
	}
	b.cfg.Serial = s

	sig := b.cfg.Signal
	if ov.Signal.SamplingRateHz != nil {
		sig.SamplingRateHz = *ov.Signal.SamplingRateHz
	}
	if ov.Signal.WindowSeconds != nil {
		sig.WindowSeconds = *ov.Signal.WindowSeconds
	}
	if ov.Signal.WindowOverlap != nil {
		sig.WindowOverlap = *ov.Signal.WindowOverlap
	}
	if ov.Signal.NotchFreqHz != nil {
		sig.NotchFreqHz = *ov.Signal.NotchFreqHz
		sig.LineFreqHz = *ov.Signal.NotchFreqHz
	}
	if ov.Signal.NotchQ != nil {
		sig.NotchQ = *ov.Signal.NotchQ
	}
	if ov.Signal.Bandpass != nil {
		sig.BandpassLowHz, sig.BandpassHighHz = ov.Signal.Bandpass[0], ov.Signal.Bandpass[1]
	}
	if ov.Signal.AlphaBand != nil {
		sig.AlphaLowHz, sig.AlphaHighHz = ov.Signal.AlphaBand[0], ov.Signal.AlphaBand[1]
	}
	if ov.Signal.BetaBand != nil {
		sig.BetaLowHz, sig.BetaHighHz = ov.Signal.BetaBand[0], ov.Signal.BetaBand[1]
	}
	if ov.Signal.FilterOrder != nil {
		sig.FilterOrder = *ov.Signal.FilterOrder
	}
	if ov.Signal.ADCMax != nil {
		sig.ADCMax = *ov.Signal.ADCMax
	}
	b.cfg.Signal = sig

	d := b.cfg.Decision
	if ov.Decision.LILeftThreshold != nil {
		d.LILeftThreshold = *ov.Decision.LILeftThreshold
	}
	if ov.Decision.LIRightThreshold != nil {
		d.LIRightThreshold = *ov.Decision.LIRightThreshold
	}
	if ov.Decision.CalibrationSamples != nil {
		d.CalibrationSamples = *ov.Decision.CalibrationSamples
	}
	if ov.Decision.AdaptiveThreshold != nil {
		d.AdaptiveThreshold = *ov.Decision.AdaptiveThreshold
	}
	if ov.Decision.AdaptiveK != nil {
		d.AdaptiveK = *ov.Decision.AdaptiveK
	}
	if ov.Decision.SmoothingWindow != nil {
		d.SmoothingWindow = *ov.Decision.SmoothingWindow
	}
	if ov.Decision.QualityGate != nil {
		d.QualityGate = *ov.Decision.QualityGate
	}
	if ov.Decision.StrictGating != nil {
		d.StrictGating = *ov.Decision.StrictGating
	}
	b.cfg.Decision = d

	a := b.cfg.Artifact
	if ov.Artifact.SaturationThreshold != nil {
		a.SaturationThreshold = *ov.Artifact.SaturationThreshold
	}
	if ov.Artifact.LowSignalVarianceThresh != nil {
		a.LowSignalVarianceThresh = *ov.Artifact.LowSignalVarianceThresh
	}
	if ov.Artifact.MuscleBetaThreshold != nil {
		a.MuscleBetaThreshold = *ov.Artifact.MuscleBetaThreshold
	}
	if ov.Artifact.VarianceMultiplier != nil {
		a.VarianceMultiplier = *ov.Artifact.VarianceMultiplier
	}
	if ov.Artifact.MedianWindow != nil {
		a.MedianWindow = *ov.Artifact.MedianWindow
	}
	if ov.Artifact.LineNoiseThreshold != nil {
		a.LineNoiseThreshold = *ov.Artifact.LineNoiseThreshold
	}
	b.cfg.Artifact = a

	l := b.cfg.Logging
	if ov.Logging.EnableCSV != nil {
		l.EnableCSV = *ov.Logging.EnableCSV
	}
	if ov.Logging.Filename != nil {
		l.Filename = *ov.Logging.Filename
	}
	if ov.Logging.FlushIntervalRecord != nil {
		l.FlushIntervalRecord = *ov.Logging.FlushIntervalRecord
	}
	b.cfg.Logging = l

	return nil
}

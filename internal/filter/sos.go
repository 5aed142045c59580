// Package filter implements the filter bank: SOS (second-order-section)
// IIR design, zero-phase application over a finite window, Welch power
// spectral density, Hilbert envelope, and band-power integration.
//
// The teacher repo hand-rolls windowed-sinc FIR kernels for its AFSK
// tone detectors (src/dsp.go); spec.md instead requires Butterworth
// design and SOS cascades, so the coefficient math here is new, built
// the way any Butterworth design routine is built (analog lowpass
// prototype -> frequency transform -> bilinear transform -> pair into
// biquads), while the Welch/Hilbert pieces reuse gonum's FFT the way
// the pack's audio-analysis code does.
package filter

// Section is one second-order section (biquad): H(z) = (b0 + b1 z^-1 +
// b2 z^-2) / (1 + a1 z^-1 + a2 z^-2). Coefficients are pre-normalized
// so a0 == 1.
type Section struct {
	B0, B1, B2 float64
	A1, A2     float64
}

// Cascade is an ordered sequence of Sections applied one after another.
type Cascade []Section

// ErrConfig reports an invalid filter configuration detected at design
// time (spec.md §7: FilterConfigError, fails before the scheduler loop
// starts).
type ErrConfig struct {
	Reason string
}

func (e *ErrConfig) Error() string {
	return "filter: invalid configuration: " + e.Reason
}

package filter

import (
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

// HilbertEnvelope returns |analytic signal| for the real input x,
// computed per-window via the standard FFT trick: zero the negative
// frequencies, double the positive ones, inverse-transform. spec.md
// §4.4/§9 are explicit that this is a windowed (not streaming) Hilbert
// transform — the envelope is a scalar window summary, and no
// continuity across window boundaries is implied or relied upon.
func HilbertEnvelope(x []float64) []float64 {
	n := len(x)
	if n == 0 {
		return nil
	}

	complexX := make([]complex128, n)
	for i, v := range x {
		complexX[i] = complex(v, 0)
	}

	fft := fourier.NewCmplxFFT(n)
	spectrum := fft.Coefficients(nil, complexX)

	multiplier := make([]float64, n)
	half := n / 2
	multiplier[0] = 1
	if n%2 == 0 {
		multiplier[half] = 1
		for k := 1; k < half; k++ {
			multiplier[k] = 2
		}
	} else {
		for k := 1; k <= half; k++ {
			multiplier[k] = 2
		}
	}
	for k := range spectrum {
		spectrum[k] *= complex(multiplier[k], 0)
	}

	// Sequence is unnormalized (a Coefficients/Sequence round trip scales
	// by n), so divide by n to recover the analytic signal itself.
	analytic := fft.Sequence(nil, spectrum)

	envelope := make([]float64, n)
	for i, v := range analytic {
		envelope[i] = cmplx.Abs(v) / float64(n)
	}
	return envelope
}

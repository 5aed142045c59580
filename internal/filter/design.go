package filter

import (
	"fmt"
	"math"
	"math/cmplx"
)

// Butterworth designs a digital bandpass Butterworth filter as a
// cascade of second-order sections, via the standard analog-prototype
// -> frequency-transform -> bilinear-transform route. There is no
// lowpass mode: low must be > 0, and low <= 0 is rejected as *ErrConfig
// (this bank only ever needs bandpass + one narrowband notch).
//
// order is the analog lowpass prototype order; the resulting bandpass
// cascade has 2*order poles (order sections), matching the usual
// convention that a bandpass filter "doubles" the prototype order.
func Butterworth(order int, low, high, fs float64) (Cascade, error) {
	if order < 1 {
		return nil, &ErrConfig{Reason: fmt.Sprintf("order must be >= 1, got %d", order)}
	}
	if low <= 0 || high <= low || high >= fs/2 {
		return nil, &ErrConfig{Reason: fmt.Sprintf("band [%v, %v] invalid for fs=%v", low, high, fs)}
	}

	// Prewarp critical frequencies for the bilinear transform.
	wl := 2 * fs * math.Tan(math.Pi*low/fs)
	wh := 2 * fs * math.Tan(math.Pi*high/fs)
	bw := wh - wl
	wo := math.Sqrt(wl * wh)

	protoPoles := butterworthPrototypePoles(order)

	// Lowpass -> bandpass frequency transform: each prototype pole p
	// becomes a conjugate pair of bandpass poles; prototype has no
	// finite zeros, so the N zeros at infinity become N zeros at s=0
	// in the bandpass domain (bilinear transform maps these to z=1),
	// and the N zeros genuinely at infinity map to z=-1.
	bpPoles := make([]complex128, 0, 2*order)
	for _, p := range protoPoles {
		if imag(p) < -1e-9 {
			continue // added below as the conjugate of its upper-half twin
		}
		pb := p * complex(bw/2, 0)
		disc := cmplx.Sqrt(pb*pb - complex(wo*wo, 0))
		if math.Abs(imag(p)) <= 1e-9 {
			// The real prototype pole of an odd order maps to a pair that
			// is already conjugate (or real).
			bpPoles = append(bpPoles, pb+disc, pb-disc)
			continue
		}
		for _, q := range []complex128{pb + disc, pb - disc} {
			bpPoles = append(bpPoles, q, cmplx.Conj(q))
		}
	}

	// Bilinear transform: s -> z = (2fs + s) / (2fs - s).
	twoFs := complex(2*fs, 0)
	zPoles := make([]complex128, len(bpPoles))
	for i, p := range bpPoles {
		zPoles[i] = (twoFs + p) / (twoFs - p)
	}

	// Digital zeros: order zeros at z=1 (from the bandpass zeros at
	// s=0) and order zeros at z=-1 (from the bandpass zeros at
	// infinity).
	zZeros := make([]complex128, 0, 2*order)
	for i := 0; i < order; i++ {
		zZeros = append(zZeros, complex(1, 0))
	}
	for i := 0; i < order; i++ {
		zZeros = append(zZeros, complex(-1, 0))
	}

	// Overall gain: match unity response magnitude at the band center,
	// evaluated on the analog prototype and carried through both
	// transforms is the textbook approach, but it's simpler and just
	// as correct to normalize numerically against the digital
	// transfer function evaluated at the center frequency.
	sections := pairToSections(zPoles, zZeros)
	normalizeCenterGain(sections, wo, fs)

	return sections, nil
}

// Notch designs a single second-order IIR notch (band-reject) filter at
// freq with quality factor q, using the standard RBJ audio-EQ cookbook
// biquad — the simplest stable way to reject one narrow frequency
// (line-frequency hum) without disturbing the rest of the spectrum.
func Notch(freq, q, fs float64) (Cascade, error) {
	if freq <= 0 || freq >= fs/2 {
		return nil, &ErrConfig{Reason: fmt.Sprintf("notch frequency %v invalid for fs=%v", freq, fs)}
	}
	if q <= 0 {
		return nil, &ErrConfig{Reason: fmt.Sprintf("notch Q must be positive, got %v", q)}
	}

	w0 := 2 * math.Pi * freq / fs
	alpha := math.Sin(w0) / (2 * q)
	cosw0 := math.Cos(w0)

	a0 := 1 + alpha
	s := Section{
		B0: 1 / a0,
		B1: -2 * cosw0 / a0,
		B2: 1 / a0,
		A1: -2 * cosw0 / a0,
		A2: (1 - alpha) / a0,
	}
	return Cascade{s}, nil
}

// butterworthPrototypePoles returns the order poles of a unity-cutoff
// analog lowpass Butterworth prototype, lying on the left half of the
// unit circle in the s-plane.
func butterworthPrototypePoles(order int) []complex128 {
	poles := make([]complex128, order)
	for k := 0; k < order; k++ {
		theta := math.Pi * (2*float64(k) + float64(order) + 1) / (2 * float64(order))
		poles[k] = complex(math.Cos(theta), math.Sin(theta))
	}
	return poles
}

// pairToSections groups poles and zeros into conjugate-pair biquads.
// Both slices are assumed to come in matching conjugate-pair order
// (true by construction above), so the simplest pairing — consecutive
// elements — already groups each pole with its conjugate.
func pairToSections(poles, zeros []complex128) Cascade {
	n := len(poles)
	sections := make(Cascade, 0, (n+1)/2)
	for i := 0; i+1 < n; i += 2 {
		p1, p2 := poles[i], poles[i+1]
		z1, z2 := zeros[i], zeros[i+1]

		a1 := real(-(p1 + p2))
		a2 := real(p1 * p2)
		b0 := 1.0
		b1 := real(-(z1 + z2))
		b2 := real(z1 * z2)

		sections = append(sections, Section{B0: b0, B1: b1, B2: b2, A1: a1, A2: a2})
	}
	return sections
}

// normalizeCenterGain scales every section's numerator so the cascade's
// combined magnitude response is 1 at the band's geometric-mean analog
// frequency wo (converted to the digital domain), which is where a
// bandpass filter should have unity gain.
func normalizeCenterGain(sections Cascade, wo, fs float64) {
	if len(sections) == 0 {
		return
	}
	// Map the analog center frequency back through the same bilinear
	// relationship to the digital frequency it corresponds to.
	wDigital := 2 * math.Atan(wo/(2*fs))
	z := cmplx.Exp(complex(0, wDigital))

	mag := 1.0
	for _, s := range sections {
		num := complex(s.B0, 0) + complex(s.B1, 0)/z + complex(s.B2, 0)/(z*z)
		den := complex(1, 0) + complex(s.A1, 0)/z + complex(s.A2, 0)/(z*z)
		mag *= cmplx.Abs(num / den)
	}
	if mag == 0 || math.IsNaN(mag) || math.IsInf(mag, 0) {
		return
	}
	scale := math.Pow(1/mag, 1/float64(len(sections)))
	for i := range sections {
		sections[i].B0 *= scale
		sections[i].B1 *= scale
		sections[i].B2 *= scale
	}
}

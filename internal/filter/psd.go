package filter

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// PowerSpectrum estimates the power spectral density of x using
// Welch's method: segments of nperseg samples, 50% overlap, Hann
// window, averaged periodograms. nperseg defaults to min(len(x), fs)
// when 0 or negative is passed, as spec.md §4.3 specifies.
//
// Grounded on the FFT-based spectral analysis in
// other_examples/…austinkregel…features.go and mirrored by
// _examples/emer-auditory's use of gonum for its own auditory DSP —
// both reach for gonum.org/v1/gonum/dsp/fourier rather than a hand
// rolled FFT.
func PowerSpectrum(x []float64, fs float64, nperseg int) (freqs, psd []float64) {
	n := len(x)
	if n == 0 {
		return nil, nil
	}
	if nperseg <= 0 {
		nperseg = n
		if int(fs) < nperseg {
			nperseg = int(fs)
		}
	}
	if nperseg > n {
		nperseg = n
	}
	if nperseg < 2 {
		nperseg = n
	}

	step := nperseg / 2
	if step < 1 {
		step = 1
	}

	window := hannWindow(nperseg)
	var windowPower float64
	for _, w := range window {
		windowPower += w * w
	}

	fft := fourier.NewFFT(nperseg)
	nfreq := nperseg/2 + 1
	acc := make([]float64, nfreq)
	segments := 0

	coeffs := make([]complex128, nfreq)
	segment := make([]float64, nperseg)

	for start := 0; start+nperseg <= n; start += step {
		for i := 0; i < nperseg; i++ {
			segment[i] = x[start+i] * window[i]
		}
		fft.Coefficients(coeffs, segment)

		scale := 1.0 / (fs * windowPower)
		for k := 0; k < nfreq; k++ {
			p := real(coeffs[k])*real(coeffs[k]) + imag(coeffs[k])*imag(coeffs[k])
			p *= scale
			if k != 0 && !(nperseg%2 == 0 && k == nfreq-1) {
				p *= 2 // fold the negative-frequency half of a real signal's spectrum in
			}
			acc[k] += p
		}
		segments++
	}

	if segments == 0 {
		// Window longer than the signal: fall back to a single
		// (unaveraged) periodogram over the whole input.
		return PowerSpectrum(x, fs, n)
	}

	freqs = make([]float64, nfreq)
	psd = make([]float64, nfreq)
	for k := 0; k < nfreq; k++ {
		freqs[k] = float64(k) * fs / float64(nperseg)
		psd[k] = acc[k] / float64(segments)
	}
	return freqs, psd
}

func hannWindow(n int) []float64 {
	w := make([]float64, n)
	if n == 1 {
		w[0] = 1
		return w
	}
	for i := 0; i < n; i++ {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
	}
	return w
}

// BandPower integrates psd over [flo, fhi] via the trapezoidal rule.
func BandPower(freqs, psd []float64, flo, fhi float64) float64 {
	if len(freqs) != len(psd) || len(freqs) < 2 {
		return 0
	}
	var total float64
	for i := 0; i+1 < len(freqs); i++ {
		f0, f1 := freqs[i], freqs[i+1]
		if f1 < flo || f0 > fhi {
			continue
		}
		lo := math.Max(f0, flo)
		hi := math.Min(f1, fhi)
		if hi <= lo {
			continue
		}
		// Linear interpolation of psd at lo/hi within [f0, f1].
		frac0 := (lo - f0) / (f1 - f0)
		frac1 := (hi - f0) / (f1 - f0)
		pLo := psd[i] + frac0*(psd[i+1]-psd[i])
		pHi := psd[i] + frac1*(psd[i+1]-psd[i])
		total += 0.5 * (pLo + pHi) * (hi - lo)
	}
	return total
}

// SpectralEdge returns the smallest frequency f such that the
// cumulative PSD up to f divided by the total PSD is >= fraction. It
// guards against a zero total (returns 0), per spec.md §4.4.
func SpectralEdge(freqs, psd []float64, fraction float64) float64 {
	if len(freqs) != len(psd) || len(freqs) == 0 {
		return 0
	}
	total := trapzTotal(freqs, psd)
	if total <= 0 {
		return 0
	}

	var cum float64
	for i := 0; i+1 < len(freqs); i++ {
		segment := 0.5 * (psd[i] + psd[i+1]) * (freqs[i+1] - freqs[i])
		if cum+segment >= fraction*total {
			// Linear interpolation within this segment.
			remaining := fraction*total - cum
			if segment <= 0 {
				return freqs[i]
			}
			frac := remaining / segment
			return freqs[i] + frac*(freqs[i+1]-freqs[i])
		}
		cum += segment
	}
	return freqs[len(freqs)-1]
}

func trapzTotal(freqs, psd []float64) float64 {
	var total float64
	for i := 0; i+1 < len(freqs); i++ {
		total += 0.5 * (psd[i] + psd[i+1]) * (freqs[i+1] - freqs[i])
	}
	return total
}

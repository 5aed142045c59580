package filter

// minSupportFactor is the teacher-style "don't trust a filter on data
// shorter than this" guard from spec.md §4.3's edge policy.
const minSupportFactor = 3

// Apply runs the cascade forward then backward over x, producing
// zero-phase output: the net group delay over the finite window is
// zero, at the cost of edge transients confined to roughly the first
// and last 3*order samples (spec.md §4.3). If x is too short for the
// cascade's order to settle, it is returned unmodified and undersampled
// is true — the scheduler's window-size invariant should make this
// unreachable in practice.
func Apply(c Cascade, x []float64) (y []float64, undersampled bool) {
	order := len(c) * 2
	if len(x) < minSupportFactor*order*2 {
		out := make([]float64, len(x))
		copy(out, x)
		return out, true
	}

	forward := filterForward(c, x)
	reversed := reverseCopy(forward)
	backward := filterForward(c, reversed)
	return reverseCopy(backward), false
}

// filterForward applies the cascade once, section by section, using
// Direct Form II Transposed per section (the standard numerically
// stable biquad form).
func filterForward(c Cascade, x []float64) []float64 {
	out := make([]float64, len(x))
	copy(out, x)

	for _, s := range c {
		var w1, w2 float64
		for i, v := range out {
			w0 := v - s.A1*w1 - s.A2*w2
			out[i] = s.B0*w0 + s.B1*w1 + s.B2*w2
			w2 = w1
			w1 = w0
		}
	}
	return out
}

func reverseCopy(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[len(x)-1-i] = v
	}
	return out
}

// Preprocess subtracts the mean from x, then applies notch followed by
// the wideband bandpass, per spec.md §4.3.
func Preprocess(notch, wideband Cascade, x []float64) []float64 {
	centered := subtractMean(x)
	afterNotch, _ := Apply(notch, centered)
	afterBandpass, _ := Apply(wideband, afterNotch)
	return afterBandpass
}

func subtractMean(x []float64) []float64 {
	out := make([]float64, len(x))
	if len(x) == 0 {
		return out
	}
	var sum float64
	for _, v := range x {
		sum += v
	}
	mean := sum / float64(len(x))
	for i, v := range x {
		out[i] = v - mean
	}
	return out
}

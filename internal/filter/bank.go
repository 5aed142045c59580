package filter

// Bank holds the immutable SOS cascades used by every window. It is
// built once at startup and shared read-only afterwards (spec.md §3's
// "Filter SOS arrays are the only shared-immutable resource").
type Bank struct {
	FS       float64
	Notch    Cascade
	Wideband Cascade
	Alpha    Cascade
	Beta     Cascade
}

// BankParams collects the construction parameters named in spec.md
// §4.3/§4.8.
type BankParams struct {
	FS                        float64
	NotchFreq, NotchQ         float64
	BandpassLow, BandpassHigh float64
	AlphaLow, AlphaHigh       float64
	BetaLow, BetaHigh         float64
	Order                     int
}

// NewBank constructs the notch, wideband, alpha, and beta cascades.
// Any invalid band or an fs too low for the requested cutoffs surfaces
// as *ErrConfig, to be handled before the scheduler loop starts.
func NewBank(p BankParams) (*Bank, error) {
	notch, err := Notch(p.NotchFreq, p.NotchQ, p.FS)
	if err != nil {
		return nil, err
	}
	wideband, err := Butterworth(p.Order, p.BandpassLow, p.BandpassHigh, p.FS)
	if err != nil {
		return nil, err
	}
	alpha, err := Butterworth(p.Order, p.AlphaLow, p.AlphaHigh, p.FS)
	if err != nil {
		return nil, err
	}
	beta, err := Butterworth(p.Order, p.BetaLow, p.BetaHigh, p.FS)
	if err != nil {
		return nil, err
	}

	return &Bank{
		FS:       p.FS,
		Notch:    notch,
		Wideband: wideband,
		Alpha:    alpha,
		Beta:     beta,
	}, nil
}

// Preprocess subtracts the mean, then applies the notch and wideband
// bandpass, per spec.md §4.3.
func (bk *Bank) Preprocess(x []float64) []float64 {
	return Preprocess(bk.Notch, bk.Wideband, x)
}

// ExtractAlpha applies the alpha bandpass to an already-preprocessed
// signal.
func (bk *Bank) ExtractAlpha(preprocessed []float64) []float64 {
	y, _ := Apply(bk.Alpha, preprocessed)
	return y
}

// ExtractBeta applies the beta bandpass to an already-preprocessed
// signal.
func (bk *Bank) ExtractBeta(preprocessed []float64) []float64 {
	y, _ := Apply(bk.Beta, preprocessed)
	return y
}

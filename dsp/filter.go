// SPDX-License-Identifier: EPL-2.0

package dsp

import "math"

// Filter is a first-order highpass in series with a first-order lowpass,
// folded into a single biquad and run in transposed direct form II.
//
// Coefficients are only recomputed when a cutoff changes.
type Filter struct {
	sampleRate float32
	highpass   float32
	lowpass    float32

	b0, b1, b2 float32
	a1, a2     float32

	// two state variables per channel
	l1, l2 float32
	r1, r2 float32
}

// NewFilter returns a band limiting filter; call Process with the cutoffs
// each sample.
func NewFilter(sampleRate float32) *Filter {
	return &Filter{sampleRate: sampleRate}
}

// Process filters one frame. highpass and lowpass are cutoffs in Hz and are
// clamped below Nyquist.
func (f *Filter) Process(in Frame, highpass, lowpass float32) Frame {
	if highpass != f.highpass || lowpass != f.lowpass || f.b0 == 0 {
		f.design(highpass, lowpass)
	}

	if IsSilent(in.L) && IsSilent(in.R) &&
		IsSilent(f.l1) && IsSilent(f.l2) && IsSilent(f.r1) && IsSilent(f.r2) {
		f.Reset()
		return Frame{}
	}

	var out Frame
	out.L, f.l1, f.l2 = f.tick(in.L, f.l1, f.l2)
	out.R, f.r1, f.r2 = f.tick(in.R, f.r1, f.r2)
	return out
}

func (f *Filter) tick(x, s1, s2 float32) (float32, float32, float32) {
	y := f.b0*x + s1
	s1 = f.b1*x - f.a1*y + s2
	s2 = f.b2*x - f.a2*y
	return y, s1, s2
}

func (f *Filter) design(highpass, lowpass float32) {
	f.highpass = highpass
	f.lowpass = lowpass

	nyquist := float64(f.sampleRate) * 0.499
	hp := math.Min(math.Max(float64(highpass), 1), nyquist)
	lp := math.Min(math.Max(float64(lowpass), 1), nyquist)

	kh := math.Tan(math.Pi * hp / float64(f.sampleRate))
	kl := math.Tan(math.Pi * lp / float64(f.sampleRate))

	a0 := (1 + kh) * (1 + kl)
	a1 := (1+kh)*(kl-1) + (kh-1)*(1+kl)
	a2 := (kh - 1) * (kl - 1)

	f.b0 = float32(kl / a0)
	f.b1 = 0
	f.b2 = float32(-kl / a0)
	f.a1 = float32(a1 / a0)
	f.a2 = float32(a2 / a0)
}

// Reset clears the filter state but keeps the coefficients.
func (f *Filter) Reset() {
	f.l1, f.l2, f.r1, f.r2 = 0, 0, 0, 0
}

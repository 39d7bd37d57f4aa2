// SPDX-License-Identifier: EPL-2.0

package dsp

// Phasor is a ramp in [0, 1) advanced by frequency/sampleRate per sample.
// Negative frequencies run it backwards.
type Phasor struct {
	phase      float32
	sampleRate float32
}

func NewPhasor(sampleRate float32) *Phasor {
	return &Phasor{sampleRate: sampleRate}
}

// Process advances one sample and returns the new phase.
func (p *Phasor) Process(freq float32) float32 {
	return p.Advance(freq, 1)
}

// Advance moves the phase by samples ticks at once.
func (p *Phasor) Advance(freq float32, samples int) float32 {
	p.phase = Wrap(p.phase + freq*float32(samples)/p.sampleRate)
	return p.phase
}

func (p *Phasor) Phase() float32 { return p.phase }

// Reset sets the phase, wrapped into [0, 1).
func (p *Phasor) Reset(phase float32) {
	p.phase = Wrap(phase)
}

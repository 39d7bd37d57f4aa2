// SPDX-License-Identifier: EPL-2.0

package voices

import "github.com/ik5/timewarp/dsp"

// GrainTrigger fires once per phasor cycle at 1000/duration×density Hz.
type GrainTrigger struct {
	phasor dsp.Phasor
	delta  dsp.Delta
}

func NewGrainTrigger(sampleRate float32) *GrainTrigger {
	return &GrainTrigger{phasor: *dsp.NewPhasor(sampleRate)}
}

// Process reports whether a grain should start on this sample. reset
// restarts the cycle and fires immediately. A non-positive duration never fires.
func (g *GrainTrigger) Process(durationMs, density float32, reset bool) bool {
	if reset {
		g.phasor.Reset(0)
		g.delta.Reset()
		return true
	}

	var freq float32
	if durationMs > 0 {
		freq = 1000 / durationMs * density
	}
	return g.delta.Wrapped(g.phasor.Process(freq))
}

// StartPositionPhasor moves the nominal read offset grains start from.
//
// drift is how fast the buffer content moves under the read head: 1 while
// the delay line is being written every sample, 0 when it is static.
type StartPositionPhasor struct {
	phasor dsp.Phasor
	offset float32
}

func NewStartPositionPhasor(sampleRate float32) *StartPositionPhasor {
	return &StartPositionPhasor{phasor: *dsp.NewPhasor(sampleRate)}
}

// Process returns the start offset in [0, 1) for this sample. freq is
// 1000/time; in granular mode stretch alone sets the rate, otherwise the
// offset follows speed in the direction of stretch.
func (s *StartPositionPhasor) Process(freq, speed, stretch, drift float32, granular bool) float32 {
	if granular {
		freq *= stretch - drift
	} else {
		freq *= speed*dsp.Signum(stretch) - drift
	}
	return dsp.Fract(s.phasor.Process(freq) + s.offset)
}

// Reset restarts the phasor at offset.
func (s *StartPositionPhasor) Reset(offset float32) {
	s.phasor.Reset(0)
	s.offset = offset
}

// SPDX-License-Identifier: EPL-2.0

package dsp

// Frame is a single stereo sample pair.
type Frame struct {
	L, R float32
}

// Mono returns a Frame with v on both channels.
func Mono(v float32) Frame { return Frame{L: v, R: v} }

func (f Frame) Add(o Frame) Frame { return Frame{L: f.L + o.L, R: f.R + o.R} }

func (f Frame) Scale(g float32) Frame { return Frame{L: f.L * g, R: f.R * g} }

// Clamp limits both channels to [lo, hi].
func (f Frame) Clamp(lo, hi float32) Frame {
	return Frame{L: Clamp(f.L, lo, hi), R: Clamp(f.R, lo, hi)}
}

// SPDX-License-Identifier: EPL-2.0

package dsp

// Delta tracks consecutive values and flags a drop, which for a Phasor
// means it wrapped around.
type Delta struct {
	prev float32
}

// Process records x and returns x minus the previous value.
func (d *Delta) Process(x float32) float32 {
	diff := x - d.prev
	d.prev = x
	return diff
}

// Wrapped records x and reports whether it is lower than the previous value.
func (d *Delta) Wrapped(x float32) bool {
	return d.Process(x) < 0
}

func (d *Delta) Reset() { d.prev = 0 }

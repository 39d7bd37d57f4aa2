// SPDX-License-Identifier: EPL-2.0

package dsp

import (
	"fmt"
	"math"
	"testing"
)

func TestMixEndpoints(t *testing.T) {
	t.Parallel()

	a := Frame{L: 0.3, R: -0.7}
	b := Frame{L: -0.2, R: 0.9}
	m := NewMix()

	if got := m.Process(a, b, 0); got != a {
		t.Errorf("Process(ratio 0) = %+v, want %+v", got, a)
	}
	if got := m.Process(a, b, 1); got != b {
		t.Errorf("Process(ratio 1) = %+v, want %+v", got, b)
	}
}

func TestMixConstantPower(t *testing.T) {
	t.Parallel()

	m := NewMix()
	for i := range 101 {
		ratio := float32(i) / 100
		m.Process(Frame{}, Frame{}, ratio)
		ga, gb := m.Gains()
		if p := ga*ga + gb*gb; math.Abs(float64(p-1)) > 1e-5 {
			t.Errorf("ratio %v: gains (%v, %v) power %v, want 1", ratio, ga, gb, p)
		}
	}
}

func TestMixClampsRatio(t *testing.T) {
	t.Parallel()

	m := NewMix()
	a, b := Mono(1), Mono(2)
	if got := m.Process(a, b, 3); got != b {
		t.Errorf("Process(ratio 3) = %+v, want %+v", got, b)
	}
	if got := m.Process(a, b, -1); got != a {
		t.Errorf("Process(ratio -1) = %+v, want %+v", got, a)
	}
}

func ExampleMix() {
	m := NewMix()
	out := m.Process(Mono(1), Mono(0), 0.5)
	fmt.Printf("%.3f\n", out.L)
	// Output: 0.707
}

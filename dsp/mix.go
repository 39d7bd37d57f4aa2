// SPDX-License-Identifier: EPL-2.0

package dsp

import "math"

// Mix is a constant-power crossfade between two frames.
// Ratio 0 yields only a, ratio 1 yields only b; in between the gains are
// cos and sin of ratio·π/2, so their squares always sum to one.
type Mix struct {
	ratio float32
	gainA float32
	gainB float32
}

func NewMix() *Mix {
	return &Mix{gainA: 1}
}

// Process blends a and b. Gains are recomputed only when ratio changes.
func (m *Mix) Process(a, b Frame, ratio float32) Frame {
	if ratio != m.ratio || (m.gainA == 0 && m.gainB == 0) {
		m.setRatio(ratio)
	}
	return a.Scale(m.gainA).Add(b.Scale(m.gainB))
}

// Gains returns the current pair of gains.
func (m *Mix) Gains() (float32, float32) {
	return m.gainA, m.gainB
}

func (m *Mix) setRatio(ratio float32) {
	m.ratio = ratio
	ratio = Clamp(ratio, 0, 1)
	switch ratio {
	case 0:
		m.gainA, m.gainB = 1, 0
	case 1:
		m.gainA, m.gainB = 0, 1
	default:
		theta := float64(ratio) * math.Pi / 2
		m.gainA = float32(math.Cos(theta))
		m.gainB = float32(math.Sin(theta))
	}
}

// SPDX-License-Identifier: EPL-2.0

package dsp

import "math"

// Interpolation selects the kernel used by DelayLine.Read.
type Interpolation uint8

const (
	Step Interpolation = iota
	Linear
	Cosine
	Cubic
	Spline
)

func (i Interpolation) String() string {
	switch i {
	case Step:
		return "step"
	case Linear:
		return "linear"
	case Cosine:
		return "cosine"
	case Cubic:
		return "cubic"
	case Spline:
		return "spline"
	default:
		return "unknown"
	}
}

// minDelay returns the shortest delay, in samples, the kernel can read
// without touching the slot the next Write will overwrite.
func (i Interpolation) minDelay() float64 {
	if i == Cubic || i == Spline {
		return 2
	}
	return 1
}

// LinearInterpolate blends y0 into y1 by x in [0, 1].
func LinearInterpolate(y0, y1, x float32) float32 {
	return y0 + (y1-y0)*x
}

// CosineInterpolate blends y0 into y1 along a half cosine.
func CosineInterpolate(y0, y1, x float32) float32 {
	mix := float32(1-math.Cos(float64(x)*math.Pi)) * 0.5
	return y0 + (y1-y0)*mix
}

// CubicInterpolate performs Catmull-Rom spline interpolation.
// x is the fractional position between y1 and y2 (0 <= x <= 1);
// y0, y1, y2, y3 are four consecutive samples.
func CubicInterpolate(y0, y1, y2, y3, x float32) float32 {
	a0 := -0.5*y0 + 1.5*y1 - 1.5*y2 + 0.5*y3
	a1 := y0 - 2.5*y1 + 2*y2 - 0.5*y3
	a2 := -0.5*y0 + 0.5*y2
	a3 := y1

	return ((a0*x+a1)*x+a2)*x + a3
}

// LagrangeInterpolate performs third-order Lagrange interpolation between
// y1 and y2 using the same four taps as CubicInterpolate.
func LagrangeInterpolate(y0, y1, y2, y3, x float32) float32 {
	a1 := 1 + x
	aa := x * a1
	b := 1 - x
	b1 := 2 - x
	bb := b * b1

	fw := -bb * x / 6
	fx := 0.5 * bb * a1
	fy := 0.5 * aa * b1
	fz := -aa * b / 6

	return y0*fw + y1*fx + y2*fy + y3*fz
}

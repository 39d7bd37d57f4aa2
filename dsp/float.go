// SPDX-License-Identifier: EPL-2.0

package dsp

import "math"

const (
	// DenormalThreshold is the magnitude below which signals are flushed to zero.
	DenormalThreshold = 1e-15

	ln10Over20 = math.Ln10 / 20
	piSquared  = math.Pi * math.Pi
)

// MsToSamples converts a duration in milliseconds to a (fractional) sample count.
func MsToSamples(ms, sampleRate float32) float32 {
	return ms * sampleRate / 1000
}

// DbToAmplitude converts decibels to a linear gain.
func DbToAmplitude(db float32) float32 {
	return float32(math.Exp(float64(db) * ln10Over20))
}

// SinBhaskara approximates sin(x) for x in [0, π] using Bhaskara I's formula.
func SinBhaskara(x float32) float32 {
	a := x * (math.Pi - x)
	return (16 * a) / (5*piSquared - 4*a)
}

// Clamp limits x to [lo, hi].
func Clamp(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// Fract returns the fractional part of x, keeping its sign.
func Fract(x float32) float32 {
	return x - float32(math.Trunc(float64(x)))
}

// Wrap folds x into [0, 1). Values in (-1, 0) are shifted up by one.
func Wrap(x float32) float32 {
	if x < 0 {
		x = Fract(x) + 1
		if x >= 1 {
			return 0
		}
		return x
	}
	return Fract(x)
}

// Signum returns -1, 0 or 1.
func Signum(x float32) float32 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}

// SafeRecip returns 1/x, or 0 when x is zero, subnormal or not finite.
func SafeRecip(x float32) float32 {
	if IsSilent(x) || math.IsInf(float64(x), 0) || math.IsNaN(float64(x)) {
		return 0
	}
	return 1 / x
}

// IsSilent reports whether |x| is below DenormalThreshold.
func IsSilent(x float32) bool {
	return x < DenormalThreshold && x > -DenormalThreshold
}

// FlushDenormal returns 0 for near-silent values and x otherwise.
func FlushDenormal(x float32) float32 {
	if IsSilent(x) {
		return 0
	}
	return x
}

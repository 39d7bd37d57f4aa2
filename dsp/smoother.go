// SPDX-License-Identifier: EPL-2.0

package dsp

import "math"

// SmoothingStyle picks the curve a Smoother follows towards its target.
type SmoothingStyle uint8

const (
	// LinearSmoothing reaches the target in a fixed number of samples.
	LinearSmoothing SmoothingStyle = iota
	// ExponentialSmoothing approaches the target with a one-pole lowpass.
	ExponentialSmoothing
	// LogarithmicSmoothing ramps by a constant ratio per sample, so a
	// change from 10 ms to 1000 ms sounds as even as one from 1 s to 100 s.
	// It falls back to linear when either end is not strictly positive.
	LogarithmicSmoothing
)

// settleThreshold ends exponential ramps once the remaining distance is inaudible.
const settleThreshold = 1e-6

// Smoother ramps a control value per sample.
// Next is safe to call on the audio thread.
type Smoother struct {
	style     SmoothingStyle
	current   float32
	target    float32
	increment float32
	ratio     float32
	pole      float32
	steps     int
	remaining int
}

// NewSmoother builds a smoother that moves over rampMs milliseconds.
func NewSmoother(style SmoothingStyle, rampMs, sampleRate float32) *Smoother {
	s := &Smoother{style: style}
	s.SetRamp(rampMs, sampleRate)
	return s
}

// SetRamp changes the ramp length. An ongoing ramp keeps its old pace.
func (s *Smoother) SetRamp(rampMs, sampleRate float32) {
	n := MsToSamples(rampMs, sampleRate)
	if !(n >= 1) {
		n = 1
	}
	s.steps = int(n)
	// time constant of rampMs/5 puts the one-pole within 1% after rampMs
	s.pole = float32(math.Exp(-5 / float64(n)))
}

// Reset jumps straight to v.
func (s *Smoother) Reset(v float32) {
	s.current = v
	s.target = v
	s.remaining = 0
}

// SetTarget starts a ramp towards v. Repeating the current target is a no-op.
func (s *Smoother) SetTarget(v float32) {
	if v == s.target {
		return
	}
	s.target = v
	if s.steps <= 0 {
		s.current = v
		s.remaining = 0
		return
	}
	s.remaining = s.steps

	switch s.style {
	case LogarithmicSmoothing:
		if s.current > 0 && v > 0 {
			s.ratio = float32(math.Pow(float64(v/s.current), 1/float64(s.steps)))
			s.increment = 0
			return
		}
		fallthrough
	case LinearSmoothing:
		s.ratio = 0
		s.increment = (v - s.current) / float32(s.steps)
	}
}

// Next advances one sample and returns the smoothed value.
func (s *Smoother) Next() float32 {
	if s.remaining == 0 {
		return s.current
	}

	switch s.style {
	case ExponentialSmoothing:
		s.current = s.target + (s.current-s.target)*s.pole
		if d := s.current - s.target; d < settleThreshold && d > -settleThreshold {
			s.current = s.target
			s.remaining = 0
		}
		return s.current
	default:
		if s.ratio != 0 {
			s.current *= s.ratio
		} else {
			s.current += s.increment
		}
		s.remaining--
		if s.remaining == 0 {
			s.current = s.target
		}
		return s.current
	}
}

func (s *Smoother) Current() float32 { return s.current }
func (s *Smoother) Target() float32  { return s.target }

// Ramping reports whether the value is still moving.
func (s *Smoother) Ramping() bool { return s.remaining != 0 }

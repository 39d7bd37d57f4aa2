// SPDX-License-Identifier: EPL-2.0

// Package dsp contains the real-time building blocks of the timewarp engine.
//
// Everything in this package is designed to run inside an audio callback:
// no method on the per-sample path allocates, blocks, or returns an error.
// Values are 32-bit floats and stereo audio is carried as a Frame.
//
// # Building Blocks
//
//   - DelayLine: power-of-two circular buffer of Frames with interpolated reads
//   - Smoother: per-sample ramp towards a control-rate target
//   - Phasor: wrapping 0..1 ramp driven by a frequency in Hz
//   - Delta: detects a phasor wraparound as a single-sample tick
//   - Filter: highpass/lowpass pair folded into one biquad section
//   - Mix: constant-power crossfade with cached gains
//
// # Interpolation
//
// DelayLine.Read selects one of five kernels per call:
//
//	out := line.Read(250, dsp.Linear)  // 250 ms behind the write pointer
//	out = line.Read(250, dsp.Spline)   // Catmull-Rom, four taps
//
// Delays shorter than the kernel support are clamped (1 sample for Step,
// Linear and Cosine, 2 samples for Cubic and Spline).
package dsp

// SPDX-License-Identifier: EPL-2.0

package dsp

import "math"

// DelayLine is a circular buffer of Frames sized to a power of two so the
// read and write pointers wrap with a bitmask.
//
// Write advances the write pointer by one frame; Read is side-effect free.
type DelayLine struct {
	buffer       []Frame
	writePointer int
	wrap         int
	sampleRate   float32
}

// NewDelayLine allocates a delay line holding at least length frames.
func NewDelayLine(length int, sampleRate float32) *DelayLine {
	size := NextPowerOfTwo(length)
	return &DelayLine{
		buffer:     make([]Frame, size),
		wrap:       size - 1,
		sampleRate: sampleRate,
	}
}

// NextPowerOfTwo returns the smallest power of two >= n (and >= 1).
func NextPowerOfTwo(n int) int {
	size := 1
	for size < n {
		size <<= 1
	}
	return size
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

func (d *DelayLine) Size() int           { return len(d.buffer) }
func (d *DelayLine) SampleRate() float32 { return d.sampleRate }
func (d *DelayLine) WritePointer() int   { return d.writePointer }

// Write stores one frame and advances the write pointer.
func (d *DelayLine) Write(f Frame) {
	d.buffer[d.writePointer] = f
	d.writePointer = (d.writePointer + 1) & d.wrap
}

// Read returns the frame delayMs milliseconds behind the write pointer.
func (d *DelayLine) Read(delayMs float32, interp Interpolation) Frame {
	delay := float64(delayMs) * float64(d.sampleRate) / 1000
	if !(delay >= interp.minDelay()) {
		delay = interp.minDelay()
	}

	switch interp {
	case Step:
		// round to the nearest frame
		pos := math.Floor(float64(d.writePointer) - math.Max(delay-0.5, 1))
		return d.at(int(pos))
	case Linear:
		i, x := d.split(delay)
		a, b := d.at(i), d.at(i+1)
		return Frame{L: LinearInterpolate(a.L, b.L, x), R: LinearInterpolate(a.R, b.R, x)}
	case Cosine:
		i, x := d.split(delay)
		a, b := d.at(i), d.at(i+1)
		return Frame{L: CosineInterpolate(a.L, b.L, x), R: CosineInterpolate(a.R, b.R, x)}
	case Cubic:
		i, x := d.split(delay)
		w, a, b, z := d.at(i-1), d.at(i), d.at(i+1), d.at(i+2)
		return Frame{
			L: LagrangeInterpolate(w.L, a.L, b.L, z.L, x),
			R: LagrangeInterpolate(w.R, a.R, b.R, z.R, x),
		}
	case Spline:
		i, x := d.split(delay)
		w, a, b, z := d.at(i-1), d.at(i), d.at(i+1), d.at(i+2)
		return Frame{
			L: CubicInterpolate(w.L, a.L, b.L, z.L, x),
			R: CubicInterpolate(w.R, a.R, b.R, z.R, x),
		}
	default:
		return Frame{}
	}
}

// split returns the integer tap index and fractional position for delay samples.
// Index math stays in float64: float32 loses sub-sample precision on
// multi-second buffers.
func (d *DelayLine) split(delay float64) (int, float32) {
	pos := float64(d.writePointer) - delay
	base := math.Floor(pos)
	return int(base), float32(pos - base)
}

func (d *DelayLine) at(i int) Frame {
	return d.buffer[i&d.wrap]
}

// SetValues swaps in a new backing buffer. values must have a power-of-two
// length; otherwise the call is ignored and false is returned. The write
// pointer is kept in range of the new buffer.
func (d *DelayLine) SetValues(values []Frame) bool {
	if !isPowerOfTwo(len(values)) {
		return false
	}
	d.buffer = values
	d.wrap = len(values) - 1
	d.writePointer &= d.wrap
	return true
}

// SetWritePointer moves the write pointer; out of range indices reset it to 0.
func (d *DelayLine) SetWritePointer(index int) {
	if index < 0 || index >= len(d.buffer) {
		d.writePointer = 0
		return
	}
	d.writePointer = index
}

// Values exposes the backing buffer, oldest-first ordering is not implied.
func (d *DelayLine) Values() []Frame {
	return d.buffer
}

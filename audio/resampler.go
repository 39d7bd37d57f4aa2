// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"fmt"
	"io"

	"github.com/ik5/timewarp/dsp"
)

// BlockFrames is the number of source frames pulled per refill.
const BlockFrames = 1024

// Resampler converts src to a target sample rate using cubic interpolation.
// Source audio is consumed in fixed blocks of BlockFrames; the final partial
// block is zero-padded and the output trimmed to ceil(in*dst/src) frames.
// A one-pole low-pass runs on the input when downsampling.
type Resampler struct {
	src      Source
	dstRate  int
	srcRate  int
	ratio    float64 // source frames per output frame
	channels int

	block  []float32
	window []float32 // interleaved source frames, window[0] is frame base
	pos    float64   // read position in frames, relative to window

	inFrames  int
	outFrames int
	limit     int // output frame count, known once src hits EOF
	eof       bool

	useFilter   bool
	filterAlpha float32
	filterState []float32
	primed      bool
}

func NewResampler(src Source, dstRate int) (*Resampler, error) {
	if dstRate <= 0 || src.SampleRate() <= 0 {
		return nil, ErrInvalidSampleRate
	}
	channels := src.Channels()
	if channels <= 0 {
		return nil, ErrUnsupportedChannelCount
	}

	ratio := float64(src.SampleRate()) / float64(dstRate)

	return &Resampler{
		src:         src,
		dstRate:     dstRate,
		srcRate:     src.SampleRate(),
		ratio:       ratio,
		channels:    channels,
		block:       make([]float32, BlockFrames*channels),
		window:      make([]float32, 0, (BlockFrames+4)*channels),
		limit:       -1,
		useFilter:   ratio > 1.0,
		filterAlpha: 0.5,
		filterState: make([]float32, channels),
	}, nil
}

func (r *Resampler) SampleRate() int { return r.dstRate }
func (r *Resampler) Channels() int   { return r.channels }
func (r *Resampler) BufSize() int    { return BlockFrames * r.channels }

func (r *Resampler) Close() error {
	if err := r.src.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

func (r *Resampler) frames() int { return len(r.window) / r.channels }

func (r *Resampler) at(i, c int) float32 {
	if i < 0 {
		i = 0
	}
	if i >= r.frames() {
		return 0
	}
	return r.window[i*r.channels+c]
}

// fill drops consumed history and appends one block from the source.
func (r *Resampler) fill() error {
	if drop := min(int(r.pos)-1, r.frames()); drop > 0 {
		n := copy(r.window, r.window[drop*r.channels:])
		r.window = r.window[:n]
		r.pos -= float64(drop)
	}

	got := 0
	var err error
	for got < len(r.block) {
		var n int
		n, err = r.src.ReadSamples(r.block[got:])
		got += n
		if err != nil {
			break
		}
		if n == 0 {
			err = io.ErrNoProgress
			break
		}
	}
	got -= got % r.channels

	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w", err)
	}

	frames := got / r.channels
	r.inFrames += frames

	if err != nil {
		r.eof = true
		r.limit = int((int64(r.inFrames)*int64(r.dstRate) + int64(r.srcRate) - 1) / int64(r.srcRate))
		if frames == 0 {
			return nil
		}
		clear(r.block[got:])
	}

	if r.useFilter {
		r.lowpass(r.block[:frames*r.channels])
	}
	r.window = append(r.window, r.block...)
	return nil
}

func (r *Resampler) lowpass(samples []float32) {
	if !r.primed {
		copy(r.filterState, samples[:r.channels])
		r.primed = true
	}
	for i := 0; i < len(samples); i += r.channels {
		for c := range r.channels {
			y := r.filterAlpha*samples[i+c] + (1-r.filterAlpha)*r.filterState[c]
			r.filterState[c] = y
			samples[i+c] = y
		}
	}
}

// ReadSamples produces interleaved samples at the destination rate.
// dst length must be a multiple of the channel count.
func (r *Resampler) ReadSamples(dst []float32) (int, error) {
	if len(dst)%r.channels != 0 {
		return 0, ErrInvalidDstSize
	}

	written := 0
	want := len(dst) / r.channels

	for written < want {
		i := int(r.pos)
		for !r.eof && i+2 >= r.frames() {
			if err := r.fill(); err != nil {
				return written * r.channels, err
			}
			i = int(r.pos)
		}
		if r.eof && r.outFrames >= r.limit {
			return written * r.channels, io.EOF
		}

		t := float32(r.pos - float64(i))
		base := written * r.channels
		for c := range r.channels {
			dst[base+c] = dsp.CubicInterpolate(r.at(i-1, c), r.at(i, c), r.at(i+1, c), r.at(i+2, c), t)
		}

		written++
		r.outFrames++
		r.pos += r.ratio
	}

	if r.eof && r.outFrames >= r.limit {
		return written * r.channels, io.EOF
	}
	return written * r.channels, nil
}

// ReadAll drains src into one interleaved slice.
func ReadAll(src Source) ([]float32, error) {
	out := make([]float32, 0, src.BufSize())
	buf := make([]float32, max(src.BufSize(), src.Channels()))
	buf = buf[:len(buf)-len(buf)%src.Channels()]

	for {
		n, err := src.ReadSamples(buf)
		out = append(out, buf[:n]...)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		if n == 0 {
			return out, io.ErrNoProgress
		}
	}
}

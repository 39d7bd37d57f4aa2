// SPDX-License-Identifier: EPL-2.0

// Package audiotest holds generated sources used by tests and examples.
package audiotest

import (
	"io"
	"math"
)

// Waveform returns the value of channel ch at frame i.
type Waveform func(i, ch int) float32

// Source yields frames from a Waveform. It satisfies audio.Source.
type Source struct {
	sampleRate int
	channels   int
	frames     int
	pos        int
	wave       Waveform

	// Err, when set, is returned once pos reaches FailAt.
	Err    error
	FailAt int

	closed bool
}

func New(sampleRate, channels, frames int, wave Waveform) *Source {
	return &Source{
		sampleRate: sampleRate,
		channels:   channels,
		frames:     frames,
		wave:       wave,
	}
}

func Silent(sampleRate, channels, frames int) *Source {
	return New(sampleRate, channels, frames, func(int, int) float32 { return 0 })
}

func Constant(sampleRate, channels, frames int, v float32) *Source {
	return New(sampleRate, channels, frames, func(int, int) float32 { return v })
}

func Sine(sampleRate, channels, frames int, freq float64) *Source {
	return New(sampleRate, channels, frames, func(i, _ int) float32 {
		return float32(math.Sin(2 * math.Pi * freq * float64(i) / float64(sampleRate)))
	})
}

// Ramp produces i/frames on every channel, offset by ch/10.
func Ramp(sampleRate, channels, frames int) *Source {
	return New(sampleRate, channels, frames, func(i, ch int) float32 {
		return float32(i)/float32(frames) + float32(ch)/10
	})
}

func (s *Source) SampleRate() int { return s.sampleRate }
func (s *Source) Channels() int   { return s.channels }
func (s *Source) BufSize() int    { return 4096 }
func (s *Source) Closed() bool    { return s.closed }

func (s *Source) Close() error {
	s.closed = true
	return nil
}

func (s *Source) Rewind() { s.pos = 0 }

func (s *Source) ReadSamples(dst []float32) (int, error) {
	if s.Err != nil && s.pos >= s.FailAt {
		return 0, s.Err
	}
	if s.pos >= s.frames {
		return 0, io.EOF
	}

	n := min(len(dst)/s.channels, s.frames-s.pos)
	if s.Err != nil {
		n = min(n, s.FailAt-s.pos)
	}
	for f := range n {
		for ch := range s.channels {
			dst[f*s.channels+ch] = s.wave(s.pos+f, ch)
		}
	}
	s.pos += n

	if s.pos >= s.frames {
		return n * s.channels, io.EOF
	}
	return n * s.channels, nil
}

// SPDX-License-Identifier: EPL-2.0

package timewarp

import (
	"github.com/ik5/timewarp/dsp"
	"github.com/ik5/timewarp/loader"
	"github.com/ik5/timewarp/notes"
	"github.com/ik5/timewarp/params"
	"github.com/ik5/timewarp/voices"
)

const (
	// DefaultHighpass and DefaultLowpass leave the feedback path open.
	DefaultHighpass = 20
	DefaultLowpass  = 20000
)

// Engine runs the per-sample signal flow: it asks the voices for the grain
// cloud, writes the input and feedback into the delay line according to the
// sample mode, and mixes the dry input with the grains.
//
// An Engine is owned by the audio thread. Its Process method neither
// allocates nor returns errors.
type Engine struct {
	sampleRate float32
	line       *dsp.DelayLine
	voices     *voices.Voices
	filter     *dsp.Filter
	mix        *dsp.Mix

	highpass float32
	lowpass  float32
}

// NewEngine sizes the delay line for the longest delay plus the grain fade.
func NewEngine(sampleRate float32, opts ...Option) *Engine {
	cfg := newConfig(opts)
	length := int(sampleRate * (params.MaxDelayTime + voices.FadeTime) / 1000)

	return &Engine{
		sampleRate: sampleRate,
		line:       dsp.NewDelayLine(length, sampleRate),
		voices:     voices.New(sampleRate, cfg.seed),
		filter:     dsp.NewFilter(sampleRate),
		mix:        dsp.NewMix(),
		highpass:   DefaultHighpass,
		lowpass:    DefaultLowpass,
	}
}

func (e *Engine) SampleRate() float32 { return e.sampleRate }

// Size is the delay line length in frames, always a power of two.
func (e *Engine) Size() int { return e.line.Size() }

// DelayLine exposes the buffer the grains read from.
func (e *Engine) DelayLine() *dsp.DelayLine { return e.line }

// SetFilterCutoffs sets the feedback filter corners in Hz.
func (e *Engine) SetFilterCutoffs(highpass, lowpass float32) {
	e.highpass = highpass
	e.lowpass = lowpass
}

// Process renders one frame. p must have been Set for the current buffer;
// n supplies the voice slots when MIDI is enabled.
func (e *Engine) Process(in dsp.Frame, p *params.Params, n *notes.Notes) dsp.Frame {
	c := p.Controls()
	s := p.Next()

	wet := e.voices.Process(e.line, n.Active(), voices.Settings{
		Scan:          c.Scan,
		Spray:         c.Spray,
		Size:          c.Size,
		Density:       c.Density,
		Stereo:        c.Stereo,
		Speed:         p.Speed(),
		Stretch:       c.Stretch,
		Time:          s.Time,
		MidiEnabled:   c.MidiEnabled,
		Attack:        s.Attack,
		Decay:         s.Decay,
		Sustain:       s.Sustain,
		Release:       s.Release,
		ResetPlayback: s.ResetPlayback,
		StartOffset:   p.StartOffset(),
		Static:        c.SampleMode == params.Sampler,
	}).Scale(s.PlaybackGain)

	switch c.SampleMode {
	case params.Delay:
		e.writeDelay(in, wet, s)
	case params.Looper:
		loop, ok := p.LoopDuration()
		e.writeLoop(in, s, loop, ok)
	}

	return in.Scale(s.Dry).Add(wet.Scale(s.Wet))
}

func (e *Engine) writeDelay(in, wet dsp.Frame, s params.Sample) {
	out := e.line.Read(s.Time, dsp.Linear)

	var fb dsp.Frame
	if s.Feedback != 0 {
		fb = out.Scale(1 - s.Recycle).Add(wet.Scale(s.Recycle)).Scale(s.Feedback)
		fb = e.filter.Process(fb.Clamp(-1, 1), e.highpass, e.lowpass)
		fb = dsp.Frame{L: dsp.FlushDenormal(fb.L), R: dsp.FlushDenormal(fb.R)}
	}

	e.line.Write(e.mix.Process(out, in.Add(fb), s.RecordingGain))
}

// writeLoop overdubs onto the previous pass once a loop has been measured.
// Before that, input is only recorded while the record gain is open. Loops
// longer than MaxDelayTime read back MaxDelayTime.
func (e *Engine) writeLoop(in dsp.Frame, s params.Sample, loopMs float32, hasLoop bool) {
	if !hasLoop {
		if s.RecordingGain > 0 {
			e.line.Write(in.Scale(s.RecordingGain))
		}
		return
	}

	prev := e.line.Read(min(loopMs, params.MaxDelayTime), dsp.Linear)
	e.line.Write(prev.Scale(1 - s.Recycle*s.Feedback).Add(in.Scale(s.RecordingGain)))
}

// Clear zeroes the delay line in place and rewinds the write pointer.
func (e *Engine) Clear() {
	clear(e.line.Values())
	e.line.SetWritePointer(0)
	e.voices.Reset()
}

// ResetVoices silences every voice without touching the delay line.
func (e *Engine) ResetVoices() { e.voices.Reset() }

// Receive applies a worker response to the delay line. Responses that
// failed, or that were fitted to a different buffer size, are ignored.
func (e *Engine) Receive(resp loader.Response, p *params.Params) bool {
	if resp.Err != nil {
		return false
	}
	if len(resp.Data.Frames) != e.line.Size() || !e.line.SetValues(resp.Data.Frames) {
		return false
	}

	switch resp.Kind {
	case loader.FlushBuffer:
		e.line.SetWritePointer(0)
	default:
		e.line.SetWritePointer(resp.Data.DurationInSamples)
		p.SetFileDuration(resp.Data.DurationInMs)
		p.SetResetPlayback()
	}
	return true
}

// SPDX-License-Identifier: EPL-2.0

package params

import (
	"fmt"
	"math"
	"strings"

	"github.com/ik5/timewarp/dsp"
)

const (
	// MinDelayTime is the shortest addressable time, in ms.
	MinDelayTime = 10
	// MaxDelayTime is the longest addressable time, in ms.
	MaxDelayTime = 60000

	gainRampMs  = 55
	timeRampMs  = 50
	paramRampMs = 20
)

// SampleMode selects what the delay line holds and where time comes from.
type SampleMode uint8

const (
	// Delay records continuously; time is the knob value.
	Delay SampleMode = iota
	// Looper measures the first recording with a Stopwatch and loops it.
	Looper
	// Sampler plays a loaded file; nothing is recorded.
	Sampler
)

func (m SampleMode) String() string {
	switch m {
	case Delay:
		return "delay"
	case Looper:
		return "looper"
	case Sampler:
		return "sampler"
	default:
		return "unknown"
	}
}

// ParseSampleMode accepts the names returned by SampleMode.String.
func ParseSampleMode(s string) (SampleMode, error) {
	switch strings.ToLower(s) {
	case "delay":
		return Delay, nil
	case "looper":
		return Looper, nil
	case "sampler":
		return Sampler, nil
	default:
		return Delay, fmt.Errorf("%w: %q", ErrUnknownSampleMode, s)
	}
}

// Controls are the raw values a host supplies once per buffer.
type Controls struct {
	Scan    float32 // 0..1
	Spray   float32 // ms
	Size    float32 // 0..1
	Density float32 // 1..8
	Stereo  float32 // 0..1
	Pitch   float32 // semitones
	Stretch float32 // signed ratio

	Record     bool
	Play       bool
	SampleMode SampleMode

	Time     float32 // ms, used in Delay mode
	Length   float32 // 0..1 of the loop or file
	Recycle  float32 // 0..1
	Feedback float32 // 0..1
	Dry      float32 // dB
	Wet      float32 // dB

	MidiEnabled bool
	Attack      float32 // ms
	Decay       float32 // ms
	Sustain     float32 // 0..1
	Release     float32 // ms

	Erase      bool
	BufferSize int
}

// DefaultControls returns a plain one second delay with the grains at unity.
func DefaultControls() Controls {
	return Controls{
		Size:       1,
		Density:    1,
		Stretch:    1,
		Record:     true,
		Play:       true,
		SampleMode: Delay,
		Time:       1000,
		Length:     1,
		Dry:        0,
		Wet:        0,
		Attack:     10,
		Decay:      300,
		Sustain:    0.5,
		Release:    500,
		BufferSize: 512,
	}
}

// Sample holds the smoothed values for one sample.
type Sample struct {
	RecordingGain float32
	PlaybackGain  float32
	Time          float32
	Recycle       float32
	Feedback      float32
	Dry           float32 // linear
	Wet           float32 // linear
	Attack        float32
	Decay         float32
	Sustain       float32
	Release       float32
	ResetPlayback bool
}

// Params is the control-rate state of the engine. It is not safe for
// concurrent use; Set and Next belong to the audio thread.
type Params struct {
	controls Controls
	speed    float32

	recordingGain *dsp.Smoother
	playbackGain  *dsp.Smoother
	time          *dsp.Smoother
	recycle       *dsp.Smoother
	feedback      *dsp.Smoother
	dry           *dsp.Smoother
	wet           *dsp.Smoother
	attack        *dsp.Smoother
	decay         *dsp.Smoother
	sustain       *dsp.Smoother
	release       *dsp.Smoother

	initialized       bool
	resetPlayback     bool
	resetStartOffset  bool
	erasing           bool
	hasDelayRecording bool
	fileDuration      float32 // 0 when no file is loaded
	prevFileDuration  float32
	loopDuration      float32 // 0 until a loop is measured
	stopwatch         *Stopwatch
	prevPlay          bool
	prevErase         bool
	prevMode          SampleMode
	hasPrevMode       bool
	pitchBend         float32
	startOffsetPhasor *dsp.Phasor
	startOffset       float32
}

// New returns Params for sampleRate. The first Set jumps every smoother
// straight to its value.
func New(sampleRate float32) *Params {
	linear := func(ms float32) *dsp.Smoother {
		return dsp.NewSmoother(dsp.LinearSmoothing, ms, sampleRate)
	}
	return &Params{
		controls:          DefaultControls(),
		speed:             1,
		recordingGain:     linear(gainRampMs),
		playbackGain:      linear(gainRampMs),
		time:              dsp.NewSmoother(dsp.LogarithmicSmoothing, timeRampMs, sampleRate),
		recycle:           linear(paramRampMs),
		feedback:          linear(paramRampMs),
		dry:               dsp.NewSmoother(dsp.ExponentialSmoothing, paramRampMs, sampleRate),
		wet:               dsp.NewSmoother(dsp.ExponentialSmoothing, paramRampMs, sampleRate),
		attack:            linear(paramRampMs),
		decay:             linear(paramRampMs),
		sustain:           linear(paramRampMs),
		release:           linear(paramRampMs),
		stopwatch:         NewStopwatch(sampleRate),
		prevPlay:          true,
		pitchBend:         1,
		startOffsetPhasor: dsp.NewPhasor(sampleRate),
	}
}

// Set applies the controls for the coming buffer. It must be called before
// the buffer's first Next.
func (p *Params) Set(c Controls) {
	p.controls = c
	p.speed = float32(math.Exp2(float64(c.Pitch) / 12))
	if c.MidiEnabled {
		p.speed *= p.pitchBend
	}

	modeChanged := p.hasPrevMode && c.SampleMode != p.prevMode
	p.erasing = modeChanged || (c.Erase && !p.prevErase)
	if p.erasing {
		p.hasDelayRecording = false
		p.resetStartOffset = true
		p.resetPlayback = true
		p.fileDuration = 0
		p.loopDuration = 0
		p.stopwatch.Reset()
	}

	if modeChanged && c.SampleMode == Looper {
		p.playbackGain.Reset(0)
	}

	play := p.overridePlay(c.Play, c.SampleMode)
	recordingGain := boolGain(c.Record)
	playbackGain := boolGain(play)
	dry := dsp.DbToAmplitude(c.Dry)
	wet := dsp.DbToAmplitude(c.Wet)

	if p.initialized {
		p.recordingGain.SetTarget(recordingGain)
		p.playbackGain.SetTarget(playbackGain)
		p.setTime(c)
		p.recycle.SetTarget(c.Recycle)
		p.feedback.SetTarget(c.Feedback)
		p.dry.SetTarget(dry)
		p.wet.SetTarget(wet)
		p.attack.SetTarget(c.Attack)
		p.decay.SetTarget(c.Decay)
		p.sustain.SetTarget(c.Sustain)
		p.release.SetTarget(c.Release)
	} else {
		p.recordingGain.Reset(recordingGain)
		p.playbackGain.Reset(playbackGain)
		p.resetTime(c)
		p.recycle.Reset(c.Recycle)
		p.feedback.Reset(c.Feedback)
		p.dry.Reset(dry)
		p.wet.Reset(wet)
		p.attack.Reset(c.Attack)
		p.decay.Reset(c.Decay)
		p.sustain.Reset(c.Sustain)
		p.release.Reset(c.Release)
		p.resetPlayback = true
		p.initialized = true
	}

	// a looper without a loop has nothing to feed back
	if c.SampleMode == Looper && p.loopDuration == 0 {
		p.feedback.Reset(0)
	} else if p.hasPrevMode && p.prevMode == Looper {
		p.feedback.Reset(c.Feedback)
	}

	p.advanceStartOffset(c)

	p.prevPlay = c.Play
	p.prevErase = c.Erase
	p.prevFileDuration = p.fileDuration
	p.prevMode = c.SampleMode
	p.hasPrevMode = true
}

func boolGain(on bool) float32 {
	if on {
		return 1
	}
	return 0
}

// overridePlay mutes a looper that has nothing to loop and requests a
// playback reset when play is switched back on.
func (p *Params) overridePlay(play bool, mode SampleMode) bool {
	if !play {
		return false
	}
	if mode == Looper && p.loopDuration == 0 && p.fileDuration == 0 {
		return false
	}
	if !p.resetPlayback {
		p.resetPlayback = !p.prevPlay
	}
	return true
}

func (p *Params) setTime(c Controls) {
	switch {
	case p.fileDuration > 0:
		target := clampTime(p.fileDuration * c.Length)
		if p.fileDuration == p.prevFileDuration {
			p.time.SetTarget(target)
		} else {
			p.time.Reset(target)
			p.resetStartOffset = true
		}
	case c.SampleMode == Looper && p.loopDuration == 0:
		// a play edge ends the recording
		start := c.Record && !(!p.prevPlay && c.Play)
		if ms, ok := p.stopwatch.Process(start, c.BufferSize); ok {
			p.loopDuration = ms
			p.time.Reset(clampTime(ms * c.Length))
			p.resetPlayback = true
			p.resetStartOffset = true
		}
	case c.SampleMode == Looper:
		p.time.SetTarget(clampTime(p.loopDuration * c.Length))
	default:
		if c.Record && !p.hasDelayRecording {
			p.hasDelayRecording = true
			p.resetStartOffset = true
		}
		p.time.SetTarget(clampTime(c.Time))
	}
}

func (p *Params) resetTime(c Controls) {
	switch {
	case p.fileDuration > 0:
		p.time.Reset(clampTime(p.fileDuration * c.Length))
	case p.loopDuration > 0:
		p.time.Reset(clampTime(p.loopDuration * c.Length))
	default:
		p.time.Reset(clampTime(c.Time))
	}
}

func clampTime(ms float32) float32 {
	return dsp.Clamp(ms, MinDelayTime, MaxDelayTime)
}

// advanceStartOffset keeps the offset a reset playhead starts from aligned
// with the moment recording began. A sampler buffer never moves, so its
// offset stays put.
func (p *Params) advanceStartOffset(c Controls) {
	if p.resetStartOffset {
		p.startOffsetPhasor.Reset(0)
	}
	var freq float32
	if t := p.time.Target(); t > 0 && c.SampleMode != Sampler {
		freq = 1000 / t
	}
	p.startOffset = 1 - p.startOffsetPhasor.Advance(freq, c.BufferSize)
}

// Next advances every smoother by one sample. The playback reset flag is
// reported on the first sample after it was raised and then cleared.
func (p *Params) Next() Sample {
	s := Sample{
		RecordingGain: p.recordingGain.Next(),
		PlaybackGain:  p.playbackGain.Next(),
		Time:          p.time.Next(),
		Recycle:       p.recycle.Next(),
		Feedback:      p.feedback.Next(),
		Dry:           p.dry.Next(),
		Wet:           p.wet.Next(),
		Attack:        p.attack.Next(),
		Decay:         p.decay.Next(),
		Sustain:       p.sustain.Next(),
		Release:       p.release.Next(),
		ResetPlayback: p.resetPlayback,
	}
	p.resetPlayback = false
	p.resetStartOffset = false
	return s
}

// Controls returns the values passed to the last Set.
func (p *Params) Controls() Controls { return p.controls }

// Speed is 2^(pitch/12), times the pitch bend factor in MIDI mode.
func (p *Params) Speed() float32 { return p.speed }

// StartOffset is where a reset playhead starts, in [0, 1].
func (p *Params) StartOffset() float32 { return p.startOffset }

// TargetTime is the time the smoother is heading for, in ms.
func (p *Params) TargetTime() float32 { return p.time.Target() }

// LoopDuration returns the measured loop length in ms.
func (p *Params) LoopDuration() (float32, bool) {
	return p.loopDuration, p.loopDuration > 0
}

// FileDuration returns the loaded file length in ms.
func (p *Params) FileDuration() (float32, bool) {
	return p.fileDuration, p.fileDuration > 0
}

// SetFileDuration records the length of a newly loaded file.
func (p *Params) SetFileDuration(ms float32) {
	p.fileDuration = ms
}

// SetResetPlayback requests a playhead reset on the next sample and
// silences recording until the gain ramps back up.
func (p *Params) SetResetPlayback() {
	p.resetPlayback = true
	p.recordingGain.Reset(0)
}

// ShouldEraseBuffer reports whether the last Set asked for the buffer to be
// cleared, either by an erase edge or by a sample mode change.
func (p *Params) ShouldEraseBuffer() bool { return p.erasing }

// SetPitchBend sets the MIDI pitch bend ratio applied from the next Set.
func (p *Params) SetPitchBend(factor float32) {
	p.pitchBend = factor
}

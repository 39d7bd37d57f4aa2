// SPDX-License-Identifier: EPL-2.0

package voices

import (
	"github.com/ik5/timewarp/dsp"
	"github.com/ik5/timewarp/notes"
)

// Settings are the smoothed control values for one sample.
type Settings struct {
	Scan    float32
	Spray   float32 // ms
	Size    float32 // 0..1
	Density float32 // MinDensity..MaxDensity
	Stereo  float32
	Speed   float32
	Stretch float32
	Time    float32 // ms

	MidiEnabled bool
	Attack      float32 // ms
	Decay       float32 // ms
	Sustain     float32
	Release     float32 // ms

	ResetPlayback bool
	// StartOffset is the start phase a reset playhead begins at.
	StartOffset float32
	// Static is set when nothing is written to the delay line, as in
	// sampler mode, so playback has to move through the buffer itself.
	Static bool
}

type voice struct {
	grains  Grains
	adsr    ADSR
	trigger GrainTrigger
	start   StartPositionPhasor
}

// Voices renders the grain cloud for up to notes.MaxVoices voices.
type Voices struct {
	sampleRate float32
	voices     [notes.MaxVoices]voice

	// derived from time, size and density; refreshed when those change
	time, size, density float32
	duration            float32
	shape               shape
}

// New builds the voice array. seed makes grain spray and panning reproducible.
func New(sampleRate float32, seed uint64) *Voices {
	v := &Voices{sampleRate: sampleRate, time: -1}
	for i := range v.voices {
		vc := &v.voices[i]
		vc.grains.init(seed + uint64(i))
		vc.adsr.init(sampleRate)
		vc.trigger = *NewGrainTrigger(sampleRate)
		vc.start = *NewStartPositionPhasor(sampleRate)
	}
	return v
}

// Process renders one sample. slots are the voice slots of a notes.Notes
// pool and are only consulted in MIDI mode, where their envelope stages
// are advanced.
func (v *Voices) Process(line *dsp.DelayLine, slots []notes.Note, s Settings) dsp.Frame {
	if !(s.Time >= FadeTime) {
		return dsp.Frame{}
	}
	v.derive(s.Time, s.Size, s.Density)

	drift := float32(1)
	if s.Static {
		drift = 0
	}
	granular := s.Size < 1 || s.Density > MinDensity
	freq := 1000 / s.Time

	if !s.MidiEnabled {
		vc := &v.voices[0]
		return v.render(vc, line, s, s.ResetPlayback, s.Speed, freq, drift, granular)
	}

	var out dsp.Frame
	for i := range min(len(slots), len(v.voices)) {
		note := &slots[i]
		if note.Stage() == notes.Idle {
			continue
		}
		vc := &v.voices[i]
		gain := vc.adsr.Process(note, s.Attack, s.Decay, s.Sustain, s.Release)
		reset := vc.adsr.Trigger() || s.ResetPlayback
		out = out.Add(v.render(vc, line, s, reset, s.Speed*vc.adsr.Speed(), freq, drift, granular).Scale(gain))
	}
	return out
}

func (v *Voices) render(vc *voice, line *dsp.DelayLine, s Settings, reset bool, speed, freq, drift float32, granular bool) dsp.Frame {
	if reset {
		vc.grains.Reset()
		vc.start.Reset(s.StartOffset)
	}
	startPhase := vc.start.Process(freq, speed, s.Stretch, drift, granular)
	trigger := vc.trigger.Process(v.duration, s.Density, reset)

	sh := v.shape
	sh.positionStep *= (drift - speed) * 0.5

	return vc.grains.Process(line, trigger, Spawn{
		Scan:       s.Scan,
		Spray:      s.Spray,
		Stereo:     s.Stereo,
		StartPhase: startPhase,
	}, &sh)
}

// derive caches the grain shape for the current time, size and density.
func (v *Voices) derive(time, size, density float32) {
	if time == v.time && size == v.size && density == v.density {
		return
	}
	v.time, v.size, v.density = time, size, density

	size = dsp.Clamp(size, 0, 1)
	d := dsp.Clamp((density-MinDensity)/(MaxDensity-MinDensity), 0, 1)

	v.duration = size*(time-FadeTime) + FadeTime
	grainDuration := v.duration + FadeTime*d
	maxWindow := grainDuration / FadeTime
	fadeFactor := time / FadeTime

	v.shape = shape{
		time:         time,
		phaseStep:    dsp.SafeRecip(dsp.MsToSamples(grainDuration, v.sampleRate)),
		windowFactor: maxWindow - d*(maxWindow-2),
		fadeFactor:   fadeFactor,
		fadeOffset:   1/fadeFactor + 1,
		positionStep: 1000 / v.sampleRate / time,
	}
}

// Duration is the current grain spawn period in ms.
func (v *Voices) Duration() float32 { return v.duration }

// ActiveGrains counts sounding grains across all voices.
func (v *Voices) ActiveGrains() int {
	n := 0
	for i := range v.voices {
		n += v.voices[i].grains.Active()
	}
	return n
}

// Level is the envelope level of voice i, without gain.
func (v *Voices) Level(i int) float32 { return v.voices[i].adsr.Level() }

// Reset silences every voice.
func (v *Voices) Reset() {
	for i := range v.voices {
		vc := &v.voices[i]
		vc.grains.Reset()
		vc.adsr.Reset()
		vc.start.Reset(0)
		vc.trigger.Process(0, 0, true)
	}
}

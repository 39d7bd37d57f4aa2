// SPDX-License-Identifier: EPL-2.0

package voices

import (
	"github.com/ik5/timewarp/dsp"
	"github.com/ik5/timewarp/notes"
)

// levelEpsilon absorbs float drift when a linear ramp lands on its target.
const levelEpsilon = 1e-6

// ADSR is a linear envelope driven by the stage stored on a notes.Note.
// It moves the note to the next stage when a segment completes.
//
// Gain and speed are sampled from the note while it is in Attack, so a
// retriggering voice fades out with the sound of the note it was stolen from.
type ADSR struct {
	sampleRate   float32
	x            float32
	gain         float32
	speed        float32
	releaseLevel float32
	trigger      bool
	last         notes.Stage
}

func NewADSR(sampleRate float32) *ADSR {
	a := &ADSR{}
	a.init(sampleRate)
	return a
}

func (a *ADSR) init(sampleRate float32) {
	*a = ADSR{sampleRate: sampleRate, gain: 1, speed: 1}
}

// Process advances the envelope one sample and returns level times gain.
// attack, decay and release are in milliseconds; sustain is a level in [0, 1].
func (a *ADSR) Process(note *notes.Note, attack, decay, sustain, release float32) float32 {
	sustain = dsp.Clamp(sustain, 0, 1)
	stage := note.Stage()
	if stage == notes.Release && a.last != notes.Release {
		a.releaseLevel = a.x
	}
	a.trigger = false

	switch stage {
	case notes.Idle:
		a.x = 0
	case notes.Attack:
		a.trigger = a.x == 0
		a.gain = note.Gain()
		a.speed = note.Speed()
		a.x += a.step(attack)
		if a.x >= 1-levelEpsilon {
			a.x = 1
			note.SetStage(notes.Decay)
		}
	case notes.Decay:
		a.x -= a.step(decay) * (1 - sustain)
		if a.x <= sustain+levelEpsilon {
			a.x = sustain
			note.SetStage(notes.Sustain)
		}
	case notes.Sustain:
		a.x = sustain
	case notes.Release:
		a.x -= a.step(release) * a.releaseLevel
		if a.x <= levelEpsilon {
			a.x = 0
			note.SetStage(notes.Idle)
		}
	case notes.Retrigger:
		a.x -= a.step(RetriggerTime)
		if a.x <= levelEpsilon {
			a.x = 0
			note.SetStage(notes.Attack)
		}
	}

	a.last = note.Stage()
	return a.x * a.gain
}

// step is the per-sample increment of a full-scale ramp lasting ms.
// Ramps shorter than a sample complete at once.
func (a *ADSR) step(ms float32) float32 {
	n := dsp.MsToSamples(ms, a.sampleRate)
	if !(n >= 1) {
		return 1
	}
	return 1 / n
}

// Trigger reports whether the last Process call started a new attack from silence.
func (a *ADSR) Trigger() bool { return a.trigger }

// Speed is the playback ratio of the note the envelope is sounding.
func (a *ADSR) Speed() float32 { return a.speed }

// Level is the envelope position without gain.
func (a *ADSR) Level() float32 { return a.x }

func (a *ADSR) Reset() {
	a.init(a.sampleRate)
}

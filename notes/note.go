// SPDX-License-Identifier: EPL-2.0

package notes

import "math"

// Stage is the envelope stage of a voice slot.
type Stage uint8

const (
	Idle Stage = iota
	Attack
	Decay
	Sustain
	Release
	// Retrigger ramps a stolen voice down to silence before it re-enters
	// Attack with the new note's gain and speed.
	Retrigger
)

func (s Stage) String() string {
	switch s {
	case Idle:
		return "idle"
	case Attack:
		return "attack"
	case Decay:
		return "decay"
	case Sustain:
		return "sustain"
	case Release:
		return "release"
	case Retrigger:
		return "retrigger"
	default:
		return "unknown"
	}
}

// Note is one voice slot: the note it plays, the playback speed and gain
// derived from it, and the envelope stage.
type Note struct {
	note  uint8
	speed float32
	gain  float32
	stage Stage
}

// Speed returns the playback ratio for a MIDI note relative to middle C,
// clamped to four octaves either way.
func Speed(note uint8) float32 {
	semitones := min(max(float64(note)-60, -48), 48)
	return float32(math.Exp2(semitones / 12))
}

// NoteOn starts note in this slot.
func (n *Note) NoteOn(note uint8, velocity float32) {
	n.assign(note, velocity)
	n.stage = Attack
}

// NoteOff moves the slot into its release stage.
func (n *Note) NoteOff() {
	n.stage = Release
}

// Steal reassigns the slot. A silent slot starts its attack right away,
// a sounding one retriggers first.
func (n *Note) Steal(note uint8, velocity float32) {
	n.assign(note, velocity)
	if n.stage == Idle {
		n.stage = Attack
		return
	}
	n.stage = Retrigger
}

// Reset silences the slot and forgets its note.
func (n *Note) Reset() {
	*n = Note{}
}

func (n *Note) assign(note uint8, velocity float32) {
	n.note = note
	n.speed = Speed(note)
	n.gain = velocity
}

func (n *Note) SetStage(s Stage) { n.stage = s }

func (n *Note) Note() uint8    { return n.note }
func (n *Note) Speed() float32 { return n.speed }
func (n *Note) Gain() float32  { return n.gain }
func (n *Note) Stage() Stage   { return n.stage }
func (n *Note) IsActive() bool { return n.stage != Idle }
func (n *Note) IsHeld() bool   { return n.stage != Idle && n.stage != Release }

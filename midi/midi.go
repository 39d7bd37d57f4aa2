// SPDX-License-Identifier: EPL-2.0

// Package midi decodes raw MIDI channel messages for the voice pool.
package midi

import (
	"math"

	gomidi "gitlab.com/gomidi/midi/v2"
)

// BendRange is the pitch bend span in semitones each way.
const BendRange = 2

// Omni accepts messages on every channel.
const Omni = -1

// NoteHandler receives decoded messages. notes.Notes satisfies the note half
// of it; the pitch bend factor goes to params.Params.
type NoteHandler interface {
	NoteOn(note uint8, velocity float32)
	NoteOff(note uint8)
	PitchBend(factor float32)
}

// Router filters messages by channel and forwards them to a NoteHandler.
type Router struct {
	channel int
	h       NoteHandler
}

// NewRouter listens on channel 0..15, or Omni.
func NewRouter(channel int, h NoteHandler) *Router {
	if channel < 0 || channel > 15 {
		channel = Omni
	}
	return &Router{channel: channel, h: h}
}

func (r *Router) accepts(ch uint8) bool {
	return r.channel == Omni || int(ch) == r.channel
}

// Handle decodes msg and reports whether it reached the handler.
// A note on with velocity 0 is a note off.
func (r *Router) Handle(msg []byte) bool {
	m := gomidi.Message(msg)
	var ch, key, vel uint8

	switch {
	case m.GetNoteOn(&ch, &key, &vel):
		if !r.accepts(ch) {
			return false
		}
		if vel == 0 {
			r.h.NoteOff(key)
			return true
		}
		r.h.NoteOn(key, float32(vel)/127)
		return true

	case m.GetNoteOff(&ch, &key, &vel):
		if !r.accepts(ch) {
			return false
		}
		r.h.NoteOff(key)
		return true
	}

	var rel int16
	var abs uint16
	if m.GetPitchBend(&ch, &rel, &abs) && r.accepts(ch) {
		r.h.PitchBend(BendFactor(rel))
		return true
	}
	return false
}

// BendFactor maps a signed 14-bit bend to a speed ratio.
func BendFactor(rel int16) float32 {
	semitones := float64(rel) / 8192 * BendRange
	return float32(math.Exp2(semitones / 12))
}

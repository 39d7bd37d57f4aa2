// SPDX-License-Identifier: EPL-2.0

// Package voices turns the contents of a dsp.DelayLine into a cloud of
// overlapping grains.
//
// Every voice owns a Grains pool, an ADSR envelope, a GrainTrigger that
// decides when a new grain starts, and a StartPositionPhasor that moves the
// nominal read position so playback can be stretched independently of the
// rate grains are spawned at. Voices drives one such voice in monophonic
// mode and up to notes.MaxVoices in MIDI mode.
//
// All types here are meant for the audio thread: nothing allocates after
// construction and nothing returns an error.
package voices

const (
	// FadeTime is the crossfade, in milliseconds, between the two playheads
	// of a grain and the shortest possible grain.
	FadeTime = 5
	// MinDensity and MaxDensity bound the number of overlapping grains.
	MinDensity = 1
	MaxDensity = 8
	// GrainCount is the pool size per voice. It exceeds MaxDensity so speed
	// changes do not starve the pool.
	GrainCount = 12
	// RetriggerTime is how long a stolen voice takes to fade out, in ms.
	RetriggerTime = 5
)

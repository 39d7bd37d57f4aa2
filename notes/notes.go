// SPDX-License-Identifier: EPL-2.0

package notes

const (
	// MaxVoices is the size of the voice pool.
	MaxVoices = 8
	// MaxQueued bounds the arrival queue; the oldest request is dropped
	// when it is full.
	MaxQueued = 128
)

type queued struct {
	note     uint8
	velocity float32
}

// Notes allocates incoming notes to a fixed pool of voice slots.
//
// Only the first VoiceCount slots are used. When all of them are sounding,
// the slot playing the oldest still-queued note is stolen. Releasing a note
// while more notes are held than there are slots hands the slot back to the
// newest held note that lost its voice.
//
// Notes never allocates after construction.
type Notes struct {
	slots      [MaxVoices]Note
	queue      [MaxQueued]queued
	queued     int
	voiceCount int
}

// New returns a monophonic pool.
func New() *Notes {
	return &Notes{voiceCount: 1}
}

// Slots exposes the voice slots, including those above VoiceCount.
func (n *Notes) Slots() []Note {
	return n.slots[:]
}

// Active returns the slots in use for the current voice count.
func (n *Notes) Active() []Note {
	return n.slots[:n.voiceCount]
}

func (n *Notes) VoiceCount() int { return n.voiceCount }

// Queued returns the number of held notes.
func (n *Notes) Queued() int { return n.queued }

// NoteOn assigns note to a voice.
func (n *Notes) NoteOn(note uint8, velocity float32) {
	if slot := n.firstIdle(); slot != nil {
		slot.NoteOn(note, velocity)
		n.push(note, velocity)
		return
	}

	idx := n.queued - n.voiceCount
	if idx >= 0 {
		slot := n.find(n.queue[idx].note, func(*Note) bool { return true })
		if slot == nil {
			return
		}
		slot.Steal(note, velocity)
	} else {
		n.slots[n.queued].Steal(note, velocity)
	}

	n.push(note, velocity)
}

// NoteOff releases note, or passes its voice to a held note waiting for one.
func (n *Notes) NoteOff(note uint8) {
	n.remove(note)

	slot := n.find(note, (*Note).IsHeld)
	if slot == nil {
		return
	}

	if n.queued < n.voiceCount {
		slot.NoteOff()
		return
	}

	waiting := n.queue[n.queued-n.voiceCount]
	slot.Steal(waiting.note, waiting.velocity)
}

// SetVoiceCount changes the polyphony. Any change silences every slot and
// forgets held notes. count is clamped to [1, MaxVoices].
func (n *Notes) SetVoiceCount(count int) {
	count = min(max(count, 1), MaxVoices)
	if count == n.voiceCount {
		return
	}
	n.Reset()
	n.voiceCount = count
}

// Reset silences every slot and clears the queue.
func (n *Notes) Reset() {
	for i := range n.slots {
		n.slots[i].Reset()
	}
	n.queued = 0
}

func (n *Notes) firstIdle() *Note {
	for i := range n.voiceCount {
		if n.slots[i].stage == Idle {
			return &n.slots[i]
		}
	}
	return nil
}

func (n *Notes) find(note uint8, match func(*Note) bool) *Note {
	for i := range n.voiceCount {
		if s := &n.slots[i]; s.note == note && match(s) {
			return s
		}
	}
	return nil
}

func (n *Notes) push(note uint8, velocity float32) {
	if n.queued == MaxQueued {
		copy(n.queue[:], n.queue[1:])
		n.queued--
	}
	n.queue[n.queued] = queued{note: note, velocity: velocity}
	n.queued++
}

func (n *Notes) remove(note uint8) {
	kept := 0
	for i := range n.queued {
		if n.queue[i].note != note {
			n.queue[kept] = n.queue[i]
			kept++
		}
	}
	n.queued = kept
}

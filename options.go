// SPDX-License-Identifier: EPL-2.0

package timewarp

import (
	"log/slog"

	"github.com/ik5/timewarp/loader"
	"github.com/ik5/timewarp/midi"
)

type config struct {
	logger      *slog.Logger
	seed        uint64
	worker      *loader.Worker
	midiChannel int
}

func newConfig(opts []Option) config {
	cfg := config{
		logger:      slog.Default(),
		midiChannel: midi.Omni,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Option configures an Engine or a Processor.
type Option func(*config)

func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithSeed makes grain spray and panning reproducible.
func WithSeed(seed uint64) Option {
	return func(c *config) { c.seed = seed }
}

// WithWorker hands file loading and buffer flushes to w. Without a worker
// an erase clears the delay line on the audio thread and LoadFile fails.
func WithWorker(w *loader.Worker) Option {
	return func(c *config) { c.worker = w }
}

// WithMidiChannel restricts MIDI input to channel 0..15; anything else
// listens on all channels.
func WithMidiChannel(ch int) Option {
	return func(c *config) { c.midiChannel = ch }
}

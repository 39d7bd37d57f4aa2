// SPDX-License-Identifier: EPL-2.0

package main

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	gomidi "gitlab.com/gomidi/midi/v2"

	"github.com/ik5/timewarp"
	"github.com/ik5/timewarp/dsp"
	"github.com/ik5/timewarp/params"
)

// frameBytes is one stereo float32 frame.
const frameBytes = 8

func noteOn(note int) []byte {
	return gomidi.NoteOn(0, uint8(min(max(note, 0), 127)), 100)
}

// stream renders the processor on demand as little endian float32 stereo.
// The input is followed by silence until total frames have been produced,
// then Read returns io.EOF.
type stream struct {
	proc     *timewarp.Processor
	controls params.Controls
	events   [][]byte

	input []dsp.Frame
	total int
	pos   int

	in, out  []dsp.Frame
	rendered []dsp.Frame

	done     chan struct{}
	doneOnce sync.Once
}

func newStream(p *timewarp.Processor, c params.Controls, input []dsp.Frame, total, block int, events [][]byte) *stream {
	return &stream{
		proc:     p,
		controls: c,
		events:   events,
		input:    input,
		total:    total,
		in:       make([]dsp.Frame, block),
		out:      make([]dsp.Frame, block),
		rendered: make([]dsp.Frame, 0, total),
		done:     make(chan struct{}),
	}
}

func (s *stream) Read(b []byte) (int, error) {
	if s.pos >= s.total {
		s.doneOnce.Do(func() { close(s.done) })
		return 0, io.EOF
	}
	if len(b) < frameBytes {
		return 0, io.ErrShortBuffer
	}

	n := 0
	for len(b)-n >= frameBytes && s.pos < s.total {
		count := min(len(s.in), (len(b)-n)/frameBytes, s.total-s.pos)

		in := s.in[:count]
		clear(in)
		if s.pos < len(s.input) {
			copy(in, s.input[s.pos:])
		}

		out := s.out[:count]
		s.proc.Process(in, out, s.controls, s.events)
		s.events = nil

		for _, f := range out {
			binary.LittleEndian.PutUint32(b[n:], math.Float32bits(f.L))
			binary.LittleEndian.PutUint32(b[n+4:], math.Float32bits(f.R))
			n += frameBytes
		}
		s.rendered = append(s.rendered, out...)
		s.pos += count
	}
	return n, nil
}

// Done is closed once the last frame has been handed out.
func (s *stream) Done() <-chan struct{} { return s.done }

// Rendered returns every frame produced so far.
func (s *stream) Rendered() []dsp.Frame { return s.rendered }

// play streams s to the default output device and returns once it has
// drained.
func play(ctx context.Context, rate int, s *stream, logger *slog.Logger) error {
	otoCtx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   rate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
	})
	if err != nil {
		return fmt.Errorf("opening audio output: %w", err)
	}
	<-ready

	player := otoCtx.NewPlayer(s)
	defer player.Close()

	logger.Info("playing", slog.Int("sample_rate", rate), slog.Int("frames", s.total))
	player.Play()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.Done():
	}

	tick := time.NewTicker(10 * time.Millisecond)
	defer tick.Stop()
	for player.IsPlaying() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
		}
	}
	return player.Err()
}

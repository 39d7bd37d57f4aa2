// SPDX-License-Identifier: EPL-2.0

package timewarp

import (
	"context"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"

	"github.com/ik5/timewarp/dsp"
	"github.com/ik5/timewarp/formats/wav"
	"github.com/ik5/timewarp/loader"
	"github.com/ik5/timewarp/midi"
	"github.com/ik5/timewarp/params"
)

func constantFrames(n int, v float32) []dsp.Frame {
	frames := make([]dsp.Frame, n)
	for i := range frames {
		frames[i] = dsp.Mono(v)
	}
	return frames
}

func runWorker(t *testing.T) *loader.Worker {
	t.Helper()

	w := loader.NewWorker(loader.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go w.Run(ctx)
	return w
}

// pollUntil runs empty buffers through p until done reports true.
func pollUntil(t *testing.T, p *Processor, c params.Controls, done func() bool) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for !done() {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for the worker")
		}
		p.Process(nil, nil, c, nil)
		time.Sleep(time.Millisecond)
	}
}

// countingHandler counts records and discards them.
type countingHandler struct{ n atomic.Int64 }

func (h *countingHandler) Enabled(context.Context, slog.Level) bool { return true }
func (h *countingHandler) Handle(context.Context, slog.Record) error {
	h.n.Add(1)
	return nil
}
func (h *countingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *countingHandler) WithGroup(string) slog.Handler      { return h }

func TestProcessor_RoutesMidi(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		channel int
		events  [][]byte
		active  bool
	}{
		{"omni note on", midi.Omni, [][]byte{gomidi.NoteOn(3, 60, 100)}, true},
		{"matching channel", 3, [][]byte{gomidi.NoteOn(3, 60, 100)}, true},
		{"other channel", 1, [][]byte{gomidi.NoteOn(3, 60, 100)}, false},
		{"on then off", midi.Omni, [][]byte{gomidi.NoteOn(0, 60, 100), gomidi.NoteOff(0, 60)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := NewProcessor(testRate, quiet, WithMidiChannel(tt.channel))
			c := params.DefaultControls()
			c.MidiEnabled = true
			p.Process(nil, nil, c, tt.events)

			slot := p.Notes().Active()[0]
			if slot.IsActive() != tt.active {
				t.Fatalf("slot active = %v, want %v", slot.IsActive(), tt.active)
			}
			if tt.active && slot.Note() != 60 {
				t.Errorf("slot note = %d, want 60", slot.Note())
			}
		})
	}
}

func TestProcessor_PitchBend(t *testing.T) {
	t.Parallel()

	p := NewProcessor(testRate, quiet)
	c := params.DefaultControls()
	c.MidiEnabled = true
	p.Process(nil, nil, c, [][]byte{gomidi.Pitchbend(0, 8191)})

	// one whole tone up
	want := math.Exp2(2.0 / 12)
	if got := float64(p.Params().Speed()); math.Abs(got-want) > 1e-3 {
		t.Errorf("Speed() = %v, want %v", got, want)
	}
}

func TestProcessor_EraseWithoutWorker(t *testing.T) {
	t.Parallel()

	p := NewProcessor(testRate, quiet)
	c := params.DefaultControls()
	in := constantFrames(64, 0.5)
	out := make([]dsp.Frame, len(in))
	p.Process(in, out, c, nil)

	c.Erase = true
	p.Process(make([]dsp.Frame, 8), out, c, nil)

	line := p.Engine().DelayLine()
	if got := line.WritePointer(); got != 8 {
		t.Errorf("WritePointer() = %d, want 8", got)
	}
	for i, v := range line.Values()[:64] {
		if v != (dsp.Frame{}) {
			t.Fatalf("Values()[%d] = %+v after erase, want silence", i, v)
		}
	}
}

func TestProcessor_EraseFlushesThroughWorker(t *testing.T) {
	t.Parallel()

	w := runWorker(t)
	p := NewProcessor(testRate, quiet, WithWorker(w))
	c := params.DefaultControls()
	in := constantFrames(64, 0.5)
	out := make([]dsp.Frame, len(in))
	p.Process(in, out, c, nil)

	c.Erase = true
	p.Process(nil, nil, c, nil)

	line := p.Engine().DelayLine()
	pollUntil(t, p, c, func() bool { return line.Values()[20] == (dsp.Frame{}) })

	if got := line.WritePointer(); got != 0 {
		t.Errorf("WritePointer() = %d after flush, want 0", got)
	}
}

func TestProcessor_EraseOnFullQueue(t *testing.T) {
	h := &countingHandler{}
	logger := slog.New(h)

	w := loader.NewWorker(loader.WithLogger(logger))
	if !w.Submit(loader.FlushBufferRequest(4)) {
		t.Fatal("Submit() on an empty queue dropped")
	}

	p := NewProcessor(testRate, WithLogger(logger), WithWorker(w))
	c := params.DefaultControls()
	in := constantFrames(64, 0.5)
	out := make([]dsp.Frame, len(in))
	p.Process(in, out, c, nil)

	before := h.n.Load()
	allocs := testing.AllocsPerRun(20, func() {
		c.Erase = true
		p.Process(nil, nil, c, nil)
		c.Erase = false
		p.Process(nil, nil, c, nil)
	})
	if allocs != 0 {
		t.Errorf("erase on a full queue allocated %v times per run, want 0", allocs)
	}
	if got := h.n.Load() - before; got != 0 {
		t.Errorf("erase on a full queue logged %d records, want 0", got)
	}
	if w.Dropped() == 0 {
		t.Error("Dropped() = 0, want the rejected flushes counted")
	}
	if v := p.Engine().DelayLine().Values()[20]; v != (dsp.Frame{}) {
		t.Errorf("Values()[20] = %+v, want the line cleared in place", v)
	}
}

func TestProcessor_VoiceCountResetsEnvelopes(t *testing.T) {
	t.Parallel()

	p := NewProcessor(testRate, quiet, WithSeed(1))
	c := params.DefaultControls()
	c.MidiEnabled = true
	c.Attack = 1000

	in := make([]dsp.Frame, 400)
	out := make([]dsp.Frame, len(in))
	p.Process(in, out, c, [][]byte{gomidi.NoteOn(0, 60, 100)})

	v := p.Engine().voices
	stale := v.Level(0)
	if stale == 0 {
		t.Fatal("envelope did not start")
	}

	p.SetVoiceCount(2)
	if got := v.Level(0); got != 0 {
		t.Errorf("Level(0) = %v after voice count change, want 0", got)
	}
	if got := v.ActiveGrains(); got != 0 {
		t.Errorf("ActiveGrains() = %d after voice count change, want 0", got)
	}

	p.Process(in[:1], out[:1], c, [][]byte{gomidi.NoteOn(0, 62, 100)})
	if got := v.Level(0); got <= 0 || got >= stale/10 {
		t.Errorf("Level(0) = %v on the first sample of a new note, want a fresh attack below %v", got, stale/10)
	}

	// an unchanged count keeps the sounding voice
	p.Process(in, out, c, nil)
	held := v.Level(0)
	p.SetVoiceCount(2)
	if got := v.Level(0); got != held {
		t.Errorf("Level(0) = %v after setting the same count, want %v", got, held)
	}
}

func TestProcessor_LoadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "loop.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := wav.WriteWAV(f, testRate, 16, constantFrames(800, 0.5)); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	w := runWorker(t)
	p := NewProcessor(testRate, quiet, WithWorker(w))
	c := params.DefaultControls()
	c.SampleMode = params.Sampler

	if !p.LoadFile(path) {
		t.Fatal("LoadFile() = false, want queued")
	}
	pollUntil(t, p, c, func() bool {
		_, ok := p.Params().FileDuration()
		return ok
	})

	if ms, _ := p.Params().FileDuration(); ms != 100 {
		t.Errorf("FileDuration() = %v, want 100", ms)
	}
	line := p.Engine().DelayLine()
	if got := line.WritePointer(); got != 800 {
		t.Errorf("WritePointer() = %d, want 800", got)
	}
	if v := line.Values()[0]; math.Abs(float64(v.L-0.5)) > 1e-3 {
		t.Errorf("Values()[0] = %+v, want about 0.5", v)
	}
	if got := w.LoadedPath(); got != path {
		t.Errorf("LoadedPath() = %q, want %q", got, path)
	}
}

func TestProcessor_LoadFileWithoutWorker(t *testing.T) {
	t.Parallel()

	p := NewProcessor(testRate, quiet)
	if p.LoadFile("any.wav") {
		t.Error("LoadFile() = true without a worker")
	}
}

func TestProcessor_ZeroAlloc(t *testing.T) {
	p := NewProcessor(testRate, quiet, WithSeed(7))
	c := params.DefaultControls()
	c.Size = 0.5
	c.Density = 4
	in := constantFrames(128, 0.25)
	out := make([]dsp.Frame, len(in))
	p.Process(in, out, c, nil)

	allocs := testing.AllocsPerRun(100, func() {
		p.Process(in, out, c, nil)
	})
	if allocs != 0 {
		t.Errorf("Process() allocated %v times per buffer, want 0", allocs)
	}
}

func BenchmarkProcessor_Process(b *testing.B) {
	p := NewProcessor(48000, quiet)
	c := params.DefaultControls()
	c.Size = 0.5
	c.Density = 4
	c.Feedback = 0.4
	in := constantFrames(512, 0.25)
	out := make([]dsp.Frame, len(in))

	b.ReportAllocs()
	for b.Loop() {
		p.Process(in, out, c, nil)
	}
}

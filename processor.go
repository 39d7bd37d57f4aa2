// SPDX-License-Identifier: EPL-2.0

package timewarp

import (
	"log/slog"

	"github.com/ik5/timewarp/dsp"
	"github.com/ik5/timewarp/loader"
	"github.com/ik5/timewarp/midi"
	"github.com/ik5/timewarp/notes"
	"github.com/ik5/timewarp/params"
)

// Processor is the host side of the engine. Once per buffer it routes MIDI,
// applies the controls, talks to the file worker and then runs the engine
// over every frame.
type Processor struct {
	engine *Engine
	params *params.Params
	notes  *notes.Notes
	worker *loader.Worker
	router *midi.Router
	logger *slog.Logger
}

func NewProcessor(sampleRate float32, opts ...Option) *Processor {
	cfg := newConfig(opts)
	p := &Processor{
		engine: NewEngine(sampleRate, opts...),
		params: params.New(sampleRate),
		notes:  notes.New(),
		worker: cfg.worker,
		logger: cfg.logger,
	}
	p.router = midi.NewRouter(cfg.midiChannel, &noteSink{notes: p.notes, params: p.params})
	return p
}

func (p *Processor) Engine() *Engine        { return p.engine }
func (p *Processor) Params() *params.Params { return p.params }
func (p *Processor) Notes() *notes.Notes    { return p.notes }
func (p *Processor) Worker() *loader.Worker { return p.worker }

// SetVoiceCount changes the polyphony. A change silences the held notes
// together with their envelopes and grains.
func (p *Processor) SetVoiceCount(count int) {
	before := p.notes.VoiceCount()
	p.notes.SetVoiceCount(count)
	if p.notes.VoiceCount() != before {
		p.engine.ResetVoices()
		p.logger.Debug("voice count changed",
			slog.Int("from", before), slog.Int("to", p.notes.VoiceCount()))
	}
}

// SetFilterCutoffs sets the feedback filter corners in Hz.
func (p *Processor) SetFilterCutoffs(highpass, lowpass float32) {
	p.engine.SetFilterCutoffs(highpass, lowpass)
}

// LoadFile asks the worker to decode path into the delay line. It reports
// false when there is no worker or its queue is full.
func (p *Processor) LoadFile(path string) bool {
	if p.worker == nil {
		return false
	}
	sr := int(p.engine.SampleRate())
	return p.worker.Submit(loader.LoadFileRequest(path, sr, p.engine.Size()))
}

// Process renders len(in) frames into out, which must be at least as long.
// events are raw MIDI messages for this buffer.
func (p *Processor) Process(in, out []dsp.Frame, c params.Controls, events [][]byte) {
	for _, ev := range events {
		p.router.Handle(ev)
	}

	c.BufferSize = len(in)
	p.params.Set(c)

	if p.params.ShouldEraseBuffer() {
		p.erase()
	}
	if p.worker != nil {
		if resp, ok := p.worker.TryReceive(); ok {
			p.engine.Receive(resp, p.params)
		}
	}

	out = out[:len(in)]
	for i, f := range in {
		out[i] = p.engine.Process(f, p.params, p.notes)
	}
}

func (p *Processor) erase() {
	if p.worker != nil && p.worker.TrySubmit(loader.FlushBufferRequest(p.engine.Size())) {
		return
	}
	p.engine.Clear()
}

// noteSink feeds decoded MIDI into the voice pool and the pitch bend.
type noteSink struct {
	notes  *notes.Notes
	params *params.Params
}

func (s *noteSink) NoteOn(note uint8, velocity float32) { s.notes.NoteOn(note, velocity) }
func (s *noteSink) NoteOff(note uint8)                  { s.notes.NoteOff(note) }
func (s *noteSink) PitchBend(factor float32)            { s.params.SetPitchBend(factor) }

// SPDX-License-Identifier: EPL-2.0

// Command timewarp runs an audio file through the granular engine.
//
// In delay and looper mode the file is the input signal; in sampler mode it
// is loaded into the delay line and the grains play it back. The result is
// written as a WAV file, played live with -play, or both.
//
//	timewarp -in voice.wav -out slow.wav -pitch -12 -size 0.5 -density 4
//	timewarp -in drums.ogg -mode sampler -stretch 0.25 -duration 8 -play
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ik5/timewarp"
	"github.com/ik5/timewarp/dsp"
	"github.com/ik5/timewarp/formats/wav"
	"github.com/ik5/timewarp/loader"
	"github.com/ik5/timewarp/params"
)

type options struct {
	in, out  string
	rate     int
	bits     int
	block    int
	tail     float64
	duration float64
	play     bool
	seed     uint64
	note     int
	voices   int
	highpass float64
	lowpass  float64
	loadWait time.Duration
	verbose  bool
	mode     string
	controls params.Controls
}

func parseFlags(args []string) (options, error) {
	fs := flag.NewFlagSet("timewarp", flag.ContinueOnError)

	var (
		o                                         options
		scan, spray, size, density, stereo        float64
		pitch, stretch, tm, length, recycle, fb   float64
		dry, wet, attack, decay, sustain, release float64
		record, play                              bool
	)
	d := params.DefaultControls()

	fs.StringVar(&o.in, "in", "", "input audio file (wav, aiff, mp3, ogg)")
	fs.StringVar(&o.out, "out", "", "output WAV file")
	fs.IntVar(&o.rate, "rate", 48000, "engine sample rate in Hz")
	fs.IntVar(&o.bits, "bits", 16, "output bit depth (8, 16, 24 or 32)")
	fs.IntVar(&o.block, "block", 512, "frames per processing buffer")
	fs.Float64Var(&o.tail, "tail", 2, "seconds of silence rendered after the input")
	fs.Float64Var(&o.duration, "duration", 0, "seconds to render; 0 renders the input plus the tail")
	fs.BoolVar(&o.play, "play", false, "play the result on the default audio device")
	fs.Uint64Var(&o.seed, "seed", 1, "random seed for grain spray and panning")
	fs.IntVar(&o.note, "note", -1, "hold this MIDI note (0..127) and enable MIDI mode")
	fs.IntVar(&o.voices, "voices", 1, "MIDI voice count (1..8)")
	fs.Float64Var(&o.highpass, "highpass", timewarp.DefaultHighpass, "feedback highpass cutoff in Hz")
	fs.Float64Var(&o.lowpass, "lowpass", timewarp.DefaultLowpass, "feedback lowpass cutoff in Hz")
	fs.DurationVar(&o.loadWait, "load-timeout", 10*time.Second, "how long to wait for a sampler file to load")
	fs.BoolVar(&o.verbose, "v", false, "debug logging")
	fs.StringVar(&o.mode, "mode", d.SampleMode.String(), "sample mode: delay, looper or sampler")

	fs.Float64Var(&scan, "scan", float64(d.Scan), "grain scan position, 0..1")
	fs.Float64Var(&spray, "spray", float64(d.Spray), "random grain offset in ms")
	fs.Float64Var(&size, "size", float64(d.Size), "grain size relative to time, 0..1")
	fs.Float64Var(&density, "density", float64(d.Density), "overlapping grains, 1..8")
	fs.Float64Var(&stereo, "stereo", float64(d.Stereo), "random grain panning, 0..1")
	fs.Float64Var(&pitch, "pitch", float64(d.Pitch), "transposition in semitones")
	fs.Float64Var(&stretch, "stretch", float64(d.Stretch), "playback rate of the grain positions, negative reverses")
	fs.Float64Var(&tm, "time", float64(d.Time), "delay time in ms")
	fs.Float64Var(&length, "length", float64(d.Length), "share of the loop or file that is played, 0..1")
	fs.Float64Var(&recycle, "recycle", float64(d.Recycle), "share of grains in the feedback, 0..1")
	fs.Float64Var(&fb, "feedback", float64(d.Feedback), "feedback amount, 0..1")
	fs.Float64Var(&dry, "dry", float64(d.Dry), "dry level in dB")
	fs.Float64Var(&wet, "wet", float64(d.Wet), "wet level in dB")
	fs.Float64Var(&attack, "attack", float64(d.Attack), "MIDI envelope attack in ms")
	fs.Float64Var(&decay, "decay", float64(d.Decay), "MIDI envelope decay in ms")
	fs.Float64Var(&sustain, "sustain", float64(d.Sustain), "MIDI envelope sustain, 0..1")
	fs.Float64Var(&release, "release", float64(d.Release), "MIDI envelope release in ms")
	fs.BoolVar(&record, "record", d.Record, "write the input into the delay line")
	fs.BoolVar(&play, "grains", d.Play, "play the grains")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if o.in == "" {
		return options{}, errors.New("-in is required")
	}
	if o.out == "" && !o.play {
		return options{}, errors.New("nothing to do: pass -out, -play or both")
	}
	if o.rate <= 0 || o.block <= 0 {
		return options{}, fmt.Errorf("invalid rate %d or block %d", o.rate, o.block)
	}

	mode, err := params.ParseSampleMode(o.mode)
	if err != nil {
		return options{}, err
	}

	o.controls = params.Controls{
		Scan:        float32(scan),
		Spray:       float32(spray),
		Size:        float32(size),
		Density:     float32(density),
		Stereo:      float32(stereo),
		Pitch:       float32(pitch),
		Stretch:     float32(stretch),
		Record:      record,
		Play:        play,
		SampleMode:  mode,
		Time:        float32(tm),
		Length:      float32(length),
		Recycle:     float32(recycle),
		Feedback:    float32(fb),
		Dry:         float32(dry),
		Wet:         float32(wet),
		MidiEnabled: o.note >= 0,
		Attack:      float32(attack),
		Decay:       float32(decay),
		Sustain:     float32(sustain),
		Release:     float32(release),
		BufferSize:  o.block,
	}
	return o, nil
}

func main() {
	o, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, "timewarp:", err)
		os.Exit(2)
	}

	level := slog.LevelInfo
	if o.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, o, logger); err != nil {
		logger.Error("timewarp failed", slog.Any("err", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, o options, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	worker := loader.NewWorker(loader.WithLogger(logger))
	proc := timewarp.NewProcessor(float32(o.rate),
		timewarp.WithLogger(logger),
		timewarp.WithWorker(worker),
		timewarp.WithSeed(o.seed),
	)
	proc.SetVoiceCount(o.voices)
	proc.SetFilterCutoffs(float32(o.highpass), float32(o.lowpass))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return worker.Run(gctx)
	})

	var rendered []dsp.Frame
	g.Go(func() error {
		defer cancel()

		s, err := prepare(gctx, o, proc, logger)
		if err != nil {
			return err
		}
		if o.play {
			err = play(gctx, o.rate, s, logger)
		} else {
			err = render(gctx, s, o.block)
		}
		if err != nil {
			return err
		}
		rendered = s.Rendered()
		return nil
	})

	err := g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if err != nil && rendered == nil {
		// interrupted before anything was rendered
		return err
	}

	if o.out == "" {
		return nil
	}
	return writeOutput(o.out, o.rate, o.bits, rendered, logger)
}

// prepare builds the stream. A sampler file is loaded through the worker
// first; any other mode decodes the file as the input signal.
func prepare(ctx context.Context, o options, proc *timewarp.Processor, logger *slog.Logger) (*stream, error) {
	var events [][]byte
	if o.note >= 0 {
		events = [][]byte{noteOn(o.note)}
	}

	if o.controls.SampleMode == params.Sampler {
		if err := waitForFile(ctx, o, proc); err != nil {
			return nil, err
		}
		ms, _ := proc.Params().FileDuration()
		total := seconds(o.duration, o.rate)
		if total == 0 {
			total = int(math.Round(float64(ms)/1000*float64(o.rate))) + seconds(o.tail, o.rate)
		}
		return newStream(proc, o.controls, nil, total, o.block, events), nil
	}

	fp := loader.NewFileProcessor(o.rate, loader.WithLogger(logger))
	data, err := fp.Read(o.in, proc.Engine().Size())
	if err != nil {
		return nil, err
	}
	input := data.Frames[:data.DurationInSamples]
	logger.Info("input decoded",
		slog.String("path", o.in),
		slog.Int("frames", len(input)),
		slog.Float64("duration_ms", float64(data.DurationInMs)))

	total := seconds(o.duration, o.rate)
	if total == 0 {
		total = len(input) + seconds(o.tail, o.rate)
	}
	return newStream(proc, o.controls, input, total, o.block, events), nil
}

// waitForFile pumps empty buffers until the worker has filled the delay line.
func waitForFile(ctx context.Context, o options, proc *timewarp.Processor) error {
	if !proc.LoadFile(o.in) {
		return errors.New("worker queue is full")
	}

	ctx, cancel := context.WithTimeout(ctx, o.loadWait)
	defer cancel()

	tick := time.NewTicker(5 * time.Millisecond)
	defer tick.Stop()

	for {
		proc.Process(nil, nil, o.controls, nil)
		if _, ok := proc.Params().FileDuration(); ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("loading %s: %w", o.in, ctx.Err())
		case <-tick.C:
		}
	}
}

func seconds(s float64, rate int) int {
	return int(max(s, 0) * float64(rate))
}

func render(ctx context.Context, s *stream, block int) error {
	buf := make([]byte, block*frameBytes)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := s.Read(buf); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

func writeOutput(path string, rate, bits int, frames []dsp.Frame, logger *slog.Logger) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}
	if err := wav.WriteWAV(f, rate, bits, frames); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}

	logger.Info("output written",
		slog.String("path", path),
		slog.Int("frames", len(frames)),
		slog.Int("bits", bits))
	return nil
}

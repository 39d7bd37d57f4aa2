// SPDX-License-Identifier: EPL-2.0

// Package timewarp is a real-time granular time-stretch and pitch-shift
// engine.
//
// Incoming audio is written into a long circular delay line. Up to eight
// voices, each a cloud of twelve windowed grains, read back from that line
// at their own speed, so the output can be slowed down, sped up, reversed or
// transposed independently of one another.
//
// # Sample modes
//
// The delay line is fed in one of three ways, selected by
// params.Controls.SampleMode:
//   - Delay records continuously and the grains read Time ms behind the input.
//   - Looper times the first recording and then overdubs onto that loop.
//   - Sampler plays a file decoded by a loader.Worker; nothing is recorded.
//
// # Quick Start
//
//	w := loader.NewWorker()
//	go w.Run(ctx)
//
//	p := timewarp.NewProcessor(48000, timewarp.WithWorker(w))
//	c := params.DefaultControls()
//	c.Pitch = -12
//
//	in := make([]dsp.Frame, 512)
//	out := make([]dsp.Frame, 512)
//	for {
//	    // fill in from the host
//	    p.Process(in, out, c, nil)
//	}
//
// Processor.Process must be called from a single goroutine. The worker runs
// on its own goroutine and exchanges data with the processor over bounded
// channels, so the audio path never blocks on file IO.
package timewarp

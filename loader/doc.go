// SPDX-License-Identifier: EPL-2.0

// Package loader turns audio files into delay line contents.
//
// FileProcessor decodes a file through the format registry, keeps stereo or
// sums it to mono, resamples to the engine rate and fits the result to the
// delay line length. Worker runs the processor in the background and talks to
// the audio thread through bounded, non-blocking channels:
//
//	w := loader.NewWorker(loader.WithLogger(logger))
//	go w.Run(ctx)
//	w.Submit(loader.LoadFileRequest(path, 48000, engine.Size()))
//
//	// once per audio buffer
//	if resp, ok := w.TryReceive(); ok && resp.Err == nil {
//	    engine.Receive(resp)
//	}
package loader

// SPDX-License-Identifier: EPL-2.0

// Package audio provides the decoding pipeline used to fill the sample buffer
// from files.
//
// # Source Interface
//
// Every decoder and converter implements Source, so stages chain freely:
//
//	type Source interface {
//	    SampleRate() int
//	    Channels() int
//	    ReadSamples(dst []float32) (int, error)
//	    BufSize() int
//	    Close() error
//	}
//
// Samples are interleaved float32 in [-1, 1]. io.EOF marks the end of the
// stream and may accompany the final samples.
//
// # Resampling
//
// Resampler converts to the engine's rate with cubic interpolation. It pulls
// the source in blocks of BlockFrames, zero-pads the last partial block and
// trims the output to ceil(in*dst/src) frames:
//
//	r, err := audio.NewResampler(source, 48000)
//	samples, err := audio.ReadAll(r)
//
// # Channel Mixing
//
// MonoMixer averages all channels into one.
//
// # Format Registry
//
// Registry maps file extensions to decoders:
//
//	registry := audio.NewRegistry()
//	registry.Register("wav", wav.Decoder{})
//	decoder, ok := registry.ForPath("/samples/loop.wav")
//
// # Integer PCM
//
// PCMSource adapts go-audio decoders (WAV and AIFF) that deliver integer
// samples at 8, 16, 24 or 32 bits.
package audio

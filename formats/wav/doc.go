// SPDX-License-Identifier: EPL-2.0

// Package wav decodes and writes WAV files through github.com/go-audio/wav.
//
// Decoding accepts integer PCM at 8, 16, 24 or 32 bits with any channel count
// and sample rate; 8-bit data is unsigned and re-centered. Float and
// compressed WAV files return ErrUnsupportedWavFormat.
//
//	src, err := wav.Decoder{}.Decode(file)
//
// WriteWAV exports stereo frames, for instance a rendered engine buffer:
//
//	err := wav.WriteWAV(file, 48000, 24, frames)
package wav

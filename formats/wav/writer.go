// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"fmt"
	"io"
	"math"

	goaudio "github.com/go-audio/audio"
	gowav "github.com/go-audio/wav"
	"github.com/ik5/timewarp/dsp"
)

const writeChunkFrames = 4096

// WriteWAV writes frames as a stereo integer PCM WAV. Samples are clipped
// to [-1, 1] before quantizing to bitDepth.
func WriteWAV(ws io.WriteSeeker, sampleRate, bitDepth int, frames []dsp.Frame) error {
	var offset int
	switch bitDepth {
	case 8:
		offset = 128
	case 16, 24, 32:
	default:
		return fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, bitDepth)
	}
	peak := float64(int64(1)<<(bitDepth-1) - 1)

	enc := gowav.NewEncoder(ws, sampleRate, bitDepth, 2, formatPCM)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 2, SampleRate: sampleRate},
		Data:           make([]int, 0, 2*min(len(frames), writeChunkFrames)),
		SourceBitDepth: bitDepth,
	}

	quantize := func(v float32) int {
		return int(math.Round(float64(dsp.Clamp(v, -1, 1))*peak)) + offset
	}

	// The encoder only emits its header on Write, so an empty buffer still
	// goes through once.
	for start := 0; ; {
		end := min(start+writeChunkFrames, len(frames))
		buf.Data = buf.Data[:0]
		for _, f := range frames[start:end] {
			buf.Data = append(buf.Data, quantize(f.L), quantize(f.R))
		}
		if err := enc.Write(buf); err != nil {
			return fmt.Errorf("writing wav frames: %w", err)
		}
		if start = end; start >= len(frames) {
			break
		}
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalizing wav: %w", err)
	}
	return nil
}

// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
)

// PCMReader is the part of the go-audio wav and aiff decoders a PCMSource needs.
type PCMReader interface {
	Format() *goaudio.Format
	PCMBuffer(buf *goaudio.IntBuffer) (int, error)
}

// PCMSource adapts integer PCM from a go-audio decoder to a Source.
type PCMSource struct {
	dec        PCMReader
	sampleRate int
	channels   int
	scale      float32
	offset     int
	intBuf     *goaudio.IntBuffer
}

// NewPCMSource wraps dec. bitDepth must be 8, 16, 24 or 32. unsigned8 is set
// for formats whose 8-bit samples are stored without sign (WAV).
func NewPCMSource(dec PCMReader, bitDepth int, unsigned8 bool) (*PCMSource, error) {
	format := dec.Format()
	if format == nil || format.NumChannels <= 0 || format.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: missing format", ErrInvalidSampleRate)
	}

	s := &PCMSource{
		dec:        dec,
		sampleRate: format.SampleRate,
		channels:   format.NumChannels,
	}

	switch bitDepth {
	case 8:
		s.scale = 1.0 / 128
		if unsigned8 {
			s.offset = 128
		}
	case 16:
		s.scale = 1.0 / 32768
	case 24:
		s.scale = 1.0 / 8388608
	case 32:
		s.scale = 1.0 / 2147483648
	default:
		return nil, fmt.Errorf("%w: %d bits", ErrUnsupportedBitDepth, bitDepth)
	}

	return s, nil
}

func (s *PCMSource) SampleRate() int { return s.sampleRate }
func (s *PCMSource) Channels() int   { return s.channels }
func (s *PCMSource) Close() error    { return nil }
func (s *PCMSource) BufSize() int {
	if s.intBuf != nil {
		return cap(s.intBuf.Data)
	}
	return 4096
}

func (s *PCMSource) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}

	if s.intBuf == nil || cap(s.intBuf.Data) < len(dst) {
		s.intBuf = &goaudio.IntBuffer{
			Data:   make([]int, len(dst)),
			Format: s.dec.Format(),
		}
	} else {
		s.intBuf.Data = s.intBuf.Data[:len(dst)]
	}

	n, err := s.dec.PCMBuffer(s.intBuf)
	if n == 0 {
		if err != nil && err != io.EOF {
			return 0, fmt.Errorf("reading pcm: %w", err)
		}
		return 0, io.EOF
	}

	for i := range n {
		dst[i] = float32(s.intBuf.Data[i]-s.offset) * s.scale
	}

	if err != nil && err != io.EOF {
		return n, fmt.Errorf("reading pcm: %w", err)
	}
	return n, err
}

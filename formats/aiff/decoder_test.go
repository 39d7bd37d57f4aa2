// SPDX-License-Identifier: EPL-2.0

package aiff

import (
	"bytes"
	"errors"
	"io"
	"math"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/ik5/timewarp/audio"
)

// mockAiffReader stands in for aiff.Decoder.
type mockAiffReader struct {
	format  *goaudio.Format
	samples []int
	offset  int
	err     error
}

func (m *mockAiffReader) Format() *goaudio.Format { return m.format }

func (m *mockAiffReader) PCMBuffer(buf *goaudio.IntBuffer) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	n := copy(buf.Data, m.samples[m.offset:])
	m.offset += n
	if m.offset >= len(m.samples) {
		return n, io.EOF
	}
	return n, nil
}

func TestDecoder_InvalidInput(t *testing.T) {
	t.Parallel()

	tests := map[string][]byte{
		"text":  []byte("This is not AIFF data"),
		"empty": nil,
		"riff":  []byte("RIFF\x00\x00\x00\x00WAVEfmt "),
	}

	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			if _, err := (Decoder{}).Decode(bytes.NewReader(data)); !errors.Is(err, ErrNotAiffFile) {
				t.Errorf("Decode() error = %v, want ErrNotAiffFile", err)
			}
		})
	}
}

func TestSource_BitDepths(t *testing.T) {
	t.Parallel()

	tests := []struct {
		bitDepth int
		samples  []int
		want     []float32
	}{
		{8, []int{-128, 64, 0}, []float32{-1, 0.5, 0}},
		{16, []int{-16384, 32767}, []float32{-0.5, 32767.0 / 32768}},
		{24, []int{4194304, -8388608}, []float32{0.5, -1}},
		{32, []int{-1073741824}, []float32{-0.5}},
	}

	for _, tt := range tests {
		t.Run(depthName(tt.bitDepth), func(t *testing.T) {
			t.Parallel()

			dec := &mockAiffReader{
				format:  &goaudio.Format{NumChannels: 1, SampleRate: 44100},
				samples: tt.samples,
			}
			src, err := newSource(dec, tt.bitDepth)
			if err != nil {
				t.Fatalf("newSource() error = %v", err)
			}

			got, err := audio.ReadAll(src)
			if err != nil {
				t.Fatalf("ReadAll() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d samples, want %d", len(got), len(tt.want))
			}
			for i, w := range tt.want {
				if math.Abs(float64(got[i]-w)) > 1e-7 {
					t.Errorf("sample %d = %v, want %v", i, got[i], w)
				}
			}
		})
	}
}

func depthName(bitDepth int) string {
	return map[int]string{8: "8bit", 16: "16bit", 24: "24bit", 32: "32bit"}[bitDepth]
}

func TestSource_Errors(t *testing.T) {
	t.Parallel()

	if _, err := newSource(&mockAiffReader{}, 16); !errors.Is(err, ErrUnsupportedAiffLayout) {
		t.Errorf("nil format: err = %v, want ErrUnsupportedAiffLayout", err)
	}

	stereo := &goaudio.Format{NumChannels: 2, SampleRate: 48000}
	if _, err := newSource(&mockAiffReader{format: stereo}, 20); !errors.Is(err, audio.ErrUnsupportedBitDepth) {
		t.Errorf("20 bit: err = %v, want ErrUnsupportedBitDepth", err)
	}

	src, err := newSource(&mockAiffReader{format: stereo, err: io.ErrUnexpectedEOF}, 16)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := src.ReadSamples(make([]float32, 8)); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("ReadSamples() error = %v, want ErrUnexpectedEOF", err)
	}
}

func BenchmarkSource_ReadSamples(b *testing.B) {
	dec := &mockAiffReader{
		format:  &goaudio.Format{NumChannels: 2, SampleRate: 44100},
		samples: make([]int, 1<<20),
	}
	src, err := newSource(dec, 16)
	if err != nil {
		b.Fatal(err)
	}
	buf := make([]float32, 4096)

	b.ReportAllocs()
	for b.Loop() {
		if _, err := src.ReadSamples(buf); err != nil {
			dec.offset = 0
		}
	}
}

// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"io"
	"slices"
	"sync"
	"testing"

	"github.com/ik5/timewarp/internal/audiotest"
)

type mockDecoder struct {
	name string
}

func (d *mockDecoder) Decode(io.Reader) (Source, error) {
	return audiotest.Silent(44100, 2, 100), nil
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	wavDecoder := &mockDecoder{name: "wav"}
	mp3Decoder := &mockDecoder{name: "mp3"}
	registry.Register("wav", wavDecoder)
	registry.Register("MP3", mp3Decoder)

	tests := []struct {
		format string
		want   Decoder
		wantOK bool
	}{
		{"wav", wavDecoder, true},
		{"WAV", wavDecoder, true},
		{"mp3", mp3Decoder, true},
		{"flac", nil, false},
		{"", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			t.Parallel()

			got, ok := registry.Get(tt.format)
			if ok != tt.wantOK {
				t.Fatalf("Get(%q) ok = %v, want %v", tt.format, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("Get(%q) returned %v, want %v", tt.format, got, tt.want)
			}
		})
	}
}

func TestRegistry_ForPath(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	d := &mockDecoder{name: "aiff"}
	registry.Register("aif", d)

	tests := []struct {
		path   string
		wantOK bool
	}{
		{"/samples/kick.aif", true},
		{"Loop.AIF", true},
		{"noext", false},
		{"song.flac", false},
		{"dir.aif/", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()

			got, ok := registry.ForPath(tt.path)
			if ok != tt.wantOK {
				t.Fatalf("ForPath(%q) ok = %v, want %v", tt.path, ok, tt.wantOK)
			}
			if ok && got != d {
				t.Errorf("ForPath(%q) returned wrong decoder", tt.path)
			}
		})
	}
}

func TestRegistry_Formats(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	for _, f := range []string{"ogg", "WAV", "mp3"} {
		registry.Register(f, &mockDecoder{name: f})
	}

	want := []string{"mp3", "ogg", "wav"}
	if got := registry.Formats(); !slices.Equal(got, want) {
		t.Errorf("Formats() = %v, want %v", got, want)
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	var wg sync.WaitGroup
	for i := range 16 {
		wg.Go(func() {
			if i%2 == 0 {
				registry.Register("wav", &mockDecoder{name: "wav"})
				return
			}
			registry.Get("wav")
		})
	}
	wg.Wait()

	if _, ok := registry.Get("wav"); !ok {
		t.Error("wav decoder missing after concurrent registration")
	}
}

func BenchmarkRegistry_Get(b *testing.B) {
	registry := NewRegistry()
	registry.Register("wav", &mockDecoder{name: "wav"})

	b.ReportAllocs()
	for b.Loop() {
		registry.Get("wav")
	}
}

// SPDX-License-Identifier: EPL-2.0

package wav_test

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ik5/timewarp/audio"
	"github.com/ik5/timewarp/dsp"
	"github.com/ik5/timewarp/formats/wav"
)

// Example writes a short stereo buffer to disk and decodes it again.
func Example() {
	dir, err := os.MkdirTemp("", "wav-example")
	if err != nil {
		fmt.Println(err)
		return
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "buffer.wav")
	out, err := os.Create(path)
	if err != nil {
		fmt.Println(err)
		return
	}
	frames := []dsp.Frame{{L: 0.5, R: -0.5}, {L: 0.25, R: -0.25}}
	if err := wav.WriteWAV(out, 44100, 16, frames); err != nil {
		fmt.Println(err)
		return
	}
	out.Close()

	in, err := os.Open(path)
	if err != nil {
		fmt.Println(err)
		return
	}
	defer in.Close()

	src, err := wav.Decoder{}.Decode(in)
	if err != nil {
		fmt.Println(err)
		return
	}
	samples, _ := audio.ReadAll(src)

	fmt.Printf("%d Hz, %d channels\n", src.SampleRate(), src.Channels())
	fmt.Printf("%.2f\n", samples)
	// Output:
	// 44100 Hz, 2 channels
	// [0.50 -0.50 0.25 -0.25]
}

// SPDX-License-Identifier: EPL-2.0

package loader

import (
	"fmt"
	"os"

	"github.com/ik5/timewarp/audio"
	"github.com/ik5/timewarp/dsp"
	"github.com/ik5/timewarp/formats/aiff"
	"github.com/ik5/timewarp/formats/mp3"
	"github.com/ik5/timewarp/formats/vorbis"
	"github.com/ik5/timewarp/formats/wav"
)

// AudioFileData is a decoded file ready to replace the delay line contents.
type AudioFileData struct {
	Frames []dsp.Frame
	// DurationInSamples counts the decoded frames, excluding padding.
	DurationInSamples int
	DurationInMs      float32
}

// DefaultRegistry knows every format shipped with the module.
func DefaultRegistry() *audio.Registry {
	r := audio.NewRegistry()
	r.Register("wav", wav.Decoder{})
	r.Register("aif", aiff.Decoder{})
	r.Register("aiff", aiff.Decoder{})
	r.Register("mp3", mp3.Decoder{})
	r.Register("ogg", vorbis.Decoder{})
	return r
}

// FileProcessor decodes files into stereo frames at a fixed sample rate.
type FileProcessor struct {
	sampleRate int
	cfg        config
}

func NewFileProcessor(sampleRate int, opts ...Option) *FileProcessor {
	return &FileProcessor{sampleRate: sampleRate, cfg: newConfig(opts)}
}

func (p *FileProcessor) SampleRate() int { return p.sampleRate }

// Read decodes path. When size is positive the frames are zero-padded or
// truncated to exactly size.
func (p *FileProcessor) Read(path string, size int) (AudioFileData, error) {
	if path == "" {
		return AudioFileData{}, ErrEmptyPath
	}
	dec, ok := p.cfg.registry.ForPath(path)
	if !ok {
		return AudioFileData{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return AudioFileData{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	src, err := dec.Decode(f)
	if err != nil {
		return AudioFileData{}, fmt.Errorf("decoding %s: %w", path, err)
	}
	defer src.Close()

	data, err := p.ReadSource(src, size)
	if err != nil {
		return AudioFileData{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

// ReadSource drains an already opened source.
func (p *FileProcessor) ReadSource(src audio.Source, size int) (AudioFileData, error) {
	if p.sampleRate <= 0 {
		return AudioFileData{}, audio.ErrInvalidSampleRate
	}

	channels := src.Channels()
	if channels < 1 || channels > 2 {
		return AudioFileData{}, fmt.Errorf("%w: %d channels", audio.ErrUnsupportedChannelCount, channels)
	}
	if p.cfg.monoSum && channels == 2 {
		src = audio.NewMonoMixer(src)
		channels = 1
	}

	resampled := false
	if src.SampleRate() != p.sampleRate {
		if !p.cfg.resample {
			return AudioFileData{}, fmt.Errorf("%w: %d Hz, want %d Hz", ErrSampleRateMismatch, src.SampleRate(), p.sampleRate)
		}
		r, err := audio.NewResampler(src, p.sampleRate)
		if err != nil {
			return AudioFileData{}, fmt.Errorf("%w: %w", ErrResample, err)
		}
		src = r
		resampled = true
	}

	samples, err := audio.ReadAll(src)
	if err != nil {
		if resampled {
			return AudioFileData{}, fmt.Errorf("%w: %w", ErrResample, err)
		}
		return AudioFileData{}, err
	}

	frames := make([]dsp.Frame, len(samples)/channels, max(len(samples)/channels, size))
	if channels == 1 {
		for i, v := range samples {
			frames[i] = dsp.Mono(v)
		}
	} else {
		for i := range frames {
			frames[i] = dsp.Frame{L: samples[2*i], R: samples[2*i+1]}
		}
	}

	return p.fit(frames, size), nil
}

func (p *FileProcessor) fit(frames []dsp.Frame, size int) AudioFileData {
	duration := len(frames)
	if size > 0 {
		duration = min(duration, size)
		if len(frames) > size {
			frames = frames[:size]
		} else {
			frames = append(frames, make([]dsp.Frame, size-len(frames))...)
		}
	}

	return AudioFileData{
		Frames:            frames,
		DurationInSamples: duration,
		DurationInMs:      float32(float64(duration) * 1000 / float64(p.sampleRate)),
	}
}

// SPDX-License-Identifier: EPL-2.0

package params

// Stopwatch measures a loop length in whole buffers.
type Stopwatch struct {
	sampleRate float32
	count      int
	running    bool
}

func NewStopwatch(sampleRate float32) *Stopwatch {
	return &Stopwatch{sampleRate: sampleRate}
}

// Process is called once per buffer. While start is set it counts
// bufferSize samples per call. Once it has counted something and start is
// cleared it returns the measured length in milliseconds and true, and
// keeps returning it until Reset.
func (s *Stopwatch) Process(start bool, bufferSize int) (float32, bool) {
	if start {
		s.count += bufferSize
		s.running = true
		return 0, false
	}
	if !s.running || s.count == 0 {
		return 0, false
	}
	return float32(s.count) / s.sampleRate * 1000, true
}

// Reset discards the measurement.
func (s *Stopwatch) Reset() {
	s.count = 0
	s.running = false
}

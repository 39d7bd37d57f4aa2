// SPDX-License-Identifier: EPL-2.0

package loader

import (
	"log/slog"

	"github.com/ik5/timewarp/audio"
)

const (
	MinCapacity     = 1
	MaxCapacity     = 16
	defaultCapacity = 1
)

type config struct {
	logger   *slog.Logger
	registry *audio.Registry
	capacity int
	monoSum  bool
	resample bool
}

func newConfig(opts []Option) config {
	c := config{
		logger:   slog.Default(),
		capacity: defaultCapacity,
		resample: true,
	}
	for _, opt := range opts {
		opt(&c)
	}
	if c.registry == nil {
		c.registry = DefaultRegistry()
	}
	return c
}

// Option configures a FileProcessor or a Worker.
type Option func(*config)

func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRegistry replaces the extension to decoder mapping.
func WithRegistry(r *audio.Registry) Option {
	return func(c *config) { c.registry = r }
}

// WithCapacity sets the request and response channel size, clamped to
// [MinCapacity, MaxCapacity].
func WithCapacity(n int) Option {
	return func(c *config) { c.capacity = min(max(n, MinCapacity), MaxCapacity) }
}

// WithMonoSum averages stereo files into both channels.
func WithMonoSum(on bool) Option {
	return func(c *config) { c.monoSum = on }
}

// WithResampling controls conversion to the engine rate. When disabled a
// file at a different rate fails with ErrSampleRateMismatch.
func WithResampling(on bool) Option {
	return func(c *config) { c.resample = on }
}

// SPDX-License-Identifier: EPL-2.0

package audio

import "errors"

var (
	ErrInvalidDstSize          = errors.New("dst size must be multiple of channels")
	ErrInvalidSampleRate       = errors.New("sample rate must be positive")
	ErrUnsupportedChannelCount = errors.New("only mono and stereo audio is supported")
	ErrUnsupportedBitDepth     = errors.New("unsupported bit depth")
)

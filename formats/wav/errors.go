// SPDX-License-Identifier: EPL-2.0

package wav

import "errors"

var (
	ErrNotWavFile           = errors.New("not a WAV file")
	ErrUnsupportedWavLayout = errors.New("unsupported WAV layout")
	ErrUnsupportedWavFormat = errors.New("only integer PCM WAV is supported")
	ErrUnsupportedBitDepth  = errors.New("WAV bit depth must be 8, 16, 24 or 32")
)

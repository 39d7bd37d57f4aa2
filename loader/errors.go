// SPDX-License-Identifier: EPL-2.0

package loader

import "errors"

var (
	ErrEmptyPath          = errors.New("empty file path")
	ErrUnsupportedFormat  = errors.New("unsupported file format")
	ErrSampleRateMismatch = errors.New("file sample rate differs from engine rate and resampling is disabled")
	ErrResample           = errors.New("resampling failed")
)

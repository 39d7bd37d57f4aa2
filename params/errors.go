// SPDX-License-Identifier: EPL-2.0

package params

import "errors"

var (
	// ErrUnknownSampleMode is returned by ParseSampleMode.
	ErrUnknownSampleMode = errors.New("unknown sample mode")
)

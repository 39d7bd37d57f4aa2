// SPDX-License-Identifier: EPL-2.0

// Package aiff decodes AIFF files through github.com/go-audio/aiff.
//
// Integer PCM at 8, 16, 24 and 32 bits is supported. AIFF is big-endian and
// stores 8-bit samples signed; the go-audio decoder hides both details.
//
//	src, err := aiff.Decoder{}.Decode(file)
//
// Register it under both common extensions:
//
//	registry.Register("aif", aiff.Decoder{})
//	registry.Register("aiff", aiff.Decoder{})
package aiff

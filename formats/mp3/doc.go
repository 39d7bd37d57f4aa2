// SPDX-License-Identifier: EPL-2.0

// Package mp3 decodes MP3 files through github.com/hajimehoshi/go-mp3.
//
// go-mp3 always produces 16-bit stereo, even for mono streams, so every
// Source from this package reports two channels.
package mp3

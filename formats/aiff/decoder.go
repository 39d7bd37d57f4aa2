// SPDX-License-Identifier: EPL-2.0

package aiff

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-audio/aiff"
	"github.com/ik5/timewarp/audio"
)

type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	// go-audio requires io.ReadSeeker
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("reading aiff data: %w", err)
		}
		rs = bytes.NewReader(data)
	}

	dec := aiff.NewDecoder(rs)
	if !dec.IsValidFile() {
		return nil, ErrNotAiffFile
	}
	dec.ReadInfo()

	return newSource(dec, int(dec.BitDepth))
}

func newSource(dec audio.PCMReader, bitDepth int) (audio.Source, error) {
	if dec.Format() == nil {
		return nil, ErrUnsupportedAiffLayout
	}

	// AIFF stores 8-bit samples signed.
	src, err := audio.NewPCMSource(dec, bitDepth, false)
	if err != nil {
		return nil, fmt.Errorf("aiff: %w", err)
	}
	return src, nil
}

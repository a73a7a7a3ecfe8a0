// SPDX-License-Identifier: GPL-2.0-or-later

// Package palette reads and writes the 16- and 256-color RGBA palettes
// of the BIN format family. On disk the 256-color form is stored in
// the hardware-native index order and with halved alpha; in memory a
// Palette is always straight-ordered RGBA with full-range alpha.
package palette

import (
	"errors"
	"fmt"

	"github.com/saltern/ggpr-bin/transform"
)

const (
	binSize16  = 0x50  // 16-byte header + 16 RGBA colors
	binSize256 = 0x410 // 16-byte header + 256 RGBA colors
)

var ErrInvalidPalette = errors.New("palette: not a palette file")

// Palette is a straight-ordered RGBA color table, 16 or 256 entries.
type Palette []byte

// Colors returns the number of entries.
func (p Palette) Colors() int { return len(p) / 4 }

// FromBin decodes a palette_#.bin payload: fixed header, reindex for
// the 256-color form, and alpha expansion from the disk convention
// (0x80 means opaque).
func FromBin(data []byte) (Palette, error) {
	if len(data) != binSize16 && len(data) != binSize256 {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidPalette, len(data))
	}

	colors := 1 << data[0x04]
	body := append([]byte(nil), data[0x10:]...)
	if len(body) != colors*4 {
		return nil, fmt.Errorf("%w: %d colors in %d bytes", ErrInvalidPalette, colors, len(body))
	}

	if colors == 256 {
		body = transform.ReindexPalette(body)
	}
	return Palette(transform.AlphaDouble(body)), nil
}

// ToBin is the inverse of FromBin: alpha halved back to the disk
// convention, 256-color palettes reindexed, and the fixed header
// prepended.
func (p Palette) ToBin() ([]byte, error) {
	colors := p.Colors()
	if colors != 16 && colors != 256 {
		return nil, fmt.Errorf("%w: %d colors", ErrInvalidPalette, colors)
	}

	body := transform.AlphaHalve(p)
	if colors == 256 {
		body = transform.ReindexPalette(body)
	}

	depth := byte(4)
	if colors == 256 {
		depth = 8
	}
	out := make([]byte, 16, 16+len(body))
	// Palette magic, big-endian 0x03002000.
	out[0] = 0x03
	out[2] = 0x20
	out[4] = depth
	return append(out, body...), nil
}

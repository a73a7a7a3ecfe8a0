// SPDX-License-Identifier: GPL-2.0-or-later

package palette

import "fmt"

const (
	actSize        = 768
	actSizeTrailer = 772
)

// FromACT decodes an Adobe color table: 256 RGB triplets, optionally
// followed by a 4-byte color-count/transparency trailer. ACT files
// carry no alpha, so the fixed banding rule applies: fully transparent
// at index 0 and at each 32-slot boundary (and the +8 echoes past the
// first), half-transparent everywhere else. This is a different alpha
// policy than the .bin one and the two must not be mixed up.
func FromACT(data []byte) (Palette, error) {
	if len(data) != actSize && len(data) != actSizeTrailer {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidPalette, len(data))
	}

	out := make(Palette, 256*4)
	for i := 0; i < 256; i++ {
		out[4*i+0] = data[3*i+0]
		out[4*i+1] = data[3*i+1]
		out[4*i+2] = data[3*i+2]
		out[4*i+3] = BandingAlpha(i)
	}
	return out, nil
}

// ToACT encodes the palette as a plain 768-byte color table, dropping
// alpha. Smaller palettes are zero-padded to 256 entries.
func (p Palette) ToACT() []byte {
	out := make([]byte, actSize)
	for i := 0; i < 256 && 4*i+2 < len(p); i++ {
		out[3*i+0] = p[4*i+0]
		out[3*i+1] = p[4*i+1]
		out[3*i+2] = p[4*i+2]
	}
	return out
}

// BandingAlpha is the default alpha for a palette slot when the source
// format carries none. Importers use it to pad palettes out to a full
// color count.
func BandingAlpha(i int) byte {
	if i%32 == 0 || (i-8)%32 == 0 && i != 8 {
		return 0x00
	}
	return 0x80
}

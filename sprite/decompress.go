// SPDX-License-Identifier: GPL-2.0-or-later

package sprite

import (
	"fmt"

	"github.com/saltern/ggpr-bin/bitstream"
	"github.com/saltern/ggpr-bin/transform"
)

const (
	windowSize = 512
	minMatch   = 3
	maxMatch   = minMatch + 127 // 7-bit length field
)

// decompress decodes the LZ pixel stream. data starts at the iteration
// count, directly after the header and any embedded palette.
func decompress(data []byte, h Header) ([]byte, error) {
	if len(data) < 4 {
		return nil, ErrTooShort
	}

	// The iteration count is stored with its 16-bit halves swapped.
	iterations := uint32(data[2]) | uint32(data[3])<<8 |
		uint32(data[0])<<16 | uint32(data[1])<<24

	// The stream is stored as little-endian 16-bit words; swap each
	// pair back to big-endian byte order before bit parsing.
	body := data[4:]
	stream := make([]byte, 0, len(body))
	for i := 0; i+1 < len(body); i += 2 {
		stream = append(stream, body[i+1], body[i])
	}

	pixelCount := int(h.Width) * int(h.Height)
	r := bitstream.NewReader(stream)
	pixels := make([]byte, 0, pixelCount)

	for i := uint32(0); i < iterations; i++ {
		literal, err := r.ReadBit()
		if err != nil {
			return nil, fmt.Errorf("%w: token %d of %d", ErrDecodeOverrun, i, iterations)
		}

		if literal {
			v, err := r.Read(8)
			if err != nil {
				return nil, fmt.Errorf("%w: token %d of %d", ErrDecodeOverrun, i, iterations)
			}
			pixels = append(pixels, byte(v))

			// Literals come in pairs except possibly the last one.
			if len(pixels)+1 < pixelCount {
				v, err := r.Read(8)
				if err != nil {
					return nil, fmt.Errorf("%w: token %d of %d", ErrDecodeOverrun, i, iterations)
				}
				pixels = append(pixels, byte(v))
			}
			continue
		}

		windowOrigin := 0
		if len(pixels) > windowSize {
			windowOrigin = len(pixels) - windowSize
		}

		offset, err := r.Read(9)
		if err != nil {
			return nil, fmt.Errorf("%w: token %d of %d", ErrDecodeOverrun, i, iterations)
		}
		length, err := r.Read(7)
		if err != nil {
			return nil, fmt.Errorf("%w: token %d of %d", ErrDecodeOverrun, i, iterations)
		}

		src := windowOrigin + int(offset)
		// Copy byte by byte: back-references may overlap their own
		// output.
		for n := 0; n < int(length)+minMatch; n++ {
			if src+n >= len(pixels) {
				return nil, fmt.Errorf("sprite: back-reference outside window at token %d", i)
			}
			pixels = append(pixels, pixels[src+n])
		}
	}

	if h.BitDepth == 4 {
		pixels = transform.From4(pixels, false)
	}
	return pixels, nil
}

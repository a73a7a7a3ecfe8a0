// SPDX-License-Identifier: GPL-2.0-or-later

// Package sprite reads and writes the indexed-color sprite records
// stored in BIN archives, including the bit-packed LZ compression the
// game uses for pixel data.
package sprite

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/saltern/ggpr-bin/transform"
)

const HeaderSize = 16

// ClutEmbedded is the clut field value marking an embedded palette.
const ClutEmbedded = 0x20

var (
	ErrTooShort      = errors.New("sprite: data too short")
	ErrNotSprite     = errors.New("sprite: data is not a sprite record")
	ErrBadBitDepth   = errors.New("sprite: bit depth is not 4 or 8")
	ErrDecodeOverrun = errors.New("sprite: compressed stream exhausted")
)

// Header is the 16-byte record header.
type Header struct {
	Compressed bool
	Clut       uint16
	BitDepth   uint16
	Width      uint16
	Height     uint16
	TW         uint16
	TH         uint16
	Hash       uint16
}

// ParseHeader reads the fixed 16-byte header.
func ParseHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, ErrTooShort
	}
	return Header{
		Compressed: data[0] == 1,
		Clut:       binary.LittleEndian.Uint16(data[0x02:]),
		BitDepth:   binary.LittleEndian.Uint16(data[0x04:]),
		Width:      binary.LittleEndian.Uint16(data[0x06:]),
		Height:     binary.LittleEndian.Uint16(data[0x08:]),
		TW:         binary.LittleEndian.Uint16(data[0x0A:]),
		TH:         binary.LittleEndian.Uint16(data[0x0C:]),
		Hash:       binary.LittleEndian.Uint16(data[0x0E:]),
	}, nil
}

func (h Header) bytes() []byte {
	b := make([]byte, HeaderSize)
	if h.Compressed {
		b[0] = 1
	}
	binary.LittleEndian.PutUint16(b[0x02:], h.Clut)
	binary.LittleEndian.PutUint16(b[0x04:], h.BitDepth)
	binary.LittleEndian.PutUint16(b[0x06:], h.Width)
	binary.LittleEndian.PutUint16(b[0x08:], h.Height)
	binary.LittleEndian.PutUint16(b[0x0A:], h.TW)
	binary.LittleEndian.PutUint16(b[0x0C:], h.TH)
	binary.LittleEndian.PutUint16(b[0x0E:], h.Hash)
	return b
}

// Sprite is a decoded sprite: one byte per pixel, values below
// 2^BitDepth, plus an optional RGBA palette of 2^BitDepth colors.
type Sprite struct {
	Pixels   []byte
	Width    uint16
	Height   uint16
	BitDepth uint16
	Palette  []byte
}

// Decode parses a full sprite record, handling both the compressed and
// the uncompressed pixel layouts and any embedded palette. The returned
// pixel buffer is always exactly Width*Height bytes.
func Decode(data []byte) (*Sprite, error) {
	h, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}
	if data[0] > 1 {
		return nil, ErrNotSprite
	}
	if h.BitDepth != 4 && h.BitDepth != 8 {
		return nil, fmt.Errorf("%w: %d", ErrBadBitDepth, h.BitDepth)
	}

	pointer := HeaderSize
	var palette []byte
	if h.Clut == ClutEmbedded {
		palSize := 4 << h.BitDepth // 4 * 2^bitDepth
		if len(data) < pointer+palSize {
			return nil, ErrTooShort
		}
		palette = append([]byte(nil), data[pointer:pointer+palSize]...)
		pointer += palSize
	}

	var pixels []byte
	if h.Compressed {
		pixels, err = decompress(data[pointer:], h)
		if err != nil {
			return nil, err
		}
	} else {
		pixels = append([]byte(nil), data[pointer:]...)
		if n := int(h.Width) * int(h.Height); len(pixels) > n {
			pixels = pixels[:n]
		}
		if h.BitDepth == 4 {
			pixels = transform.From4(pixels, true)
		}
	}

	pixels = resize(pixels, int(h.Width)*int(h.Height))
	return &Sprite{
		Pixels:   pixels,
		Width:    h.Width,
		Height:   h.Height,
		BitDepth: h.BitDepth,
		Palette:  palette,
	}, nil
}

// Encode serializes the sprite back into record form. When compressed
// is set, the pixel data goes through the LZ encoder and the header
// hash is the XOR fold of the payload words; otherwise the raw
// bit-packed pixels follow the header directly.
func (s *Sprite) Encode(compressed bool) ([]byte, error) {
	if s.BitDepth != 4 && s.BitDepth != 8 {
		return nil, fmt.Errorf("%w: %d", ErrBadBitDepth, s.BitDepth)
	}
	h := Header{
		Compressed: compressed,
		BitDepth:   s.BitDepth,
		Width:      s.Width,
		Height:     s.Height,
	}
	if len(s.Palette) > 0 {
		h.Clut = ClutEmbedded
	}

	var payload []byte
	if compressed {
		c := Compress(s.Pixels, s.BitDepth, int(s.Width)*int(s.Height))
		h.Hash = c.Hash
		payload = make([]byte, 4+len(c.Stream))
		// The iteration count is stored with its 16-bit halves swapped.
		payload[0] = byte(c.Iterations >> 16)
		payload[1] = byte(c.Iterations >> 24)
		payload[2] = byte(c.Iterations)
		payload[3] = byte(c.Iterations >> 8)
		copy(payload[4:], c.Stream)
	} else {
		if s.BitDepth == 4 {
			payload = transform.To4(s.Pixels, true)
		} else {
			payload = append([]byte(nil), s.Pixels...)
		}
	}

	out := make([]byte, 0, HeaderSize+len(s.Palette)+len(payload))
	out = append(out, h.bytes()...)
	out = append(out, s.Palette...)
	out = append(out, payload...)
	return out, nil
}

func resize(b []byte, n int) []byte {
	if len(b) >= n {
		return b[:n]
	}
	return append(b, make([]byte, n-len(b))...)
}

// hashFold XOR-folds the little-endian 16-bit words of the compressed
// payload. The value is advisory; decoders never check it.
func hashFold(stream []byte) uint16 {
	var h uint16
	for i := 0; i+1 < len(stream); i += 2 {
		h ^= binary.LittleEndian.Uint16(stream[i:])
	}
	if len(stream)%2 != 0 {
		h ^= uint16(stream[len(stream)-1])
	}
	return h
}

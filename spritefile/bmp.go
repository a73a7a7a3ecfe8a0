// SPDX-License-Identifier: GPL-2.0-or-later

package spritefile

import (
	"bytes"
	"encoding/binary"
	"image"

	"github.com/pkg/errors"
	"golang.org/x/image/bmp"

	"github.com/saltern/ggpr-bin/palette"
	"github.com/saltern/ggpr-bin/sprite"
	"github.com/saltern/ggpr-bin/transform"
)

const (
	bmpFileHeaderSize = 14
	bmpCoreHeaderSize = 12
)

var ErrBadBMP = errors.New("spritefile: malformed BMP")

// importBMP loads an indexed BMP. BMP color tables carry no alpha, so
// the banding rule fills it in. 8bpp files go through the image
// library; 1/2/4bpp core-header files are unpacked by hand since the
// library does not read them.
func importBMP(data []byte) (*sprite.Sprite, error) {
	if len(data) < bmpFileHeaderSize+bmpCoreHeaderSize || data[0] != 'B' || data[1] != 'M' {
		return nil, ErrBadBMP
	}

	offBits := int(binary.LittleEndian.Uint32(data[10:]))
	dibSize := int(binary.LittleEndian.Uint32(data[14:]))

	var width, height, bitDepth, colorSize, flagsOffset, clrUsed int
	if dibSize == bmpCoreHeaderSize {
		width = int(binary.LittleEndian.Uint16(data[18:]))
		height = int(binary.LittleEndian.Uint16(data[20:]))
		bitDepth = int(binary.LittleEndian.Uint16(data[24:]))
		colorSize = 3
	} else {
		if len(data) < bmpFileHeaderSize+40 {
			return nil, ErrBadBMP
		}
		width = int(int32(binary.LittleEndian.Uint32(data[18:])))
		h := int(int32(binary.LittleEndian.Uint32(data[22:])))
		if h < 0 {
			h = -h
		}
		height = h
		bitDepth = int(binary.LittleEndian.Uint16(data[28:]))
		switch binary.LittleEndian.Uint32(data[30:]) {
		case 3: // BI_BITFIELDS
			flagsOffset = 12
		case 6: // BI_ALPHABITFIELDS
			flagsOffset = 16
		}
		clrUsed = int(binary.LittleEndian.Uint32(data[46:]))
		colorSize = 4
	}

	switch bitDepth {
	case 1, 2, 4, 8:
	default:
		return nil, errors.Wrapf(ErrBadBMP, "unsupported color depth %d", bitDepth)
	}
	if width <= 0 || height <= 0 || width > 0xFFFF || height > 0xFFFF {
		return nil, errors.Wrapf(ErrBadBMP, "dimensions %dx%d", width, height)
	}

	var pixels []byte
	if img, err := bmp.Decode(bytes.NewReader(data)); err == nil {
		if src, ok := img.(*image.Paletted); ok {
			pixels = make([]byte, 0, width*height)
			for y := 0; y < height; y++ {
				pixels = append(pixels, src.Pix[y*src.Stride:y*src.Stride+width]...)
			}
		}
	}
	if pixels == nil {
		var err error
		pixels, err = bmpPixels(data, offBits, width, height, bitDepth)
		if err != nil {
			return nil, err
		}
	}

	// Color table, BGR per entry, banding alpha filled in.
	colorCount := clrUsed
	if colorCount == 0 {
		colorCount = 1 << bitDepth
	}
	tableStart := bmpFileHeaderSize + dibSize + flagsOffset
	if tableStart+colorSize*colorCount > len(data) {
		return nil, errors.Wrap(ErrBadBMP, "color table")
	}
	pal := make([]byte, 4*colorCount)
	for c := 0; c < colorCount; c++ {
		pal[4*c+0] = data[tableStart+colorSize*c+2]
		pal[4*c+1] = data[tableStart+colorSize*c+1]
		pal[4*c+2] = data[tableStart+colorSize*c+0]
		pal[4*c+3] = palette.BandingAlpha(c)
	}

	return &sprite.Sprite{
		Pixels:   pixels,
		Width:    uint16(width),
		Height:   uint16(height),
		BitDepth: uint16(bitDepth),
		Palette:  pal,
	}, nil
}

// bmpPixels unpacks a bottom-up pixel array by hand.
func bmpPixels(data []byte, offBits, width, height, bitDepth int) ([]byte, error) {
	rowSize := ((bitDepth*width + 31) / 32) * 4
	if offBits < 0 || offBits+rowSize*height > len(data) {
		return nil, errors.Wrap(ErrBadBMP, "pixel array")
	}
	raw := data[offBits : offBits+rowSize*height]

	switch bitDepth {
	case 1:
		raw = transform.From1(raw)
	case 2:
		raw = transform.From2(raw)
	case 4:
		raw = transform.From4(raw, false)
	}

	// Rows are stored bottom-up and padded to four bytes.
	expanded := len(raw) / height
	pixels := make([]byte, 0, width*height)
	for y := height - 1; y >= 0; y-- {
		pixels = append(pixels, raw[y*expanded:y*expanded+width]...)
	}
	return pixels, nil
}

// bmpHeader builds the BITMAPFILEHEADER plus a BITMAPCOREHEADER, the
// oldest DIB variant the game tooling reads back.
func bmpHeader(width, height, bitDepth uint16) []byte {
	headerLength := uint32(bmpFileHeaderSize+bmpCoreHeaderSize) + uint32(1<<bitDepth)*3
	fileSize := headerLength + uint32(width+width%4)*uint32(height)

	out := make([]byte, 0, bmpFileHeaderSize+bmpCoreHeaderSize)
	out = append(out, 'B', 'M')
	out = binary.LittleEndian.AppendUint32(out, fileSize)
	out = append(out, 0, 0, 0, 0)
	out = binary.LittleEndian.AppendUint32(out, headerLength)
	out = binary.LittleEndian.AppendUint32(out, bmpCoreHeaderSize)
	out = binary.LittleEndian.AppendUint16(out, width)
	out = binary.LittleEndian.AppendUint16(out, height)
	out = binary.LittleEndian.AppendUint16(out, 1) // planes
	out = binary.LittleEndian.AppendUint16(out, bitDepth)
	return out
}

// ExportBMP writes the sprite as an indexed core-header BMP: BGR color
// table, bottom-up rows padded to four bytes, no alpha.
func ExportBMP(s *sprite.Sprite, opts ExportOptions) ([]byte, error) {
	if s.BitDepth != 4 && s.BitDepth != 8 {
		return nil, errors.Wrapf(sprite.ErrBadBitDepth, "%d", s.BitDepth)
	}

	out := bmpHeader(s.Width, s.Height, s.BitDepth)

	pal := opts.selectPalette(s)
	for i := 0; i < 1<<s.BitDepth; i++ {
		var b, g, r byte
		if 4*i+2 < len(pal) {
			r, g, b = pal[4*i], pal[4*i+1], pal[4*i+2]
		}
		out = append(out, b, g, r)
	}

	var pixels []byte
	if s.BitDepth == 4 {
		pixels = transform.To4(s.Pixels, false)
	} else if opts.Reindex {
		pixels = transform.Reindex(s.Pixels)
	} else {
		pixels = s.Pixels
	}

	rowLength := ((int(s.BitDepth)*int(s.Width) + 31) / 32) * 4
	byteWidth := len(pixels) / int(s.Height)
	padding := make([]byte, rowLength-byteWidth)

	for y := int(s.Height) - 1; y >= 0; y-- {
		out = append(out, pixels[y*byteWidth:(y+1)*byteWidth]...)
		out = append(out, padding...)
	}
	return out, nil
}

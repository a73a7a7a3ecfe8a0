// SPDX-License-Identifier: GPL-2.0-or-later

// Package transform holds the pixel-level helpers shared by the sprite
// and palette codecs: bit-depth expansion and packing, the hardware
// palette index swap, alpha scaling, and flips.
package transform

// From1 expands 1bpp data to one byte per pixel, high bit first.
func From1(in []byte) []byte {
	out := make([]byte, 0, len(in)*8)
	for _, b := range in {
		for bit := 7; bit >= 0; bit-- {
			out = append(out, b>>uint(bit)&1)
		}
	}
	return out
}

// From2 expands 2bpp data to one byte per pixel, high pair first.
func From2(in []byte) []byte {
	out := make([]byte, 0, len(in)*4)
	for _, b := range in {
		out = append(out, b>>6, b>>4&3, b>>2&3, b&3)
	}
	return out
}

// From4 expands 4bpp data to one byte per pixel. The stock order is
// high nibble first; flip selects low nibble first, which is what the
// uncompressed sprite record stores.
func From4(in []byte, flip bool) []byte {
	out := make([]byte, 0, len(in)*2)
	for _, b := range in {
		if flip {
			out = append(out, b&0xF, b>>4)
		} else {
			out = append(out, b>>4, b&0xF)
		}
	}
	return out
}

// To4 packs one-byte-per-pixel data into 4bpp, clamping values to 0xF.
// An odd pixel count gets a zero-padded final nibble.
func To4(in []byte, flip bool) []byte {
	out := make([]byte, 0, (len(in)+1)/2)
	for i := 0; i < len(in); i += 2 {
		hi := clamp4(in[i])
		lo := byte(0)
		if i+1 < len(in) {
			lo = clamp4(in[i+1])
		}
		if flip {
			out = append(out, lo<<4|hi)
		} else {
			out = append(out, hi<<4|lo)
		}
	}
	return out
}

func clamp4(v byte) byte {
	if v > 0xF {
		return 0xF
	}
	return v
}

// Index applies the hardware-native palette index swap. Groups of 8
// indices trade places: if (i/8+2)%4 == 0 the index moves down by 8,
// if (i/8+3)%4 == 0 it moves up by 8. The transform is an involution.
func Index(v uint8) uint8 {
	switch {
	case (uint32(v)/8+2)%4 == 0:
		return v - 8
	case (uint32(v)/8+3)%4 == 0:
		return v + 8
	default:
		return v
	}
}

// Reindex applies Index to every pixel value.
func Reindex(pixels []byte) []byte {
	out := make([]byte, len(pixels))
	for i, v := range pixels {
		out[i] = Index(v)
	}
	return out
}

// ReindexPalette reorders whole RGBA entries of a 256-color palette by
// the same index swap. Palettes of other sizes pass through unchanged.
func ReindexPalette(pal []byte) []byte {
	if len(pal) != 256*4 {
		out := make([]byte, len(pal))
		copy(out, pal)
		return out
	}
	out := make([]byte, len(pal))
	for i := 0; i < 256; i++ {
		j := int(Index(uint8(i)))
		copy(out[4*i:4*i+4], pal[4*j:4*j+4])
	}
	return out
}

// AlphaHalve halves every alpha byte of an RGBA palette, mapping 0xFF
// to 0x80. Only the two fixed points survive a round trip with
// AlphaDouble; everything else loses precision, same as the original
// tooling.
func AlphaHalve(pal []byte) []byte {
	out := make([]byte, len(pal))
	copy(out, pal)
	for i := 3; i < len(out); i += 4 {
		if out[i] == 0xFF {
			out[i] = 0x80
		} else {
			out[i] /= 2
		}
	}
	return out
}

// AlphaDouble doubles every alpha byte of an RGBA palette, mapping 0x80
// to 0xFF and saturating at 0xFF.
func AlphaDouble(pal []byte) []byte {
	out := make([]byte, len(pal))
	copy(out, pal)
	for i := 3; i < len(out); i += 4 {
		switch {
		case out[i] == 0x80:
			out[i] = 0xFF
		case out[i] > 0x7F:
			out[i] = 0xFF
		default:
			out[i] *= 2
		}
	}
	return out
}

// FlipH mirrors the pixel buffer horizontally.
func FlipH(pixels []byte, width, height int) []byte {
	out := make([]byte, len(pixels))
	for y := 0; y < height; y++ {
		row := pixels[y*width : (y+1)*width]
		for x := 0; x < width; x++ {
			out[y*width+x] = row[width-1-x]
		}
	}
	return out
}

// FlipV mirrors the pixel buffer vertically.
func FlipV(pixels []byte, width, height int) []byte {
	out := make([]byte, len(pixels))
	for y := 0; y < height; y++ {
		copy(out[y*width:(y+1)*width], pixels[(height-1-y)*width:(height-y)*width])
	}
	return out
}

// IndexedAsRGB replaces each palette index with the red channel of the
// color it refers to, turning an indexed buffer into plain grayscale.
func IndexedAsRGB(pixels, pal []byte) []byte {
	out := make([]byte, len(pixels))
	for i, v := range pixels {
		p := 4 * int(v)
		if p+3 < len(pal) {
			out[i] = pal[p]
		}
	}
	return out
}

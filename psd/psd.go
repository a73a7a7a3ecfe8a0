// SPDX-License-Identifier: GPL-2.0-or-later

// Package psd writes layered 8-bit RGB Photoshop documents. Only the
// subset the sprite tooling needs is emitted: RLE-packed ARGB layer
// channels and a blank RLE composite, all section lengths big-endian.
package psd

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// Layer is one document layer. Pixels is the full-canvas RGBA buffer;
// the rectangle selects the region that actually lands in the file.
type Layer struct {
	Name   string
	Pixels []byte
	Top    int32
	Bottom int32
	Left   int32
	Right  int32
}

var fileHeader = []byte{
	'8', 'B', 'P', 'S', // signature
	0x00, 0x01, // version
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, // reserved
	0x00, 0x03, // channel count (RGB)
}

var colorData = []byte{
	0x00, 0x08, // color depth
	0x00, 0x03, // color mode (RGB)
	0x00, 0x00, 0x00, 0x00, // data length
}

var imageResources = []byte{0x00, 0x00, 0x00, 0x00}

// Write emits the document.
func Write(w io.Writer, width, height int32, layers []Layer) error {
	out := append([]byte(nil), fileHeader...)
	out = binary.BigEndian.AppendUint32(out, uint32(height))
	out = binary.BigEndian.AppendUint32(out, uint32(width))
	out = append(out, colorData...)
	out = append(out, imageResources...)

	info := layerInfo(width, layers)
	out = binary.BigEndian.AppendUint32(out, uint32(len(info)))
	out = append(out, info...)

	out = append(out, fakeComposite(width, height)...)

	_, err := w.Write(out)
	return errors.Wrap(err, "psd write")
}

func layerInfo(width int32, layers []Layer) []byte {
	var records, pixelData []byte
	for _, layer := range layers {
		channels, sizes := layerChannels(width, layer)
		records = append(records, layerRecord(layer, sizes)...)
		pixelData = append(pixelData, channels...)
	}

	chunk := binary.BigEndian.AppendUint16(nil, uint16(len(layers)))
	chunk = append(chunk, records...)
	chunk = append(chunk, pixelData...)
	chunk = append(chunk, make([]byte, len(chunk)%4)...)

	info := binary.BigEndian.AppendUint32(nil, uint32(len(chunk)))
	return append(info, chunk...)
}

func layerRecord(layer Layer, channelSizes [4]int) []byte {
	rec := binary.BigEndian.AppendUint32(nil, uint32(layer.Top))
	rec = binary.BigEndian.AppendUint32(rec, uint32(layer.Left))
	rec = binary.BigEndian.AppendUint32(rec, uint32(layer.Bottom))
	rec = binary.BigEndian.AppendUint32(rec, uint32(layer.Right))

	rec = binary.BigEndian.AppendUint16(rec, 4)
	for channel := -1; channel < 3; channel++ {
		rec = binary.BigEndian.AppendUint16(rec, uint16(channel))
		rec = binary.BigEndian.AppendUint32(rec, uint32(channelSizes[channel+1]))
	}

	rec = append(rec, "8BIM"...) // signature
	rec = append(rec, "norm"...) // blend mode
	rec = append(rec, 0xFF, 0x00, 0x00, 0x00)

	extra := layerExtraData(layer.Name)
	rec = binary.BigEndian.AppendUint32(rec, uint32(len(extra)))
	return append(rec, extra...)
}

func layerExtraData(name string) []byte {
	extra := make([]byte, 8) // no mask data, no blending ranges
	extra = append(extra, byte(len(name)))
	extra = append(extra, name...)
	if pad := (len(name) + 1) % 4; pad != 0 {
		extra = append(extra, make([]byte, 4-pad)...)
	}
	return extra
}

// layerChannels packs the layer rectangle channel by channel in ARGB
// order, each channel RLE-compressed on its own.
func layerChannels(width int32, layer Layer) ([]byte, [4]int) {
	var data []byte
	var sizes [4]int

	for i, channel := range [4]int32{3, 0, 1, 2} {
		var pixels []byte
		for row := layer.Top; row < layer.Bottom; row++ {
			for col := layer.Left; col < layer.Right; col++ {
				pixels = append(pixels, layer.Pixels[4*(row*width+col)+channel])
			}
		}
		rle := compressChannel(pixels, layer.Right-layer.Left, layer.Bottom-layer.Top)
		sizes[i] = len(rle)
		data = append(data, rle...)
	}
	return data, sizes
}

// compressChannel is PackBits over scanlines: repeat packets for runs
// of at least two, literal packets otherwise, preceded by the per-row
// length table and the RLE compression marker.
func compressChannel(pixels []byte, rectW, rectH int32) []byte {
	var lengths, packets []byte

	for row := int32(0); row < rectH; row++ {
		var rowLength uint16
		from := row * rectW

		for column := int32(0); column < rectW; {
			limit := rectW - column
			if limit > 127 {
				limit = 127
			}
			at := from + column

			tokenLength := int32(0)
			tokenPixel := pixels[at]
			for pixels[at+tokenLength] == tokenPixel && tokenLength < limit-1 {
				tokenLength++
			}
			if tokenLength >= 2 {
				packets = append(packets, byte(-(int8(tokenLength) - 1)), tokenPixel)
				column += tokenLength
				rowLength += 2
				continue
			}

			literalLength := int32(0)
			matchLength := 0
			lastMatch := pixels[at]
			for matchLength < 3 && literalLength < limit {
				pixel := pixels[at+literalLength]
				if pixel == lastMatch {
					matchLength++
				} else {
					matchLength = 0
					lastMatch = pixel
				}
				literalLength++
			}
			packets = append(packets, byte(literalLength-1))
			packets = append(packets, pixels[at:at+literalLength]...)
			column += literalLength
			rowLength += uint16(literalLength) + 1
		}
		lengths = binary.BigEndian.AppendUint16(lengths, rowLength)
	}

	out := []byte{0x00, 0x01} // RLE
	out = append(out, lengths...)
	return append(out, packets...)
}

// fakeComposite emits an all-black merged image so readers that skip
// layer data still open the file.
func fakeComposite(width, height int32) []byte {
	out := []byte{0x00, 0x01} // RLE

	fullTokens := width / 128
	remainder := width - 128*fullTokens
	rowLength := uint16(2 * fullTokens)
	if remainder > 0 {
		rowLength += 2
	}

	for i := int32(0); i < 3*height; i++ {
		out = binary.BigEndian.AppendUint16(out, rowLength)
	}

	for channel := 0; channel < 3; channel++ {
		for scanline := int32(0); scanline < height; scanline++ {
			for token := int32(0); token < fullTokens; token++ {
				out = append(out, 0x81, 0x00) // 128 zeroes
			}
			if remainder == 1 {
				out = append(out, 0x00, 0x00)
			} else if remainder > 1 {
				out = append(out, byte(-(int8(remainder) - 1)), 0x00)
			}
		}
	}
	return out
}

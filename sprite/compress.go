// SPDX-License-Identifier: GPL-2.0-or-later

package sprite

import (
	"github.com/saltern/ggpr-bin/bitstream"
	"github.com/saltern/ggpr-bin/transform"
)

// Compressed is the output of the LZ encoder: the on-disk word-swapped
// stream, the exact token count and the advisory hash.
type Compressed struct {
	Iterations uint32
	Stream     []byte
	Hash       uint16
}

// Compress encodes a pixel buffer into the sprite bitstream format.
// pixelCount is the Width*Height value that will be written to the
// header; the decoder's literal-pairing rule depends on it, so the
// encoder has to mirror it exactly. 4bpp input is packed two pixels
// per byte before encoding.
func Compress(pixels []byte, bitDepth uint16, pixelCount int) Compressed {
	work := pixels
	if bitDepth == 4 {
		work = transform.To4(pixels, false)
	}

	w := bitstream.NewWriter()
	var tokens uint32

	pos := 0
	for pos < len(work) {
		start, length := findMatch(work, pos)

		if length >= minMatch {
			windowOrigin := 0
			if pos > windowSize {
				windowOrigin = pos - windowSize
			}
			w.WriteBit(false)
			w.Write(uint32(start-windowOrigin), 9)
			w.Write(uint32(length-minMatch), 7)
			pos += length
		} else {
			w.WriteBit(true)
			w.Write(uint32(work[pos]), 8)
			pos++
			// The decoder reads a second literal whenever another
			// pixel could follow; keep in step with it even if that
			// means writing a pad byte past the end of the buffer.
			if pos+1 < pixelCount {
				if pos < len(work) {
					w.Write(uint32(work[pos]), 8)
					pos++
				} else {
					w.Write(0, 8)
				}
			}
		}
		tokens++
	}

	stream := w.Bytes()
	if len(stream)%2 != 0 {
		stream = append(stream, 0)
	}
	// Word-swap into on-disk order.
	for i := 0; i+1 < len(stream); i += 2 {
		stream[i], stream[i+1] = stream[i+1], stream[i]
	}

	return Compressed{
		Iterations: tokens,
		Stream:     stream,
		Hash:       hashFold(stream),
	}
}

// findMatch greedily searches the trailing window for the longest
// match of at least minMatch bytes. Ties resolve to the lowest offset.
func findMatch(work []byte, pos int) (start, length int) {
	windowOrigin := 0
	if pos > windowSize {
		windowOrigin = pos - windowSize
	}

	bestStart, bestLen := 0, 0
	limit := pos + maxMatch
	if limit > len(work) {
		limit = len(work)
	}

	for s := windowOrigin; s < pos; s++ {
		l := 0
		// The source may run past pos: overlapping self-reference is
		// resolved byte by byte on decode.
		for pos+l < limit && work[s+l] == work[pos+l] {
			l++
		}
		if l > bestLen {
			bestStart, bestLen = s, l
			if l == maxMatch {
				break
			}
		}
	}
	return bestStart, bestLen
}

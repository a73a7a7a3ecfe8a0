// SPDX-License-Identifier: GPL-2.0-or-later

package psd

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// unpackBits decodes a PackBits stream of the given expected size.
func unpackBits(t *testing.T, data []byte, want int) []byte {
	t.Helper()
	var out []byte
	for i := 0; i < len(data); {
		header := int8(data[i])
		i++
		if header >= 0 {
			n := int(header) + 1
			out = append(out, data[i:i+n]...)
			i += n
		} else {
			n := 1 - int(header)
			for j := 0; j < n; j++ {
				out = append(out, data[i])
			}
			i++
		}
	}
	if len(out) != want {
		t.Fatalf("unpacked length: want %d got %d", want, len(out))
	}
	return out
}

func TestWriteHeader(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, 4, 2, nil); err != nil {
		t.Fatal(err)
	}
	data := buf.Bytes()

	if !bytes.Equal(data[:6], []byte{0x38, 0x42, 0x50, 0x53, 0x00, 0x01}) {
		t.Fatalf("magic: got % X", data[:6])
	}
	if h := binary.BigEndian.Uint32(data[14:]); h != 2 {
		t.Errorf("height: want 2 got %d", h)
	}
	if w := binary.BigEndian.Uint32(data[18:]); w != 4 {
		t.Errorf("width: want 4 got %d", w)
	}
	// Depth 8, mode RGB.
	if binary.BigEndian.Uint16(data[22:]) != 8 || binary.BigEndian.Uint16(data[24:]) != 3 {
		t.Errorf("color data: got % X", data[22:26])
	}
}

func TestFakeComposite(t *testing.T) {
	got := fakeComposite(4, 2)

	if binary.BigEndian.Uint16(got) != 1 {
		t.Fatalf("compression: got % X", got[:2])
	}
	// Three channels, two scanlines, two bytes per packed row.
	for i := 0; i < 6; i++ {
		if binary.BigEndian.Uint16(got[2+2*i:]) != 2 {
			t.Fatalf("row length %d: got %d", i, binary.BigEndian.Uint16(got[2+2*i:]))
		}
	}
	rows := got[14:]
	if len(rows) != 12 {
		t.Fatalf("packet bytes: want 12 got %d", len(rows))
	}
	for i := 0; i < len(rows); i += 2 {
		if row := unpackBits(t, rows[i:i+2], 4); !bytes.Equal(row, make([]byte, 4)) {
			t.Fatalf("composite row not blank: % X", row)
		}
	}
}

func TestLayerChannelsRoundTrip(t *testing.T) {
	const w, h = 4, 2
	pixels := make([]byte, 4*w*h)
	for i := range pixels {
		pixels[i] = byte(i * 7)
	}
	layer := Layer{
		Name:   "cell_0",
		Pixels: pixels,
		Top:    0, Bottom: h,
		Left: 0, Right: w,
	}

	data, sizes := layerChannels(w, layer)

	// Channels come out in ARGB order.
	offset := 0
	for i, channel := range [4]int{3, 0, 1, 2} {
		chunk := data[offset : offset+sizes[i]]
		offset += sizes[i]

		if binary.BigEndian.Uint16(chunk) != 1 {
			t.Fatalf("channel %d: compression marker % X", i, chunk[:2])
		}
		got := unpackBits(t, chunk[2+2*h:], w*h)

		var want []byte
		for p := 0; p < w*h; p++ {
			want = append(want, pixels[4*p+channel])
		}
		if !bytes.Equal(got, want) {
			t.Errorf("channel %d: want % X got % X", i, want, got)
		}
	}
	if offset != len(data) {
		t.Errorf("trailing channel bytes: %d", len(data)-offset)
	}
}

func TestLayerRecord(t *testing.T) {
	layer := Layer{Name: "sub", Top: 1, Bottom: 5, Left: 2, Right: 6}
	rec := layerRecord(layer, [4]int{10, 11, 12, 13})

	// Bounds: top, left, bottom, right.
	wantBounds := []uint32{1, 2, 5, 6}
	for i, want := range wantBounds {
		if got := binary.BigEndian.Uint32(rec[4*i:]); got != want {
			t.Errorf("bound %d: want %d got %d", i, want, got)
		}
	}
	if binary.BigEndian.Uint16(rec[16:]) != 4 {
		t.Errorf("channel count: got %d", binary.BigEndian.Uint16(rec[16:]))
	}
	// First channel id is -1 (alpha) with its length.
	if int16(binary.BigEndian.Uint16(rec[18:])) != -1 {
		t.Errorf("alpha channel id: got %d", int16(binary.BigEndian.Uint16(rec[18:])))
	}
	if binary.BigEndian.Uint32(rec[20:]) != 10 {
		t.Errorf("alpha channel size: got %d", binary.BigEndian.Uint32(rec[20:]))
	}
	if !bytes.Equal(rec[42:50], []byte("8BIMnorm")) {
		t.Errorf("signature/blend: got %q", rec[42:50])
	}

	// Pascal name padded out to a four-byte boundary.
	extraLen := binary.BigEndian.Uint32(rec[54:])
	extra := rec[58 : 58+extraLen]
	if extra[8] != 3 || string(extra[9:12]) != "sub" {
		t.Errorf("layer name: got % X", extra[8:])
	}
	if len(extra) != 12 {
		t.Errorf("extra data length: want 12 got %d", len(extra))
	}
}

func TestCompressChannelRuns(t *testing.T) {
	// One row: a run of four then two distinct bytes.
	pixels := []byte{9, 9, 9, 9, 1, 2}
	chunk := compressChannel(pixels, 6, 1)

	rowLen := binary.BigEndian.Uint16(chunk[2:])
	packets := chunk[4:]
	if int(rowLen) != len(packets) {
		t.Fatalf("row length %d but %d packet bytes", rowLen, len(packets))
	}
	if got := unpackBits(t, packets, 6); !bytes.Equal(got, pixels) {
		t.Errorf("round trip: want % X got % X", pixels, got)
	}
	// The run must come out as a single repeat packet.
	if int8(packets[0]) != -3 || packets[1] != 9 {
		t.Errorf("run packet: got % X", packets[:2])
	}
}

// SPDX-License-Identifier: GPL-2.0-or-later

package bitstream

import (
	"io"
	"testing"
)

func TestReadMSBFirst(t *testing.T) {
	r := NewReader([]byte{0b1011_0010, 0xFF})
	b, err := r.ReadBit()
	if err != nil || b != true {
		t.Errorf("first bit: want true got %v (%v)", b, err)
	}
	v, err := r.Read(3)
	if err != nil || v != 0b011 {
		t.Errorf("next 3 bits: want 3 got %v (%v)", v, err)
	}
	v, err = r.Read(8)
	if err != nil || v != 0b0010_1111 {
		t.Errorf("straddling read: want %v got %v (%v)", 0b00101111, v, err)
	}
}

func TestReadPastEnd(t *testing.T) {
	r := NewReader([]byte{0xAB})
	if _, err := r.Read(8); err != nil {
		t.Fatalf("in-bounds read failed: %v", err)
	}
	if _, err := r.Read(1); err != io.ErrUnexpectedEOF {
		t.Errorf("want io.ErrUnexpectedEOF got %v", err)
	}
}

func TestWriterPartialBytePadding(t *testing.T) {
	w := NewWriter()
	w.WriteBit(true)
	w.Write(0b01, 2)
	got := w.Bytes()
	if len(got) != 1 || got[0] != 0b1010_0000 {
		t.Errorf("want [0xA0] got %v", got)
	}
}

func TestRoundTrip(t *testing.T) {
	widths := []uint8{1, 3, 7, 8, 9, 16, 31, 32}
	values := []uint32{0, 1, 0x55, 0x1FF, 0xFFFF, 0x7FFFFFFF, 0xFFFFFFFF}

	w := NewWriter()
	for _, n := range widths {
		for _, v := range values {
			w.Write(v, n)
		}
	}
	r := NewReader(w.Bytes())
	for _, n := range widths {
		for _, v := range values {
			want := v & uint32((uint64(1)<<n)-1)
			got, err := r.Read(n)
			if err != nil {
				t.Fatalf("read %d bits: %v", n, err)
			}
			if got != want {
				t.Errorf("%d bits of %#x: want %#x got %#x", n, v, want, got)
			}
		}
	}
}

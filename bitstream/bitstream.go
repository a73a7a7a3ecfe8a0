// SPDX-License-Identifier: GPL-2.0-or-later

// Package bitstream provides an MSB-first bit-level cursor over a byte
// buffer, as used by the sprite compression format.
package bitstream

import "io"

type Reader struct {
	data []byte
	acc  uint64
	n    uint8
	pos  int
}

func NewReader(b []byte) *Reader {
	return &Reader{data: b}
}

// Read returns the next bits as an unsigned integer, most significant
// bit first. bits must be in 1..=32.
func (r *Reader) Read(bits uint8) (uint32, error) {
	for r.n < bits {
		if r.pos >= len(r.data) {
			return 0, io.ErrUnexpectedEOF
		}
		r.acc = r.acc<<8 | uint64(r.data[r.pos])
		r.n += 8
		r.pos++
	}
	r.n -= bits
	v := uint32(r.acc >> r.n)
	r.acc &= (1 << r.n) - 1
	return v & uint32((uint64(1)<<bits)-1), nil
}

func (r *Reader) ReadBit() (bool, error) {
	v, err := r.Read(1)
	return v == 1, err
}

type Writer struct {
	buf []byte
	acc uint64
	n   uint8
}

func NewWriter() *Writer {
	return &Writer{buf: make([]byte, 0, 256)}
}

// Write appends bits to the stream, most significant bit first.
func (w *Writer) Write(v uint32, bits uint8) {
	w.acc = w.acc<<bits | uint64(v)&((1<<bits)-1)
	w.n += bits
	for w.n >= 8 {
		w.n -= 8
		w.buf = append(w.buf, byte(w.acc>>w.n))
	}
	w.acc &= (1 << w.n) - 1
}

func (w *Writer) WriteBit(b bool) {
	if b {
		w.Write(1, 1)
	} else {
		w.Write(0, 1)
	}
}

// Bytes flushes any partial byte, padding with zero bits, and returns
// the accumulated stream.
func (w *Writer) Bytes() []byte {
	if w.n > 0 {
		w.buf = append(w.buf, byte(w.acc<<(8-w.n)))
		w.acc = 0
		w.n = 0
	}
	return w.buf
}

// SPDX-License-Identifier: GPL-2.0-or-later

// Package archive implements the pointer-table container format of the
// BIN files and the structural heuristics that classify their
// contents. Offsets inside a table are relative to the position where
// the table itself starts, for nested tables as much as for top-level
// ones.
package archive

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Sentinel terminates a pointer table and fills its padding entries.
const Sentinel = 0xFFFFFFFF

var (
	ErrTooShort         = errors.New("archive: data too short")
	ErrEncrypted        = errors.New("archive: file is encrypted")
	ErrMalformedPointer = errors.New("archive: pointer outside buffer")
)

// Pointers reads a 32-bit offset table starting at cursor, stopping at
// the sentinel or when fewer than four bytes remain. The audio-array
// check is the only caller that wants big-endian words.
func Pointers(data []byte, cursor int, bigEndian bool) []uint32 {
	var pointers []uint32
	for cursor+4 <= len(data) {
		var p uint32
		if bigEndian {
			p = binary.BigEndian.Uint32(data[cursor:])
		} else {
			p = binary.LittleEndian.Uint32(data[cursor:])
		}
		if p == Sentinel {
			break
		}
		pointers = append(pointers, p)
		cursor += 4
	}
	return pointers
}

// FinalizePointers turns blob-relative offsets into a writable table:
// the sentinel is appended, the entry count is padded to a multiple of
// four with more sentinels, and every real offset is rebased by the
// final table size so it becomes relative to the table start.
func FinalizePointers(offsets []uint32) []uint32 {
	count := len(offsets)
	table := append(append([]uint32(nil), offsets...), Sentinel)
	for len(table)%4 != 0 {
		table = append(table, Sentinel)
	}
	rebase := uint32(4 * len(table))
	for i := 0; i < count; i++ {
		table[i] += rebase
	}
	return table
}

// packTable serializes blobs behind a finalized pointer table.
func packTable(blobs [][]byte) []byte {
	offsets := make([]uint32, 0, len(blobs))
	size := 0
	for _, b := range blobs {
		offsets = append(offsets, uint32(size))
		size += len(b)
	}
	table := FinalizePointers(offsets)

	out := make([]byte, 0, 4*len(table)+size)
	for _, p := range table {
		out = binary.LittleEndian.AppendUint32(out, p)
	}
	for _, b := range blobs {
		out = append(out, b...)
	}
	return out
}

// sliceTable carves data into the sub-blobs delimited by the pointer
// table at cursor. Offsets are relative to cursor; the last blob runs
// to the end of data. Every offset is bounds-checked.
func sliceTable(data []byte, cursor int) ([][]byte, error) {
	pointers := Pointers(data, cursor, false)
	blobs := make([][]byte, 0, len(pointers))
	for i, p := range pointers {
		start := cursor + int(p)
		end := len(data)
		if i+1 < len(pointers) {
			end = cursor + int(pointers[i+1])
		}
		if start > end || end > len(data) {
			return nil, fmt.Errorf("%w: %#x..%#x in %d bytes", ErrMalformedPointer, start, end, len(data))
		}
		blobs = append(blobs, data[start:end])
	}
	return blobs, nil
}

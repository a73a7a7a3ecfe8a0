// SPDX-License-Identifier: GPL-2.0-or-later

package crypt

import (
	"encoding/binary"
	"strings"
)

// Signature is the value spelled by the last four bytes of an
// encrypted file ("ASGC") when they are read back to front as a
// little-endian word.
const Signature = 0x41534743

// chainInit seeds the XOR chain ("FPAC" read little-endian).
const chainInit = 0x43415046

// SeedFromName folds the uppercased file name (name only, no path)
// into the 32-bit twister seed.
func SeedFromName(name string) uint32 {
	var seed uint32
	for _, b := range []byte(strings.ToUpper(name)) {
		seed = seed*137 + uint32(b)
	}
	return seed
}

// IsEncrypted reports whether data carries the trailing signature.
func IsEncrypted(data []byte) bool {
	n := len(data)
	if n < 4 {
		return false
	}
	tail := uint32(data[n-1]) | uint32(data[n-2])<<8 |
		uint32(data[n-3])<<16 | uint32(data[n-4])<<24
	return tail == Signature
}

// Decrypt reverses the obfuscation of a whole file keyed on its name.
// Each little-endian ciphertext word is XORed against the twister
// output and the previous plaintext word. Trailing bytes short of a
// full word are dropped, as the original tool does.
func Decrypt(name string, data []byte) []byte {
	tw := NewMT19937(SeedFromName(name))
	out := make([]byte, 0, len(data)&^3)

	last := uint32(chainInit)
	for cursor := 0; cursor+4 <= len(data); cursor += 4 {
		last ^= binary.LittleEndian.Uint32(data[cursor:]) ^ tw.Next()
		out = binary.LittleEndian.AppendUint32(out, last)
	}
	return out
}

// Encrypt is the inverse of Decrypt for word-aligned plaintext:
// feeding its output back through Decrypt with the same name recovers
// the input.
func Encrypt(name string, data []byte) []byte {
	tw := NewMT19937(SeedFromName(name))
	out := make([]byte, 0, len(data)&^3)

	prev := uint32(chainInit)
	for cursor := 0; cursor+4 <= len(data); cursor += 4 {
		plain := binary.LittleEndian.Uint32(data[cursor:])
		out = binary.LittleEndian.AppendUint32(out, plain^prev^tw.Next())
		prev = plain
	}
	return out
}

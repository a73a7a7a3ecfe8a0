// SPDX-License-Identifier: GPL-2.0-or-later

// Package crypt implements the obfuscation layer of the BIN archives:
// a standard MT19937 generator keyed on the file name, chained XOR
// over 32-bit words, and the trailing signature that marks a file as
// encrypted.
package crypt

const (
	mersenneLength = 624
	mersenneInit   = 0x6C078965

	twistUpper = 0x80000000
	twistLower = 0x7FFFFFFF
	twistMask  = 0x9908B0DF

	temperMask1 = 0x9D2C5680
	temperMask2 = 0xEFC60000
)

// MT19937 is the stock 32-bit Mersenne Twister. The game uses it
// unmodified, so reference vectors for the published algorithm apply.
type MT19937 struct {
	index int
	table [mersenneLength]uint32
}

func NewMT19937(seed uint32) *MT19937 {
	m := &MT19937{}
	m.Seed(seed)
	return m
}

func (m *MT19937) Seed(seed uint32) {
	m.table[0] = seed
	for i := 1; i < mersenneLength; i++ {
		prev := m.table[i-1]
		m.table[i] = mersenneInit*(prev^prev>>30) + uint32(i)
	}
	m.index = mersenneLength
}

func (m *MT19937) twist() {
	for i := 0; i < mersenneLength; i++ {
		value := m.table[i]&twistUpper + m.table[(i+1)%mersenneLength]&twistLower
		m.table[i] = m.table[(i+397)%mersenneLength] ^ value>>1
		if value&1 != 0 {
			m.table[i] ^= twistMask
		}
	}
	m.index = 0
}

// Next returns the next tempered output word.
func (m *MT19937) Next() uint32 {
	if m.index >= mersenneLength {
		m.twist()
	}
	v := m.table[m.index]
	m.index++

	v ^= v >> 11
	v ^= v << 7 & temperMask1
	v ^= v << 15 & temperMask2
	v ^= v >> 18
	return v
}

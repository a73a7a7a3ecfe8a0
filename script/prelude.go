// SPDX-License-Identifier: GPL-2.0-or-later

package script

import "fmt"

// preludeSize returns the byte length of the play-data block in front
// of the action stream. The dispatch is not self-describing: the
// discriminant at byte 0x01 selects either the short form, the
// five-chain-table form, or one of four sizes chosen by the flag bits
// at byte 0x50.
func preludeSize(data []byte) (int, error) {
	if len(data) < 2 {
		return 0, ErrTooShort
	}

	var size int
	switch data[0x01] {
	case 0x01:
		size = 0x80
	case 0x05:
		// Five chain tables.
		size = 0x300
	default:
		if len(data) < 0x51 {
			return 0, fmt.Errorf("%w: no flag byte at 0x50", ErrTooShort)
		}
		switch data[0x50] & 0x03 {
		case 0x00:
			size = 0x100
		case 0x01:
			size = 0x180
		case 0x02:
			size = 0x200
		default:
			size = 0x280
		}
	}

	// Isuka hack: one character's data carries 0xE5 at the computed
	// cursor and wants the prelude doubled. Known workaround for that
	// single case; do not generalize.
	if size < len(data) && data[size] == 0xE5 {
		size *= 2
	}
	return size, nil
}

// SPDX-License-Identifier: GPL-2.0-or-later

// Package cell reads and writes the hitbox cell records of scriptable
// objects: a box list plus the sprite reference used by the animation
// system.
package cell

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	baseLen = 0x10 // count + trailer
	boxLen  = 0xC
)

var ErrTooShort = errors.New("cell: data too short")

// Box is a single hitbox. Offsets are in pixels from the object
// origin; the crop offsets only matter for type 3/6 boxes and are
// multiplied by 8 in game.
type Box struct {
	XOffset     int16
	YOffset     int16
	Width       uint16
	Height      uint16
	Type        uint16
	CropXOffset uint8
	CropYOffset uint8
}

// Cell is one animation cell: its hitboxes and sprite reference.
type Cell struct {
	Boxes         []Box
	SpriteXOffset int16
	SpriteYOffset int16
	Unknown1      uint32
	SpriteIndex   uint16
	Unknown2      uint16
}

// Decode parses a binary cell record. Padding past the trailer is
// ignored.
func Decode(data []byte) (*Cell, error) {
	if len(data) < baseLen {
		return nil, ErrTooShort
	}
	count := int(binary.LittleEndian.Uint32(data))
	if len(data) < baseLen+boxLen*count {
		return nil, fmt.Errorf("%w: %d boxes in %d bytes", ErrTooShort, count, len(data))
	}

	c := &Cell{Boxes: make([]Box, 0, count)}
	p := 4
	for i := 0; i < count; i++ {
		c.Boxes = append(c.Boxes, Box{
			XOffset:     int16(binary.LittleEndian.Uint16(data[p:])),
			YOffset:     int16(binary.LittleEndian.Uint16(data[p+2:])),
			Width:       binary.LittleEndian.Uint16(data[p+4:]),
			Height:      binary.LittleEndian.Uint16(data[p+6:]),
			Type:        binary.LittleEndian.Uint16(data[p+8:]),
			CropXOffset: data[p+10],
			CropYOffset: data[p+11],
		})
		p += boxLen
	}

	c.SpriteXOffset = int16(binary.LittleEndian.Uint16(data[p:]))
	c.SpriteYOffset = int16(binary.LittleEndian.Uint16(data[p+2:]))
	c.Unknown1 = binary.LittleEndian.Uint32(data[p+4:])
	c.SpriteIndex = binary.LittleEndian.Uint16(data[p+8:])
	c.Unknown2 = binary.LittleEndian.Uint16(data[p+10:])
	return c, nil
}

// Encode serializes the cell, 0xFF-padded to a 16-byte boundary.
func (c *Cell) Encode() []byte {
	n := baseLen + boxLen*len(c.Boxes)
	padded := n
	if padded%0x10 != 0 {
		padded += 0x10 - padded%0x10
	}

	out := make([]byte, padded)
	binary.LittleEndian.PutUint32(out, uint32(len(c.Boxes)))
	p := 4
	for _, b := range c.Boxes {
		binary.LittleEndian.PutUint16(out[p:], uint16(b.XOffset))
		binary.LittleEndian.PutUint16(out[p+2:], uint16(b.YOffset))
		binary.LittleEndian.PutUint16(out[p+4:], b.Width)
		binary.LittleEndian.PutUint16(out[p+6:], b.Height)
		binary.LittleEndian.PutUint16(out[p+8:], b.Type)
		out[p+10] = b.CropXOffset
		out[p+11] = b.CropYOffset
		p += boxLen
	}

	binary.LittleEndian.PutUint16(out[p:], uint16(c.SpriteXOffset))
	binary.LittleEndian.PutUint16(out[p+2:], uint16(c.SpriteYOffset))
	binary.LittleEndian.PutUint32(out[p+4:], c.Unknown1)
	binary.LittleEndian.PutUint16(out[p+8:], c.SpriteIndex)
	binary.LittleEndian.PutUint16(out[p+10:], c.Unknown2)

	for i := n; i < padded; i++ {
		out[i] = 0xFF
	}
	return out
}

// ClampSpriteIndex keeps the sprite reference within the available
// sprite range.
func (c *Cell) ClampSpriteIndex(max uint16) {
	if c.SpriteIndex > max {
		c.SpriteIndex = max
	}
}

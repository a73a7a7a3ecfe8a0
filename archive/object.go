// SPDX-License-Identifier: GPL-2.0-or-later

package archive

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/saltern/ggpr-bin/cell"
	"github.com/saltern/ggpr-bin/palette"
	"github.com/saltern/ggpr-bin/sprite"
)

// Object is one decoded entry of a BIN file. Unrecognized entries stay
// as Raw so a read-then-write of an archive is lossless.
type Object interface {
	Type() ObjectType
	Encode() ([]byte, error)
}

// Raw is a passthrough blob: audio arrays, Wii TPL textures and
// anything the identifier cannot place.
type Raw struct {
	Kind ObjectType
	Data []byte
}

func (r *Raw) Type() ObjectType        { return r.Kind }
func (r *Raw) Encode() ([]byte, error) { return r.Data, nil }

// SpriteEntry is a sprite plus the storage mode it came with, so a
// repack keeps compressed records compressed.
type SpriteEntry struct {
	Sprite     *sprite.Sprite
	Compressed bool
}

func (e *SpriteEntry) Encode() ([]byte, error) {
	return e.Sprite.Encode(e.Compressed)
}

// SingleSprite is a file that holds one bare sprite record.
type SingleSprite struct {
	SpriteEntry
}

func (s *SingleSprite) Type() ObjectType { return TypeSprite }

// SpriteList is a pointer table of sprite records.
type SpriteList struct {
	Sprites []*SpriteEntry
}

func (s *SpriteList) Type() ObjectType { return TypeSpriteList }

func (s *SpriteList) Encode() ([]byte, error) {
	blobs, err := encodeSprites(s.Sprites)
	if err != nil {
		return nil, err
	}
	return packTable(blobs), nil
}

// SelectBitmask is the width*height selection grid trailing a
// character-select sprite list.
type SelectBitmask struct {
	Width  uint32
	Height uint32
	Cells  []byte
}

func (b *SelectBitmask) encode() []byte {
	target := 8 + len(b.Cells)
	out := make([]byte, 0, target+target%0x10)
	out = binary.LittleEndian.AppendUint32(out, b.Width)
	out = binary.LittleEndian.AppendUint32(out, b.Height)
	out = append(out, b.Cells...)
	out = append(out, make([]byte, target%0x10)...)
	return out
}

// SpriteListSelect is a sprite list whose final entry is a selection
// bitmask. Tables with more than 179 pointers keep the bitmask at slot
// 178 and carry further raw entries behind it.
type SpriteListSelect struct {
	Sprites []*SpriteEntry
	Bitmask SelectBitmask
	Extra   [][]byte
}

func (s *SpriteListSelect) Type() ObjectType { return TypeSpriteListSelect }

func (s *SpriteListSelect) Encode() ([]byte, error) {
	blobs, err := encodeSprites(s.Sprites)
	if err != nil {
		return nil, err
	}
	blobs = append(blobs, s.Bitmask.encode())
	blobs = append(blobs, s.Extra...)
	return packTable(blobs), nil
}

// JPFPlainText is a font archive: a character index blob followed by
// sprite records.
type JPFPlainText struct {
	CharIndex []byte
	Sprites   []*SpriteEntry
}

func (j *JPFPlainText) Type() ObjectType { return TypeJPFPlainText }

func (j *JPFPlainText) Encode() ([]byte, error) {
	blobs, err := encodeSprites(j.Sprites)
	if err != nil {
		return nil, err
	}
	return packTable(append([][]byte{j.CharIndex}, blobs...)), nil
}

// Scriptable is a game object: cells, sprites, a behavior script and
// for player objects a set of palettes. The script stays as raw bytes
// here; decoding it needs an instruction table the file does not
// carry.
type Scriptable struct {
	Cells    []*cell.Cell
	Sprites  []*SpriteEntry
	Script   []byte
	Palettes []palette.Palette
}

func (s *Scriptable) Type() ObjectType { return TypeScriptable }

// Encode lays the object out the way the game expects: a header table
// of absolute section pointers (0x10 bytes without palettes, 0x20
// with), then the cell, sprite, script and palette sections. Cells,
// sprites and palettes each sit behind a nested pointer table of their
// own.
func (s *Scriptable) Encode() ([]byte, error) {
	cellBlobs := make([][]byte, 0, len(s.Cells))
	for _, c := range s.Cells {
		cellBlobs = append(cellBlobs, c.Encode())
	}
	binCells := packTable(cellBlobs)

	spriteBlobs, err := encodeSprites(s.Sprites)
	if err != nil {
		return nil, err
	}
	binSprites := packTable(spriteBlobs)

	palBlobs := make([][]byte, 0, len(s.Palettes))
	for _, p := range s.Palettes {
		b, err := p.ToBin()
		if err != nil {
			return nil, err
		}
		palBlobs = append(palBlobs, b)
	}
	var binPalettes []byte
	if len(palBlobs) > 0 {
		binPalettes = packTable(palBlobs)
	}

	headerSize := uint32(0x10)
	if len(binPalettes) > 0 {
		headerSize = 0x20
	}
	pointerCells := headerSize
	pointerSprites := pointerCells + uint32(len(binCells))
	pointerScripts := pointerSprites + uint32(len(binSprites))

	out := make([]byte, 0, int(headerSize)+len(binCells)+len(binSprites)+len(s.Script)+len(binPalettes))
	out = binary.LittleEndian.AppendUint32(out, pointerCells)
	out = binary.LittleEndian.AppendUint32(out, pointerSprites)
	out = binary.LittleEndian.AppendUint32(out, pointerScripts)
	if len(binPalettes) > 0 {
		out = binary.LittleEndian.AppendUint32(out, pointerScripts+uint32(len(s.Script)))
		out = binary.LittleEndian.AppendUint32(out, Sentinel)
		out = binary.LittleEndian.AppendUint32(out, Sentinel)
		out = binary.LittleEndian.AppendUint32(out, Sentinel)
	}
	out = binary.LittleEndian.AppendUint32(out, Sentinel)

	out = append(out, binCells...)
	out = append(out, binSprites...)
	out = append(out, s.Script...)
	out = append(out, binPalettes...)
	return out, nil
}

// MultiScriptable is a pointer table of scriptable objects.
type MultiScriptable struct {
	Objects []*Scriptable
}

func (m *MultiScriptable) Type() ObjectType { return TypeMultiScriptable }

func (m *MultiScriptable) Encode() ([]byte, error) {
	blobs := make([][]byte, 0, len(m.Objects))
	for _, o := range m.Objects {
		b, err := o.Encode()
		if err != nil {
			return nil, err
		}
		blobs = append(blobs, b)
	}
	return packTable(blobs), nil
}

func encodeSprites(entries []*SpriteEntry) ([][]byte, error) {
	blobs := make([][]byte, 0, len(entries))
	for i, e := range entries {
		b, err := e.Encode()
		if err != nil {
			return nil, errors.Wrapf(err, "sprite %d", i)
		}
		blobs = append(blobs, b)
	}
	return blobs, nil
}

// DecodeObject identifies one blob and decodes it into its structured
// form. Blobs the identifier cannot place come back as Raw.
func DecodeObject(data []byte) (Object, error) {
	kind := Identify(data)
	switch kind {
	case TypeSprite:
		e, err := decodeSpriteEntry(data)
		if err != nil {
			return nil, err
		}
		return &SingleSprite{SpriteEntry: *e}, nil

	case TypeSpriteList:
		sprites, err := decodeSpriteTable(data)
		if err != nil {
			return nil, err
		}
		return &SpriteList{Sprites: sprites}, nil

	case TypeSpriteListSelect:
		return decodeSpriteListSelect(data)

	case TypeJPFPlainText:
		blobs, err := sliceTable(data, 0)
		if err != nil {
			return nil, err
		}
		obj := &JPFPlainText{CharIndex: blobs[0]}
		for i, b := range blobs[1:] {
			e, err := decodeSpriteEntry(b)
			if err != nil {
				return nil, errors.Wrapf(err, "sprite %d", i)
			}
			obj.Sprites = append(obj.Sprites, e)
		}
		return obj, nil

	case TypeScriptable:
		return decodeScriptable(data)

	case TypeMultiScriptable:
		blobs, err := sliceTable(data, 0)
		if err != nil {
			return nil, err
		}
		obj := &MultiScriptable{}
		for i, b := range blobs {
			sub, err := decodeScriptable(b)
			if err != nil {
				return nil, errors.Wrapf(err, "object %d", i)
			}
			obj.Objects = append(obj.Objects, sub)
		}
		return obj, nil
	}
	return &Raw{Kind: kind, Data: data}, nil
}

func decodeSpriteEntry(data []byte) (*SpriteEntry, error) {
	spr, err := sprite.Decode(data)
	if err != nil {
		return nil, err
	}
	return &SpriteEntry{Sprite: spr, Compressed: data[0] == 1}, nil
}

func decodeSpriteTable(data []byte) ([]*SpriteEntry, error) {
	blobs, err := sliceTable(data, 0)
	if err != nil {
		return nil, err
	}
	sprites := make([]*SpriteEntry, 0, len(blobs))
	for i, b := range blobs {
		e, err := decodeSpriteEntry(b)
		if err != nil {
			return nil, errors.Wrapf(err, "sprite %d", i)
		}
		sprites = append(sprites, e)
	}
	return sprites, nil
}

func decodeSpriteListSelect(data []byte) (*SpriteListSelect, error) {
	blobs, err := sliceTable(data, 0)
	if err != nil {
		return nil, err
	}
	maskIdx := len(blobs) - 1
	if len(blobs) > 179 {
		maskIdx = 178
	}

	obj := &SpriteListSelect{}
	for i, b := range blobs[:maskIdx] {
		e, err := decodeSpriteEntry(b)
		if err != nil {
			return nil, errors.Wrapf(err, "sprite %d", i)
		}
		obj.Sprites = append(obj.Sprites, e)
	}

	mask := blobs[maskIdx]
	if len(mask) < 8 {
		return nil, errors.Wrap(ErrTooShort, "select bitmask")
	}
	w := binary.LittleEndian.Uint32(mask)
	h := binary.LittleEndian.Uint32(mask[4:])
	if uint64(8)+uint64(w)*uint64(h) > uint64(len(mask)) {
		return nil, errors.Wrap(ErrTooShort, "select bitmask")
	}
	obj.Bitmask = SelectBitmask{Width: w, Height: h, Cells: mask[8 : 8+w*h]}

	if maskIdx+1 < len(blobs) {
		obj.Extra = blobs[maskIdx+1:]
	}
	return obj, nil
}

// decodeScriptable splits a scriptable blob into its sections. Two to
// four header pointers delimit cells, sprites, script and palettes;
// each section except the script carries a nested pointer table.
func decodeScriptable(data []byte) (*Scriptable, error) {
	pointers := Pointers(data, 0, false)
	if len(pointers) < 2 {
		return nil, errors.Wrap(ErrTooShort, "scriptable header")
	}

	section := func(i int) ([]byte, error) {
		start := int(pointers[i])
		end := len(data)
		if i+1 < len(pointers) {
			end = int(pointers[i+1])
		}
		if start > end || end > len(data) {
			return nil, errors.Wrapf(ErrMalformedPointer, "section %d", i)
		}
		return data[start:end], nil
	}

	obj := &Scriptable{}

	cells, err := section(0)
	if err != nil {
		return nil, err
	}
	cellBlobs, err := sliceTable(cells, 0)
	if err != nil {
		return nil, err
	}
	for i, b := range cellBlobs {
		c, err := cell.Decode(b)
		if err != nil {
			return nil, errors.Wrapf(err, "cell %d", i)
		}
		obj.Cells = append(obj.Cells, c)
	}

	sprites, err := section(1)
	if err != nil {
		return nil, err
	}
	obj.Sprites, err = decodeSpriteTable(sprites)
	if err != nil {
		return nil, err
	}

	if len(pointers) > 2 {
		obj.Script, err = section(2)
		if err != nil {
			return nil, err
		}
	}

	if len(pointers) > 3 {
		pals, err := section(3)
		if err != nil {
			return nil, err
		}
		palBlobs, err := sliceTable(pals, 0)
		if err != nil {
			return nil, err
		}
		for i, b := range palBlobs {
			p, err := palette.FromBin(b)
			if err != nil {
				return nil, errors.Wrapf(err, "palette %d", i)
			}
			obj.Palettes = append(obj.Palettes, p)
		}
	}
	return obj, nil
}

// SPDX-License-Identifier: GPL-2.0-or-later

package archive

import "encoding/binary"

// ObjectType classifies a byte blob, either a whole file or one entry
// of a pointer table.
type ObjectType int

const (
	TypeUnsupported ObjectType = iota
	TypeAudioWBND
	TypeAudioVAGP
	TypeSprite
	TypeSpriteList
	TypeSpriteListSelect
	TypeJPFPlainText
	TypeWiiTPL
	TypeScriptable
	TypeMultiScriptable
)

var typeNames = map[ObjectType]string{
	TypeUnsupported:      "unsupported",
	TypeAudioWBND:        "audio_wbnd",
	TypeAudioVAGP:        "audio_vagp",
	TypeSprite:           "sprite",
	TypeSpriteList:       "sprite_list",
	TypeSpriteListSelect: "sprite_list_select",
	TypeJPFPlainText:     "jpf_plain_text",
	TypeWiiTPL:           "wii_tpl",
	TypeScriptable:       "scriptable",
	TypeMultiScriptable:  "multi_scriptable",
}

func (t ObjectType) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return "unsupported"
}

const (
	wbndSignature      = 0x444E4257
	vagpSignature      = 0x56414770
	charIndexSignature = 0x082A2000
	wiiTPLSignature    = 0x0020AF30
	paletteSignature   = 0x03002000
)

// spriteSignature reports whether the six bytes at cursor look like a
// sprite header: mode 0 or 1, clut 0 or 0x20, bit depth 4 or 8, all
// as little-endian 16-bit words.
func spriteSignature(data []byte, cursor int) bool {
	if cursor < 0 || cursor+6 > len(data) {
		return false
	}
	mode := binary.LittleEndian.Uint16(data[cursor:])
	clut := binary.LittleEndian.Uint16(data[cursor+2:])
	depth := binary.LittleEndian.Uint16(data[cursor+4:])
	return (mode == 0 || mode == 1) &&
		(clut == 0 || clut == 0x20) &&
		(depth == 4 || depth == 8)
}

// Identify runs the structural checks in order of decreasing
// specificity and returns the first match. The order matters: a
// scriptable object also passes weaker checks, so the stricter ones
// come first.
func Identify(data []byte) ObjectType {
	switch {
	case identifyAudioWBND(data):
		return TypeAudioWBND
	case identifyAudioVAGP(data):
		return TypeAudioVAGP
	case identifySprite(data):
		return TypeSprite
	case identifySpriteListSelect(data):
		return TypeSpriteListSelect
	case identifySpriteList(data):
		return TypeSpriteList
	case identifyJPFPlainText(data):
		return TypeJPFPlainText
	case identifyWiiTPL(data):
		return TypeWiiTPL
	case identifyScriptable(data):
		return TypeScriptable
	case identifyMultiScriptable(data):
		return TypeMultiScriptable
	}
	return TypeUnsupported
}

func identifyAudioWBND(data []byte) bool {
	pointers := Pointers(data, 0, true)
	return len(pointers) > 0 && pointers[0] == wbndSignature
}

func identifyAudioVAGP(data []byte) bool {
	pointers := Pointers(data, 0, true)
	if len(pointers) == 0 {
		return false
	}
	target := int(pointers[0])
	if target < 0 || target+4 > len(data) {
		return false
	}
	return binary.BigEndian.Uint32(data[target:]) == vagpSignature
}

func identifySprite(data []byte) bool {
	return len(data) >= 0x20 && spriteSignature(data, 0)
}

func identifySpriteList(data []byte) bool {
	pointers := Pointers(data, 0, false)
	if len(pointers) == 0 {
		return false
	}
	return spriteSignature(data, int(pointers[0]))
}

// identifySpriteListSelect recognizes sprite lists whose last entry is
// a selection bitmask: two 32-bit dimensions followed by width*height
// cells, padded out to a 16-byte boundary. Tables with more than 179
// pointers keep the bitmask at a fixed slot instead of the end.
func identifySpriteListSelect(data []byte) bool {
	if !identifySpriteList(data) {
		return false
	}
	pointers := Pointers(data, 0, false)
	start, end := 0, len(data)
	if len(pointers) > 179 {
		start = int(pointers[178])
		end = int(pointers[179])
	} else {
		start = int(pointers[len(pointers)-1])
	}
	if start < 0 || start+8 > end || end > len(data) {
		return false
	}
	w := binary.LittleEndian.Uint32(data[start:])
	h := binary.LittleEndian.Uint32(data[start+4:])
	target := 8 + uint64(w)*uint64(h)
	return uint64(end-start) == target+target%0x10
}

func identifyJPFPlainText(data []byte) bool {
	pointers := Pointers(data, 0, false)
	if len(pointers) < 2 {
		return false
	}
	target := int(pointers[0])
	if target < 0 || target+4 > len(data) {
		return false
	}
	if binary.BigEndian.Uint32(data[target:]) != charIndexSignature {
		return false
	}
	return spriteSignature(data, int(pointers[1]))
}

func identifyWiiTPL(data []byte) bool {
	return len(data) >= 4 && binary.BigEndian.Uint32(data) == wiiTPLSignature
}

// identifyScriptable checks the cell/sprite/script layout: two to four
// header pointers, a run of cell records whose sizes match their box
// counts, a sprite signature behind one indirection, and for four
// pointer headers a palette signature behind the last one.
func identifyScriptable(data []byte) bool {
	pointers := Pointers(data, 0, false)
	if len(pointers) < 2 || len(pointers) > 4 {
		return false
	}

	if len(pointers) == 4 {
		base := int(pointers[3])
		if base < 0 || base+4 > len(data) {
			return false
		}
		target := base + int(binary.LittleEndian.Uint32(data[base:]))
		if target < 0 || target+4 > len(data) {
			return false
		}
		if binary.BigEndian.Uint32(data[target:]) != paletteSignature {
			return false
		}
	}

	cursor := int(pointers[0])
	if cursor < 0 || cursor > len(data) {
		return false
	}
	cellPointers := Pointers(data, cursor, false)
	if len(cellPointers) > 3 {
		cellPointers = cellPointers[:3]
	}
	if len(cellPointers) < 2 {
		cellPointers = append(cellPointers, pointers[1]-pointers[0])
	}
	for i := 0; i+1 < len(cellPointers); i++ {
		start := cursor + int(cellPointers[i])
		end := cursor + int(cellPointers[i+1])
		if start < 0 || start+4 > end || end > len(data) {
			return false
		}
		boxCount := binary.LittleEndian.Uint32(data[start:])
		target := 0x10 + 0xC*uint64(boxCount)
		if r := target % 0x10; r != 0 {
			target += 0x10 - r
		}
		if uint64(end-start) != target {
			return false
		}
	}

	base := int(pointers[1])
	if base < 0 || base+4 > len(data) {
		return false
	}
	sprite := base + int(binary.LittleEndian.Uint32(data[base:]))
	if sprite < 0 || sprite+0x20 > len(data) {
		return false
	}
	return spriteSignature(data, sprite)
}

// identifyMultiScriptable checks for a table of objects that each
// carry exactly three sub-pointers, the second of which resolves to a
// sprite signature through one more indirection.
func identifyMultiScriptable(data []byte) bool {
	pointers := Pointers(data, 0, false)
	if len(pointers) == 0 {
		return false
	}
	for _, p := range pointers {
		cursor := int(p)
		if cursor < 0 || cursor > len(data) {
			return false
		}
		sub := Pointers(data, cursor, false)
		if len(sub) != 3 {
			return false
		}
		base := cursor + int(sub[1])
		if base < 0 || base+4 > len(data) {
			return false
		}
		sprite := base + int(binary.LittleEndian.Uint32(data[base:]))
		if !spriteSignature(data, sprite) {
			return false
		}
	}
	return true
}

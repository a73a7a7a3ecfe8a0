// SPDX-License-Identifier: GPL-2.0-or-later

package cell

import "encoding/json"

// The directory-mode interchange form. box_type packs the type word
// and both crop offsets into one value.
type jsonBox struct {
	XOffset int16  `json:"x_offset"`
	YOffset int16  `json:"y_offset"`
	Width   uint16 `json:"width"`
	Height  uint16 `json:"height"`
	Type    uint32 `json:"box_type"`
}

type jsonSpriteInfo struct {
	Index   uint16 `json:"index"`
	Unk     uint32 `json:"unk"`
	XOffset int16  `json:"x_offset"`
	YOffset int16  `json:"y_offset"`
}

type jsonCell struct {
	Boxes      []jsonBox      `json:"boxes"`
	SpriteInfo jsonSpriteInfo `json:"sprite_info"`
}

func (c *Cell) MarshalJSON() ([]byte, error) {
	j := jsonCell{
		Boxes: make([]jsonBox, 0, len(c.Boxes)),
		SpriteInfo: jsonSpriteInfo{
			Index:   c.SpriteIndex,
			Unk:     c.Unknown1,
			XOffset: c.SpriteXOffset,
			YOffset: c.SpriteYOffset,
		},
	}
	for _, b := range c.Boxes {
		j.Boxes = append(j.Boxes, jsonBox{
			XOffset: b.XOffset,
			YOffset: b.YOffset,
			Width:   b.Width,
			Height:  b.Height,
			Type:    uint32(b.Type) | uint32(b.CropXOffset)<<16 | uint32(b.CropYOffset)<<24,
		})
	}
	return json.Marshal(j)
}

func (c *Cell) UnmarshalJSON(data []byte) error {
	var j jsonCell
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	c.Boxes = make([]Box, 0, len(j.Boxes))
	for _, b := range j.Boxes {
		c.Boxes = append(c.Boxes, Box{
			XOffset:     b.XOffset,
			YOffset:     b.YOffset,
			Width:       b.Width,
			Height:      b.Height,
			Type:        uint16(b.Type & 0xFFFF),
			CropXOffset: uint8(b.Type >> 16 & 0xFF),
			CropYOffset: uint8(b.Type >> 24 & 0xFF),
		})
	}
	c.SpriteIndex = j.SpriteInfo.Index
	c.Unknown1 = j.SpriteInfo.Unk
	c.SpriteXOffset = j.SpriteInfo.XOffset
	c.SpriteYOffset = j.SpriteInfo.YOffset
	c.Unknown2 = 0
	return nil
}

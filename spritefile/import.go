// SPDX-License-Identifier: GPL-2.0-or-later

// Package spritefile converts sprites between the game's record format
// and editing formats: PNG, BMP, RAW pixel dumps and bare .bin records.
package spritefile

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/saltern/ggpr-bin/palette"
	"github.com/saltern/ggpr-bin/sprite"
	"github.com/saltern/ggpr-bin/transform"
)

var (
	ErrUnknownFormat = errors.New("spritefile: unknown source format")
	ErrEmptyImage    = errors.New("spritefile: image has no pixels")
	ErrNoDimensions  = errors.New("spritefile: raw file name carries no dimensions")
)

// DepthMode selects the bit depth of an imported sprite.
type DepthMode int

const (
	DepthKeep   DepthMode = iota // source depth, at least 4
	DepthForce4                  // force 4bpp
	DepthForce8                  // force 8bpp
)

// ImportOptions mirror the importer switches of the sprite editor.
type ImportOptions struct {
	EmbedPalette bool
	HalveAlpha   bool
	FlipH        bool
	FlipV        bool
	AsRGB        bool
	Reindex      bool
	Depth        DepthMode
}

// Import reads one sprite from a PNG, BMP, RAW or .bin file and
// applies the import options in editor order.
func Import(path string, opts ImportOptions) (*sprite.Sprite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "spritefile")
	}

	var s *sprite.Sprite
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		s, err = importPNG(data)
	case ".bmp":
		s, err = importBMP(data)
	case ".raw":
		s, err = importRAW(path, data)
	case ".bin":
		s, err = sprite.Decode(data)
	default:
		return nil, errors.Wrap(ErrUnknownFormat, filepath.Ext(path))
	}
	if err != nil {
		return nil, errors.Wrap(err, filepath.Base(path))
	}
	if s.Width == 0 || s.Height == 0 {
		return nil, errors.Wrap(ErrEmptyImage, filepath.Base(path))
	}
	applyImportOptions(s, opts)
	return s, nil
}

func applyImportOptions(s *sprite.Sprite, opts ImportOptions) {
	// Has to happen before the palette is embedded or dropped.
	if opts.AsRGB && len(s.Palette) > 0 {
		s.Pixels = transform.IndexedAsRGB(s.Pixels, s.Palette)
	}

	if opts.EmbedPalette && len(s.Palette) > 0 {
		colors := 1 << s.BitDepth
		if len(s.Palette) < 4*colors {
			// Pad out with black; added slots take the banding
			// alpha, counted from the first added color.
			added := colors - len(s.Palette)/4
			for i := 0; i < added; i++ {
				s.Palette = append(s.Palette, 0, 0, 0, palette.BandingAlpha(i))
			}
		} else {
			s.Palette = s.Palette[:4*colors]
		}
	} else {
		s.Palette = nil
	}

	if opts.HalveAlpha {
		s.Palette = transform.AlphaHalve(s.Palette)
	}
	if opts.FlipH {
		s.Pixels = transform.FlipH(s.Pixels, int(s.Width), int(s.Height))
	}
	if opts.FlipV {
		s.Pixels = transform.FlipV(s.Pixels, int(s.Width), int(s.Height))
	}
	if opts.Reindex {
		s.Pixels = transform.Reindex(s.Pixels)
	}

	switch opts.Depth {
	case DepthForce4:
		s.BitDepth = 4
	case DepthForce8:
		s.BitDepth = 8
	default:
		if s.BitDepth < 4 {
			s.BitDepth = 4
		}
	}
}

// importRAW wraps a headerless pixel dump. The dimensions come from
// the file name: pieces of the form -w-N and -h-M.
func importRAW(path string, data []byte) (*sprite.Sprite, error) {
	name := strings.ToLower(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
	pieces := strings.Split(name, "-")

	var width, height uint64
	for i, piece := range pieces {
		if i+1 >= len(pieces) {
			break
		}
		switch piece {
		case "w":
			width, _ = strconv.ParseUint(pieces[i+1], 10, 16)
		case "h":
			height, _ = strconv.ParseUint(pieces[i+1], 10, 16)
		}
	}
	if width == 0 || height == 0 {
		return nil, ErrNoDimensions
	}

	return &sprite.Sprite{
		Pixels:   data,
		Width:    uint16(width),
		Height:   uint16(height),
		BitDepth: 8,
	}, nil
}

// SPDX-License-Identifier: GPL-2.0-or-later

package spritefile

import (
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/pkg/errors"

	"github.com/saltern/ggpr-bin/sprite"
	"github.com/saltern/ggpr-bin/transform"
)

// AlphaMode adjusts palette alphas on the way out.
type AlphaMode int

const (
	AlphaAsIs AlphaMode = iota
	AlphaDouble
	AlphaHalve
	AlphaOpaque
)

// ExportOptions mirror the exporter switches of the sprite editor.
// External supplies the palette when the sprite has none embedded, or
// always when Override is set.
type ExportOptions struct {
	IncludePalette bool
	External       []byte
	Alpha          AlphaMode
	Override       bool
	Reindex        bool
}

func (o ExportOptions) selectPalette(s *sprite.Sprite) []byte {
	if len(s.Palette) == 0 || o.Override || !o.IncludePalette {
		return append([]byte(nil), o.External...)
	}
	return append([]byte(nil), s.Palette...)
}

func (o ExportOptions) applyAlpha(pal []byte) []byte {
	for i := 3; i < len(pal); i += 4 {
		switch o.Alpha {
		case AlphaDouble:
			if pal[i] >= 0x80 {
				pal[i] = 0xFF
			} else {
				pal[i] *= 2
			}
		case AlphaHalve:
			pal[i] /= 2
		case AlphaOpaque:
			pal[i] = 0xFF
		}
	}
	return pal
}

// ExportBIN serializes the sprite as an uncompressed .bin record,
// honoring the palette selection and alpha mode.
func ExportBIN(s *sprite.Sprite, opts ExportOptions) ([]byte, error) {
	out := &sprite.Sprite{
		Pixels:   s.Pixels,
		Width:    s.Width,
		Height:   s.Height,
		BitDepth: s.BitDepth,
	}
	if opts.IncludePalette {
		out.Palette = opts.applyAlpha(opts.selectPalette(s))
	}
	if opts.Reindex {
		out.Pixels = transform.Reindex(out.Pixels)
	}
	return out.Encode(false)
}

// ExportRAW returns the bare pixel dump.
func ExportRAW(s *sprite.Sprite, opts ExportOptions) []byte {
	if opts.Reindex {
		return transform.Reindex(s.Pixels)
	}
	return append([]byte(nil), s.Pixels...)
}

// RawName is the dump file name carrying the dimensions the importer
// parses back out.
func RawName(index int, s *sprite.Sprite) string {
	return fmt.Sprintf("sprite_%d-W-%d-H-%d.raw", index, s.Width, s.Height)
}

// ExportSprites writes a batch of sprites into dir in the given format
// ("bin", "png", "bmp" or "raw"), numbering files from startIndex.
// Sprites that fail to convert are logged and skipped.
func ExportSprites(dir, format string, sprites []*sprite.Sprite, startIndex int, opts ExportOptions) error {
	if _, err := os.Stat(dir); err != nil {
		return errors.Wrap(err, "export directory")
	}

	for i, s := range sprites {
		index := startIndex + i
		var err error
		switch format {
		case "bin":
			var data []byte
			if data, err = ExportBIN(s, opts); err == nil {
				err = os.WriteFile(filepath.Join(dir, fmt.Sprintf("sprite_%d.bin", index)), data, 0o644)
			}
		case "png":
			var img *image.Paletted
			if img, err = PalettedImage(s, opts); err == nil {
				err = imgio.Save(filepath.Join(dir, fmt.Sprintf("sprite_%d.png", index)), img, imgio.PNGEncoder())
			}
		case "bmp":
			var data []byte
			if data, err = ExportBMP(s, opts); err == nil {
				err = os.WriteFile(filepath.Join(dir, fmt.Sprintf("sprite_%d.bmp", index)), data, 0o644)
			}
		case "raw":
			err = os.WriteFile(filepath.Join(dir, RawName(index, s)), ExportRAW(s, opts), 0o644)
		default:
			return errors.Wrap(ErrUnknownFormat, format)
		}
		if err != nil {
			log.Printf("spritefile: sprite %d: %v", index, err)
		}
	}
	return nil
}

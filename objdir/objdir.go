// SPDX-License-Identifier: GPL-2.0-or-later

// Package objdir lays decoded objects out as editing directories:
// cells as JSON, sprites as compressed .bin records, palettes as .bin
// palettes in a sibling directory. Loading follows natural file name
// order so sprite_10 sorts after sprite_9.
package objdir

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/maruel/natural"
	"github.com/pkg/errors"

	"github.com/saltern/ggpr-bin/archive"
	"github.com/saltern/ggpr-bin/cell"
	"github.com/saltern/ggpr-bin/palette"
	"github.com/saltern/ggpr-bin/sprite"
)

var ErrNoSprites = errors.New("objdir: object directory has no sprites")

// Save writes the object under dir. Cells and sprites are written to
// fresh staging directories first and swapped in with renames, so a
// failed save does not clobber the previous state. Palettes go to a
// palettes directory next to dir, matching where player objects keep
// them.
func Save(dir string, obj *archive.Scriptable) error {
	if err := saveCells(dir, obj.Cells); err != nil {
		return err
	}
	if err := saveSprites(dir, obj.Sprites); err != nil {
		return err
	}
	return savePalettes(dir, obj.Palettes)
}

func saveCells(dir string, cells []*cell.Cell) error {
	if len(cells) == 0 {
		return nil
	}
	staging := filepath.Join(dir, "cells_0")
	if err := os.MkdirAll(staging, 0o755); err != nil {
		return errors.Wrap(err, "objdir")
	}
	for i, c := range cells {
		data, err := json.MarshalIndent(c, "", "\t")
		if err != nil {
			return errors.Wrapf(err, "cell %d", i)
		}
		name := filepath.Join(staging, fmt.Sprintf("cell_%d.json", i))
		if err := os.WriteFile(name, data, 0o644); err != nil {
			return errors.Wrap(err, "objdir")
		}
	}
	return swapIn(staging, filepath.Join(dir, "cells"))
}

func saveSprites(dir string, sprites []*archive.SpriteEntry) error {
	staging := filepath.Join(dir, "sprites_0")
	if err := os.MkdirAll(staging, 0o755); err != nil {
		return errors.Wrap(err, "objdir")
	}
	for i, e := range sprites {
		data, err := e.Sprite.Encode(true)
		if err != nil {
			return errors.Wrapf(err, "sprite %d", i)
		}
		name := filepath.Join(staging, fmt.Sprintf("sprite_%d.bin", i))
		if err := os.WriteFile(name, data, 0o644); err != nil {
			return errors.Wrap(err, "objdir")
		}
	}
	return swapIn(staging, filepath.Join(dir, "sprites"))
}

func savePalettes(dir string, palettes []palette.Palette) error {
	if len(palettes) == 0 {
		return nil
	}
	palDir := filepath.Join(filepath.Dir(dir), "palettes")
	if err := os.MkdirAll(palDir, 0o755); err != nil {
		return errors.Wrap(err, "objdir")
	}
	for i, p := range palettes {
		data, err := p.ToBin()
		if err != nil {
			return errors.Wrapf(err, "palette %d", i)
		}
		name := filepath.Join(palDir, fmt.Sprintf("pal_%d.bin", i))
		if err := os.WriteFile(name, data, 0o644); err != nil {
			return errors.Wrap(err, "objdir")
		}
	}
	return nil
}

// swapIn replaces target with the freshly written staging directory.
func swapIn(staging, target string) error {
	next := target + "_1"
	if err := os.Rename(staging, next); err != nil {
		return errors.Wrap(err, "objdir")
	}
	if err := os.RemoveAll(target); err != nil {
		return errors.Wrap(err, "objdir")
	}
	return errors.Wrap(os.Rename(next, target), "objdir")
}

// Load reads an object directory back. An object without sprites is
// not usable, so that case fails outright; missing cells or palettes
// just leave those sections empty. Palettes are only looked for next
// to a directory named player.
func Load(dir string) (*archive.Scriptable, error) {
	obj := &archive.Scriptable{}

	spriteFiles, err := listNatural(filepath.Join(dir, "sprites"), "*.bin")
	if err != nil {
		return nil, err
	}
	for _, name := range spriteFiles {
		data, err := os.ReadFile(name)
		if err != nil {
			log.Printf("objdir: skipping %s: %v", name, err)
			continue
		}
		s, err := sprite.Decode(data)
		if err != nil || s.Width == 0 || s.Height == 0 {
			log.Printf("objdir: skipping %s: not a sprite", name)
			continue
		}
		obj.Sprites = append(obj.Sprites, &archive.SpriteEntry{Sprite: s, Compressed: true})
	}
	if len(obj.Sprites) == 0 {
		return nil, errors.Wrap(ErrNoSprites, dir)
	}

	cellFiles, err := listNatural(filepath.Join(dir, "cells"), "*.json")
	if err != nil {
		return nil, err
	}
	for _, name := range cellFiles {
		data, err := os.ReadFile(name)
		if err != nil {
			log.Printf("objdir: skipping %s: %v", name, err)
			continue
		}
		var c cell.Cell
		if err := json.Unmarshal(data, &c); err != nil {
			log.Printf("objdir: skipping %s: %v", name, err)
			continue
		}
		obj.Cells = append(obj.Cells, &c)
	}

	if filepath.Base(dir) == "player" {
		palFiles, err := listNatural(filepath.Join(filepath.Dir(dir), "palettes"), "*.bin")
		if err != nil {
			return nil, err
		}
		for _, name := range palFiles {
			data, err := os.ReadFile(name)
			if err != nil {
				continue
			}
			p, err := palette.FromBin(data)
			if err != nil {
				log.Printf("objdir: skipping %s: %v", name, err)
				continue
			}
			obj.Palettes = append(obj.Palettes, p)
		}
	}
	return obj, nil
}

// listNatural globs pattern under dir and sorts the hits in natural
// order. A missing directory is not an error, just an empty result.
func listNatural(dir, pattern string) ([]string, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, nil
	}
	files, err := doublestar.FilepathGlob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, errors.Wrap(err, "objdir")
	}
	sort.Slice(files, func(i, j int) bool { return natural.Less(files[i], files[j]) })
	return files, nil
}

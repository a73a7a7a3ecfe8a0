// SPDX-License-Identifier: GPL-2.0-or-later

package spritefile

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/saltern/ggpr-bin/palette"
	"github.com/saltern/ggpr-bin/sprite"
)

func testPalette(colors int) []byte {
	pal := make([]byte, 4*colors)
	for i := 0; i < colors; i++ {
		pal[4*i+0] = byte(i)
		pal[4*i+1] = byte(i * 2)
		pal[4*i+2] = byte(255 - i)
		pal[4*i+3] = 0x80
	}
	return pal
}

func TestBMPRoundTrip(t *testing.T) {
	src := &sprite.Sprite{
		Pixels:   []byte{1, 2, 3, 4, 5, 6},
		Width:    3,
		Height:   2,
		BitDepth: 8,
		Palette:  testPalette(256),
	}
	data, err := ExportBMP(src, ExportOptions{IncludePalette: true})
	if err != nil {
		t.Fatal(err)
	}
	if data[0] != 'B' || data[1] != 'M' {
		t.Fatalf("magic: got % X", data[:2])
	}

	got, err := importBMP(data)
	if err != nil {
		t.Fatal(err)
	}
	if got.Width != 3 || got.Height != 2 || got.BitDepth != 8 {
		t.Fatalf("shape: got %dx%d at %dbpp", got.Width, got.Height, got.BitDepth)
	}
	if !bytes.Equal(got.Pixels, src.Pixels) {
		t.Errorf("pixels: want % X got % X", src.Pixels, got.Pixels)
	}

	// RGB survives; alpha is replaced by the banding rule.
	for i := 0; i < 256; i++ {
		for c := 0; c < 3; c++ {
			if got.Palette[4*i+c] != src.Palette[4*i+c] {
				t.Fatalf("color %d channel %d: want %#x got %#x",
					i, c, src.Palette[4*i+c], got.Palette[4*i+c])
			}
		}
		if got.Palette[4*i+3] != palette.BandingAlpha(i) {
			t.Fatalf("color %d alpha: want %#x got %#x",
				i, palette.BandingAlpha(i), got.Palette[4*i+3])
		}
	}
}

func TestBMP4bppRoundTrip(t *testing.T) {
	src := &sprite.Sprite{
		Pixels:   []byte{0, 1, 2, 3, 4, 5, 6, 7},
		Width:    4,
		Height:   2,
		BitDepth: 4,
		Palette:  testPalette(16),
	}
	data, err := ExportBMP(src, ExportOptions{IncludePalette: true})
	if err != nil {
		t.Fatal(err)
	}

	got, err := importBMP(data)
	if err != nil {
		t.Fatal(err)
	}
	if got.BitDepth != 4 {
		t.Fatalf("bit depth: want 4 got %d", got.BitDepth)
	}
	if !bytes.Equal(got.Pixels, src.Pixels) {
		t.Errorf("pixels: want % X got % X", src.Pixels, got.Pixels)
	}
}

func TestBMPRejectsGarbage(t *testing.T) {
	if _, err := importBMP([]byte("not a bitmap, nowhere near one")); err == nil {
		t.Error("want error for garbage input")
	}
}

func TestPNGRoundTrip(t *testing.T) {
	src := &sprite.Sprite{
		Pixels:   []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11},
		Width:    4,
		Height:   3,
		BitDepth: 8,
		Palette:  testPalette(256),
	}

	var buf bytes.Buffer
	if err := ExportPNG(&buf, src, ExportOptions{IncludePalette: true}); err != nil {
		t.Fatal(err)
	}

	got, err := importPNG(buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if got.Width != 4 || got.Height != 3 {
		t.Fatalf("shape: got %dx%d", got.Width, got.Height)
	}
	if !bytes.Equal(got.Pixels, src.Pixels) {
		t.Errorf("pixels: want % X got % X", src.Pixels, got.Pixels)
	}
	if !bytes.Equal(got.Palette, src.Palette) {
		t.Error("palette mismatch after PNG round trip")
	}
}

func TestPNG4bpp(t *testing.T) {
	src := &sprite.Sprite{
		Pixels:   []byte{0, 15, 7, 8},
		Width:    2,
		Height:   2,
		BitDepth: 4,
		Palette:  testPalette(16),
	}
	var buf bytes.Buffer
	if err := ExportPNG(&buf, src, ExportOptions{IncludePalette: true}); err != nil {
		t.Fatal(err)
	}
	got, err := importPNG(buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if got.BitDepth != 4 {
		t.Errorf("bit depth: want 4 got %d", got.BitDepth)
	}
	if !bytes.Equal(got.Pixels, src.Pixels) {
		t.Errorf("pixels: want % X got % X", src.Pixels, got.Pixels)
	}
}

func TestRawNameRoundTrip(t *testing.T) {
	s := &sprite.Sprite{Width: 5, Height: 2, BitDepth: 8, Pixels: make([]byte, 10)}
	name := RawName(3, s)
	if name != "sprite_3-W-5-H-2.raw" {
		t.Fatalf("raw name: got %q", name)
	}

	got, err := importRAW(name, make([]byte, 10))
	if err != nil {
		t.Fatal(err)
	}
	if got.Width != 5 || got.Height != 2 {
		t.Errorf("parsed shape: got %dx%d", got.Width, got.Height)
	}
}

func TestRawRequiresDimensions(t *testing.T) {
	if _, err := importRAW("sprite_0.raw", make([]byte, 4)); err == nil {
		t.Error("want error when the name carries no dimensions")
	}
}

func TestImportOptionsPaletteExpansion(t *testing.T) {
	s := &sprite.Sprite{
		Pixels:   []byte{0, 1, 1, 0},
		Width:    2,
		Height:   2,
		BitDepth: 8,
		Palette:  testPalette(2),
	}
	applyImportOptions(s, ImportOptions{EmbedPalette: true})
	if len(s.Palette) != 4*256 {
		t.Fatalf("palette length: want 1024 got %d", len(s.Palette))
	}
	// Added slots take the banding alpha counted from zero.
	if s.Palette[4*2+3] != 0x00 {
		t.Errorf("first added alpha: want 0x00 got %#x", s.Palette[4*2+3])
	}
	if s.Palette[4*3+3] != 0x80 {
		t.Errorf("second added alpha: want 0x80 got %#x", s.Palette[4*3+3])
	}
}

func TestImportOptionsDropPalette(t *testing.T) {
	s := &sprite.Sprite{
		Pixels:   []byte{0},
		Width:    1,
		Height:   1,
		BitDepth: 8,
		Palette:  testPalette(256),
	}
	applyImportOptions(s, ImportOptions{})
	if len(s.Palette) != 0 {
		t.Errorf("palette should be dropped, got %d bytes", len(s.Palette))
	}
}

func TestImportOptionsFlips(t *testing.T) {
	s := &sprite.Sprite{
		Pixels:   []byte{1, 2, 3, 4},
		Width:    2,
		Height:   2,
		BitDepth: 8,
	}
	applyImportOptions(s, ImportOptions{FlipH: true})
	if !bytes.Equal(s.Pixels, []byte{2, 1, 4, 3}) {
		t.Errorf("flip h: got % X", s.Pixels)
	}
	applyImportOptions(s, ImportOptions{FlipV: true})
	if !bytes.Equal(s.Pixels, []byte{4, 3, 2, 1}) {
		t.Errorf("flip v: got % X", s.Pixels)
	}
}

func TestImportOptionsForcedDepth(t *testing.T) {
	s := &sprite.Sprite{Pixels: []byte{0}, Width: 1, Height: 1, BitDepth: 8}
	applyImportOptions(s, ImportOptions{Depth: DepthForce4})
	if s.BitDepth != 4 {
		t.Errorf("force 4: got %d", s.BitDepth)
	}
	applyImportOptions(s, ImportOptions{Depth: DepthForce8})
	if s.BitDepth != 8 {
		t.Errorf("force 8: got %d", s.BitDepth)
	}
	s.BitDepth = 1
	applyImportOptions(s, ImportOptions{})
	if s.BitDepth != 4 {
		t.Errorf("minimum depth: want 4 got %d", s.BitDepth)
	}
}

func TestExportBINOpaqueAlpha(t *testing.T) {
	src := &sprite.Sprite{
		Pixels:   []byte{0, 1, 2, 3},
		Width:    2,
		Height:   2,
		BitDepth: 8,
		Palette:  testPalette(256),
	}
	data, err := ExportBIN(src, ExportOptions{IncludePalette: true, Alpha: AlphaOpaque})
	if err != nil {
		t.Fatal(err)
	}

	got, err := sprite.Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got.Pixels, src.Pixels) {
		t.Errorf("pixels: want % X got % X", src.Pixels, got.Pixels)
	}
	for i := 3; i < len(got.Palette); i += 4 {
		if got.Palette[i] != 0xFF {
			t.Fatalf("alpha at %d: want 0xFF got %#x", i, got.Palette[i])
		}
	}
}

func TestImportBinFile(t *testing.T) {
	src := &sprite.Sprite{
		Pixels:   make([]byte, 4),
		Width:    2,
		Height:   2,
		BitDepth: 8,
	}
	record, err := src.Encode(true)
	if err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "sprite_0.bin")
	if err := os.WriteFile(path, record, 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := Import(path, ImportOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if got.Width != 2 || got.Height != 2 {
		t.Errorf("shape: got %dx%d", got.Width, got.Height)
	}
}

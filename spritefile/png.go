// SPDX-License-Identifier: GPL-2.0-or-later

package spritefile

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"

	"github.com/pkg/errors"

	"github.com/saltern/ggpr-bin/sprite"
	"github.com/saltern/ggpr-bin/transform"
)

// importPNG loads a PNG as an indexed sprite. Indexed images keep
// their palette (with transparency), grayscale maps straight to
// indices, and true-color images fall back to the red channel.
func importPNG(data []byte) (*sprite.Sprite, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "png decode")
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	s := &sprite.Sprite{
		Width:    uint16(w),
		Height:   uint16(h),
		BitDepth: 8,
	}

	switch src := img.(type) {
	case *image.Paletted:
		s.Pixels = make([]byte, w*h)
		for y := 0; y < h; y++ {
			copy(s.Pixels[y*w:(y+1)*w], src.Pix[y*src.Stride:y*src.Stride+w])
		}
		s.Palette = make([]byte, 0, 4*len(src.Palette))
		for _, c := range src.Palette {
			n := color.NRGBAModel.Convert(c).(color.NRGBA)
			s.Palette = append(s.Palette, n.R, n.G, n.B, n.A)
		}
		if len(src.Palette) <= 16 {
			s.BitDepth = 4
		}

	case *image.Gray:
		s.Pixels = make([]byte, w*h)
		for y := 0; y < h; y++ {
			copy(s.Pixels[y*w:(y+1)*w], src.Pix[y*src.Stride:y*src.Stride+w])
		}

	default:
		// True color: the red channel carries the index.
		s.Pixels = make([]byte, 0, w*h)
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				r, _, _, _ := img.At(x, y).RGBA()
				s.Pixels = append(s.Pixels, byte(r>>8))
			}
		}
	}
	return s, nil
}

// PalettedImage builds the indexed image written by the PNG exporter.
// The palette comes from the export options; the encoder packs 4bpp
// sprites into four-bit samples on its own.
func PalettedImage(s *sprite.Sprite, opts ExportOptions) (*image.Paletted, error) {
	if s.BitDepth != 4 && s.BitDepth != 8 {
		return nil, errors.Wrapf(sprite.ErrBadBitDepth, "%d", s.BitDepth)
	}

	pal := opts.selectPalette(s)
	pal = opts.applyAlpha(pal)

	colors := 1 << s.BitDepth
	imgPal := make(color.Palette, 0, colors)
	for i := 0; i < colors; i++ {
		var c color.NRGBA
		if 4*i+3 < len(pal) {
			c = color.NRGBA{R: pal[4*i], G: pal[4*i+1], B: pal[4*i+2], A: pal[4*i+3]}
		}
		imgPal = append(imgPal, c)
	}

	pixels := s.Pixels
	if s.BitDepth == 8 && opts.Reindex {
		pixels = transform.Reindex(pixels)
	}

	img := image.NewPaletted(image.Rect(0, 0, int(s.Width), int(s.Height)), imgPal)
	for y := 0; y < int(s.Height); y++ {
		row := pixels[y*int(s.Width) : (y+1)*int(s.Width)]
		copy(img.Pix[y*img.Stride:], row)
	}
	return img, nil
}

// ExportPNG writes the sprite as an indexed PNG with a tRNS alpha
// chunk.
func ExportPNG(w io.Writer, s *sprite.Sprite, opts ExportOptions) error {
	img, err := PalettedImage(s, opts)
	if err != nil {
		return err
	}
	return errors.Wrap(png.Encode(w, img), "png encode")
}

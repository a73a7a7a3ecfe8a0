// SPDX-License-Identifier: GPL-2.0-or-later

// Command ggpr-bin inspects and converts the BIN asset archives of
// Guilty Gear XX Accent Core +R.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"

	"github.com/saltern/ggpr-bin/archive"
	"github.com/saltern/ggpr-bin/crypt"
	"github.com/saltern/ggpr-bin/objdir"
	"github.com/saltern/ggpr-bin/palette"
	"github.com/saltern/ggpr-bin/psd"
	"github.com/saltern/ggpr-bin/script"
	"github.com/saltern/ggpr-bin/sprite"
	"github.com/saltern/ggpr-bin/spritefile"
	"github.com/saltern/ggpr-bin/transform"
)

func usage() {
	fmt.Fprintf(os.Stderr, `usage: ggpr-bin <command> [flags] <args>

commands:
  identify <file|glob>...   classify files and print content digests
  unpack   [-out dir] <file>
  pack     -out file <objdir>...
  decrypt  <file|dir>...    strip the encryption in place
  encrypt  [-key name] <file>...
  import   [flags] -out dir <image>...
  export   [flags] -out dir <file.bin>...
  script   -table file.json <script.bin>...
`)
	os.Exit(2)
}

func main() {
	log.SetFlags(0)
	if len(os.Args) < 2 {
		usage()
	}

	var err error
	switch os.Args[1] {
	case "identify":
		err = cmdIdentify(os.Args[2:])
	case "unpack":
		err = cmdUnpack(os.Args[2:])
	case "pack":
		err = cmdPack(os.Args[2:])
	case "decrypt":
		err = cmdDecrypt(os.Args[2:])
	case "encrypt":
		err = cmdEncrypt(os.Args[2:])
	case "import":
		err = cmdImport(os.Args[2:])
	case "export":
		err = cmdExport(os.Args[2:])
	case "script":
		err = cmdScript(os.Args[2:])
	default:
		usage()
	}
	if err != nil {
		log.Fatalf("ggpr-bin: %v", err)
	}
}

// expand resolves glob patterns, leaving plain paths alone.
func expand(args []string) []string {
	var files []string
	for _, arg := range args {
		matches, err := doublestar.FilepathGlob(arg)
		if err != nil || len(matches) == 0 {
			files = append(files, arg)
			continue
		}
		files = append(files, matches...)
	}
	return files
}

func cmdIdentify(args []string) error {
	fs := flag.NewFlagSet("identify", flag.ExitOnError)
	fs.Parse(args)

	for _, path := range expand(fs.Args()) {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Printf("%s: %v", path, err)
			continue
		}
		kind := "encrypted"
		if !crypt.IsEncrypted(data) {
			kind = archive.Identify(data).String()
		}
		fmt.Printf("%-40s %-20s %10d  %016x\n", path, kind, len(data), xxhash.Sum64(data))
	}
	return nil
}

func cmdUnpack(args []string) error {
	fs := flag.NewFlagSet("unpack", flag.ExitOnError)
	out := fs.String("out", "", "output directory (default: input name without extension)")
	fs.Parse(args)
	if fs.NArg() != 1 {
		usage()
	}

	path := fs.Arg(0)
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "read")
	}
	if crypt.IsEncrypted(data) {
		data = crypt.Decrypt(filepath.Base(path), data)
		log.Printf("%s: decrypted", path)
	}

	arc, err := archive.Unpack(data)
	if err != nil {
		return err
	}

	dir := *out
	if dir == "" {
		dir = strings.TrimSuffix(path, filepath.Ext(path))
	}

	for i, entry := range arc.Entries {
		if err := unpackEntry(dir, i, entry); err != nil {
			return errors.Wrapf(err, "entry %d", i)
		}
	}
	log.Printf("%s: %d entries -> %s", path, len(arc.Entries), dir)
	return nil
}

func unpackEntry(dir string, index int, entry archive.Object) error {
	switch obj := entry.(type) {
	case *archive.Scriptable:
		return objdir.Save(objDir(dir, index), obj)

	case *archive.MultiScriptable:
		for j, sub := range obj.Objects {
			if err := objdir.Save(filepath.Join(dir, fmt.Sprintf("obj_%d_%d", index, j)), sub); err != nil {
				return err
			}
		}
		return nil

	case *archive.SpriteList:
		target := filepath.Join(objDir(dir, index), "sprites")
		if err := os.MkdirAll(target, 0o755); err != nil {
			return err
		}
		sprites := make([]*sprite.Sprite, 0, len(obj.Sprites))
		for _, e := range obj.Sprites {
			sprites = append(sprites, e.Sprite)
		}
		return spritefile.ExportSprites(target, "bin", sprites, 0,
			spritefile.ExportOptions{IncludePalette: true})

	default:
		data, err := entry.Encode()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
		name := filepath.Join(dir, fmt.Sprintf("entry_%d.%s.bin", index, entry.Type()))
		return os.WriteFile(name, data, 0o644)
	}
}

func objDir(dir string, index int) string {
	return filepath.Join(dir, fmt.Sprintf("obj_%d", index))
}

func cmdPack(args []string) error {
	fs := flag.NewFlagSet("pack", flag.ExitOnError)
	out := fs.String("out", "", "output file")
	fs.Parse(args)
	if *out == "" || fs.NArg() == 0 {
		usage()
	}

	objects := make([]*archive.Scriptable, 0, fs.NArg())
	for _, dir := range expand(fs.Args()) {
		obj, err := objdir.Load(dir)
		if err != nil {
			return err
		}
		objects = append(objects, obj)
	}

	var data []byte
	var err error
	if len(objects) == 1 {
		data, err = objects[0].Encode()
	} else {
		data, err = (&archive.MultiScriptable{Objects: objects}).Encode()
	}
	if err != nil {
		return err
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		return errors.Wrap(err, "write")
	}
	log.Printf("%s: %d objects, %d bytes", *out, len(objects), len(data))
	return nil
}

func cmdDecrypt(args []string) error {
	fs := flag.NewFlagSet("decrypt", flag.ExitOnError)
	fs.Parse(args)

	for _, path := range expand(fs.Args()) {
		info, err := os.Stat(path)
		if err != nil {
			return errors.Wrap(err, "decrypt")
		}
		if info.IsDir() {
			n, err := crypt.DecryptDir(path)
			if err != nil {
				return err
			}
			log.Printf("%s: %d files decrypted", path, n)
			continue
		}
		done, err := crypt.DecryptFile(path)
		if err != nil {
			return err
		}
		if done {
			log.Printf("%s: decrypted", path)
		} else {
			log.Printf("%s: no signature, left as is", path)
		}
	}
	return nil
}

func cmdEncrypt(args []string) error {
	fs := flag.NewFlagSet("encrypt", flag.ExitOnError)
	key := fs.String("key", "", "key name (default: file name)")
	fs.Parse(args)

	for _, path := range expand(fs.Args()) {
		data, err := os.ReadFile(path)
		if err != nil {
			return errors.Wrap(err, "encrypt")
		}
		if crypt.IsEncrypted(data) {
			log.Printf("%s: already encrypted, skipping", path)
			continue
		}
		name := *key
		if name == "" {
			name = filepath.Base(path)
		}
		out := append(crypt.Encrypt(name, data), 'A', 'S', 'G', 'C')
		if err := os.WriteFile(path, out, 0o644); err != nil {
			return errors.Wrap(err, "encrypt")
		}
		log.Printf("%s: encrypted with key %q", path, name)
	}
	return nil
}

func cmdImport(args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	out := fs.String("out", ".", "output directory")
	start := fs.Int("start", 0, "first sprite number")
	compress := fs.Bool("compress", true, "write compressed records")
	var opts spritefile.ImportOptions
	fs.BoolVar(&opts.EmbedPalette, "embed-palette", false, "embed the source palette")
	fs.BoolVar(&opts.HalveAlpha, "halve-alpha", false, "halve palette alpha on import")
	fs.BoolVar(&opts.FlipH, "flip-h", false, "mirror horizontally")
	fs.BoolVar(&opts.FlipV, "flip-v", false, "mirror vertically")
	fs.BoolVar(&opts.AsRGB, "as-rgb", false, "treat indexed pixels as RGB")
	fs.BoolVar(&opts.Reindex, "reindex", false, "reindex pixel values")
	depth := fs.Int("depth", 0, "force bit depth (4 or 8, 0 keeps the source)")
	fs.Parse(args)

	switch *depth {
	case 4:
		opts.Depth = spritefile.DepthForce4
	case 8:
		opts.Depth = spritefile.DepthForce8
	}

	if err := os.MkdirAll(*out, 0o755); err != nil {
		return errors.Wrap(err, "import")
	}

	index := *start
	for _, path := range expand(fs.Args()) {
		s, err := spritefile.Import(path, opts)
		if err != nil {
			log.Printf("%s: %v", path, err)
			continue
		}
		data, err := s.Encode(*compress)
		if err != nil {
			log.Printf("%s: %v", path, err)
			continue
		}
		name := filepath.Join(*out, fmt.Sprintf("sprite_%d.bin", index))
		if err := os.WriteFile(name, data, 0o644); err != nil {
			return errors.Wrap(err, "import")
		}
		index++
	}
	return nil
}

func cmdExport(args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	format := fs.String("format", "png", "output format: bin, png, bmp, raw or psd")
	out := fs.String("out", ".", "output directory")
	start := fs.Int("start", 0, "first sprite number")
	palPath := fs.String("pal", "", "external palette (.bin or .act)")
	alpha := fs.String("alpha", "as-is", "palette alpha mode: as-is, double, halve, opaque")
	var opts spritefile.ExportOptions
	fs.BoolVar(&opts.Override, "override", false, "force the external palette")
	fs.BoolVar(&opts.Reindex, "reindex", false, "reindex pixel values")
	noPalette := fs.Bool("no-palette", false, "leave the palette out")
	fs.Parse(args)

	opts.IncludePalette = !*noPalette
	switch *alpha {
	case "double":
		opts.Alpha = spritefile.AlphaDouble
	case "halve":
		opts.Alpha = spritefile.AlphaHalve
	case "opaque":
		opts.Alpha = spritefile.AlphaOpaque
	}

	if *palPath != "" {
		pal, err := loadPalette(*palPath)
		if err != nil {
			return err
		}
		opts.External = pal
	}

	var sprites []*sprite.Sprite
	for _, path := range expand(fs.Args()) {
		data, err := os.ReadFile(path)
		if err != nil {
			return errors.Wrap(err, "export")
		}
		s, err := sprite.Decode(data)
		if err != nil {
			log.Printf("%s: %v", path, err)
			continue
		}
		sprites = append(sprites, s)
	}
	if len(sprites) == 0 {
		return errors.New("export: no sprites")
	}

	if err := os.MkdirAll(*out, 0o755); err != nil {
		return errors.Wrap(err, "export")
	}
	if *format == "psd" {
		return exportPSD(filepath.Join(*out, "sprites.psd"), sprites, opts)
	}
	return spritefile.ExportSprites(*out, *format, sprites, *start, opts)
}

func cmdScript(args []string) error {
	fs := flag.NewFlagSet("script", flag.ExitOnError)
	tablePath := fs.String("table", "", "instruction table (.json)")
	fs.Parse(args)
	if *tablePath == "" || fs.NArg() == 0 {
		usage()
	}

	raw, err := os.ReadFile(*tablePath)
	if err != nil {
		return errors.Wrap(err, "script")
	}
	table, err := script.TableFromJSON(raw)
	if err != nil {
		return err
	}

	for _, path := range expand(fs.Args()) {
		data, err := os.ReadFile(path)
		if err != nil {
			return errors.Wrap(err, "script")
		}
		s, err := script.Decode(data, table)
		if err != nil {
			log.Printf("%s: %v", path, err)
			continue
		}
		fmt.Printf("%s: %d prelude bytes, %d actions, %d trailer bytes\n",
			path, len(s.Variables), len(s.Actions), len(s.Trailer))
		for i, a := range s.Actions {
			fmt.Printf("  action %3d  flags %#08x  lv %#04x  damage %3d  %d instructions\n",
				i, a.Flags, a.LVFlag, a.Damage, len(a.Instructions))
		}
	}
	return nil
}

func loadPalette(path string) (palette.Palette, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "palette")
	}
	if strings.EqualFold(filepath.Ext(path), ".act") {
		return palette.FromACT(data)
	}
	return palette.FromBin(data)
}

// exportPSD stacks the sprites as layers on a shared canvas.
func exportPSD(path string, sprites []*sprite.Sprite, opts spritefile.ExportOptions) error {
	var w, h int32
	for _, s := range sprites {
		if int32(s.Width) > w {
			w = int32(s.Width)
		}
		if int32(s.Height) > h {
			h = int32(s.Height)
		}
	}

	layers := make([]psd.Layer, 0, len(sprites))
	for i, s := range sprites {
		pal := opts.External
		if len(s.Palette) > 0 && !opts.Override {
			pal = s.Palette
		}

		pixels := make([]byte, 4*w*h)
		for y := 0; y < int(s.Height); y++ {
			for x := 0; x < int(s.Width); x++ {
				at := 4 * (int32(y)*w + int32(x))
				p := 4 * int(s.Pixels[y*int(s.Width)+x])
				if p+3 < len(pal) {
					pixels[at+0] = pal[p+0]
					pixels[at+1] = pal[p+1]
					pixels[at+2] = pal[p+2]
					pixels[at+3] = pal[p+3]
				} else {
					gray := s.Pixels[y*int(s.Width)+x]
					if s.BitDepth == 4 {
						gray = transform.To4([]byte{gray, gray}, false)[0]
					}
					pixels[at+0], pixels[at+1], pixels[at+2] = gray, gray, gray
					pixels[at+3] = 0xFF
				}
			}
		}

		layers = append(layers, psd.Layer{
			Name:   fmt.Sprintf("sprite_%d", i),
			Pixels: pixels,
			Top:    0,
			Bottom: int32(s.Height),
			Left:   0,
			Right:  int32(s.Width),
		})
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "psd")
	}
	defer f.Close()
	return psd.Write(f, w, h, layers)
}

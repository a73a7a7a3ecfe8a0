// SPDX-License-Identifier: GPL-2.0-or-later

package archive

import (
	"github.com/pkg/errors"

	"github.com/saltern/ggpr-bin/crypt"
)

// Archive is a decoded BIN file. Most files are a single object;
// files the identifier cannot place as a whole are split along their
// top-level pointer table and each entry identified on its own, with
// Tabled recording that the outer table must be rebuilt on write.
type Archive struct {
	Entries []Object
	Tabled  bool
}

// Unpack decodes a whole BIN file. Encrypted input is rejected; run
// it through crypt.Decrypt first.
func Unpack(data []byte) (*Archive, error) {
	if crypt.IsEncrypted(data) {
		return nil, ErrEncrypted
	}
	if len(data) < 4 {
		return nil, ErrTooShort
	}

	if Identify(data) != TypeUnsupported {
		obj, err := DecodeObject(data)
		if err != nil {
			return nil, err
		}
		return &Archive{Entries: []Object{obj}}, nil
	}

	blobs, err := sliceTable(data, 0)
	if err != nil || len(blobs) == 0 {
		return &Archive{Entries: []Object{&Raw{Kind: TypeUnsupported, Data: data}}}, nil
	}
	arc := &Archive{Tabled: true}
	for _, b := range blobs {
		obj, err := DecodeObject(b)
		if err != nil {
			// A corrupt entry is carried through as raw bytes so the
			// rest of the table still decodes.
			obj = &Raw{Kind: TypeUnsupported, Data: b}
		}
		arc.Entries = append(arc.Entries, obj)
	}
	return arc, nil
}

// Pack serializes the archive back to BIN bytes.
func (a *Archive) Pack() ([]byte, error) {
	if !a.Tabled {
		if len(a.Entries) != 1 {
			return nil, errors.New("archive: untabled archive must hold exactly one object")
		}
		return a.Entries[0].Encode()
	}
	blobs := make([][]byte, 0, len(a.Entries))
	for i, obj := range a.Entries {
		b, err := obj.Encode()
		if err != nil {
			return nil, errors.Wrapf(err, "entry %d", i)
		}
		blobs = append(blobs, b)
	}
	return packTable(blobs), nil
}

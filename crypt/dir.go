// SPDX-License-Identifier: GPL-2.0-or-later

package crypt

import (
	"log"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// DecryptFile decrypts path in place if it carries the trailing
// signature; files without it are left untouched.
func DecryptFile(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, errors.Wrap(err, "crypt: read")
	}
	if !IsEncrypted(data) {
		return false, nil
	}
	plain := Decrypt(filepath.Base(path), data)
	if err := os.WriteFile(path, plain, 0644); err != nil {
		return false, errors.Wrap(err, "crypt: write")
	}
	return true, nil
}

// DecryptDir decrypts every signed file directly inside dir, skipping
// subdirectories. It returns the number of files rewritten.
func DecryptDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, errors.Wrap(err, "crypt: read dir")
	}

	count := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		done, err := DecryptFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			log.Printf("crypt: skipping %s: %v", entry.Name(), err)
			continue
		}
		if done {
			count++
		}
	}
	return count, nil
}

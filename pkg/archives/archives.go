// Package archives writes directory trees into release archives (.zip and .kar).
package archives

import (
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/rotisserie/eris"
)

// Writer receives a directory tree one entry at a time. Everything written between
// OpenDirectory and the matching CloseDirectory ends up inside that directory.
type Writer interface {
	OpenDirectory(dirname string) error
	CloseDirectory() error
	WriteFile(filename string, reader io.Reader) error
	Close() error
}

// WalkDirectory feeds the content of dir into writer. Entries are visited in lexical order
// so the resulting archives are reproducible.
func WalkDirectory(writer Writer, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return eris.Wrapf(err, "Failed to read dir %s", dir)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		itemPath := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			err = writer.OpenDirectory(entry.Name())
			if err != nil {
				return err
			}

			err = WalkDirectory(writer, itemPath)
			if err != nil {
				return err
			}

			err = writer.CloseDirectory()
			if err != nil {
				return err
			}
		} else {
			f, err := os.Open(itemPath)
			if err != nil {
				return eris.Wrapf(err, "Failed to open file %s", itemPath)
			}

			err = writer.WriteFile(entry.Name(), f)
			f.Close()
			if err != nil {
				return eris.Wrapf(err, "Failed to pack file %s", itemPath)
			}
		}
	}

	return nil
}

// PackDirectory walks dir into writer and closes the writer. The writer is closed on errors, too.
func PackDirectory(dir string, writer Writer) error {
	info, err := os.Stat(dir)
	if err != nil {
		writer.Close()
		return eris.Wrapf(err, "Failed to open dir %s", dir)
	}

	if !info.IsDir() {
		writer.Close()
		return eris.Errorf("%s is not a directory", dir)
	}

	err = WalkDirectory(writer, dir)
	if err != nil {
		writer.Close()
		return err
	}

	return writer.Close()
}

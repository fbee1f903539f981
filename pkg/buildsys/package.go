package buildsys

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/kiuryy/extbuild/pkg/archives"
)

// ArchiveFormat selects the release archive type.
type ArchiveFormat int

const (
	ArchiveZip ArchiveFormat = iota
	ArchiveKar
)

// ArchiveFormatFromString parses the archive.format config value.
func ArchiveFormatFromString(value string) (ArchiveFormat, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "zip":
		return ArchiveZip, nil
	case "kar":
		return ArchiveKar, nil
	default:
		return ArchiveZip, eris.Errorf("Invalid value for archive.format: %s", value)
	}
}

// Ext returns the file extension (without dot) for archives of this format.
func (f ArchiveFormat) Ext() string {
	if f == ArchiveKar {
		return "kar"
	}
	return "zip"
}

func (f ArchiveFormat) String() string {
	return f.Ext()
}

// Package archives the whole tree below sourceDir into dest.
func Package(sourceDir, dest string, format ArchiveFormat) error {
	var (
		writer archives.Writer
		err    error
	)

	switch format {
	case ArchiveKar:
		writer, err = archives.NewKarWriter(dest)
	default:
		writer, err = archives.NewZipWriter(dest)
	}
	if err != nil {
		return &PackageError{Dest: dest, Err: err}
	}

	err = archives.PackDirectory(sourceDir, writer)
	if err != nil {
		return &PackageError{Dest: dest, Err: err}
	}
	return nil
}

// Zip archives sourceDir into the zip file dest.
func Zip(sourceDir, dest string) error {
	return Package(sourceDir, dest, ArchiveZip)
}

package buildsys

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
)

// PackageMetadata holds the fields of package.json the build stamps into its outputs.
type PackageMetadata struct {
	Name    string
	Version string
	Author  string
	License string
}

type packageAuthor string

// UnmarshalJSON accepts both "author": "Name" and "author": {"name": "Name"}.
func (a *packageAuthor) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var person struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(data, &person); err != nil {
			return err
		}
		*a = packageAuthor(person.Name)
		return nil
	}

	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	*a = packageAuthor(name)
	return nil
}

// LoadPackageMetadata reads and validates the package.json at path.
func LoadPackageMetadata(path string) (*PackageMetadata, error) {
	rawData, err := os.ReadFile(path)
	if err != nil {
		return nil, &MetadataLoadError{Path: path, Err: err}
	}

	var parsed struct {
		Name    string        `json:"name"`
		Version string        `json:"version"`
		Author  packageAuthor `json:"author"`
		License string        `json:"license"`
	}
	err = json.Unmarshal(rawData, &parsed)
	if err != nil {
		return nil, &MetadataLoadError{Path: path, Err: eris.Wrap(err, "invalid JSON")}
	}

	meta := &PackageMetadata{
		Name:    parsed.Name,
		Version: parsed.Version,
		Author:  string(parsed.Author),
		License: parsed.License,
	}

	if meta.Name == "" {
		return nil, &MetadataLoadError{Path: path, Err: eris.New("missing field name")}
	}
	if meta.Version == "" {
		return nil, &MetadataLoadError{Path: path, Err: eris.New("missing field version")}
	}

	return meta, nil
}

// Preamble is the copyright notice injected into minified scripts.
func (m *PackageMetadata) Preamble() string {
	return fmt.Sprintf("(c) %s under %s", m.Author, m.License)
}

// ArchiveName returns <name>_<version>.<ext>.
func (m *PackageMetadata) ArchiveName(ext string) string {
	return fmt.Sprintf("%s_%s.%s", m.Name, m.Version, ext)
}

// preambleFromEnv builds the script preamble, preferring the values npm exports to scripts
// over the ones in package.json.
func (m *PackageMetadata) preambleFromEnv() string {
	author := os.Getenv("npm_package_author_name")
	if author == "" {
		author = m.Author
	}
	license := os.Getenv("npm_package_license")
	if license == "" {
		license = m.License
	}

	return fmt.Sprintf("(c) %s under %s", author, license)
}

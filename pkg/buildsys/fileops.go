package buildsys

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// FileDescriptor describes one matched file while a stage processes it.
type FileDescriptor struct {
	// Path is the absolute source path.
	Path string
	// Name is the output path relative to the destination directory.
	Name string
	// Ext is the extension without the leading dot.
	Ext string
}

// FileOps bundles the file primitives used by the stages.
type FileOps struct {
	Matcher *FileMatcher
	// Roots are stripped from matched paths to build output names (usually src/ and __tmp/).
	Roots []string
	// WriteDelay is waited between deleting an existing file and creating its replacement.
	WriteDelay time.Duration
}

// describe builds the descriptor for a matched file. Names without an extension are
// reported as not processable.
func (o *FileOps) describe(file string, flatten bool) (FileDescriptor, bool) {
	name := relativeName(file, o.Roots...)
	if flatten {
		name = filepath.Base(name)
	}

	base := filepath.Base(name)
	pos := strings.LastIndex(base, ".")
	if pos == -1 {
		return FileDescriptor{}, false
	}

	return FileDescriptor{
		Path: file,
		Name: name,
		Ext:  base[pos+1:],
	}, true
}

// Read returns the content of the given file.
func (o *FileOps) Read(path string) ([]byte, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}
	return content, nil
}

// Write replaces the file at path with content. An existing file is deleted first and the
// new one is created after WriteDelay, so watchers never observe a half-written file.
func (o *FileOps) Write(path string, content []byte) error {
	_, err := os.Lstat(path)
	if err == nil {
		err = os.RemoveAll(path)
		if err != nil {
			return eris.Wrapf(err, "Failed to remove existing file %s", path)
		}

		if o.WriteDelay > 0 {
			time.Sleep(o.WriteDelay)
		}
	} else if !eris.Is(err, os.ErrNotExist) {
		return eris.Wrapf(err, "Failed to check %s", path)
	}

	parent := filepath.Dir(path)
	err = os.MkdirAll(parent, 0770)
	if err != nil {
		return eris.Wrapf(err, "Failed to create directory %s", parent)
	}

	err = os.WriteFile(path, content, 0660)
	if err != nil {
		return eris.Wrapf(err, "Failed to write %s", path)
	}
	return nil
}

// Copy copies every file matching files but not exclude into dest. Exclusion compares the
// matched paths exactly. With flatten, only the base names are kept.
func (o *FileOps) Copy(ctx context.Context, files, exclude []string, dest string, flatten bool) (int, error) {
	excludeList, err := o.Matcher.Match(exclude)
	if err != nil {
		return 0, err
	}

	excluded := make(map[string]bool, len(excludeList))
	for _, item := range excludeList {
		excluded[item] = true
	}

	matches, err := o.Matcher.Match(files)
	if err != nil {
		return 0, err
	}

	copied := 0
	for _, file := range matches {
		if err := ctx.Err(); err != nil {
			return copied, err
		}

		if excluded[file] {
			log(ctx).Debug().Str("path", file).Msg("excluded")
			continue
		}

		info, ok := o.describe(file, flatten)
		if !ok {
			continue
		}

		err = copyFile(info.Path, filepath.Join(dest, info.Name))
		if err != nil {
			return copied, err
		}
		copied++
	}

	return copied, nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return &ReadError{Path: src, Err: err}
	}
	defer in.Close()

	stat, err := in.Stat()
	if err != nil {
		return &ReadError{Path: src, Err: err}
	}

	destParent := filepath.Dir(dest)
	err = os.MkdirAll(destParent, 0770)
	if err != nil {
		return eris.Wrapf(err, "Failed to create directory %s", destParent)
	}

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, stat.Mode().Perm())
	if err != nil {
		return eris.Wrapf(err, "Failed to create file %s", dest)
	}

	_, err = io.Copy(out, in)
	if err != nil {
		out.Close()
		return eris.Wrapf(err, "Failed to copy %s to %s", src, dest)
	}

	return eris.Wrapf(out.Close(), "Failed to close %s", dest)
}

// Remove deletes everything matching the patterns. Patterns without matches are ignored.
func (o *FileOps) Remove(patterns []string) error {
	items, err := o.Matcher.MatchAll(patterns)
	if err != nil {
		return err
	}

	for _, item := range items {
		err := os.RemoveAll(item)
		if err != nil && !eris.Is(err, os.ErrNotExist) {
			return eris.Wrapf(err, "Could not delete %s", item)
		}
	}

	return nil
}

// Concat joins the content of all files matching patterns, separated by newlines, and writes
// the result to dest. It returns the number of joined files.
func (o *FileOps) Concat(patterns []string, dest string) (int, error) {
	matches, err := o.Matcher.Match(patterns)
	if err != nil {
		return 0, err
	}

	parts := make([][]byte, 0, len(matches))
	for _, file := range matches {
		content, err := o.Read(file)
		if err != nil {
			return 0, err
		}
		parts = append(parts, content)
	}

	return len(parts), o.Write(dest, bytes.Join(parts, []byte("\n")))
}

// Replacement substitutes every match of Pattern with With. With may reference groups ($1).
type Replacement struct {
	Pattern *regexp.Regexp
	With    string
}

// Replace applies replaces, in order, to every file matching patterns and rewrites the files
// that changed. It returns the number of rewritten files.
func (o *FileOps) Replace(patterns []string, replaces []Replacement) (int, error) {
	matches, err := o.Matcher.Match(patterns)
	if err != nil {
		return 0, err
	}

	changed := 0
	for _, file := range matches {
		content, err := o.Read(file)
		if err != nil {
			return changed, err
		}

		result := content
		for _, replace := range replaces {
			result = replace.Pattern.ReplaceAll(result, []byte(replace.With))
		}
		if bytes.Equal(result, content) {
			continue
		}

		err = o.Write(file, result)
		if err != nil {
			return changed, err
		}
		changed++
	}

	return changed, nil
}

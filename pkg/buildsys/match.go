package buildsys

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/syntax"
)

// FileMatcher resolves shell-style patterns (including ** and {a,b}) relative to Root.
type FileMatcher struct {
	Root string
}

func shellReadDir(path string) ([]os.FileInfo, error) {
	if path == "" {
		path = "."
	}

	return ioutil.ReadDir(path)
}

// shellSpecials are escaped before a pattern is parsed as a shell word. Glob characters are
// left alone.
const shellSpecials = " \t$`\"'();&|<>!#~\\"

func (m *FileMatcher) absPattern(pattern string) string {
	if !filepath.IsAbs(pattern) {
		pattern = filepath.Join(m.Root, pattern)
	}
	pattern = filepath.ToSlash(pattern)

	escaped := strings.Builder{}
	for _, r := range pattern {
		if strings.ContainsRune(shellSpecials, r) {
			escaped.WriteByte('\\')
		}
		escaped.WriteRune(r)
	}
	return escaped.String()
}

// Match returns the regular files matching any of the patterns. Results keep pattern order,
// are sorted within each pattern and contain every path once.
func (m *FileMatcher) Match(patterns []string) ([]string, error) {
	return m.resolve(patterns, true)
}

// MatchAll works like Match but also returns directories.
func (m *FileMatcher) MatchAll(patterns []string) ([]string, error) {
	return m.resolve(patterns, false)
}

func (m *FileMatcher) resolve(patterns []string, filesOnly bool) ([]string, error) {
	result := []string{}
	seen := make(map[string]bool)
	cfg := expand.Config{
		ReadDir:  shellReadDir,
		GlobStar: true,
	}

	parser := syntax.NewParser()
	for _, pattern := range patterns {
		item := m.absPattern(pattern)

		words := make([]*syntax.Word, 0)
		err := parser.Words(strings.NewReader(item), func(w *syntax.Word) bool {
			words = append(words, w)
			return true
		})
		if err != nil {
			return nil, &MatchError{Pattern: pattern, Err: err}
		}

		matches, err := expand.Fields(&cfg, words...)
		if err != nil {
			return nil, &MatchError{Pattern: pattern, Err: err}
		}
		sort.Strings(matches)

		for _, match := range matches {
			match = filepath.Clean(filepath.FromSlash(match))
			if seen[match] {
				continue
			}

			// A pattern without matches expands to itself, so only keep what actually exists.
			info, err := os.Lstat(match)
			if err != nil {
				if eris.Is(err, os.ErrNotExist) {
					continue
				}
				return nil, &MatchError{Pattern: pattern, Err: err}
			}

			if filesOnly && info.IsDir() {
				continue
			}

			seen[match] = true
			result = append(result, match)
		}
	}

	return result, nil
}

// relativeName strips the first matching root from file. Files outside every root keep
// their full path minus the volume, which mirrors how they would be copied anyway.
func relativeName(file string, roots ...string) string {
	for _, root := range roots {
		rel, err := filepath.Rel(root, file)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return rel
		}
	}

	return strings.TrimPrefix(file, filepath.VolumeName(file))
}

package buildsys

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func testContext(t *testing.T) context.Context {
	t.Helper()

	logger := zerolog.New(zerolog.NewTestWriter(t)).Level(zerolog.DebugLevel)
	return WithLogger(context.Background(), &logger)
}

// writeTree creates the given files (slash separated, relative to root).
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()

	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

// listTree returns all regular files below root as sorted slash separated relative paths.
func listTree(t *testing.T, root string) []string {
	t.Helper()

	result := []string{}
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.Mode().IsRegular() {
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			result = append(result, filepath.ToSlash(rel))
		}
		return nil
	})
	require.NoError(t, err)

	sort.Strings(result)
	return result
}

func relPaths(t *testing.T, root string, paths []string) []string {
	t.Helper()

	result := make([]string, len(paths))
	for idx, path := range paths {
		rel, err := filepath.Rel(root, path)
		require.NoError(t, err)
		result[idx] = filepath.ToSlash(rel)
	}
	return result
}

type stubStyles struct {
	closed bool
}

func (s *stubStyles) CompileSCSS(source string, includePaths []string) (string, error) {
	return strings.Join(strings.Fields(source), ""), nil
}

func (s *stubStyles) Close() error {
	s.closed = true
	return nil
}

package buildsys

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLint(t *testing.T) {
	root := t.TempDir()
	ctx := testContext(t)

	t.Run("clean", func(t *testing.T) {
		assert.NoError(t, Lint(ctx, root, "true", "build.js"))
	})

	t.Run("issues_reported", func(t *testing.T) {
		err := Lint(ctx, root, "echo problem in", "build.js")

		var lintErr *LintError
		require.ErrorAs(t, err, &lintErr)
		assert.Equal(t, "build.js", lintErr.Target)
		assert.Equal(t, "problem in build.js\n", lintErr.Output)
		assert.NoError(t, lintErr.Err)
	})

	t.Run("exit_code_without_output", func(t *testing.T) {
		assert.NoError(t, Lint(ctx, root, "false", "build.js"))
	})

	t.Run("missing_command", func(t *testing.T) {
		err := Lint(ctx, root, "extbuild-missing-linter", "build.js")

		var lintErr *LintError
		require.ErrorAs(t, err, &lintErr)
		assert.Error(t, lintErr.Err)
	})
}

func TestLintExpandsGlobstar(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"src/js/a.js":         "",
		"src/js/nested/b.js":  "",
		"src/js/nested/c.css": "",
	})

	err := Lint(testContext(t), root, "echo", "src/js/**/*.js")

	var lintErr *LintError
	require.ErrorAs(t, err, &lintErr)
	assert.Equal(t, "src/js/a.js src/js/nested/b.js\n", lintErr.Output)
}

func TestCommandEnv(t *testing.T) {
	root := t.TempDir()
	t.Setenv("PATH", "/usr/bin")

	env := commandEnv(root)
	paths := []string{}
	for _, item := range env {
		if len(item) > 5 && item[:5] == "PATH=" {
			paths = append(paths, item[5:])
		}
	}

	require.Len(t, paths, 1)
	assert.Equal(t, filepath.Join(root, "node_modules", ".bin")+string(filepath.ListSeparator)+"/usr/bin", paths[0])
}

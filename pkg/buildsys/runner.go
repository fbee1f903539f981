package buildsys

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/rotisserie/eris"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

var defaultOpenHandler = interp.DefaultOpenHandler()

func openHandler(ctx context.Context, path string, flag int, perm os.FileMode) (io.ReadWriteCloser, error) {
	if path == "/dev/null" {
		path = os.DevNull
	}

	return defaultOpenHandler(ctx, path, flag, perm)
}

// localBinDir is where npm installs the executables of project dependencies.
func localBinDir(root string) string {
	return filepath.Join(root, "node_modules", ".bin")
}

// commandEnv returns the process environment with the project's node_modules/.bin in
// front of PATH.
func commandEnv(root string) []string {
	osEnv := os.Environ()
	env := make([]string, 0, len(osEnv)+1)
	path := os.Getenv("PATH")

	for _, item := range osEnv {
		parts := strings.SplitN(item, "=", 2)
		name := parts[0]
		if runtime.GOOS == "windows" {
			name = strings.ToUpper(name)
		}

		if name == "PATH" {
			continue
		}
		env = append(env, item)
	}

	return append(env, fmt.Sprintf("PATH=%s%c%s", localBinDir(root), os.PathListSeparator, path))
}

// runScript executes a shell snippet in dir and returns everything it wrote to stdout.
// Non-zero exit codes are not treated as errors; callers decide based on the output.
func runScript(ctx context.Context, dir, script string) (string, error) {
	parser := syntax.NewParser()
	file, err := parser.Parse(strings.NewReader(script), "command")
	if err != nil {
		return "", eris.Wrapf(err, "failed to parse command %s", script)
	}

	outputBuffer := strings.Builder{}
	runner, err := interp.New(
		interp.Dir(dir),
		interp.Env(expand.ListEnviron(commandEnv(dir)...)),
		interp.OpenHandler(openHandler),
		interp.StdIO(nil, &outputBuffer, os.Stderr),
	)
	if err != nil {
		return "", eris.Wrap(err, "failed to initialize runner")
	}

	err = runner.Run(ctx, file)
	if err != nil {
		status, ok := interp.IsExitStatus(err)
		if !ok {
			return outputBuffer.String(), err
		}

		if status == 127 {
			return outputBuffer.String(), eris.Errorf("command not found: %s", script)
		}
	}

	return outputBuffer.String(), nil
}

// Lint runs the lint command for target with globstar enabled. The linter runs in fix mode, so
// anything it still prints counts as an unresolved issue.
func Lint(ctx context.Context, root, command, target string) error {
	script := "shopt -s globstar\n" + command + " " + target
	log(ctx).Debug().Str("command", script).Msg("running linter")

	output, err := runScript(ctx, root, script)
	if err != nil {
		return &LintError{Target: target, Err: err}
	}

	if strings.TrimSpace(output) != "" {
		return &LintError{Target: target, Output: output}
	}
	return nil
}

package buildsys

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// lookPath searches the project's node_modules/.bin before PATH.
func lookPath(root, tool string) (string, error) {
	if strings.ContainsRune(tool, filepath.Separator) || strings.Contains(tool, "/") {
		return exec.LookPath(tool)
	}

	local := filepath.Join(localBinDir(root), tool)
	if info, err := os.Stat(local); err == nil && !info.IsDir() {
		return local, nil
	}

	return exec.LookPath(tool)
}

// RequiredTools lists the executables a build with cfg needs.
func RequiredTools(cfg *Config, skipLint bool) []string {
	tools := []string{}
	if !skipLint && len(cfg.Lint.Targets) > 0 {
		fields := strings.Fields(cfg.Lint.Command)
		if len(fields) > 0 {
			tools = append(tools, fields[0])
		}
	}

	if cfg.Sass.Binary != "" {
		tools = append(tools, cfg.Sass.Binary)
	}
	return tools
}

// CheckTools verifies that every tool can be found, either in root/node_modules/.bin or on PATH.
func CheckTools(root string, tools []string) error {
	for _, tool := range tools {
		_, err := lookPath(root, tool)
		if err != nil {
			return &ToolMissingError{Tool: tool, Err: err}
		}
	}

	return nil
}

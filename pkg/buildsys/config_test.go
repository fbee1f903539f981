package buildsys

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "build.toml"))
	require.NoError(t, err)

	assert.Equal(t, "src/", cfg.Paths.Src)
	assert.Equal(t, "__tmp/", cfg.Paths.Tmp)
	assert.Equal(t, "__dist/", cfg.Paths.Dist)
	assert.Equal(t, []string{"js/lib/jsu.js"}, cfg.Sources.JS)
	assert.Equal(t, []string{"**/*.xcf"}, cfg.Sources.ImagesSkip)
	assert.Equal(t, []string{"build.js", "src/js/**/*.js"}, cfg.Lint.Targets)
	assert.Equal(t, []string{"jsu", "chrome"}, cfg.JS.Reserved)
	assert.Equal(t, 5*time.Second, cfg.Remote.Timeout)
	assert.Equal(t, 100*time.Millisecond, cfg.WriteDelay)
	assert.Equal(t, "zip", cfg.Archive.Format)
	assert.Equal(t, zerolog.InfoLevel, cfg.LogLevel())
}

func TestLoadConfigFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "build.toml")
	require.NoError(t, os.WriteFile(file, []byte(`
[archive]
format = "kar"

[lint]
command = "true"

[log]
level = "debug"
`), 0o644))

	cfg, err := LoadConfig(file)
	require.NoError(t, err)

	assert.Equal(t, "kar", cfg.Archive.Format)
	assert.Equal(t, "true", cfg.Lint.Command)
	assert.Equal(t, zerolog.DebugLevel, cfg.LogLevel())
	assert.Equal(t, "src/", cfg.Paths.Src)
}

func TestLoadConfigInvalidFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "build.toml")
	require.NoError(t, os.WriteFile(file, []byte("[archive]\nformat = \"rar\"\n"), 0o644))

	_, err := LoadConfig(file)
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	tests := map[string]func(cfg *Config){
		"empty_src":      func(cfg *Config) { cfg.Paths.Src = " " },
		"empty_dist":     func(cfg *Config) { cfg.Paths.Dist = "" },
		"no_timeout":     func(cfg *Config) { cfg.Remote.Timeout = 0 },
		"archive_format": func(cfg *Config) { cfg.Archive.Format = "tar" },
		"log_level":      func(cfg *Config) { cfg.Log.Level = "loud" },
	}

	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg, err := LoadConfig("")
			require.NoError(t, err)

			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

package buildsys

import (
	"os"
	"path"
	"strings"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigtoml"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// Config describes all configuration options. Paths are relative to the project root.
type Config struct {
	Paths struct {
		Src    string `default:"src/" toml:"src" env:"SRC" usage:"Directory containing the extension sources"`
		Assets string `default:"assets/" toml:"assets" env:"ASSETS" usage:"Shared includes for the style compiler"`
		Tmp    string `default:"__tmp/" toml:"tmp" env:"TMP" usage:"Scratch directory, removed after the build"`
		Dist   string `default:"__dist/" toml:"dist" env:"DIST" usage:"Build output directory"`
	} `toml:"paths" env:"PATHS"`
	Sources struct {
		JS         []string `default:"js/lib/jsu.js" toml:"js" env:"JS" usage:"Scripts below paths.src, minified into <dist>/js/lib/"`
		SCSS       []string `default:"scss/*.scss" toml:"scss" env:"SCSS" usage:"Stylesheets below paths.src, compiled into <dist>/css/"`
		Images     []string `default:"img/**/*" toml:"images" env:"IMAGES"`
		ImagesSkip []string `default:"**/*.xcf" toml:"images_skip" env:"IMAGES_SKIP" usage:"Files below paths.src that are never copied"`
		JSON       []string `default:"manifest.json" toml:"json" env:"JSON"`
		HTML       []string `default:"html/**/*.html" toml:"html" env:"HTML"`
	} `toml:"sources" env:"SOURCES"`
	Remote struct {
		BaseURL string        `default:"https://raw.githubusercontent.com/Kiuryy/" toml:"base_url" env:"BASE_URL"`
		Libs    []string      `default:"colorpicker.js/master/src/js/colorpicker.js,jsu.js/master/src/js/jsu.js" toml:"libs" env:"LIBS" usage:"Library paths below base_url, stored in <src>/js/lib/"`
		Timeout time.Duration `default:"5s" toml:"timeout" env:"TIMEOUT"`
	} `toml:"remote" env:"REMOTE"`
	Lint struct {
		Command string   `default:"eslint --fix" toml:"command" env:"COMMAND"`
		Targets []string `default:"build.js,src/js/**/*.js" toml:"targets" env:"TARGETS"`
	} `toml:"lint" env:"LINT"`
	JS struct {
		Reserved []string `default:"jsu,chrome" toml:"reserved" env:"RESERVED" usage:"Identifiers the minifier must never rename"`
	} `toml:"js" env:"JS"`
	Sass struct {
		Binary string `default:"sass" toml:"binary" env:"BINARY" usage:"Dart Sass executable (needs --embedded support)"`
	} `toml:"sass" env:"SASS"`
	Archive struct {
		Format string `default:"zip" toml:"format" env:"FORMAT" usage:"Archive format (zip or kar)"`
	} `toml:"archive" env:"ARCHIVE"`
	Log struct {
		Level string `default:"info" toml:"level" env:"LEVEL"`
	} `toml:"log" env:"LOG"`
	// WriteDelay separates deleting an existing file from creating its replacement.
	WriteDelay time.Duration `default:"100ms" toml:"write_delay" env:"WRITE_DELAY"`
}

var logLevels = map[string]zerolog.Level{
	"trace":   zerolog.TraceLevel,
	"debug":   zerolog.DebugLevel,
	"info":    zerolog.InfoLevel,
	"warn":    zerolog.WarnLevel,
	"warning": zerolog.WarnLevel,
	"error":   zerolog.ErrorLevel,
}

// LoadConfig fills a Config from the struct defaults, the optional TOML file and EXTBUILD_*
// environment variables, in that order. A missing file is not an error.
func LoadConfig(file string) (*Config, error) {
	cfg := new(Config)
	files := []string{}
	if file != "" {
		_, err := os.Stat(file)
		if err == nil {
			files = append(files, file)
		} else if !eris.Is(err, os.ErrNotExist) {
			return nil, eris.Wrapf(err, "Failed to check config file %s", file)
		}
	}

	// EXTBUILD_DEBUG is read by the CLI, not by the loader.
	loader := aconfig.LoaderFor(cfg, aconfig.Config{
		SkipFlags:        true,
		EnvPrefix:        "EXTBUILD",
		AllowUnknownEnvs: true,
		Files:            files,
		FileDecoders: map[string]aconfig.FileDecoder{
			".toml": aconfigtoml.New(),
		},
	})

	if err := loader.Load(); err != nil {
		return nil, eris.Wrap(err, "Failed to load configuration")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate verifies that all config fields have valid values
func (cfg *Config) Validate() error {
	for name, value := range map[string]string{
		"paths.src":    cfg.Paths.Src,
		"paths.assets": cfg.Paths.Assets,
		"paths.tmp":    cfg.Paths.Tmp,
		"paths.dist":   cfg.Paths.Dist,
	} {
		if strings.TrimSpace(value) == "" {
			return eris.Errorf("Invalid value for %s: must not be empty", name)
		}
	}

	if cfg.Remote.Timeout <= 0 {
		return eris.Errorf("Invalid value for remote.timeout: %s", cfg.Remote.Timeout)
	}

	if _, err := ArchiveFormatFromString(cfg.Archive.Format); err != nil {
		return err
	}

	if _, ok := logLevels[strings.ToLower(cfg.Log.Level)]; !ok {
		return eris.Errorf("Invalid value for log.level: %s", cfg.Log.Level)
	}

	return nil
}

// LogLevel returns the zerolog level selected by log.level.
func (cfg *Config) LogLevel() zerolog.Level {
	level, ok := logLevels[strings.ToLower(cfg.Log.Level)]
	if !ok {
		return zerolog.InfoLevel
	}
	return level
}

// RemoteLib describes one library file fetched before the JS stage.
type RemoteLib struct {
	File string
	URL  string
}

// RemoteLibs expands remote.libs into full URLs. Each library is stored under its base name.
func (cfg *Config) RemoteLibs() []RemoteLib {
	libs := make([]RemoteLib, 0, len(cfg.Remote.Libs))
	base := cfg.Remote.BaseURL
	if base != "" && !strings.HasSuffix(base, "/") {
		base += "/"
	}

	for _, item := range cfg.Remote.Libs {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}

		url := item
		if !strings.Contains(item, "://") {
			url = base + strings.TrimPrefix(item, "/")
		}

		libs = append(libs, RemoteLib{
			File: path.Base(item),
			URL:  url,
		})
	}
	return libs
}

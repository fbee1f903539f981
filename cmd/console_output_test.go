package cmd

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestConsoleWriter(t *testing.T) {
	t.Setenv("EXTBUILD_DEBUG", "")

	buf := bytes.Buffer{}
	logger := zerolog.New(NewConsoleWriter(&buf))

	logger.Info().Msg(" - [12 ms]   Moved json files to dist directory")
	logger.Debug().Str("path", "src/manifest.json").Msg("wrote manifest.json")
	logger.Error().Str("stage", "json").Err(errors.New("unexpected EOF")).Msg("Build failed")

	output := buf.String()
	assert.True(t, strings.HasPrefix(output, " - [12 ms]   Moved json files to dist directory\n"+
		"wrote manifest.json (src/manifest.json)\n"+
		"json: Error: Build failed\n"), output)
	assert.Contains(t, output, "unexpected EOF")
}

func TestConsoleWriterRejectsInvalidEvents(t *testing.T) {
	w := NewConsoleWriter(&bytes.Buffer{})
	_, err := w.Write([]byte("not json"))
	assert.Error(t, err)
}

func TestLevelSplitWriter(t *testing.T) {
	t.Setenv("EXTBUILD_DEBUG", "")

	stdout := bytes.Buffer{}
	stderr := bytes.Buffer{}
	logger := zerolog.New(NewLevelSplitWriter(NewConsoleWriter(&stdout), NewConsoleWriter(&stderr)))

	logger.Info().Msg("Building release...")
	logger.Warn().Msg("slow download")
	logger.Error().Str("stage", "lint").Err(errors.New("lint check for build.js reported issues:\nbuild.js: 1 error")).Msg("Build failed")

	assert.Equal(t, "Building release...\nslow download\n", stdout.String())
	assert.True(t, strings.HasPrefix(stderr.String(), "lint: Error: Build failed\n"), stderr.String())
	assert.Contains(t, stderr.String(), "build.js: 1 error")
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/kiuryy/extbuild/pkg/buildsys"
)

// reportedError marks errors that were already logged so Execute doesn't print them twice.
type reportedError struct {
	error
}

func (e reportedError) Unwrap() error {
	return e.error
}

var rootCmd = &cobra.Command{
	Use:   "extbuild",
	Short: "Builds a release archive of a browser extension",
	Long: `Lints the sources, fetches the remote libraries, minifies scripts, stylesheets, markup
and JSON from src/ into __dist/ and packs the result into <name>_<version>.zip.
Project metadata is read from package.json in the working directory.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := cmd.Flags().GetString("dir")
		if err != nil {
			return err
		}

		root, err = filepath.Abs(root)
		if err != nil {
			return eris.Wrap(err, "Failed to resolve the project directory")
		}

		configPath, err := cmd.Flags().GetString("config")
		if err != nil {
			return err
		}
		if !filepath.IsAbs(configPath) {
			configPath = filepath.Join(root, configPath)
		}

		verbose, err := cmd.Flags().GetBool("verbose")
		if err != nil {
			return err
		}

		skipLint, err := cmd.Flags().GetBool("skip-lint")
		if err != nil {
			return err
		}

		// variables that are already set win over the .env file
		err = godotenv.Load(filepath.Join(root, ".env"))
		if err != nil && !eris.Is(err, os.ErrNotExist) {
			return eris.Wrap(err, "Failed to load .env")
		}

		cfg, err := buildsys.LoadConfig(configPath)
		if err != nil {
			return err
		}

		level := cfg.LogLevel()
		if verbose {
			level = zerolog.DebugLevel
		}

		logger := zerolog.New(NewLevelSplitWriter(NewConsoleWriter(os.Stdout), NewConsoleWriter(os.Stderr))).Level(level)
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
		defer cancel()
		ctx = buildsys.WithLogger(ctx, &logger)

		err = buildsys.CheckTools(root, buildsys.RequiredTools(cfg, skipLint))
		if err != nil {
			logger.Error().Err(err).Msg("Missing build tools")
			return reportedError{err}
		}

		pipeline, err := buildsys.NewPipeline(root, cfg)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to prepare the build")
			return reportedError{err}
		}
		pipeline.SkipLint = skipLint

		_, err = pipeline.Run(ctx)
		if err != nil {
			event := logger.Error()
			var stageErr *buildsys.StageError
			if errors.As(err, &stageErr) {
				event = event.Str("stage", stageErr.Stage)
				err = stageErr.Err
			}

			event.Err(err).Msg("Build failed")
			return reportedError{err}
		}

		return nil
	},
}

func init() {
	rootCmd.Flags().StringP("dir", "C", ".", "project directory containing package.json")
	rootCmd.Flags().String("config", "build.toml", "optional config file, relative to the project directory")
	rootCmd.Flags().BoolP("verbose", "v", false, "log every processed file")
	rootCmd.Flags().Bool("skip-lint", false, "skip the lint stage")
}

// Execute runs the CLI and exits with status 1 on failure.
func Execute() {
	err := rootCmd.Execute()
	if err == nil {
		return
	}

	var reported reportedError
	if !errors.As(err, &reported) {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(1)
}

package buildsys

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aidarkhanov/nanoid"
	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"
)

// Pipeline builds a release of the project in Root.
type Pipeline struct {
	Root     string
	Config   *Config
	Fetcher  *RemoteFetcher
	Styles   StyleCompiler
	SkipLint bool
	// Now is used for the timestamp in the temp info file.
	Now func() time.Time

	ops         *FileOps
	format      ArchiveFormat
	meta        *PackageMetadata
	buildID     string
	transformer *AssetTransformer
}

// NewPipeline prepares a pipeline for root. Styles defaults to a Dart Sass process using the
// configured binary.
func NewPipeline(root string, cfg *Config) (*Pipeline, error) {
	format, err := ArchiveFormatFromString(cfg.Archive.Format)
	if err != nil {
		return nil, err
	}

	buildID, err := nanoid.Generate(nanoid.DefaultAlphabet, 12)
	if err != nil {
		return nil, eris.Wrap(err, "Failed to generate build id")
	}

	p := &Pipeline{
		Root:    root,
		Config:  cfg,
		Fetcher: NewRemoteFetcher(cfg.Remote.Timeout),
		Now:     time.Now,
		format:  format,
		buildID: buildID,
	}

	p.ops = &FileOps{
		Matcher:    &FileMatcher{Root: root},
		Roots:      []string{p.path(cfg.Paths.Src), p.path(cfg.Paths.Tmp)},
		WriteDelay: cfg.WriteDelay,
	}

	sassBinary := cfg.Sass.Binary
	if resolved, err := lookPath(root, sassBinary); err == nil {
		sassBinary = resolved
	}
	p.Styles = &DartSassCompiler{Binary: sassBinary}

	return p, nil
}

// BuildID identifies this run in logs and in the temp info file.
func (p *Pipeline) BuildID() string {
	return p.buildID
}

// Metadata returns the loaded package.json; nil before the metadata stage ran.
func (p *Pipeline) Metadata() *PackageMetadata {
	return p.meta
}

func (p *Pipeline) path(parts ...string) string {
	return filepath.Join(append([]string{p.Root}, parts...)...)
}

func (p *Pipeline) srcPatterns(patterns []string) []string {
	result := make([]string, len(patterns))
	for idx, pattern := range patterns {
		result[idx] = p.path(p.Config.Paths.Src, pattern)
	}
	return result
}

// Stages returns the build steps in execution order.
func (p *Pipeline) Stages() []Stage {
	return []Stage{
		{Name: "metadata", Message: "Loaded package.json", Run: p.loadMetadata},
		{Name: "clean-pre", Message: "Cleaned tmp and dist directories", Run: p.cleanPre},
		{Name: "lint", Message: "Performed lint checks", Run: p.lint},
		{Name: "remote", Message: "Fetched remote libraries", Run: p.fetchRemote},
		{Name: "js", Message: "Moved js files to dist directory", Run: p.js},
		{Name: "css", Message: "Moved css files to dist directory", Run: p.css},
		{Name: "img", Message: "Moved image files to dist directory", Run: p.img},
		{Name: "json", Message: "Moved json files to dist directory", Run: p.json},
		{Name: "html", Message: "Moved html files to dist directory", Run: p.html},
		{Name: "package", Message: fmt.Sprintf("Created %s file from dist directory", p.format), Run: p.pack},
		{Name: "clean-post", Message: "Cleaned tmp directory", Run: p.cleanPost},
	}
}

// Run executes all stages. It stops at the first failing stage and leaves the output
// directories as they are.
func (p *Pipeline) Run(ctx context.Context) ([]StageResult, error) {
	logger := log(ctx).With().Str("build", p.buildID).Logger()
	ctx = WithLogger(ctx, &logger)

	if sass, ok := p.Styles.(*DartSassCompiler); ok && sass.Logger == nil {
		sass.Logger = &logger
	}

	defer func() {
		if p.Styles != nil {
			if err := p.Styles.Close(); err != nil {
				logger.Warn().Err(err).Msg("Failed to stop the style compiler")
			}
		}
	}()

	start := time.Now()
	logger.Info().Msg("Building release...")

	results, err := RunStages(ctx, p.Stages())
	if err != nil {
		return results, err
	}

	logger.Info().Msgf("Release built successfully\t[%d ms]", time.Since(start).Milliseconds())
	return results, nil
}

func (p *Pipeline) loadMetadata(ctx context.Context) (string, error) {
	meta, err := LoadPackageMetadata(p.path("package.json"))
	if err != nil {
		return "", err
	}

	p.meta = meta
	p.transformer = &AssetTransformer{
		Ops:      p.ops,
		Preamble: meta.preambleFromEnv(),
		Reserved: p.Config.JS.Reserved,
		Styles:   p.Styles,
		IncludePaths: []string{
			p.path(p.Config.Paths.Src, "scss"),
			p.path(p.Config.Paths.Assets, "scss"),
		},
	}

	return fmt.Sprintf("%s %s", meta.Name, meta.Version), nil
}

func (p *Pipeline) cleanPre(ctx context.Context) (string, error) {
	err := p.ops.Remove([]string{
		p.path(p.Config.Paths.Tmp, "*"),
		p.path(p.Config.Paths.Dist, "*"),
		p.path("*." + p.format.Ext()),
	})
	if err != nil {
		return "", err
	}

	info := fmt.Sprintf("%s\n%s\n", p.Now().UTC().Format(time.RFC3339Nano), p.buildID)
	err = p.ops.Write(p.path(p.Config.Paths.Tmp, "info.txt"), []byte(info))
	if err != nil {
		return "", err
	}

	return "", eris.Wrap(os.MkdirAll(p.path(p.Config.Paths.Dist), 0770), "Failed to create dist directory")
}

func (p *Pipeline) lint(ctx context.Context) (string, error) {
	if p.SkipLint {
		return "skipped", nil
	}

	for _, target := range p.Config.Lint.Targets {
		start := time.Now()
		err := Lint(ctx, p.Root, p.Config.Lint.Command, target)
		if err != nil {
			return "", err
		}

		log(ctx).Info().Msgf(" - %sPerformed lint check for %s", formatElapsed(time.Since(start)), target)
	}

	return fmt.Sprintf("%d targets", len(p.Config.Lint.Targets)), nil
}

// fetchRemote downloads all libraries concurrently. Files are only written once every
// download succeeded.
func (p *Pipeline) fetchRemote(ctx context.Context) (string, error) {
	libs := p.Config.RemoteLibs()
	bodies := make([][]byte, len(libs))
	eg, egCtx := errgroup.WithContext(ctx)

	for idx, lib := range libs {
		idx, lib := idx, lib
		eg.Go(func() error {
			start := time.Now()
			body, err := p.Fetcher.Fetch(egCtx, lib.URL)
			if err != nil {
				return err
			}

			bodies[idx] = body
			log(ctx).Info().
				Str("url", lib.URL).
				Msgf(" - %sFetched %s", formatElapsed(time.Since(start)), lib.File)
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return "", err
	}

	for idx, lib := range libs {
		err := p.ops.Write(p.path(p.Config.Paths.Src, "js", "lib", lib.File), bodies[idx])
		if err != nil {
			return "", err
		}
	}
	return fmt.Sprintf("%d files", len(libs)), nil
}

func countAnnotation(count int, err error) (string, error) {
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d files", count), nil
}

func (p *Pipeline) js(ctx context.Context) (string, error) {
	return countAnnotation(p.transformer.Minify(ctx, p.srcPatterns(p.Config.Sources.JS), p.path(p.Config.Paths.Dist, "js", "lib"), true))
}

func (p *Pipeline) css(ctx context.Context) (string, error) {
	return countAnnotation(p.transformer.Minify(ctx, p.srcPatterns(p.Config.Sources.SCSS), p.path(p.Config.Paths.Dist, "css"), true))
}

func (p *Pipeline) img(ctx context.Context) (string, error) {
	return countAnnotation(p.ops.Copy(ctx, p.srcPatterns(p.Config.Sources.Images), p.srcPatterns(p.Config.Sources.ImagesSkip), p.path(p.Config.Paths.Dist), false))
}

func (p *Pipeline) json(ctx context.Context) (string, error) {
	return countAnnotation(p.transformer.Minify(ctx, p.srcPatterns(p.Config.Sources.JSON), p.path(p.Config.Paths.Dist), false))
}

func (p *Pipeline) html(ctx context.Context) (string, error) {
	return countAnnotation(p.transformer.Minify(ctx, p.srcPatterns(p.Config.Sources.HTML), p.path(p.Config.Paths.Dist), false))
}

func (p *Pipeline) pack(ctx context.Context) (string, error) {
	name := p.meta.ArchiveName(p.format.Ext())
	err := Package(p.path(p.Config.Paths.Dist), p.path(name), p.format)
	if err != nil {
		return "", err
	}
	return name, nil
}

func (p *Pipeline) cleanPost(ctx context.Context) (string, error) {
	return "", p.ops.Remove([]string{p.path(p.Config.Paths.Tmp)})
}

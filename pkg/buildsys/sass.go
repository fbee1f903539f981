package buildsys

import (
	"sync"

	"github.com/bep/godartsass/v2"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// StyleCompiler turns SCSS source into compressed CSS.
type StyleCompiler interface {
	CompileSCSS(source string, includePaths []string) (string, error)
	Close() error
}

// DartSassCompiler talks to a Dart Sass process through the embedded protocol. The process is
// started on the first compilation and kept until Close.
type DartSassCompiler struct {
	Binary string
	Logger *zerolog.Logger

	lock       sync.Mutex
	transpiler *godartsass.Transpiler
}

var _ StyleCompiler = (*DartSassCompiler)(nil)

func (c *DartSassCompiler) start() (*godartsass.Transpiler, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.transpiler != nil {
		return c.transpiler, nil
	}

	opts := godartsass.Options{
		DartSassEmbeddedFilename: c.Binary,
	}
	if c.Logger != nil {
		logger := c.Logger
		opts.LogEventHandler = func(evt godartsass.LogEvent) {
			logger.Warn().Str("tool", "sass").Msg(evt.Message)
		}
	}

	transpiler, err := godartsass.Start(opts)
	if err != nil {
		return nil, eris.Wrapf(err, "Failed to start %s", c.Binary)
	}

	c.transpiler = transpiler
	return transpiler, nil
}

// CompileSCSS compiles source with the given include paths.
func (c *DartSassCompiler) CompileSCSS(source string, includePaths []string) (string, error) {
	transpiler, err := c.start()
	if err != nil {
		return "", err
	}

	result, err := transpiler.Execute(godartsass.Args{
		Source:       source,
		SourceSyntax: godartsass.SourceSyntaxSCSS,
		OutputStyle:  godartsass.OutputStyleCompressed,
		IncludePaths: includePaths,
	})
	if err != nil {
		return "", err
	}

	return result.CSS, nil
}

// Close stops the Dart Sass process if it was started.
func (c *DartSassCompiler) Close() error {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.transpiler == nil {
		return nil
	}

	err := c.transpiler.Close()
	c.transpiler = nil
	return err
}

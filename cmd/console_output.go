package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/mitchellh/colorstring"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// ConsoleWriter renders zerolog's JSON events as coloured, human readable lines.
type ConsoleWriter struct {
	out    io.Writer
	color  colorstring.Colorize
	buffer strings.Builder
	lock   sync.Mutex
}

// NewConsoleWriter returns a writer printing to out. Colours are disabled if out is not a
// terminal.
func NewConsoleWriter(out io.Writer) *ConsoleWriter {
	colored := false
	if f, ok := out.(*os.File); ok {
		colored = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}

	return &ConsoleWriter{
		out: out,
		color: colorstring.Colorize{
			Colors:  colorstring.DefaultColors,
			Disable: !colored,
			Reset:   true,
		},
	}
}

func (w *ConsoleWriter) Write(p []byte) (n int, err error) {
	w.lock.Lock()
	defer w.lock.Unlock()

	var evt map[string]interface{}
	d := json.NewDecoder(bytes.NewReader(p))
	d.UseNumber()
	err = d.Decode(&evt)
	if err != nil {
		return n, eris.Wrapf(err, "cannot decode event: %s", p)
	}

	w.buffer.Reset()
	switch evt[zerolog.LevelFieldName] {
	case "fatal", "error":
		w.buffer.WriteString("[red]")
	case "warn":
		w.buffer.WriteString("[yellow]")
	case "debug", "trace":
		w.buffer.WriteString("[blue]")
	default:
		w.buffer.WriteString("[default]")
	}

	if evt[zerolog.LevelFieldName] == "error" {
		if stage, ok := evt["stage"].(string); ok {
			w.buffer.WriteString(stage + ": ")
		}
		w.buffer.WriteString("Error: ")
	}

	msg, _ := evt[zerolog.MessageFieldName].(string)
	if path, ok := evt["path"].(string); ok {
		msg += " (" + path + ")"
	}
	w.buffer.WriteString(msg)

	if errorDetails, ok := evt[zerolog.ErrorFieldName].(string); ok {
		w.buffer.WriteString("\n")
		w.buffer.WriteString(errorDetails)
	}

	if os.Getenv("EXTBUILD_DEBUG") != "" {
		names := make([]string, 0, len(evt))
		for name := range evt {
			names = append(names, name)
		}
		sort.Strings(names)

		w.buffer.WriteString("\n")
		for _, name := range names {
			w.buffer.WriteString(fmt.Sprintf("  %s: %+v\n", name, evt[name]))
		}
	}

	_, err = io.WriteString(w.out, w.color.Color(w.buffer.String())+"\n")
	if err != nil {
		return 0, err
	}
	return len(p), nil
}

// LevelSplitWriter sends error, fatal and panic events to errOut and everything else to out.
type LevelSplitWriter struct {
	out    io.Writer
	errOut io.Writer
}

var _ zerolog.LevelWriter = (*LevelSplitWriter)(nil)

// NewLevelSplitWriter returns a writer that separates errors from regular output.
func NewLevelSplitWriter(out, errOut io.Writer) *LevelSplitWriter {
	return &LevelSplitWriter{out: out, errOut: errOut}
}

func (w *LevelSplitWriter) Write(p []byte) (int, error) {
	return w.out.Write(p)
}

// WriteLevel implements zerolog.LevelWriter.
func (w *LevelSplitWriter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	if level >= zerolog.ErrorLevel && level <= zerolog.PanicLevel {
		return w.errOut.Write(p)
	}
	return w.out.Write(p)
}

func init() {
	zerolog.ErrorMarshalFunc = func(err error) interface{} {
		return eris.ToString(err, os.Getenv("EXTBUILD_DEBUG") != "")
	}
}

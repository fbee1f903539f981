package buildsys

import (
	"fmt"
	"strings"
)

// MatchError is returned when a pattern could not be expanded.
type MatchError struct {
	Pattern string
	Err     error
}

var _ error = (*MatchError)(nil)

func (e *MatchError) Error() string {
	return fmt.Sprintf("failed to resolve pattern %s: %v", e.Pattern, e.Err)
}

func (e *MatchError) Unwrap() error { return e.Err }

// ReadError is returned when a source file is missing or unreadable.
type ReadError struct {
	Path string
	Err  error
}

var _ error = (*ReadError)(nil)

func (e *ReadError) Error() string {
	return fmt.Sprintf("failed to read %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// FetchError is returned when a remote file could not be retrieved or came back empty.
type FetchError struct {
	URL string
	Err error
}

var _ error = (*FetchError)(nil)

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// TransformError carries the file that a minifier or compiler rejected.
type TransformError struct {
	Path string
	Kind AssetKind
	Err  error
}

var _ error = (*TransformError)(nil)

func (e *TransformError) Error() string {
	return fmt.Sprintf("failed to transform %s (%s): %v", e.Path, e.Kind, e.Err)
}

func (e *TransformError) Unwrap() error { return e.Err }

// PackageError is returned when the output archive could not be written.
type PackageError struct {
	Dest string
	Err  error
}

var _ error = (*PackageError)(nil)

func (e *PackageError) Error() string {
	return fmt.Sprintf("failed to package %s: %v", e.Dest, e.Err)
}

func (e *PackageError) Unwrap() error { return e.Err }

// LintError reports unresolved linter output. Err is set when the linter could not be run
// at all; otherwise Output holds whatever the linter printed.
type LintError struct {
	Target string
	Output string
	Err    error
}

var _ error = (*LintError)(nil)

func (e *LintError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("lint check for %s failed: %v", e.Target, e.Err)
	}
	return fmt.Sprintf("lint check for %s reported issues:\n%s", e.Target, strings.TrimSpace(e.Output))
}

func (e *LintError) Unwrap() error { return e.Err }

// MetadataLoadError is returned when package.json is missing, malformed or incomplete.
type MetadataLoadError struct {
	Path string
	Err  error
}

var _ error = (*MetadataLoadError)(nil)

func (e *MetadataLoadError) Error() string {
	return fmt.Sprintf("could not load %s: %v", e.Path, e.Err)
}

func (e *MetadataLoadError) Unwrap() error { return e.Err }

// ToolMissingError is returned by CheckTools for executables that aren't on PATH.
type ToolMissingError struct {
	Tool string
	Err  error
}

var _ error = (*ToolMissingError)(nil)

func (e *ToolMissingError) Error() string {
	return fmt.Sprintf("required tool %s is not installed: %v", e.Tool, e.Err)
}

func (e *ToolMissingError) Unwrap() error { return e.Err }

// StageError reports which build stage failed.
type StageError struct {
	Stage string
	Err   error
}

var _ error = (*StageError)(nil)

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

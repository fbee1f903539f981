package buildsys

import (
	"context"
	"path/filepath"
	"strings"
)

// AssetKind is the closed set of file types the transformer knows about.
type AssetKind int

const (
	// AssetOther files are written unchanged.
	AssetOther AssetKind = iota
	AssetHTML
	AssetJSON
	AssetJS
	AssetSCSS
)

// KindFromExt maps a file extension (without dot) to its AssetKind.
func KindFromExt(ext string) AssetKind {
	switch strings.ToLower(ext) {
	case "html":
		return AssetHTML
	case "json":
		return AssetJSON
	case "js":
		return AssetJS
	case "scss":
		return AssetSCSS
	default:
		return AssetOther
	}
}

func (k AssetKind) String() string {
	switch k {
	case AssetHTML:
		return "html"
	case AssetJSON:
		return "json"
	case AssetJS:
		return "js"
	case AssetSCSS:
		return "scss"
	default:
		return "other"
	}
}

// AssetTransformer minifies or compiles source files depending on their kind.
type AssetTransformer struct {
	Ops *FileOps
	// Preamble is wrapped in /*! */ and put in front of every minified script.
	Preamble string
	// Reserved identifiers are never renamed in scripts.
	Reserved []string
	Styles   StyleCompiler
	// IncludePaths are searched by @import in stylesheets.
	IncludePaths []string
}

// Transform converts content according to the kind of info and returns the output name
// (relative to the destination) along with the new content.
func (t *AssetTransformer) Transform(info FileDescriptor, content []byte) (string, []byte, error) {
	kind := KindFromExt(info.Ext)
	name := info.Name
	var err error

	switch kind {
	case AssetHTML:
		content, err = minifyHTML(content)
	case AssetJSON:
		content, err = minifyJSON(content)
	case AssetJS:
		content, err = minifyJS(content, t.Preamble, t.Reserved)
	case AssetSCSS:
		var css string
		css, err = t.Styles.CompileSCSS(string(content), t.IncludePaths)
		content = []byte(css)
		name = strings.TrimSuffix(name, filepath.Ext(name)) + ".css"
	case AssetOther:
	}

	if err != nil {
		return "", nil, &TransformError{Path: info.Path, Kind: kind, Err: err}
	}
	return name, content, nil
}

// Minify transforms every file matching patterns into dest. Files are handled one after the
// other in match order so logs and overwrites of shared output names stay deterministic.
func (t *AssetTransformer) Minify(ctx context.Context, patterns []string, dest string, flatten bool) (int, error) {
	matches, err := t.Ops.Matcher.Match(patterns)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, file := range matches {
		if err := ctx.Err(); err != nil {
			return count, err
		}

		info, ok := t.Ops.describe(file, flatten)
		if !ok {
			continue
		}

		content, err := t.Ops.Read(info.Path)
		if err != nil {
			return count, err
		}

		name, content, err := t.Transform(info, content)
		if err != nil {
			return count, err
		}

		destPath := filepath.Join(dest, name)
		err = t.Ops.Write(destPath, content)
		if err != nil {
			return count, err
		}

		log(ctx).Debug().
			Str("path", info.Path).
			Str("kind", KindFromExt(info.Ext).String()).
			Msgf("wrote %s", destPath)
		count++
	}

	return count, nil
}

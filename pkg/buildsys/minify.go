package buildsys

import (
	"io"
	"regexp"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/rotisserie/eris"
	"github.com/tailscale/hujson"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/parse/v2"
	htmlparse "github.com/tdewolff/parse/v2/html"
)

var htmlMinifier = newHTMLMinifier()

func newHTMLMinifier() *minify.M {
	m := minify.New()
	m.AddFunc("text/css", css.Minify)
	m.Add("text/html", &html.Minifier{
		KeepDefaultAttrVals: true,
		KeepDocumentTags:    true,
		KeepEndTags:         true,
		KeepQuotes:          true,
	})
	return m
}

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true, "hr": true, "img": true,
	"input": true, "link": true, "meta": true, "param": true, "source": true, "track": true, "wbr": true,
}

// minifyHTML collapses whitespace, strips comments and minifies inline CSS. Void elements
// that were written as <br/> in the source keep their slash.
func minifyHTML(content []byte) ([]byte, error) {
	minified, err := htmlMinifier.Bytes("text/html", content)
	if err != nil {
		return nil, err
	}

	return restoreClosingSlashes(minified, selfClosingSequence(content)), nil
}

// selfClosingSequence lists, in document order, whether each void element was self-closed.
func selfClosingSequence(content []byte) []bool {
	seq := []bool{}
	lexer := htmlparse.NewLexer(parse.NewInputBytes(content))
	inVoid := false

	for {
		tt, _ := lexer.Next()
		switch tt {
		case htmlparse.ErrorToken:
			return seq
		case htmlparse.StartTagToken:
			inVoid = voidElements[strings.ToLower(string(lexer.Text()))]
		case htmlparse.StartTagVoidToken:
			if inVoid {
				seq = append(seq, true)
			}
			inVoid = false
		case htmlparse.StartTagCloseToken:
			if inVoid {
				seq = append(seq, false)
			}
			inVoid = false
		}
	}
}

// restoreClosingSlashes re-lexes the minified markup and closes the n-th void element with
// "/>" if seq[n] is set. Text, comments and raw text like scripts are copied unchanged.
func restoreClosingSlashes(minified []byte, seq []bool) []byte {
	result := make([]byte, 0, len(minified)+len(seq))
	lexer := htmlparse.NewLexer(parse.NewInputBytes(minified))
	idx := 0
	inVoid := false

	for {
		tt, data := lexer.Next()
		switch tt {
		case htmlparse.ErrorToken:
			if lexer.Err() != io.EOF {
				return minified
			}
			return result
		case htmlparse.StartTagToken:
			inVoid = voidElements[strings.ToLower(string(lexer.Text()))]
		case htmlparse.StartTagVoidToken:
			if inVoid {
				idx++
			}
			inVoid = false
		case htmlparse.StartTagCloseToken:
			if inVoid {
				selfClosed := idx < len(seq) && seq[idx]
				idx++
				inVoid = false
				if selfClosed {
					result = append(result, '/', '>')
					continue
				}
			}
			inVoid = false
		}

		result = append(result, data...)
	}
}

// minifyJSON removes whitespace and comments.
func minifyJSON(content []byte) ([]byte, error) {
	value, err := hujson.Parse(content)
	if err != nil {
		return nil, err
	}

	value.Minimize()
	return value.Pack(), nil
}

func esbuildMinify(content []byte, banner string, mangle bool) ([]byte, error) {
	result := api.Transform(string(content), api.TransformOptions{
		Loader:            api.LoaderJS,
		MinifyWhitespace:  true,
		MinifySyntax:      true,
		MinifyIdentifiers: mangle,
		Banner:            banner,
	})

	if len(result.Errors) > 0 {
		messages := api.FormatMessages(result.Errors, api.FormatMessagesOptions{
			Kind: api.ErrorMessage,
		})
		return nil, eris.New(strings.TrimSpace(strings.Join(messages, "\n")))
	}

	return result.Code, nil
}

// minifyJS minifies a script and prefixes it with the preamble. Scripts that use one of the
// reserved names as an identifier are minified without renaming any local bindings.
func minifyJS(content []byte, preamble string, reserved []string) ([]byte, error) {
	banner := ""
	if preamble != "" {
		banner = "/*! " + preamble + " */"
	}

	return esbuildMinify(content, banner, !usesIdentifier(content, reserved))
}

// usesIdentifier reports whether any of names occurs in content other than as a property
// name after a dot.
func usesIdentifier(content []byte, names []string) bool {
	for _, name := range names {
		if name == "" {
			continue
		}

		ident := regexp.MustCompile(`(?:^|[^.\w$])` + regexp.QuoteMeta(name) + `(?:[^\w$]|$)`)
		if ident.Match(content) {
			return true
		}
	}

	return false
}

package buildsys

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindFromExt(t *testing.T) {
	tests := map[string]AssetKind{
		"html": AssetHTML,
		"HTML": AssetHTML,
		"json": AssetJSON,
		"js":   AssetJS,
		"scss": AssetSCSS,
		"css":  AssetOther,
		"png":  AssetOther,
		"":     AssetOther,
	}

	for ext, kind := range tests {
		assert.Equal(t, kind, KindFromExt(ext), ext)
	}
}

const testHTML = `<!DOCTYPE html>
<html>
  <head>
    <!-- settings page -->
    <meta charset="utf-8" />
    <style>
      body  { color : red ; margin : 0px ; }
    </style>
  </head>
  <body>
    <p>Hello    world</p>
    <br />
    <img src="icon.png" alt="icon"/>
    <hr>
  </body>
</html>
`

func TestMinifyHTML(t *testing.T) {
	out, err := minifyHTML([]byte(testHTML))
	require.NoError(t, err)

	result := string(out)
	assert.NotContains(t, result, "settings page")
	assert.Contains(t, result, "Hello world")
	assert.Contains(t, result, `<meta charset="utf-8"/>`)
	assert.Contains(t, result, "<br/>")
	assert.Contains(t, result, `<img src="icon.png" alt="icon"/>`)
	assert.Contains(t, result, "<hr>")
	assert.Contains(t, result, "color:red")

	again, err := minifyHTML(out)
	require.NoError(t, err)
	assert.Equal(t, result, string(again))
}

func TestRestoreClosingSlashes(t *testing.T) {
	out := restoreClosingSlashes([]byte(`<br><img src="a>b.png"><hr/><input type="text">`), []bool{true, true, true, false})
	assert.Equal(t, `<br/><img src="a>b.png"/><hr/><input type="text">`, string(out))
}

func TestMinifyHTMLLeavesScriptText(t *testing.T) {
	src := "<html><body><script>var s = \"<br>\";</script>\n<p>a<br/>b</p>\n<textarea><hr/></textarea><img src=\"x.png\"></body></html>"

	out, err := minifyHTML([]byte(src))
	require.NoError(t, err)

	result := string(out)
	assert.Contains(t, result, `var s = "<br>";`)
	assert.Contains(t, result, "a<br/>b")
	assert.Contains(t, result, `<img src="x.png">`)
	assert.NotContains(t, result, `<img src="x.png"/>`)
}

func TestMinifyJSON(t *testing.T) {
	input := `{
  // extension manifest
  "manifest_version": 3,
  "name": "Demo",
  "permissions": [ "storage", "tabs", ],
  /* trailing */
}`

	out, err := minifyJSON([]byte(input))
	require.NoError(t, err)
	assert.Equal(t, `{"manifest_version":3,"name":"Demo","permissions":["storage","tabs"]}`, string(out))

	again, err := minifyJSON(out)
	require.NoError(t, err)
	assert.Equal(t, string(out), string(again))

	_, err = minifyJSON([]byte(`{"name": `))
	assert.Error(t, err)
}

func TestMinifyJS(t *testing.T) {
	t.Run("preamble_and_mangling", func(t *testing.T) {
		src := "function double(longParameterName) {\n  return longParameterName * 2;\n}\nwindow.double = double;\n"
		out, err := minifyJS([]byte(src), "(c) Jane under MIT", []string{"jsu", "chrome"})
		require.NoError(t, err)

		result := string(out)
		assert.True(t, strings.HasPrefix(result, "/*! (c) Jane under MIT */\n"), result)
		assert.NotContains(t, result, "longParameterName")
		assert.Contains(t, result, "function double(")
	})

	t.Run("reserved_names_survive", func(t *testing.T) {
		src := `function init(options) {
  var jsu = options.lib;
  jsu.init();
  jsu.run(options);
  chrome.runtime.sendMessage(jsu);
}
window.init = init;
`
		out, err := minifyJS([]byte(src), "", []string{"jsu", "chrome"})
		require.NoError(t, err)

		result := string(out)
		assert.Contains(t, result, "jsu.init()")
		assert.Contains(t, result, "chrome.runtime.sendMessage(jsu)")
		assert.NotContains(t, result, "/*!")
	})

	t.Run("reserved_local_next_to_property", func(t *testing.T) {
		src := "function f(o) { var jsu = o.x; return jsu.init(o.jsu); }\nwindow.f = f;\n"
		out, err := minifyJS([]byte(src), "", []string{"jsu", "chrome"})
		require.NoError(t, err)

		result := string(out)
		assert.Contains(t, result, "var jsu=o.x")
		assert.Contains(t, result, "jsu.init(o.jsu)")
	})

	t.Run("syntax_error", func(t *testing.T) {
		_, err := minifyJS([]byte("function ("), "", nil)
		assert.Error(t, err)
	})
}

func TestUsesIdentifier(t *testing.T) {
	reserved := []string{"jsu", "chrome"}

	tests := map[string]bool{
		"var jsu = 1;":                    true,
		"jsu.init();":                     true,
		"function f(jsu) {}":              true,
		"chrome.runtime.id;":              true,
		"return o.jsu;":                   false,
		"var jsutils = 1; var myjsu = 2;": false,
		"var $jsu = 1;":                   false,
	}

	for src, expected := range tests {
		assert.Equal(t, expected, usesIdentifier([]byte(src), reserved), src)
	}
}

func TestTransformSCSSOutputName(t *testing.T) {
	tr := &AssetTransformer{Styles: &stubStyles{}}

	for _, src := range []string{"style.scss", filepath.Join("scss", "style.scss"), filepath.Join("scss", "a", "b", "deep.scss")} {
		name, content, err := tr.Transform(FileDescriptor{Path: "/src/" + src, Name: src, Ext: "scss"}, []byte("a { color: red; }"))
		require.NoError(t, err)
		assert.Equal(t, ".css", filepath.Ext(name))
		assert.Equal(t, "a{color:red;}", string(content))
	}
}

func TestTransformPassThrough(t *testing.T) {
	tr := &AssetTransformer{}
	name, content, err := tr.Transform(FileDescriptor{Path: "/src/a.txt", Name: "a.txt", Ext: "txt"}, []byte("  keep  me  "))
	require.NoError(t, err)
	assert.Equal(t, "a.txt", name)
	assert.Equal(t, "  keep  me  ", string(content))
}

func TestTransformError(t *testing.T) {
	tr := &AssetTransformer{}
	_, _, err := tr.Transform(FileDescriptor{Path: "/src/manifest.json", Name: "manifest.json", Ext: "json"}, []byte("{"))

	var transformErr *TransformError
	require.ErrorAs(t, err, &transformErr)
	assert.Equal(t, "/src/manifest.json", transformErr.Path)
	assert.Equal(t, AssetJSON, transformErr.Kind)
}

func TestAssetTransformerMinify(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"src/scss/a.scss":        "a { color: red; }",
		"src/scss/b.scss":        "b { color: blue; }",
		"src/html/popup.html":    "<p>  popup  </p>",
		"src/html/sub/page.html": "<p>page</p>",
	})

	tr := &AssetTransformer{Ops: newTestOps(root), Styles: &stubStyles{}}
	ctx := testContext(t)
	dist := filepath.Join(root, "__dist")

	count, err := tr.Minify(ctx, []string{filepath.Join(root, "src", "scss", "*.scss")}, filepath.Join(dist, "css"), true)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = tr.Minify(ctx, []string{filepath.Join(root, "src", "html", "**", "*.html")}, dist, false)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	assert.Equal(t, []string{"css/a.css", "css/b.css", "html/popup.html", "html/sub/page.html"}, listTree(t, dist))

	content, err := os.ReadFile(filepath.Join(dist, "html", "popup.html"))
	require.NoError(t, err)
	assert.Equal(t, "<p>popup</p>", string(content))
}

func TestDartSassCompiler(t *testing.T) {
	// The npm build of sass lacks the embedded protocol, so only run against an explicit binary.
	binary := os.Getenv("EXTBUILD_TEST_SASS")
	if binary == "" {
		t.Skip("EXTBUILD_TEST_SASS is not set")
	}

	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"assets/scss/_vars.scss": "$main: #ff0000;",
	})

	compiler := &DartSassCompiler{Binary: binary}
	defer compiler.Close()

	css, err := compiler.CompileSCSS("@import \"vars\";\nbody { a { color: $main; } }", []string{filepath.Join(root, "assets", "scss")})
	require.NoError(t, err)
	assert.Equal(t, "body a{color:red}", strings.TrimSpace(css))
}

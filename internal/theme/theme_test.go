package theme

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBundled_Default(t *testing.T) {
	css, ok := Bundled(DefaultThemeName)
	require.True(t, ok)
	assert.Contains(t, css, "@window_bg_color")
	assert.Contains(t, css, `@import "_base.css"`)
}

func TestBundled_NotFound(t *testing.T) {
	css, ok := Bundled("nonexistent")
	assert.False(t, ok)
	assert.Empty(t, css)
}

func TestListBundled_SkipsPartials(t *testing.T) {
	names := ListBundled()
	assert.Equal(t, []string{"default", "minimal"}, names)
}

func TestResolve_BundledInlinesPartial(t *testing.T) {
	th, err := Resolve("", "")
	require.NoError(t, err)

	assert.Equal(t, DefaultThemeName, th.Name)
	assert.True(t, th.Bundled)
	assert.Contains(t, th.CSS, "/* imported (bundled): _base.css */")
	assert.Contains(t, th.CSS, ".notistack-card")
	assert.NotContains(t, th.CSS, "@import")
}

func TestResolve_UserShadowsBundled(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "minimal.css"), []byte(".notistack-card { color: red; }"), 0o644))

	th, err := Resolve("minimal", dir)
	require.NoError(t, err)
	assert.False(t, th.Bundled)
	assert.Equal(t, filepath.Join(dir, "minimal.css"), th.Path)
	assert.Equal(t, ".notistack-card { color: red; }", th.CSS)
}

func TestResolve_NotFound(t *testing.T) {
	_, err := Resolve("nope", t.TempDir())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProcessImports_NoImports(t *testing.T) {
	css := `.notistack-card { color: red; }`
	assert.Equal(t, css, ProcessImports(css, "", nil))
}

func TestProcessImports_FileImport(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "_colors.css"), []byte(`@define-color accent #ff0000;`), 0o644))

	result := ProcessImports("@import \"_colors.css\";\n.notistack-card { color: @accent; }", dir, nil)

	assert.Contains(t, result, "/* imported: _colors.css */")
	assert.Contains(t, result, "#ff0000")
	assert.Contains(t, result, ".notistack-card")
}

func TestProcessImports_URLSyntax(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.css"), []byte(".a {}"), 0o644))

	result := ProcessImports(`@import url("a.css");`, dir, nil)
	assert.Contains(t, result, ".a {}")
}

func TestProcessImports_Circular(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.css"), []byte(`@import "b.css"; .a {}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.css"), []byte(`@import "a.css"; .b {}`), 0o644))

	result := ProcessImports(`@import "a.css";`, dir, nil)

	assert.Contains(t, result, ".a {}")
	assert.Contains(t, result, ".b {}")
	assert.Contains(t, result, "skipped circular import: a.css")
}

func TestProcessImports_FallsBackToBundledPartial(t *testing.T) {
	result := ProcessImports(`@import "_base.css";`, t.TempDir(), nil)
	assert.Contains(t, result, "/* imported (bundled): _base.css */")
}

func TestProcessImports_Missing(t *testing.T) {
	result := ProcessImports(`@import "missing.css";`, t.TempDir(), nil)
	assert.Equal(t, "/* import not found: missing.css */", result)
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ocean.css"), []byte(""), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "default.css"), []byte(""), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "_partial.css"), []byte(""), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte(""), 0o644))

	infos := List(dir)

	var names []string
	for _, info := range infos {
		names = append(names, info.Name)
	}
	assert.Equal(t, []string{"default", "minimal", "ocean"}, names)
	assert.True(t, infos[0].Bundled)
	assert.Equal(t, filepath.Join(dir, "ocean.css"), infos[2].Path)
}

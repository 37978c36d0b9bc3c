package theme

import (
	"embed"
	"io/fs"
	"path"
	"sort"
	"strings"
)

//go:embed themes/*.css
var bundled embed.FS

// DefaultThemeName is the name of the built-in default theme.
const DefaultThemeName = "default"

// Bundled returns the CSS of a bundled theme.
func Bundled(name string) (string, bool) {
	data, err := bundled.ReadFile(path.Join("themes", name+".css"))
	if err != nil {
		return "", false
	}
	return string(data), true
}

// bundledFile returns any embedded stylesheet by file name, partials included.
func bundledFile(file string) (string, bool) {
	data, err := bundled.ReadFile(path.Join("themes", file))
	if err != nil {
		return "", false
	}
	return string(data), true
}

// ListBundled returns the names of the bundled themes in sorted order.
// Partials (names starting with _) are not themes and are skipped.
func ListBundled() []string {
	entries, err := fs.ReadDir(bundled, "themes")
	if err != nil {
		return []string{DefaultThemeName}
	}

	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, "_") || path.Ext(name) != ".css" {
			continue
		}
		names = append(names, strings.TrimSuffix(name, ".css"))
	}
	sort.Strings(names)
	return names
}

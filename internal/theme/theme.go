package theme

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// ErrNotFound is returned when a theme exists neither on disk nor bundled.
var ErrNotFound = errors.New("theme not found")

// importRegex matches @import "file.css"; @import 'file.css'; and @import url("file.css");
var importRegex = regexp.MustCompile(`@import\s+(?:url\s*\(\s*)?["']([^"']+)["']\s*\)?;?`)

// Theme is a resolved stylesheet ready to hand to GTK.
type Theme struct {
	Name    string
	Path    string // Empty for bundled themes
	CSS     string // Imports already inlined
	Bundled bool
}

// Info describes an available theme.
type Info struct {
	Name    string
	Path    string
	Bundled bool
}

// Resolve finds a theme by name. A file in userDir shadows a bundled theme
// of the same name. An empty name means the default theme.
func Resolve(name, userDir string) (*Theme, error) {
	if name == "" {
		name = DefaultThemeName
	}

	if userDir != "" {
		p := filepath.Join(userDir, name+".css")
		data, err := os.ReadFile(p)
		switch {
		case err == nil:
			return &Theme{
				Name: name,
				Path: p,
				CSS:  ProcessImports(string(data), filepath.Dir(p), nil),
			}, nil
		case !errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("read theme %s: %w", p, err)
		}
	}

	if css, ok := Bundled(name); ok {
		return &Theme{
			Name:    name,
			CSS:     ProcessImports(css, "", nil),
			Bundled: true,
		}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
}

// List returns bundled themes followed by user themes that do not shadow
// a bundled name.
func List(userDir string) []Info {
	seen := make(map[string]bool)
	var out []Info

	for _, name := range ListBundled() {
		seen[name] = true
		out = append(out, Info{Name: name, Bundled: true})
	}

	if userDir == "" {
		return out
	}
	entries, err := os.ReadDir(userDir)
	if err != nil {
		return out
	}
	for _, entry := range entries {
		file := entry.Name()
		if entry.IsDir() || filepath.Ext(file) != ".css" || strings.HasPrefix(file, "_") {
			continue
		}
		name := strings.TrimSuffix(file, ".css")
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, Info{Name: name, Path: filepath.Join(userDir, file)})
	}
	return out
}

// ProcessImports inlines @import statements. Relative imports resolve
// against baseDir and fall back to bundled stylesheets. seen guards
// against import cycles and may be nil.
func ProcessImports(css, baseDir string, seen map[string]bool) string {
	if seen == nil {
		seen = make(map[string]bool)
	}

	return importRegex.ReplaceAllStringFunc(css, func(match string) string {
		sub := importRegex.FindStringSubmatch(match)
		if len(sub) < 2 {
			return match
		}
		target := sub[1]

		full := target
		if !filepath.IsAbs(target) {
			full = filepath.Join(baseDir, target)
		}
		if seen[full] {
			return "/* skipped circular import: " + target + " */"
		}
		seen[full] = true

		if baseDir != "" || filepath.IsAbs(target) {
			if data, err := os.ReadFile(full); err == nil {
				return "/* imported: " + target + " */\n" + ProcessImports(string(data), filepath.Dir(full), seen)
			}
		}

		if data, ok := bundledFile(filepath.Base(target)); ok {
			return "/* imported (bundled): " + target + " */\n" + ProcessImports(data, "", seen)
		}
		return "/* import not found: " + target + " */"
	})
}

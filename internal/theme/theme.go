package theme

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// importRegex matches @import "file.css"; @import 'file.css'; and
// @import url("file.css");
var importRegex = regexp.MustCompile(`@import\s+(?:url\s*\(\s*)?["']([^"']+)["']\s*\)?;?`)

// Theme is a bundled theme plus an optional user stylesheet layered on top.
type Theme struct {
	Name string
	// Path is the user stylesheet, or empty.
	Path    string
	CSS     string
	ModTime time.Time
}

// NewTheme composes the named bundled theme with the stylesheet at path.
// An unknown name falls back to the default theme; a missing stylesheet is
// an error.
func NewTheme(name, path string) (*Theme, error) {
	if !IsEmbeddedTheme(name) {
		name = DefaultThemeName
	}
	t := &Theme{Name: name, Path: path}
	if _, err := t.Reload(); err != nil {
		return nil, err
	}
	return t, nil
}

// Reload re-reads the user stylesheet if its modification time moved and
// reports whether the composed CSS changed.
func (t *Theme) Reload() (bool, error) {
	base, _ := GetEmbeddedTheme(t.Name)
	base = ProcessImports(base, "", nil)

	if t.Path == "" {
		changed := t.CSS != base
		t.CSS = base
		return changed, nil
	}

	info, err := os.Stat(t.Path)
	if err != nil {
		return false, fmt.Errorf("stat stylesheet: %w", err)
	}
	if t.CSS != "" && !info.ModTime().After(t.ModTime) {
		return false, nil
	}

	user, err := os.ReadFile(t.Path)
	if err != nil {
		return false, fmt.Errorf("read stylesheet: %w", err)
	}

	css := Compose(base, ProcessImports(string(user), filepath.Dir(t.Path), nil))
	changed := css != t.CSS
	t.CSS = css
	t.ModTime = info.ModTime()
	return changed, nil
}

// Compose appends the user stylesheet after the base so its rules win.
func Compose(base, user string) string {
	if strings.TrimSpace(user) == "" {
		return base
	}
	return base + "\n/* user stylesheet */\n" + user
}

// ProcessImports resolves and inlines @import statements relative to
// baseDir. Unresolvable imports fall back to the embedded partials. The
// seen map prevents circular imports.
func ProcessImports(css string, baseDir string, seen map[string]bool) string {
	if seen == nil {
		seen = make(map[string]bool)
	}

	return importRegex.ReplaceAllStringFunc(css, func(match string) string {
		submatch := importRegex.FindStringSubmatch(match)
		if len(submatch) < 2 {
			return match
		}
		importPath := submatch[1]

		fullPath := importPath
		if !filepath.IsAbs(importPath) {
			fullPath = filepath.Join(baseDir, importPath)
		}
		if seen[fullPath] {
			return "/* circular import prevented: " + importPath + " */"
		}
		seen[fullPath] = true

		data, err := os.ReadFile(fullPath)
		if err != nil || baseDir == "" {
			baseName := filepath.Base(importPath)
			if embedded, found := GetEmbeddedPartial(baseName); found {
				return "/* imported (embedded): " + importPath + " */\n" + ProcessImports(embedded, "", seen)
			}
			if embedded, found := GetEmbeddedTheme(strings.TrimSuffix(baseName, ".css")); found {
				return "/* imported (embedded): " + importPath + " */\n" + ProcessImports(embedded, "", seen)
			}
			if err == nil {
				err = os.ErrNotExist
			}
			return "/* import failed: " + importPath + " - " + err.Error() + " */"
		}

		return "/* imported: " + importPath + " */\n" +
			ProcessImports(string(data), filepath.Dir(fullPath), seen)
	})
}

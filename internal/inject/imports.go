package inject

import (
	"regexp"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"
)

// SourceGlob selects the plugin sources scanned for centralized imports.
const SourceGlob = "src/**/*.{ts,tsx}"

var centralizedImport = regexp.MustCompile(`import\s+.*from\s+["']obsidian-plugin-config[^"']*["']`)

// ScanCentralizedImports lists target-relative source files that still
// import from obsidian-plugin-config. Unreadable files are skipped.
func ScanCentralizedImports(fs afero.Fs, target string) ([]string, error) {
	root := afero.NewBasePathFs(fs, target)

	matches, err := doublestar.Glob(afero.NewIOFS(root), SourceGlob)
	if err != nil {
		return nil, err
	}

	var found []string
	for _, rel := range matches {
		data, err := afero.ReadFile(root, rel)
		if err != nil {
			continue
		}
		if centralizedImport.Match(data) {
			found = append(found, rel)
		}
	}
	sort.Strings(found)
	return found, nil
}

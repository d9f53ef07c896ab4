package release

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/3c0d/obsidian-inject/internal/jsondoc"
)

// ExportsHeader opens the generated src/index.ts.
const ExportsHeader = "// Auto-generated exports - DO NOT EDIT MANUALLY\n" +
	"// Run 'obsidian-inject exports' to regenerate this file\n"

// ExportsResult lists the modules exported from src/index.ts.
type ExportsResult struct {
	Modules []string `json:"modules" yaml:"modules" toml:"modules"`
	Index   string   `json:"index" yaml:"index" toml:"index"`
}

// UpdateExports regenerates dir/src/index.ts with one re-export per
// src/<module>/index.ts and rewrites the exports map of package.json.
func UpdateExports(fs afero.Fs, dir string) (*ExportsResult, error) {
	srcDir := filepath.Join(dir, "src")
	entries, err := afero.ReadDir(fs, srcDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read src directory: %w", err)
	}

	var modules []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if ok, _ := afero.Exists(fs, filepath.Join(srcDir, entry.Name(), "index.ts")); ok {
			modules = append(modules, entry.Name())
		}
	}
	sort.Strings(modules)

	var b strings.Builder
	b.WriteString(ExportsHeader)
	b.WriteString("\n")
	for _, m := range modules {
		fmt.Fprintf(&b, "export * from './%s/index.js';\n", m)
	}

	index := filepath.Join(srcDir, "index.ts")
	if err := afero.WriteFile(fs, index, []byte(b.String()), 0644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", index, err)
	}

	pkgPath := filepath.Join(dir, PackageFile)
	pkg, indent, err := readDoc(fs, pkgPath)
	if err != nil {
		return nil, err
	}
	exportEntries := [][2]string{{".", "./src/index.ts"}, {"./scripts/*", "./scripts/*"}}
	for _, m := range modules {
		exportEntries = append(exportEntries, [2]string{"./" + m, "./src/" + m + "/index.ts"})
	}
	if err := pkg.SetRaw("exports", "{}"); err != nil {
		return nil, err
	}
	for _, e := range exportEntries {
		if err := pkg.Set(jsondoc.Path("exports", e[0]), e[1]); err != nil {
			return nil, fmt.Errorf("failed to update %s: %w", PackageFile, err)
		}
	}

	if err := afero.WriteFile(fs, pkgPath, pkg.MarshalIndent(indent), 0644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", PackageFile, err)
	}

	return &ExportsResult{Modules: modules, Index: index}, nil
}

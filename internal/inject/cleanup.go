package inject

import (
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/3c0d/obsidian-inject/internal/analyzer"
	"github.com/3c0d/obsidian-inject/internal/plan"
	"github.com/3c0d/obsidian-inject/internal/types"
)

// ObsoleteScripts are removed from scripts/ on every injection.
var ObsoleteScripts = []string{"start.mjs", "start.js"}

// LegacyLintFiles conflict with the injected flat eslint.config.ts.
var LegacyLintFiles = []string{".eslintrc", ".eslintrc.js", ".eslintrc.json", ".eslintignore"}

// lockfileArtifacts lists the lockfiles written by a package manager other
// than pm and, only when one was found, node_modules/. Paths are relative
// to the target.
func lockfileArtifacts(a *analyzer.Analysis, pm types.PackageManager) []string {
	var found []string
	for _, name := range pm.ConflictingLockfiles() {
		if a.HasLockfile(name) {
			found = append(found, name)
		}
	}
	if len(found) > 0 && a.HasNodeModules {
		found = append(found, "node_modules/")
	}
	return found
}

// oldScripts lists script files replaced by the injected .ts versions.
func oldScripts(fs afero.Fs, target string) []string {
	candidates := append([]string{}, ObsoleteScripts...)
	for _, name := range plan.ScriptNames {
		candidates = append(candidates, name+".mts")
	}
	var rels []string
	for _, name := range candidates {
		rels = append(rels, "scripts/"+name)
	}
	return existing(fs, target, rels)
}

// oldLintFiles lists legacy eslint configuration files.
func oldLintFiles(fs afero.Fs, target string) []string {
	return existing(fs, target, LegacyLintFiles)
}

// staleFiles lists the script and lint files an injection replaces. They
// are backed up before removal.
func staleFiles(fs afero.Fs, target string) []string {
	return append(oldScripts(fs, target), oldLintFiles(fs, target)...)
}

func existing(fs afero.Fs, target string, rels []string) []string {
	var found []string
	for _, rel := range rels {
		if ok, _ := afero.Exists(fs, filepath.Join(target, filepath.FromSlash(rel))); ok {
			found = append(found, rel)
		}
	}
	return found
}

// removePaths deletes the target-relative paths and returns the ones
// actually removed. It stops at the first failure.
func removePaths(fs afero.Fs, target string, rels []string) ([]string, error) {
	var removed []string
	for _, rel := range rels {
		if err := fs.RemoveAll(filepath.Join(target, filepath.FromSlash(rel))); err != nil {
			return removed, err
		}
		removed = append(removed, rel)
	}
	return removed, nil
}

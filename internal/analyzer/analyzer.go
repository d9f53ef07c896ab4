// Package analyzer inspects a target plugin directory without modifying it.
package analyzer

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/3c0d/obsidian-inject/internal/logging"
	"github.com/3c0d/obsidian-inject/internal/marker"
	"github.com/3c0d/obsidian-inject/internal/types"
)

// PluginManifest holds the manifest.json fields the tool reads.
type PluginManifest struct {
	ID            string `json:"id" yaml:"id" toml:"id"`
	Name          string `json:"name" yaml:"name" toml:"name"`
	Version       string `json:"version" yaml:"version" toml:"version"`
	MinAppVersion string `json:"minAppVersion,omitempty" yaml:"min_app_version,omitempty" toml:"min_app_version,omitempty"`
}

// Valid reports whether id, name and version are all set.
func (m PluginManifest) Valid() bool {
	return strings.TrimSpace(m.ID) != "" &&
		strings.TrimSpace(m.Name) != "" &&
		strings.TrimSpace(m.Version) != ""
}

// Analysis summarizes a target directory.
type Analysis struct {
	TargetPath        string               `json:"target_path" yaml:"target_path" toml:"target_path"`
	IsValidPlugin     bool                 `json:"is_valid_plugin" yaml:"is_valid_plugin" toml:"is_valid_plugin"`
	HasManifest       bool                 `json:"has_manifest" yaml:"has_manifest" toml:"has_manifest"`
	HasPackageJSON    bool                 `json:"has_package_json" yaml:"has_package_json" toml:"has_package_json"`
	// PackageJSONExists is set even when package.json fails to parse.
	PackageJSONExists bool                 `json:"package_json_exists" yaml:"package_json_exists" toml:"package_json_exists"`
	HasScripts        bool                 `json:"has_scripts" yaml:"has_scripts" toml:"has_scripts"`
	HasNodeModules    bool                 `json:"has_node_modules" yaml:"has_node_modules" toml:"has_node_modules"`
	PackageName       string               `json:"package_name,omitempty" yaml:"package_name,omitempty" toml:"package_name,omitempty"`
	Manifest          *PluginManifest      `json:"manifest,omitempty" yaml:"manifest,omitempty" toml:"manifest,omitempty"`
	Dependencies      []string             `json:"dependencies" yaml:"dependencies" toml:"dependencies"`
	Lockfiles         []string             `json:"lockfiles,omitempty" yaml:"lockfiles,omitempty" toml:"lockfiles,omitempty"`
	State             types.InjectionState `json:"state" yaml:"state" toml:"state"`
	Marker            *marker.Marker       `json:"marker,omitempty" yaml:"marker,omitempty" toml:"marker,omitempty"`
	Warnings          []string             `json:"warnings,omitempty" yaml:"warnings,omitempty" toml:"warnings,omitempty"`
}

// HasDependency reports whether name is a dependency or devDependency.
func (a *Analysis) HasDependency(name string) bool {
	i := sort.SearchStrings(a.Dependencies, name)
	return i < len(a.Dependencies) && a.Dependencies[i] == name
}

// HasLockfile reports whether the named lockfile is present.
func (a *Analysis) HasLockfile(name string) bool {
	for _, l := range a.Lockfiles {
		if l == name {
			return true
		}
	}
	return false
}

func (a *Analysis) warn(format string, args ...interface{}) {
	a.Warnings = append(a.Warnings, fmt.Sprintf(format, args...))
}

type packageJSON struct {
	Name            string            `json:"name"`
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

// Analyze inspects target. Only a missing target directory is an error;
// unreadable or malformed files degrade the matching flag and add a warning.
func Analyze(fs afero.Fs, target string) (*Analysis, error) {
	logger := logging.GetLogger("analyzer")

	ok, err := afero.DirExists(fs, target)
	if err != nil {
		return nil, fmt.Errorf("failed to check target %s: %w", target, err)
	}
	if !ok {
		return nil, fmt.Errorf("directory not found: %s", target)
	}

	a := &Analysis{TargetPath: target, Dependencies: []string{}}

	analyzeManifest(fs, a)
	analyzePackageJSON(fs, a)

	a.HasScripts, _ = afero.DirExists(fs, filepath.Join(target, "scripts"))
	a.HasNodeModules, _ = afero.DirExists(fs, filepath.Join(target, "node_modules"))

	for _, pm := range types.AllPackageManagers() {
		if exists, _ := afero.Exists(fs, filepath.Join(target, pm.Lockfile())); exists {
			a.Lockfiles = append(a.Lockfiles, pm.Lockfile())
		}
	}

	state, m, err := marker.Detect(fs, target)
	if err != nil {
		a.warn("%v", err)
	}
	a.State = state
	a.Marker = m

	for _, w := range a.Warnings {
		logger.Warn().Str("target", target).Msg(w)
	}
	logger.Debug().
		Str("target", target).
		Bool("valid_plugin", a.IsValidPlugin).
		Bool("package_json", a.HasPackageJSON).
		Bool("scripts", a.HasScripts).
		Str("state", a.State.String()).
		Msg("analyzed target")

	return a, nil
}

func analyzeManifest(fs afero.Fs, a *Analysis) {
	data, err := afero.ReadFile(fs, filepath.Join(a.TargetPath, "manifest.json"))
	if err != nil {
		if exists, _ := afero.Exists(fs, filepath.Join(a.TargetPath, "manifest.json")); exists {
			a.warn("failed to read manifest.json: %v", err)
		}
		return
	}
	a.HasManifest = true

	var m PluginManifest
	if err := json.Unmarshal(data, &m); err != nil {
		a.warn("failed to parse manifest.json: %v", err)
		return
	}
	a.Manifest = &m

	if !m.Valid() {
		a.warn("manifest.json is missing id, name or version")
		return
	}
	a.IsValidPlugin = true
}

func analyzePackageJSON(fs afero.Fs, a *Analysis) {
	path := filepath.Join(a.TargetPath, "package.json")
	a.PackageJSONExists, _ = afero.Exists(fs, path)
	if !a.PackageJSONExists {
		return
	}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		a.warn("failed to read package.json: %v", err)
		return
	}

	var pkg packageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		a.warn("failed to parse package.json: %v", err)
		return
	}
	a.HasPackageJSON = true
	a.PackageName = pkg.Name

	seen := make(map[string]bool)
	for _, deps := range []map[string]string{pkg.Dependencies, pkg.DevDependencies} {
		for name := range deps {
			if !seen[name] {
				seen[name] = true
				a.Dependencies = append(a.Dependencies, name)
			}
		}
	}
	sort.Strings(a.Dependencies)
}

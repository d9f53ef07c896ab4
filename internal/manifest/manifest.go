// Package manifest patches a target's package.json with the managed
// scripts, dependencies, engines and module type, keeping every other key
// and the existing key order.
package manifest

import (
	"fmt"

	"github.com/spf13/afero"

	"github.com/3c0d/obsidian-inject/internal/jsondoc"
)

// Entry is one managed key and its value.
type Entry struct {
	Key   string
	Value string
}

// CentralizedDependency is removed from injected targets, which become
// self-contained.
const CentralizedDependency = "obsidian-plugin-config"

// Changes is the fixed set of changes applied to package.json.
type Changes struct {
	Scripts          []Entry
	RemoveDependency string
	DevDependencies  []Entry
	Engines          []Entry
	ModuleType       string
}

// Scripts are the managed script entries. They always overwrite.
var Scripts = []Entry{
	{"start", "yarn install && yarn dev"},
	{"dev", "tsx scripts/esbuild.config.ts"},
	{"build", "tsc -noEmit -skipLibCheck && tsx scripts/esbuild.config.ts production"},
	{"real", "tsx scripts/esbuild.config.ts production real"},
	{"acp", "tsx scripts/acp.ts"},
	{"bacp", "tsx scripts/acp.ts -b"},
	{"update-version", "tsx scripts/update-version.ts"},
	{"v", "tsx scripts/update-version.ts"},
	{"release", "tsx scripts/release.ts"},
	{"r", "tsx scripts/release.ts"},
	{"help", "tsx scripts/help.ts"},
	{"h", "tsx scripts/help.ts"},
	{"lint", "eslint . --ext .ts"},
	{"lint:fix", "eslint . --ext .ts --fix"},
}

// DevDependencies are required by the injected scripts.
var DevDependencies = []Entry{
	{"@types/eslint", "latest"},
	{"@types/node", "^22.15.26"},
	{"@types/semver", "^7.7.0"},
	{"@typescript-eslint/eslint-plugin", "latest"},
	{"@typescript-eslint/parser", "latest"},
	{"builtin-modules", "3.3.0"},
	{"dedent", "^1.6.0"},
	{"dotenv", "^16.4.5"},
	{"esbuild", "latest"},
	{"eslint", "latest"},
	{"eslint-import-resolver-typescript", "latest"},
	{"jiti", "latest"},
	{"obsidian", "*"},
	{"obsidian-typings", "^3.9.5"},
	{"semver", "^7.7.2"},
	{"tsx", "^4.19.4"},
	{"typescript", "^5.8.2"},
}

// SassDevDependencies are added with --sass.
var SassDevDependencies = []Entry{
	{"esbuild-sass-plugin", "^3.3.1"},
	{"sass", "^1.89.0"},
}

// Engines steer contributors to yarn.
var Engines = []Entry{
	{"npm", "please-use-yarn"},
	{"yarn", ">=1.22.0"},
}

// DefaultChanges returns the changes applied by inject.
func DefaultChanges(sass bool) Changes {
	deps := append([]Entry{}, DevDependencies...)
	if sass {
		deps = append(deps, SassDevDependencies...)
	}
	return Changes{
		Scripts:          Scripts,
		RemoveDependency: CentralizedDependency,
		DevDependencies:  deps,
		Engines:          Engines,
		ModuleType:       "module",
	}
}

// PatchResult reports what the patch changed.
type PatchResult struct {
	Path        string   `json:"path" yaml:"path" toml:"path"`
	PackageName string   `json:"package_name,omitempty" yaml:"package_name,omitempty" toml:"package_name,omitempty"`
	ScriptsSet  int      `json:"scripts_set" yaml:"scripts_set" toml:"scripts_set"`
	RemovedFrom []string `json:"removed_from,omitempty" yaml:"removed_from,omitempty" toml:"removed_from,omitempty"`
	Added       []string `json:"added" yaml:"added" toml:"added"`
	Updated     []string `json:"updated" yaml:"updated" toml:"updated"`
	Changed     bool     `json:"changed" yaml:"changed" toml:"changed"`
}

// Patch reads package.json at path, applies changes and writes it back when
// anything changed. A read or parse failure aborts without writing.
func Patch(fs afero.Fs, path string, changes Changes) (*PatchResult, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read package.json: %w", err)
	}

	doc, err := jsondoc.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse package.json: %w", err)
	}

	result, err := Apply(doc, changes)
	if err != nil {
		return nil, fmt.Errorf("failed to patch package.json: %w", err)
	}
	result.Path = path

	out := doc.MarshalIndent(jsondoc.DetectIndent(data))
	result.Changed = string(out) != string(data)
	if !result.Changed {
		return result, nil
	}

	if err := afero.WriteFile(fs, path, out, 0644); err != nil {
		return nil, fmt.Errorf("failed to write package.json: %w", err)
	}
	return result, nil
}

// Apply edits doc in place: scripts, centralized dependency removal,
// required devDependencies, engines, then module type.
func Apply(doc *jsondoc.Document, changes Changes) (*PatchResult, error) {
	result := &PatchResult{Added: []string{}, Updated: []string{}}
	result.PackageName, _ = doc.GetString("name")

	if err := doc.EnsureObject("scripts"); err != nil {
		return nil, err
	}
	for _, e := range changes.Scripts {
		if err := doc.Set(jsondoc.Path("scripts", e.Key), e.Value); err != nil {
			return nil, err
		}
		result.ScriptsSet++
	}

	if changes.RemoveDependency != "" {
		for _, table := range []string{"dependencies", "devDependencies"} {
			if !doc.Get(table).IsObject() {
				continue
			}
			removed, err := doc.Delete(jsondoc.Path(table, changes.RemoveDependency))
			if err != nil {
				return nil, err
			}
			if removed {
				result.RemovedFrom = append(result.RemovedFrom, table)
			}
		}
	}

	if err := doc.EnsureObject("devDependencies"); err != nil {
		return nil, err
	}
	for _, e := range changes.DevDependencies {
		path := jsondoc.Path("devDependencies", e.Key)
		current, ok := doc.GetString(path)
		switch {
		case !doc.Has(path):
			result.Added = append(result.Added, e.Key)
		case !ok || current != e.Value:
			result.Updated = append(result.Updated, e.Key)
		default:
			continue
		}
		if err := doc.Set(path, e.Value); err != nil {
			return nil, err
		}
	}

	if len(changes.Engines) > 0 {
		if err := doc.EnsureObject("engines"); err != nil {
			return nil, err
		}
		for _, e := range changes.Engines {
			if err := doc.Set(jsondoc.Path("engines", e.Key), e.Value); err != nil {
				return nil, err
			}
		}
	}

	if changes.ModuleType != "" {
		if err := doc.Set("type", changes.ModuleType); err != nil {
			return nil, err
		}
	}

	return result, nil
}

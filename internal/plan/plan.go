// Package plan decides, per managed file, what an injection does to a target.
package plan

import (
	"bytes"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/3c0d/obsidian-inject/internal/merge"
	"github.com/3c0d/obsidian-inject/internal/templates"
	"github.com/3c0d/obsidian-inject/internal/types"
)

// Variant limits a managed file to runs with or without --sass.
type Variant int

const (
	Both Variant = iota
	PlainOnly
	SassOnly
)

// Group names used in reports.
const (
	GroupScripts   = "scripts"
	GroupConfig    = "config"
	GroupWorkflows = "workflows"
	GroupSass      = "sass"
)

// ManagedFile maps a template in the source root to a path in the target.
// Paths are slash-separated.
type ManagedFile struct {
	Source  string
	Target  string
	Group   string
	Policy  Policy
	Variant Variant
}

// Op is what happens to a managed file.
type Op string

const (
	OpWrite Op = "write" // created or overwritten with the template
	OpMerge Op = "merge" // existing content combined with the template
	OpSkip  Op = "skip"  // exists and is never overwritten
	OpKeep  Op = "keep"  // left untouched by a keep-condition or an empty merge
)

// FileAction is the decision for one managed file.
type FileAction struct {
	File    ManagedFile
	Op      Op
	Reason  string
	Exists  bool
	Changed bool   // Content differs from what is on disk
	Content []byte // bytes to write for OpWrite and OpMerge
	Err     error  // template or merge failure; the action is not applied
}

// Writes reports whether applying the action touches the file.
func (a FileAction) Writes() bool {
	return a.Err == nil && (a.Op == OpWrite || a.Op == OpMerge) && a.Changed
}

// Options select optional parts of the table.
type Options struct {
	Sass bool
	// IgnoreExtra are rules added to the ignore-file merge.
	IgnoreExtra []string
}

// ScriptNames are the script templates injected into scripts/.
var ScriptNames = []string{"utils", "esbuild.config", "acp", "update-version", "release", "help"}

// ManagedFiles returns the fixed table of managed files.
func ManagedFiles(opts Options) []ManagedFile {
	var files []ManagedFile
	for _, name := range ScriptNames {
		variant := Both
		if name == "esbuild.config" {
			variant = PlainOnly
		}
		files = append(files, ManagedFile{
			Source:  "templates/scripts/" + name + ".ts",
			Target:  "scripts/" + name + ".ts",
			Group:   GroupScripts,
			Policy:  AlwaysOverwrite(),
			Variant: variant,
		})
	}

	return append(files,
		ManagedFile{Source: "templates/sass/esbuild.config.ts", Target: "scripts/esbuild.config.ts", Group: GroupSass, Policy: AlwaysOverwrite(), Variant: SassOnly},
		ManagedFile{Source: "templates/sass/styles.scss", Target: "src/styles.scss", Group: GroupSass, Policy: NeverOverwrite(), Variant: SassOnly},
		ManagedFile{Source: "templates/tsconfig-template.json", Target: "tsconfig.json", Group: GroupConfig, Policy: ConditionalOverwrite(merge.KeepTSConfig)},
		ManagedFile{Source: "templates/.gitignore", Target: ".gitignore", Group: GroupConfig, Policy: StructuralMerge(mergeIgnore(opts.IgnoreExtra...))},
		ManagedFile{Source: "templates/.env", Target: ".env", Group: GroupConfig, Policy: StructuralMerge(mergeEnv)},
		ManagedFile{Source: "templates/.vscode/settings.json", Target: ".vscode/settings.json", Group: GroupConfig, Policy: StructuralMerge(merge.JSONShallow)},
		ManagedFile{Source: "templates/eslint.config.ts", Target: "eslint.config.ts", Group: GroupConfig, Policy: NeverOverwrite()},
		ManagedFile{Source: "templates/.github/workflows/release.yml", Target: ".github/workflows/release.yml", Group: GroupWorkflows, Policy: AlwaysOverwrite()},
		ManagedFile{Source: "templates/.github/workflows/release-body.md", Target: ".github/workflows/release-body.md", Group: GroupWorkflows, Policy: AlwaysOverwrite()},
	)
}

func (f ManagedFile) enabled(sass bool) bool {
	switch f.Variant {
	case PlainOnly:
		return !sass
	case SassOnly:
		return sass
	default:
		return true
	}
}

// TargetPath returns the absolute path of the file in target.
func (f ManagedFile) TargetPath(target string) string {
	return filepath.Join(target, filepath.FromSlash(f.Target))
}

// Name returns the base name of the target file.
func (f ManagedFile) Name() string {
	return path.Base(f.Target)
}

// Plan decides what happens to every managed file in target. It reads the
// target through fs and never writes. Failures are recorded on the action.
func Plan(fs afero.Fs, store *templates.Store, target string, opts Options) []FileAction {
	var actions []FileAction
	for _, f := range ManagedFiles(opts) {
		if !f.enabled(opts.Sass) {
			continue
		}
		actions = append(actions, decide(fs, store, target, f))
	}
	return actions
}

func decide(fs afero.Fs, store *templates.Store, target string, f ManagedFile) FileAction {
	action := FileAction{File: f}

	existing, err := afero.ReadFile(fs, f.TargetPath(target))
	switch {
	case err == nil:
		action.Exists = true
	case !os.IsNotExist(err):
		action.Err = fmt.Errorf("failed to read %s: %w", f.Target, err)
		return action
	}

	if action.Exists && f.Policy.Kind == types.PolicyNeverOverwrite {
		action.Op = OpSkip
		action.Reason = "exists, never overwritten"
		return action
	}

	tmpl, err := store.Read(f.Source)
	if err != nil {
		action.Err = err
		return action
	}

	if !action.Exists {
		action.Op = OpWrite
		action.Reason = "new file"
		action.Content = tmpl
		action.Changed = true
		return action
	}

	switch f.Policy.Kind {
	case types.PolicyStructuralMerge:
		out, changed, err := f.Policy.Merge(existing, tmpl)
		if err != nil {
			action.Err = fmt.Errorf("failed to merge %s: %w", f.Target, err)
			return action
		}
		if !changed {
			action.Op = OpKeep
			action.Reason = "already up to date"
			return action
		}
		action.Op = OpMerge
		action.Reason = "merged with template"
		action.Content = out
		action.Changed = true
	case types.PolicyConditionalOverwrite:
		keep, reason := f.Policy.Keep(existing)
		action.Reason = reason
		if keep {
			action.Op = OpKeep
			return action
		}
		action.Op = OpWrite
		action.Content = tmpl
		action.Changed = !bytes.Equal(existing, tmpl)
	default:
		action.Op = OpWrite
		action.Reason = "overwritten with template"
		action.Content = tmpl
		action.Changed = !bytes.Equal(existing, tmpl)
		if !action.Changed {
			action.Reason = "identical to template"
		}
	}

	return action
}

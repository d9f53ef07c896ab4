// Package inject applies an injection plan to a target directory: it writes
// the planned files, cleans up stale package-manager and script artifacts,
// patches package.json, installs dependencies and records the marker.
package inject

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/3c0d/obsidian-inject/internal/analyzer"
	"github.com/3c0d/obsidian-inject/internal/backup"
	"github.com/3c0d/obsidian-inject/internal/logging"
	"github.com/3c0d/obsidian-inject/internal/manifest"
	"github.com/3c0d/obsidian-inject/internal/marker"
	"github.com/3c0d/obsidian-inject/internal/plan"
	"github.com/3c0d/obsidian-inject/internal/runner"
	"github.com/3c0d/obsidian-inject/internal/types"
)

// Options control one injection.
type Options struct {
	DryRun         bool
	Sass           bool
	Install        bool
	Backup         bool
	BackupKeep     int
	PackageManager types.PackageManager
	// Version is recorded in the marker and in backups.
	Version string
	// InstallOutput receives the package manager output.
	InstallOutput io.Writer
}

// ActionResult is the outcome of one planned file action.
type ActionResult struct {
	Target  string  `json:"target" yaml:"target" toml:"target"`
	Op      plan.Op `json:"op" yaml:"op" toml:"op"`
	Changed bool    `json:"changed" yaml:"changed" toml:"changed"`
	Reason  string  `json:"reason,omitempty" yaml:"reason,omitempty" toml:"reason,omitempty"`
	Error   string  `json:"error,omitempty" yaml:"error,omitempty" toml:"error,omitempty"`
}

// Failed reports whether the action could not be applied.
func (a ActionResult) Failed() bool {
	return a.Error != ""
}

// Result collects everything an injection did. Failures of individual
// steps are recorded here; they do not stop the remaining steps.
type Result struct {
	Target             string                `json:"target" yaml:"target" toml:"target"`
	DryRun             bool                  `json:"dry_run" yaml:"dry_run" toml:"dry_run"`
	Removed            []string              `json:"removed,omitempty" yaml:"removed,omitempty" toml:"removed,omitempty"`
	Actions            []ActionResult        `json:"actions" yaml:"actions" toml:"actions"`
	Manifest           *manifest.PatchResult `json:"manifest,omitempty" yaml:"manifest,omitempty" toml:"manifest,omitempty"`
	ManifestError      string                `json:"manifest_error,omitempty" yaml:"manifest_error,omitempty" toml:"manifest_error,omitempty"`
	CentralizedImports []string              `json:"centralized_imports,omitempty" yaml:"centralized_imports,omitempty" toml:"centralized_imports,omitempty"`
	Installed          bool                  `json:"installed" yaml:"installed" toml:"installed"`
	InstallError       string                `json:"install_error,omitempty" yaml:"install_error,omitempty" toml:"install_error,omitempty"`
	Backup             *backup.Backup        `json:"backup,omitempty" yaml:"backup,omitempty" toml:"backup,omitempty"`
	Marker             *marker.Marker        `json:"marker,omitempty" yaml:"marker,omitempty" toml:"marker,omitempty"`
	Errors             []string              `json:"errors,omitempty" yaml:"errors,omitempty" toml:"errors,omitempty"`
}

// Failed returns the actions that could not be applied.
func (r *Result) Failed() []ActionResult {
	var failed []ActionResult
	for _, a := range r.Actions {
		if a.Failed() {
			failed = append(failed, a)
		}
	}
	return failed
}

// Written returns the actions that changed a file.
func (r *Result) Written() []ActionResult {
	var written []ActionResult
	for _, a := range r.Actions {
		if a.Changed && !a.Failed() {
			written = append(written, a)
		}
	}
	return written
}

// OK reports whether every step succeeded.
func (r *Result) OK() bool {
	return len(r.Failed()) == 0 && r.ManifestError == "" && r.InstallError == "" && len(r.Errors) == 0
}

func (r *Result) addError(format string, args ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Injector applies plans to targets.
type Injector struct {
	fs     afero.Fs
	runner runner.CommandRunner
	lock   LockFunc
	now    func() time.Time
	logger zerolog.Logger
}

// NewInjector creates an injector writing through fs. Targets are locked
// with FileLock.
func NewInjector(fs afero.Fs, r runner.CommandRunner) *Injector {
	return &Injector{
		fs:     fs,
		runner: r,
		lock:   FileLock,
		now:    time.Now,
		logger: logging.GetLogger("inject"),
	}
}

// SetLock replaces the target lock (for testing with in-memory filesystems).
func (i *Injector) SetLock(lock LockFunc) {
	i.lock = lock
}

// SetClock replaces the time source (for testing).
func (i *Injector) SetClock(now func() time.Time) {
	i.now = now
}

// IgnoreRules are added to the target's ignore file so tool artifacts are
// never committed.
func IgnoreRules() []string {
	return []string{backup.DirName + "/", LockFileName}
}

// Apply executes actions against the target described by a. In dry-run
// mode every write goes to an in-memory layer over the real filesystem, so
// the result is accurate and the disk is untouched. The only error
// returned is failure to lock the target.
func (i *Injector) Apply(a *analyzer.Analysis, actions []plan.FileAction, opts Options) (*Result, error) {
	target := a.TargetPath
	result := &Result{Target: target, DryRun: opts.DryRun, Actions: []ActionResult{}}
	done := logging.LogOperationStart(i.logger, "inject")
	defer done()

	fs := i.fs
	if opts.DryRun {
		fs = afero.NewCopyOnWriteFs(afero.NewReadOnlyFs(i.fs), afero.NewMemMapFs())
	} else {
		release, err := i.lock(target)
		if err != nil {
			return nil, err
		}
		defer release()
	}

	pm := opts.PackageManager
	if pm == "" {
		pm = types.PackageManagerYarn
	}

	if opts.Backup && !opts.DryRun {
		i.backup(fs, a, actions, opts, result)
	}

	stale := append(lockfileArtifacts(a, pm), staleFiles(fs, target)...)
	if opts.DryRun {
		// the overlay cannot delete files that live only in the base layer
		result.Removed = stale
	} else {
		removed, err := removePaths(fs, target, stale)
		result.Removed = removed
		if err != nil {
			result.addError("failed to remove stale files: %v", err)
		}
	}

	for _, action := range actions {
		result.Actions = append(result.Actions, i.applyAction(fs, target, action))
	}

	if a.PackageJSONExists {
		patch, err := manifest.Patch(fs, filepath.Join(target, "package.json"), manifest.DefaultChanges(opts.Sass))
		if err != nil {
			result.ManifestError = err.Error()
			i.logger.Error().Err(err).Str("target", target).Msg("package.json patch failed")
		} else {
			result.Manifest = patch
		}
	}

	imports, err := ScanCentralizedImports(fs, target)
	if err != nil {
		result.addError("failed to scan imports: %v", err)
	}
	result.CentralizedImports = imports

	if opts.Install && !opts.DryRun && a.HasPackageJSON && result.ManifestError == "" {
		out := opts.InstallOutput
		if out == nil {
			out = io.Discard
		}
		if err := i.runner.StreamInDir(target, out, string(pm), "install"); err != nil {
			result.InstallError = err.Error()
			i.logger.Warn().Err(err).Str("target", target).Msg("dependency install failed")
		} else {
			result.Installed = true
		}
	}

	m := marker.New(opts.Version, i.now())
	if err := marker.Write(fs, target, m); err != nil {
		result.addError("%v", err)
	} else {
		result.Marker = &m
	}

	i.logger.Info().
		Str("target", target).
		Bool("dry_run", opts.DryRun).
		Int("written", len(result.Written())).
		Int("failed", len(result.Failed())).
		Msg("injection finished")

	return result, nil
}

func (i *Injector) applyAction(fs afero.Fs, target string, action plan.FileAction) ActionResult {
	res := ActionResult{
		Target: action.File.Target,
		Op:     action.Op,
		Reason: action.Reason,
	}
	if action.Err != nil {
		res.Error = action.Err.Error()
		i.logger.Warn().Err(action.Err).Str("file", action.File.Target).Msg("skipping failed action")
		return res
	}
	if !action.Writes() {
		return res
	}

	path := action.File.TargetPath(target)
	if err := fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		res.Error = fmt.Sprintf("failed to create directory: %v", err)
		return res
	}
	if err := afero.WriteFile(fs, path, action.Content, 0644); err != nil {
		res.Error = fmt.Sprintf("failed to write: %v", err)
		return res
	}

	res.Changed = true
	i.logger.Debug().Str("file", action.File.Target).Str("op", string(action.Op)).Msg("wrote file")
	return res
}

// backup snapshots every existing file the injection will modify or delete.
func (i *Injector) backup(fs afero.Fs, a *analyzer.Analysis, actions []plan.FileAction, opts Options, result *Result) {
	var files []string
	for _, action := range actions {
		if action.Exists && action.Writes() {
			files = append(files, action.File.Target)
		}
	}
	if a.PackageJSONExists {
		files = append(files, "package.json")
	}
	files = append(files, staleFiles(fs, a.TargetPath)...)

	mgr := backup.NewManager(fs, a.TargetPath, opts.Version)
	mgr.SetClock(i.now)

	snapshot, err := mgr.Create(files, "before injection")
	if err != nil {
		result.addError("backup failed: %v", err)
		return
	}
	result.Backup = snapshot

	keep := opts.BackupKeep
	if keep <= 0 {
		keep = backup.DefaultKeepCount
	}
	if _, err := mgr.Prune(keep); err != nil {
		i.logger.Warn().Err(err).Msg("failed to prune backups")
	}
}

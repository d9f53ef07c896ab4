package cmd

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/3c0d/obsidian-inject/internal/analyzer"
	"github.com/3c0d/obsidian-inject/internal/config"
	"github.com/3c0d/obsidian-inject/internal/git"
	"github.com/3c0d/obsidian-inject/internal/inject"
	"github.com/3c0d/obsidian-inject/internal/interactive"
	"github.com/3c0d/obsidian-inject/internal/logging"
	"github.com/3c0d/obsidian-inject/internal/manifest"
	"github.com/3c0d/obsidian-inject/internal/output"
	"github.com/3c0d/obsidian-inject/internal/plan"
	"github.com/3c0d/obsidian-inject/internal/runner"
	"github.com/3c0d/obsidian-inject/internal/source"
	"github.com/3c0d/obsidian-inject/internal/style"
	"github.com/3c0d/obsidian-inject/internal/templates"
	"github.com/3c0d/obsidian-inject/internal/types"
)

// SourceLocator finds the source root.
type SourceLocator interface {
	Resolve() (source.Result, error)
}

// InjectService orchestrates the inject workflow. Each step is a method so
// it can be exercised on its own; Run chains them.
type InjectService struct {
	fs         afero.Fs
	cfg        *config.Config
	locator    SourceLocator
	gitClient  *git.Client
	injector   *inject.Injector
	prompter   *interactive.Prompter
	printer    *style.Printer
	installOut io.Writer
	logger     zerolog.Logger
}

// NewInjectService creates an inject service working on the real filesystem.
// Prompts read from in and are written to promptOut.
func NewInjectService(cfg *config.Config, in io.Reader, promptOut io.Writer, printer *style.Printer) *InjectService {
	fs := afero.NewOsFs()
	r := runner.New()
	return NewInjectServiceWithDeps(
		fs,
		cfg,
		source.NewResolver(cfg.SourceEnv, cfg.SourceRoot),
		git.NewClientWithRunner(r),
		inject.NewInjector(fs, r),
		interactive.NewPrompterWithIO(in, promptOut),
		printer,
	)
}

// NewInjectServiceWithDeps creates an inject service with custom dependencies (for testing).
func NewInjectServiceWithDeps(
	fs afero.Fs,
	cfg *config.Config,
	locator SourceLocator,
	gitClient *git.Client,
	injector *inject.Injector,
	prompter *interactive.Prompter,
	printer *style.Printer,
) *InjectService {
	return &InjectService{
		fs:        fs,
		cfg:       cfg,
		locator:   locator,
		gitClient: gitClient,
		injector:  injector,
		prompter:  prompter,
		printer:   printer,
		logger:    logging.GetLogger("cmd"),
	}
}

// SetInstallOutput sets where the package manager output goes.
func (s *InjectService) SetInstallOutput(w io.Writer) {
	s.installOut = w
}

// AnalyzeTarget inspects the target and requires a package.json. A
// package.json that exists but does not parse is reported by the patch
// step instead.
func (s *InjectService) AnalyzeTarget(target string) (*analyzer.Analysis, error) {
	a, err := analyzer.Analyze(s.fs, target)
	if err != nil {
		return nil, err
	}
	if !a.PackageJSONExists {
		return nil, fmt.Errorf("package.json not found in %s", target)
	}
	return a, nil
}

// ResolveSource locates the source root, asking for the path when the
// override variable requests it.
func (s *InjectService) ResolveSource() (source.Result, error) {
	result, err := s.locator.Resolve()
	if err == nil {
		return result, nil
	}
	if !errors.Is(err, source.ErrPromptRequired) {
		return source.Result{}, err
	}
	if !s.prompter.Interactive() {
		return source.Result{}, fmt.Errorf("cannot ask for the path: %w; set %s to the directory instead",
			interactive.ErrNotTerminal, s.cfg.SourceEnv)
	}

	path, err := s.prompter.AskPath("Enter the path to obsidian-plugin-config", func(p string) bool {
		ok, _ := afero.DirExists(s.fs, p)
		return ok
	})
	if err != nil {
		return source.Result{}, err
	}
	s.logger.Info().Str("path", path).Msg("source root entered interactively")
	return source.Result{Path: path, Strategy: types.StrategyEnvPrompt}, nil
}

// EnsureSourceClean commits pending changes in the source root so every
// injection can be traced to a commit.
func (s *InjectService) EnsureSourceClean(root string) (*git.CleanResult, error) {
	result, err := s.gitClient.EnsureClean(root, git.SourceCommitMessage)
	if err != nil {
		return nil, fmt.Errorf("source root %s: %w", root, err)
	}
	return result, nil
}

// BuildPlan decides the action for every managed file.
func (s *InjectService) BuildPlan(store *templates.Store, target string, sass bool) []plan.FileAction {
	return plan.Plan(s.fs, store, target, plan.Options{
		Sass:        sass,
		IgnoreExtra: inject.IgnoreRules(),
	})
}

// ShowPlan prints the analysis and the planned actions.
func (s *InjectService) ShowPlan(a *analyzer.Analysis, src source.Result, store *templates.Store, actions []plan.FileAction) {
	scripts := "will be created"
	if a.HasScripts {
		scripts = "will be updated"
	}
	lines := []string{
		fmt.Sprintf("Target:          %s", filepath.Base(a.TargetPath)),
		fmt.Sprintf("Source:          %s (%s)", src.Path, src.Strategy),
		fmt.Sprintf("Templates:       %s", versionOrUnknown(store.Info().Version)),
		fmt.Sprintf("package.json:    %s", style.Check(a.HasPackageJSON)),
		fmt.Sprintf("manifest.json:   %s", style.Check(a.HasManifest)),
		fmt.Sprintf("scripts/:        %s", scripts),
		fmt.Sprintf("Obsidian plugin: %s", style.Check(a.IsValidPlugin)),
		fmt.Sprintf("Status:          %s", a.State.Describe()),
	}
	s.printer.Box("Injection plan for "+a.TargetPath, lines)

	if a.HasDependency(manifest.CentralizedDependency) {
		s.printer.Info("%s will be removed from the dependencies", manifest.CentralizedDependency)
	}

	if !a.IsValidPlugin {
		s.printer.Warn("This doesn't appear to be a valid Obsidian plugin (missing or invalid manifest.json)")
	}

	s.printer.Header("Files")
	for _, action := range actions {
		switch {
		case action.Err != nil:
			s.printer.Error("%s: %v", action.File.Target, action.Err)
		case action.Writes():
			s.printer.Info("%-6s %s", action.Op, action.File.Target)
		default:
			s.printer.Skip("%-6s %s (%s)", action.Op, action.File.Target, action.Reason)
		}
	}
}

// Confirm asks whether to proceed.
func (s *InjectService) Confirm() bool {
	return s.prompter.Confirm("Proceed with injection?", false)
}

// Apply runs the injector with the configured options.
func (s *InjectService) Apply(a *analyzer.Analysis, actions []plan.FileAction, store *templates.Store, opts InjectOptions) (*inject.Result, error) {
	return s.injector.Apply(a, actions, inject.Options{
		DryRun:         opts.DryRun,
		Sass:           opts.Sass,
		Install:        s.cfg.Install && !opts.NoInstall,
		Backup:         s.cfg.Backup.Enabled && !opts.NoBackup,
		BackupKeep:     s.cfg.Backup.Keep,
		PackageManager: s.cfg.PackageManager,
		Version:        store.Info().Version,
		InstallOutput:  s.installOut,
	})
}

// Run executes the complete inject workflow.
func (s *InjectService) Run(opts InjectOptions, out *output.Writer) error {
	done := logging.LogOperationStart(s.logger, "inject command")
	defer done()

	if !opts.Yes && !opts.DryRun && !s.prompter.Interactive() {
		return fmt.Errorf("cannot confirm injection: %w; use --yes to inject without confirmation", interactive.ErrNotTerminal)
	}

	a, err := s.AnalyzeTarget(opts.Target)
	if err != nil {
		return err
	}
	if a.HasManifest && !a.IsValidPlugin {
		s.logger.Warn().Str("target", a.TargetPath).Msg("manifest.json is missing id, name or version")
	}

	src, err := s.ResolveSource()
	if err != nil {
		if errors.Is(err, interactive.ErrCancelled) {
			s.printer.Warn("Injection cancelled by user")
			return nil
		}
		return fmt.Errorf("failed to locate obsidian-plugin-config: %w", err)
	}

	store, err := templates.Open(s.fs, src.Path)
	if err != nil {
		return err
	}

	if !opts.DryRun && !opts.SkipSourceCheck && s.cfg.AutoCommitSource {
		clean, err := s.EnsureSourceClean(src.Path)
		if err != nil {
			return err
		}
		s.reportSourceClean(clean)
	}

	actions := s.BuildPlan(store, a.TargetPath, opts.Sass)
	if out.IsText() {
		s.ShowPlan(a, src, store, actions)
	}

	if !opts.Yes && !opts.DryRun {
		if !s.Confirm() {
			s.printer.Warn("Injection cancelled by user")
			return nil
		}
	}

	result, err := s.Apply(a, actions, store, opts)
	if err != nil {
		return err
	}

	if !out.IsText() {
		return out.Write(result)
	}
	s.Report(result)
	return nil
}

func (s *InjectService) reportSourceClean(clean *git.CleanResult) {
	if !clean.IsGitRepo || !clean.WasDirty {
		return
	}
	s.printer.Success("Committed pending changes in obsidian-plugin-config")
	if clean.PushErr != nil {
		s.printer.Warn("Failed to push obsidian-plugin-config: %v", clean.PushErr)
	}
}

// Report prints the outcome of an injection.
func (s *InjectService) Report(result *inject.Result) {
	s.printer.Header("Results")

	for _, rel := range result.Removed {
		s.printer.Info("removed %s", rel)
	}
	for _, action := range result.Actions {
		switch {
		case action.Failed():
			s.printer.Error("%s: %s", action.Target, action.Error)
		case action.Changed:
			s.printer.Success("%s %s", opVerb(action.Op), action.Target)
		default:
			s.printer.Skip("%s (%s)", action.Target, action.Reason)
		}
	}

	if result.ManifestError != "" {
		s.printer.Error("package.json: %s", result.ManifestError)
	} else if m := result.Manifest; m != nil {
		s.printer.Success("package.json: %d scripts, %d dependencies added, %d updated",
			m.ScriptsSet, len(m.Added), len(m.Updated))
		if len(m.RemovedFrom) > 0 {
			s.printer.Info("removed obsidian-plugin-config from %s", strings.Join(m.RemovedFrom, ", "))
		}
	}

	if len(result.CentralizedImports) > 0 {
		s.printer.Warn("%d file(s) still import obsidian-plugin-config:", len(result.CentralizedImports))
		for _, f := range result.CentralizedImports {
			s.printer.Plain("      %s", f)
		}
		s.printer.Plain("    Comment out or replace these imports manually.")
	}

	if result.Backup != nil {
		s.printer.Info("backup %s (%d files)", result.Backup.ID, len(result.Backup.Files))
	}

	if result.InstallError != "" {
		pm := s.cfg.PackageManager
		if pm == "" {
			pm = types.PackageManagerYarn
		}
		s.printer.Warn("Dependency install failed: %s", result.InstallError)
		s.printer.Plain("    Run '%s install' manually in %s", pm, result.Target)
	} else if result.Installed {
		s.printer.Success("dependencies installed")
	}

	for _, e := range result.Errors {
		s.printer.Error("%s", e)
	}

	if result.DryRun {
		s.printer.Header("Dry run completed - no changes made")
		s.printer.Plain("To inject: obsidian-inject %s --yes", result.Target)
		return
	}

	if result.OK() {
		s.printer.Header("Injection completed")
		return
	}
	s.printer.Header("Injection completed with %d problem(s)", problemCount(result))
}

func opVerb(op plan.Op) string {
	if op == plan.OpMerge {
		return "merged"
	}
	return "wrote"
}

func problemCount(r *inject.Result) int {
	n := len(r.Failed()) + len(r.Errors)
	if r.ManifestError != "" {
		n++
	}
	if r.InstallError != "" {
		n++
	}
	return n
}

func versionOrUnknown(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}

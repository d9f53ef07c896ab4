package cmd

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/3c0d/obsidian-inject/internal/config"
	"github.com/3c0d/obsidian-inject/internal/git"
	"github.com/3c0d/obsidian-inject/internal/interactive"
	"github.com/3c0d/obsidian-inject/internal/plan"
	"github.com/3c0d/obsidian-inject/internal/release"
	"github.com/3c0d/obsidian-inject/internal/runner"
	"github.com/3c0d/obsidian-inject/internal/style"
	"github.com/3c0d/obsidian-inject/internal/templates"
)

// ReleaseService runs the version and publish workflow of a package directory.
type ReleaseService struct {
	fs       afero.Fs
	cfg      *config.Config
	runner   runner.CommandRunner
	bumper   *release.Bumper
	verifier *release.Verifier
	prompter *interactive.Prompter
	printer  *style.Printer
}

// NewReleaseService creates a release service working on the real filesystem.
// Prompts read from in and are written to promptOut.
func NewReleaseService(cfg *config.Config, in io.Reader, promptOut io.Writer, printer *style.Printer) *ReleaseService {
	r := runner.New()
	return NewReleaseServiceWithDeps(afero.NewOsFs(), cfg, r, git.NewClientWithRunner(r),
		interactive.NewPrompterWithIO(in, promptOut), printer)
}

// NewReleaseServiceWithDeps creates a release service with custom dependencies (for testing).
func NewReleaseServiceWithDeps(
	fs afero.Fs,
	cfg *config.Config,
	r runner.CommandRunner,
	gitClient *git.Client,
	prompter *interactive.Prompter,
	printer *style.Printer,
) *ReleaseService {
	return &ReleaseService{
		fs:       fs,
		cfg:      cfg,
		runner:   r,
		bumper:   release.NewBumper(fs, gitClient),
		verifier: release.NewVerifier(fs, r),
		prompter: prompter,
		printer:  printer,
	}
}

// Bump writes the next version and commits it. Without a choice the user
// picks one from the bump menu.
func (s *ReleaseService) Bump(dir, choice string) (*release.BumpResult, error) {
	if choice == "" {
		current, err := s.bumper.CurrentVersion(dir)
		if err != nil {
			return nil, err
		}
		if !s.prompter.Interactive() {
			return nil, fmt.Errorf("cannot show the bump menu: %w; pass patch, minor, major or a version", interactive.ErrNotTerminal)
		}
		choice, err = s.prompter.AskBump(current, func(kind string) string {
			next, err := release.NextVersion(current, kind)
			if err != nil {
				return "?"
			}
			return next
		})
		if err != nil {
			return nil, err
		}
	}
	return s.bumper.Bump(dir, choice)
}

// Verify checks that dir is ready to publish.
func (s *ReleaseService) Verify(dir string, skipBuild bool) ([]release.Check, error) {
	return s.verifier.Verify(dir, release.VerifyOptions{
		RequiredFiles:  s.requiredFiles(dir),
		PackageManager: s.cfg.PackageManager,
		SkipBuild:      skipBuild,
	})
}

// requiredFiles lists the script templates when dir is a source root.
func (s *ReleaseService) requiredFiles(dir string) []string {
	if ok, _ := afero.DirExists(s.fs, filepath.Join(dir, templates.Dir)); !ok {
		return nil
	}
	files := make([]string, 0, len(plan.ScriptNames))
	for _, name := range plan.ScriptNames {
		files = append(files, filepath.Join(templates.Dir, "scripts", name+".ts"))
	}
	return files
}

// Publish verifies dir and publishes it to the configured registry.
func (s *ReleaseService) Publish(dir string, out io.Writer) ([]release.Check, error) {
	checks, err := s.Verify(dir, false)
	if err != nil {
		return checks, err
	}
	return checks, release.Publish(s.runner, dir, s.cfg.Publish.Registry, out)
}

// Exports regenerates the package exports of dir.
func (s *ReleaseService) Exports(dir string) (*release.ExportsResult, error) {
	return release.UpdateExports(s.fs, dir)
}

func (s *ReleaseService) printBump(r *release.BumpResult) {
	s.printer.Success("Version updated from %s to %s", r.From, r.To)
	for _, f := range r.Files {
		s.printer.Plain("    %s", f)
	}
	if r.Committed {
		s.printer.Success("Committed: %s", release.CommitMessage(r.To))
	}
	switch {
	case r.Pushed() && r.Push.SetUpstream:
		s.printer.Success("Pushed %s (upstream set)", r.Push.Branch)
	case r.Pushed():
		s.printer.Success("Pushed %s", r.Push.Branch)
	case r.PushError != "":
		s.printer.Warn("Push failed, the commit is kept locally: %s", r.PushError)
		s.printer.Plain("    Push manually with 'git push --set-upstream origin <branch>'")
	}
}

func (s *ReleaseService) printChecks(checks []release.Check) {
	for _, c := range checks {
		if !c.Passed {
			s.printer.Error("%s: %s", c.Name, c.Detail)
			continue
		}
		if c.Detail != "" {
			s.printer.Success("%s (%s)", c.Name, c.Detail)
		} else {
			s.printer.Success("%s", c.Name)
		}
	}
}

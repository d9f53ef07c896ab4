package cmd

import (
	"io"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/3c0d/obsidian-inject/internal/analyzer"
	"github.com/3c0d/obsidian-inject/internal/git"
	"github.com/3c0d/obsidian-inject/internal/marker"
	"github.com/3c0d/obsidian-inject/internal/release"
	"github.com/3c0d/obsidian-inject/internal/source"
	"github.com/3c0d/obsidian-inject/internal/style"
	"github.com/3c0d/obsidian-inject/internal/templates"
	"github.com/3c0d/obsidian-inject/internal/types"
)

// StatusReport is the injection status of one target.
type StatusReport struct {
	Analysis        *analyzer.Analysis `json:"analysis" yaml:"analysis" toml:"analysis"`
	SourcePath      string             `json:"source_path,omitempty" yaml:"source_path,omitempty" toml:"source_path,omitempty"`
	SourceVersion   string             `json:"source_version,omitempty" yaml:"source_version,omitempty" toml:"source_version,omitempty"`
	UpdateAvailable bool               `json:"update_available" yaml:"update_available" toml:"update_available"`
	SourceGit       *git.Status        `json:"source_git,omitempty" yaml:"source_git,omitempty" toml:"source_git,omitempty"`
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "status [path]",
		Aliases: []string{"check"},
		Short:   "Show the injection status of a plugin",
		Long: `Status reports whether a plugin directory was injected, with which
version and when, and whether the located obsidian-plugin-config is newer.
The git state of obsidian-plugin-config is shown too, since injection
commits its pending changes first.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd.OutOrStdout(), targetArg(args))
		},
	}
}

func runStatus(stdout io.Writer, target string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	out, err := newOutput(stdout)
	if err != nil {
		return err
	}
	target, err = absTarget(target)
	if err != nil {
		return err
	}

	locator := source.NewResolver(cfg.SourceEnv, cfg.SourceRoot)
	report, err := buildStatus(afero.NewOsFs(), locator, git.NewClient(), target)
	if err != nil {
		return err
	}

	if !out.IsText() {
		return out.Write(report)
	}
	printStatus(newPrinter(stdout, out), report)
	return nil
}

// buildStatus analyzes target and compares its marker with the source
// version. A source root that cannot be located only omits the comparison;
// without git the source repository state is omitted.
func buildStatus(fs afero.Fs, locator SourceLocator, gitClient *git.Client, target string) (*StatusReport, error) {
	a, err := analyzer.Analyze(fs, target)
	if err != nil {
		return nil, err
	}
	report := &StatusReport{Analysis: a}

	src, err := locator.Resolve()
	if err != nil {
		return report, nil
	}
	report.SourcePath = src.Path
	if store, err := templates.Open(fs, src.Path); err == nil {
		report.SourceVersion = store.Info().Version
	}

	if a.Marker != nil && report.SourceVersion != "" {
		cmp, err := release.CompareVersions(report.SourceVersion, a.Marker.InjectorVersion)
		report.UpdateAvailable = err == nil && cmp > 0
	}

	if gitClient.Available() {
		st := gitClient.CheckRepository(src.Path)
		report.SourceGit = &st
	}
	return report, nil
}

func printStatus(p *style.Printer, r *StatusReport) {
	a := r.Analysis
	p.Header("Plugin: %s", a.TargetPath)
	if a.Manifest != nil {
		p.Info("%s %s (%s)", a.Manifest.Name, a.Manifest.Version, a.Manifest.ID)
	}
	p.Plain("  package.json:    %s", style.Check(a.HasPackageJSON))
	p.Plain("  manifest.json:   %s", style.Check(a.HasManifest))
	p.Plain("  scripts/:        %s", style.Check(a.HasScripts))
	p.Plain("  Obsidian plugin: %s", style.Check(a.IsValidPlugin))

	switch a.State {
	case types.StateInjected:
		p.Success("Status: %s", a.State.Describe())
		if m := a.Marker; m != nil {
			p.Plain("    Injector: %s", m.InjectorName)
			p.Plain("    Version:  %s", m.InjectorVersion)
			p.Plain("    Date:     %s", markerDate(m))
		}
		if r.UpdateAvailable {
			p.Info("Update available: %s → %s", a.Marker.InjectorVersion, r.SourceVersion)
		}
	case types.StateLegacy:
		p.Warn("Status: %s", a.State.Describe())
		p.Plain("    Found %s but no %s", marker.LegacySentinel, marker.FileName)
		p.Plain("    Re-inject to add version tracking")
	default:
		p.Skip("Status: %s", a.State.Describe())
	}

	for _, w := range a.Warnings {
		p.Warn("%s", w)
	}

	if r.SourcePath != "" {
		p.Header("Source: %s", r.SourcePath)
		p.Plain("  Version: %s", versionOrUnknown(r.SourceVersion))
		if st := r.SourceGit; st != nil {
			printGitStatus(p, st)
		}
	}
}

func printGitStatus(p *style.Printer, st *git.Status) {
	msg := st.Message
	if st.CurrentBranch != "" {
		msg = st.CurrentBranch + ": " + msg
	}
	switch st.Level {
	case git.LevelOK:
		p.Success("git %s", msg)
	case git.LevelWarning:
		p.Warn("git %s", msg)
	case git.LevelError:
		p.Error("git %s", msg)
	default:
		p.Info("git %s", msg)
	}
}

func markerDate(m *marker.Marker) string {
	t, err := m.Date()
	if err != nil {
		return m.InjectionDate
	}
	return t.Local().Format("2006-01-02 15:04")
}

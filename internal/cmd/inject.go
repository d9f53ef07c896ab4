package cmd

import (
	"io"

	"github.com/spf13/cobra"
)

// InjectOptions configures one injection run.
type InjectOptions struct {
	Target          string
	Yes             bool // Skip the confirmation prompt
	DryRun          bool // Show what would change without writing
	Sass            bool // Add the sass build variant
	NoInstall       bool // Do not run the package manager afterwards
	NoBackup        bool // Do not snapshot managed files first
	SkipSourceCheck bool // Do not commit pending changes in the source root
}

func addInjectFlags(cmd *cobra.Command, opts *InjectOptions) {
	cmd.Flags().BoolVarP(&opts.Yes, "yes", "y", false, "Inject without asking for confirmation")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Show the injection plan without changing anything")
	cmd.Flags().BoolVar(&opts.DryRun, "check", false, "Alias for --dry-run")
	cmd.Flags().BoolVar(&opts.Sass, "sass", false, "Inject the sass build variant")
	cmd.Flags().BoolVar(&opts.NoInstall, "no-install", false, "Skip the dependency install")
	cmd.Flags().BoolVar(&opts.NoBackup, "no-backup", false, "Skip the backup of managed files")
	cmd.Flags().BoolVar(&opts.SkipSourceCheck, "skip-source-check", false, "Do not commit pending changes in the source root")
	_ = cmd.Flags().MarkHidden("check")
}

func runInject(stdin io.Reader, stdout, stderr io.Writer, opts InjectOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	out, err := newOutput(stdout)
	if err != nil {
		return err
	}

	target, err := absTarget(opts.Target)
	if err != nil {
		return err
	}
	opts.Target = target

	printer := newPrinter(stdout, out)
	svc := NewInjectService(cfg, stdin, promptWriter(out, stdout, stderr), printer)
	svc.SetInstallOutput(stderr)
	return svc.Run(opts, out)
}

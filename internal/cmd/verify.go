package cmd

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/3c0d/obsidian-inject/internal/release"
)

// VerifyReport lists the checks that ran.
type VerifyReport struct {
	Dir    string          `json:"dir" yaml:"dir" toml:"dir"`
	Passed bool            `json:"passed" yaml:"passed" toml:"passed"`
	Checks []release.Check `json:"checks" yaml:"checks" toml:"checks"`
}

func newVerifyCmd() *cobra.Command {
	var (
		dir       string
		skipBuild bool
	)

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check that a package is ready to publish",
		Long: `Verify checks required files and package.json fields, records the
current version in versions.json and runs the build. It stops at the
first failing check.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd.OutOrStdout(), dir, skipBuild)
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "C", ".", "Package directory")
	cmd.Flags().BoolVar(&skipBuild, "skip-build", false, "Do not run the build")
	return cmd
}

func runVerify(stdout io.Writer, dir string, skipBuild bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	out, err := newOutput(stdout)
	if err != nil {
		return err
	}
	dir, err = absTarget(dir)
	if err != nil {
		return err
	}

	printer := newPrinter(stdout, out)
	svc := NewReleaseService(cfg, nil, io.Discard, printer)
	checks, verr := svc.Verify(dir, skipBuild)

	if !out.IsText() {
		report := VerifyReport{Dir: dir, Passed: verr == nil, Checks: checks}
		if err := out.Write(report); err != nil {
			return err
		}
		return verr
	}

	printer.Header("Verifying %s", dir)
	svc.printChecks(checks)
	if verr != nil {
		return verr
	}
	printer.Success("Package is ready to publish")
	return nil
}

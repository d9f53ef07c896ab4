package cmd

import (
	"errors"
	"io"

	"github.com/spf13/cobra"

	"github.com/3c0d/obsidian-inject/internal/interactive"
)

func newPublishCmd() *cobra.Command {
	var (
		dir  string
		bump string
	)

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Verify and publish a package to npm",
		Long: `Publish optionally bumps the version, verifies the package and runs
npm publish against the configured registry. A failed publish is not retried.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPublish(cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr(), dir, bump)
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "C", ".", "Package directory")
	cmd.Flags().StringVar(&bump, "bump", "", "Bump the version first (patch, minor, major or a version)")
	return cmd
}

func runPublish(stdin io.Reader, stdout, stderr io.Writer, dir, bump string) error {
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
	svc := NewReleaseService(cfg, stdin, promptWriter(out, stdout, stderr), printer)

	if bump != "" {
		result, err := svc.Bump(dir, bump)
		if errors.Is(err, interactive.ErrCancelled) {
			printer.Warn("Publish cancelled")
			return nil
		}
		if err != nil {
			return err
		}
		svc.printBump(result)
	}

	printer.Header("Verifying %s", dir)
	checks, err := svc.Publish(dir, stderr)
	svc.printChecks(checks)
	if err != nil {
		return err
	}
	printer.Success("Published to %s", cfg.Publish.Registry)
	return nil
}

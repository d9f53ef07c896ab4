package cmd

import (
	"errors"
	"io"

	"github.com/spf13/cobra"

	"github.com/3c0d/obsidian-inject/internal/interactive"
)

func newBumpCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:     "bump [patch|minor|major|<version>]",
		Aliases: []string{"v"},
		Short:   "Bump the version, commit and push",
		Long: `Bump writes the next version into package.json, manifest.json and
versions.json, commits the change and pushes it.

The kind may be patch (p, 1), minor (min, 2), major (maj, 3) or a full
version such as 2.0.0-beta.1. Without an argument a menu is shown.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			choice := ""
			if len(args) > 0 {
				choice = args[0]
			}
			return runBump(cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr(), dir, choice)
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "C", ".", "Package directory")
	return cmd
}

func runBump(stdin io.Reader, stdout, stderr io.Writer, dir, choice string) error {
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
	result, err := svc.Bump(dir, choice)
	if errors.Is(err, interactive.ErrCancelled) {
		printer.Warn("Version bump cancelled")
		return nil
	}
	if err != nil {
		return err
	}

	if !out.IsText() {
		return out.Write(result)
	}
	svc.printBump(result)
	return nil
}

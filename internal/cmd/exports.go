package cmd

import (
	"io"

	"github.com/spf13/cobra"
)

func newExportsCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "exports",
		Short: "Regenerate src/index.ts and the package.json exports map",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExports(cmd.OutOrStdout(), dir)
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "C", ".", "Package directory")
	return cmd
}

func runExports(stdout io.Writer, dir string) error {
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
	result, err := NewReleaseService(cfg, nil, io.Discard, printer).Exports(dir)
	if err != nil {
		return err
	}

	if !out.IsText() {
		return out.Write(result)
	}
	printer.Success("Updated %s with %d module(s)", result.Index, len(result.Modules))
	for _, m := range result.Modules {
		printer.Plain("    ./%s", m)
	}
	return nil
}

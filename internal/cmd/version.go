package cmd

import (
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"
)

// BuildInfo describes the running binary.
type BuildInfo struct {
	Version string `json:"version" yaml:"version" toml:"version"`
	Commit  string `json:"commit" yaml:"commit" toml:"commit"`
	Date    string `json:"date" yaml:"date" toml:"date"`
	Go      string `json:"go" yaml:"go" toml:"go"`
}

// buildInfo is set during command initialization
var buildInfo = BuildInfo{Version: "dev", Commit: "none", Date: "unknown"}

// SetVersion records the build metadata injected by the linker.
func SetVersion(version, commit, date string) {
	buildInfo = BuildInfo{Version: version, Commit: commit, Date: date}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVersion(cmd.OutOrStdout())
		},
	}
}

func runVersion(stdout io.Writer) error {
	out, err := newOutput(stdout)
	if err != nil {
		return err
	}

	info := buildInfo
	info.Go = runtime.Version()
	if !out.IsText() {
		return out.Write(info)
	}

	_, _ = fmt.Fprintf(stdout, "obsidian-inject version %s\n", info.Version)
	_, _ = fmt.Fprintf(stdout, "  commit: %s\n  built:  %s\n  go:     %s\n", info.Commit, info.Date, info.Go)
	return nil
}

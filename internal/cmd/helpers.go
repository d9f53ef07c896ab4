// Package cmd contains the CLI command implementations.
package cmd

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/3c0d/obsidian-inject/internal/config"
	"github.com/3c0d/obsidian-inject/internal/output"
	"github.com/3c0d/obsidian-inject/internal/style"
)

// targetArg returns the path argument, the current directory by default.
func targetArg(args []string) string {
	if len(args) == 0 {
		return "."
	}
	return args[0]
}

// absTarget makes a target path absolute.
func absTarget(target string) (string, error) {
	abs, err := filepath.Abs(target)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", target, err)
	}
	return abs, nil
}

// loadConfig loads settings using the global --config flag.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// newOutput returns a writer for the global --output flag.
func newOutput(w io.Writer) (*output.Writer, error) {
	format, err := output.ParseFormat(outputFormat)
	if err != nil {
		return nil, err
	}
	return output.NewWriter(w, format), nil
}

// promptWriter returns where prompts go: stdout, or stderr when stdout
// carries structured output.
func promptWriter(out *output.Writer, stdout, stderr io.Writer) io.Writer {
	if out.IsText() {
		return stdout
	}
	return stderr
}

// newPrinter returns a status printer honoring --quiet. Structured output
// formats silence it so stdout stays machine readable.
func newPrinter(w io.Writer, out *output.Writer) *style.Printer {
	return style.NewPrinter(w, quiet || !out.IsText())
}

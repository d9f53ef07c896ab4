// Package runner executes external commands (git, yarn, npm) with an
// explicit working directory. Nothing in obsidian-inject changes the
// process working directory; every command names the directory it runs in.
package runner

import (
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/3c0d/obsidian-inject/internal/logging"
)

// CommandRunner is an interface for running external commands.
// This allows for mocking in tests.
type CommandRunner interface {
	// RunInDir executes a command in dir and returns its combined output.
	RunInDir(dir, name string, args ...string) ([]byte, error)
	// StreamInDir executes a command in dir with output copied to out.
	StreamInDir(dir string, out io.Writer, name string, args ...string) error
}

// DefaultCommandRunner uses os/exec to run commands.
type DefaultCommandRunner struct{}

// New returns the os/exec backed runner.
func New() *DefaultCommandRunner {
	return &DefaultCommandRunner{}
}

// RunInDir executes a command in the specified directory.
func (r *DefaultCommandRunner) RunInDir(dir, name string, args ...string) ([]byte, error) {
	logging.LogCommand(dir, name, args)
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	return cmd.CombinedOutput()
}

// StreamInDir executes a command in the specified directory, streaming
// stdout and stderr to out.
func (r *DefaultCommandRunner) StreamInDir(dir string, out io.Writer, name string, args ...string) error {
	logging.LogCommand(dir, name, args)
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	cmd.Stdout = out
	cmd.Stderr = out
	return cmd.Run()
}

// CommandLine renders a command for display.
func CommandLine(name string, args ...string) string {
	if len(args) == 0 {
		return name
	}
	return name + " " + strings.Join(args, " ")
}

// Error wraps a failed command with its output.
func Error(name string, args []string, output []byte, err error) error {
	out := strings.TrimSpace(string(output))
	if out == "" {
		return fmt.Errorf("%s failed: %w", CommandLine(name, args...), err)
	}
	return fmt.Errorf("%s failed: %w\nOutput: %s", CommandLine(name, args...), err, out)
}

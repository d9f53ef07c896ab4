// Package git provides the git operations obsidian-inject needs: repository
// status for the source root, and the add/commit/push steps of the version
// pipeline. Every call takes the repository directory explicitly.
package git

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/3c0d/obsidian-inject/internal/runner"
)

// Level represents the severity of a git status.
type Level string

const (
	LevelOK      Level = "ok"      // Clean and in sync
	LevelInfo    Level = "info"    // Ahead or behind remote
	LevelWarning Level = "warning" // Uncommitted changes
	LevelError   Level = "error"   // Git operation failed
)

// Status represents the git status of a repository.
type Status struct {
	Path           string `json:"path" yaml:"path" toml:"path"`
	IsGitRepo      bool   `json:"is_git_repo" yaml:"is_git_repo" toml:"is_git_repo"`
	IsClean        bool   `json:"is_clean" yaml:"is_clean" toml:"is_clean"`
	HasUncommitted bool   `json:"has_uncommitted" yaml:"has_uncommitted" toml:"has_uncommitted"`
	Ahead          int    `json:"ahead" yaml:"ahead" toml:"ahead"`
	Behind         int    `json:"behind" yaml:"behind" toml:"behind"`
	CurrentBranch  string `json:"current_branch,omitempty" yaml:"current_branch,omitempty" toml:"current_branch,omitempty"`
	Remote         string `json:"remote,omitempty" yaml:"remote,omitempty" toml:"remote,omitempty"`
	Level          Level  `json:"level" yaml:"level" toml:"level"`
	Message        string `json:"message" yaml:"message" toml:"message"`
	Error          error  `json:"-" yaml:"-" toml:"-"`
}

// Client runs git commands through a CommandRunner.
type Client struct {
	runner        runner.CommandRunner
	skipPathCheck bool // For testing: skip filesystem path existence check
}

// NewClient creates a Client with the default command runner.
func NewClient() *Client {
	return &Client{runner: runner.New()}
}

// NewClientWithRunner creates a Client with a custom command runner (for testing).
func NewClientWithRunner(r runner.CommandRunner) *Client {
	return &Client{runner: r}
}

// SetSkipPathCheck sets whether to skip filesystem path existence checks (for testing).
func (c *Client) SetSkipPathCheck(skip bool) {
	c.skipPathCheck = skip
}

// CheckRepository checks the git status of a repository at the given path.
func (c *Client) CheckRepository(path string) Status {
	status := Status{Path: path}

	if !c.skipPathCheck {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			status.Level = LevelError
			status.Error = fmt.Errorf("path does not exist: %s", path)
			status.Message = fmt.Sprintf("path does not exist: %s", path)
			return status
		}
	}

	if !c.IsRepo(path) {
		status.Level = LevelInfo
		status.Message = "not a git repository"
		return status
	}
	status.IsGitRepo = true

	branch, err := c.CurrentBranch(path)
	if err != nil {
		status.Level = LevelError
		status.Error = err
		status.Message = fmt.Sprintf("failed to get current branch: %v", err)
		return status
	}
	status.CurrentBranch = branch

	changes, err := c.Changes(path)
	if err != nil {
		status.Level = LevelError
		status.Error = err
		status.Message = fmt.Sprintf("failed to check working tree: %v", err)
		return status
	}
	status.HasUncommitted = changes != ""
	status.IsClean = !status.HasUncommitted

	if status.HasUncommitted {
		status.Level = LevelWarning
		status.Message = "uncommitted changes detected"
		return status
	}

	remote, err := c.getRemoteTrackingBranch(path)
	if err != nil {
		// No remote tracking branch is not an error, just info
		status.Level = LevelOK
		status.Message = "clean (no remote tracking branch)"
		return status
	}
	status.Remote = remote

	ahead, behind, err := c.getAheadBehind(path, remote)
	if err != nil {
		status.Level = LevelOK
		status.Message = "clean"
		return status
	}
	status.Ahead = ahead
	status.Behind = behind

	switch {
	case behind > 0 && ahead > 0:
		status.Level = LevelInfo
		status.Message = fmt.Sprintf("%d commits ahead, %d commits behind remote", ahead, behind)
	case behind > 0:
		status.Level = LevelInfo
		status.Message = fmt.Sprintf("%d commits behind remote", behind)
	case ahead > 0:
		status.Level = LevelInfo
		status.Message = fmt.Sprintf("%d commits ahead of remote", ahead)
	default:
		status.Level = LevelOK
		status.Message = "clean and in sync"
	}

	return status
}

// IsRepo checks if the path is inside a git repository.
func (c *Client) IsRepo(path string) bool {
	output, err := c.runner.RunInDir(path, "git", "rev-parse", "--git-dir")
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(output)) != ""
}

// CurrentBranch returns the current branch name.
func (c *Client) CurrentBranch(path string) (string, error) {
	output, err := c.runner.RunInDir(path, "git", "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", fmt.Errorf("git rev-parse failed: %w", err)
	}
	return strings.TrimSpace(string(output)), nil
}

// Changes returns the porcelain status output, empty when the tree is clean.
func (c *Client) Changes(path string) (string, error) {
	output, err := c.runner.RunInDir(path, "git", "status", "--porcelain")
	if err != nil {
		return "", fmt.Errorf("git status failed: %w", err)
	}
	return strings.TrimSpace(string(output)), nil
}

// Add stages the given files, or everything when files is empty.
func (c *Client) Add(path string, files ...string) error {
	args := []string{"add"}
	if len(files) == 0 {
		args = append(args, "-A")
	} else {
		args = append(args, files...)
	}
	if output, err := c.runner.RunInDir(path, "git", args...); err != nil {
		return runner.Error("git", args, output, err)
	}
	return nil
}

// Commit records staged changes with message.
func (c *Client) Commit(path, message string) error {
	args := []string{"commit", "-m", message}
	if output, err := c.runner.RunInDir(path, "git", args...); err != nil {
		return runner.Error("git", args, output, err)
	}
	return nil
}

// PushResult describes how a push went.
type PushResult struct {
	Branch      string
	SetUpstream bool // the retry with --set-upstream was needed
}

// Push pushes the current branch. When the plain push fails (typically a
// branch without upstream) it retries exactly once with --set-upstream.
func (c *Client) Push(path string) (*PushResult, error) {
	branch, err := c.CurrentBranch(path)
	if err != nil {
		return nil, err
	}
	result := &PushResult{Branch: branch}

	args := []string{"push", "origin", branch}
	output, err := c.runner.RunInDir(path, "git", args...)
	if err == nil {
		return result, nil
	}
	firstErr := runner.Error("git", args, output, err)

	args = []string{"push", "--set-upstream", "origin", branch}
	output, err = c.runner.RunInDir(path, "git", args...)
	if err != nil {
		return nil, fmt.Errorf("%v; retry failed: %w", firstErr, runner.Error("git", args, output, err))
	}
	result.SetUpstream = true
	return result, nil
}

// getRemoteTrackingBranch returns the remote tracking branch (e.g., "origin/main").
func (c *Client) getRemoteTrackingBranch(path string) (string, error) {
	output, err := c.runner.RunInDir(path, "git", "rev-parse", "--abbrev-ref", "--symbolic-full-name", "@{u}")
	if err != nil {
		return "", fmt.Errorf("no remote tracking branch")
	}
	return strings.TrimSpace(string(output)), nil
}

// getAheadBehind returns the number of commits ahead and behind the remote.
func (c *Client) getAheadBehind(path, remote string) (ahead, behind int, err error) {
	output, err := c.runner.RunInDir(path, "git", "rev-list", "--left-right", "--count", "HEAD..."+remote)
	if err != nil {
		return 0, 0, fmt.Errorf("git rev-list failed: %w", err)
	}

	parts := strings.Fields(strings.TrimSpace(string(output)))
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("unexpected output format: %s", output)
	}

	ahead, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid ahead count: %w", err)
	}

	behind, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid behind count: %w", err)
	}

	return ahead, behind, nil
}

// Available checks if git is available on the system.
func (c *Client) Available() bool {
	_, err := c.runner.RunInDir("", "git", "--version")
	return err == nil
}

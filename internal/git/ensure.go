package git

import "fmt"

// SourceCommitMessage is used when the source root is auto-committed before injection.
const SourceCommitMessage = "🔧 Update plugin-config templates and scripts"

// CleanResult reports what EnsureClean did.
type CleanResult struct {
	IsGitRepo bool
	WasDirty  bool
	Changes   string // porcelain output before committing
	Committed bool
	Push      *PushResult
	PushErr   error // push failures are reported, not fatal
}

// EnsureClean makes sure the repository at path has no uncommitted changes
// so that injected files can be traced to a commit. Pending changes are
// staged, committed with message and pushed. A failed push leaves the
// local commit in place and is reported through PushErr.
func (c *Client) EnsureClean(path, message string) (*CleanResult, error) {
	result := &CleanResult{}

	if !c.IsRepo(path) {
		return result, nil
	}
	result.IsGitRepo = true

	changes, err := c.Changes(path)
	if err != nil {
		return nil, err
	}
	if changes == "" {
		return result, nil
	}
	result.WasDirty = true
	result.Changes = changes

	if err := c.Add(path); err != nil {
		return nil, fmt.Errorf("failed to stage source changes: %w", err)
	}
	if err := c.Commit(path, message); err != nil {
		return nil, fmt.Errorf("failed to commit source changes: %w", err)
	}
	result.Committed = true

	push, err := c.Push(path)
	if err != nil {
		result.PushErr = err
		return result, nil
	}
	result.Push = push

	return result, nil
}

package git

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/3c0d/obsidian-inject/internal/runner"
)

const repo = "/tmp/testrepo"

func cleanRepoMock() *runner.MockRunner {
	mock := runner.NewMockRunner()
	mock.AddCommand(repo, "git rev-parse --git-dir", []byte(".git\n"), nil)
	mock.AddCommand(repo, "git rev-parse --abbrev-ref HEAD", []byte("main\n"), nil)
	mock.AddCommand(repo, "git status --porcelain", []byte(""), nil)
	return mock
}

func newTestClient(mock *runner.MockRunner) *Client {
	c := NewClientWithRunner(mock)
	c.SetSkipPathCheck(true)
	return c
}

func TestClientAvailable(t *testing.T) {
	tests := []struct {
		name   string
		output []byte
		err    error
		want   bool
	}{
		{"git available", []byte("git version 2.44.0"), nil, true},
		{"git not available", nil, errors.New("git not found"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := runner.NewMockRunner()
			mock.AddCommand("", "git --version", tt.output, tt.err)
			assert.Equal(t, tt.want, NewClientWithRunner(mock).Available())
		})
	}
}

func TestCheckRepositoryClean(t *testing.T) {
	mock := cleanRepoMock()
	mock.AddCommand(repo, "git rev-parse --abbrev-ref --symbolic-full-name @{u}", []byte("origin/main\n"), nil)
	mock.AddCommand(repo, "git rev-list --left-right --count HEAD...origin/main", []byte("0\t0\n"), nil)

	status := newTestClient(mock).CheckRepository(repo)

	assert.Equal(t, LevelOK, status.Level)
	assert.True(t, status.IsClean)
	assert.Equal(t, "main", status.CurrentBranch)
	assert.Equal(t, "clean and in sync", status.Message)
}

func TestCheckRepositoryUncommittedChanges(t *testing.T) {
	mock := cleanRepoMock()
	mock.AddCommand(repo, "git status --porcelain", []byte(" M templates/.gitignore\n"), nil)

	status := newTestClient(mock).CheckRepository(repo)

	assert.Equal(t, LevelWarning, status.Level)
	assert.True(t, status.HasUncommitted)
	assert.False(t, status.IsClean)
}

func TestCheckRepositoryAheadBehind(t *testing.T) {
	mock := cleanRepoMock()
	mock.AddCommand(repo, "git rev-parse --abbrev-ref --symbolic-full-name @{u}", []byte("origin/main\n"), nil)
	mock.AddCommand(repo, "git rev-list --left-right --count HEAD...origin/main", []byte("2\t3\n"), nil)

	status := newTestClient(mock).CheckRepository(repo)

	assert.Equal(t, LevelInfo, status.Level)
	assert.Equal(t, 2, status.Ahead)
	assert.Equal(t, 3, status.Behind)
}

func TestCheckRepositoryNotGitRepo(t *testing.T) {
	mock := runner.NewMockRunner()
	mock.AddCommand(repo, "git rev-parse --git-dir", nil, errors.New("not a git repository"))

	status := newTestClient(mock).CheckRepository(repo)

	assert.False(t, status.IsGitRepo)
	assert.Equal(t, "not a git repository", status.Message)
}

func TestCheckRepositoryMissingPath(t *testing.T) {
	status := NewClientWithRunner(runner.NewMockRunner()).CheckRepository("/definitely/not/here")
	assert.Equal(t, LevelError, status.Level)
	assert.Error(t, status.Error)
}

func TestCheckRepositoryNoRemoteTracking(t *testing.T) {
	mock := cleanRepoMock()
	mock.AddCommand(repo, "git rev-parse --abbrev-ref --symbolic-full-name @{u}", nil, errors.New("no upstream"))

	status := newTestClient(mock).CheckRepository(repo)

	assert.Equal(t, LevelOK, status.Level)
	assert.Equal(t, "clean (no remote tracking branch)", status.Message)
}

func TestAdd(t *testing.T) {
	mock := runner.NewMockRunner()
	mock.AddCommand(repo, "git add -A", nil, nil)
	mock.AddCommand(repo, "git add package.json versions.json", nil, nil)

	c := NewClientWithRunner(mock)
	require.NoError(t, c.Add(repo))
	require.NoError(t, c.Add(repo, "package.json", "versions.json"))
	assert.True(t, mock.Called(repo, "git add package.json versions.json"))
}

func TestPushFirstTry(t *testing.T) {
	mock := cleanRepoMock()
	mock.AddCommand(repo, "git push origin main", nil, nil)

	result, err := NewClientWithRunner(mock).Push(repo)

	require.NoError(t, err)
	assert.False(t, result.SetUpstream)
	assert.False(t, mock.Called(repo, "git push --set-upstream origin main"))
}

func TestPushRetriesWithUpstream(t *testing.T) {
	mock := cleanRepoMock()
	mock.AddCommand(repo, "git push origin main", []byte("no upstream"), errors.New("exit status 128"))
	mock.AddCommand(repo, "git push --set-upstream origin main", nil, nil)

	result, err := NewClientWithRunner(mock).Push(repo)

	require.NoError(t, err)
	assert.True(t, result.SetUpstream)
	assert.Equal(t, "main", result.Branch)
}

func TestPushRetryFails(t *testing.T) {
	mock := cleanRepoMock()
	mock.AddCommand(repo, "git push origin main", nil, errors.New("exit status 128"))
	mock.AddCommand(repo, "git push --set-upstream origin main", nil, errors.New("exit status 128"))

	_, err := NewClientWithRunner(mock).Push(repo)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "retry failed")
}

func TestEnsureCleanAlreadyClean(t *testing.T) {
	mock := cleanRepoMock()

	result, err := NewClientWithRunner(mock).EnsureClean(repo, SourceCommitMessage)

	require.NoError(t, err)
	assert.True(t, result.IsGitRepo)
	assert.False(t, result.WasDirty)
	assert.False(t, mock.Called(repo, "git add -A"))
}

func TestEnsureCleanCommitsAndPushes(t *testing.T) {
	mock := cleanRepoMock()
	mock.AddCommand(repo, "git status --porcelain", []byte(" M templates/scripts/utils.ts\n"), nil)
	mock.AddCommand(repo, "git add -A", nil, nil)
	mock.AddCommand(repo, "git commit -m "+SourceCommitMessage, nil, nil)
	mock.AddCommand(repo, "git push origin main", nil, nil)

	result, err := NewClientWithRunner(mock).EnsureClean(repo, SourceCommitMessage)

	require.NoError(t, err)
	assert.True(t, result.WasDirty)
	assert.True(t, result.Committed)
	assert.NotNil(t, result.Push)
	assert.NoError(t, result.PushErr)
}

func TestEnsureCleanPushFailureIsNotFatal(t *testing.T) {
	mock := cleanRepoMock()
	mock.AddCommand(repo, "git status --porcelain", []byte("?? new.ts\n"), nil)
	mock.AddCommand(repo, "git add -A", nil, nil)
	mock.AddCommand(repo, "git commit -m msg", nil, nil)
	mock.AddCommand(repo, "git push origin main", nil, errors.New("offline"))
	mock.AddCommand(repo, "git push --set-upstream origin main", nil, errors.New("offline"))

	result, err := NewClientWithRunner(mock).EnsureClean(repo, "msg")

	require.NoError(t, err)
	assert.True(t, result.Committed)
	assert.Error(t, result.PushErr)
}

func TestEnsureCleanCommitFailureAborts(t *testing.T) {
	mock := cleanRepoMock()
	mock.AddCommand(repo, "git status --porcelain", []byte("?? new.ts\n"), nil)
	mock.AddCommand(repo, "git add -A", nil, nil)
	mock.AddCommand(repo, "git commit -m msg", []byte("hook rejected"), errors.New("exit status 1"))

	_, err := NewClientWithRunner(mock).EnsureClean(repo, "msg")

	require.Error(t, err)
	assert.False(t, mock.Called(repo, "git push origin main"))
}

func TestEnsureCleanNotARepo(t *testing.T) {
	mock := runner.NewMockRunner()
	mock.AddCommand(repo, "git rev-parse --git-dir", nil, errors.New("fatal"))

	result, err := NewClientWithRunner(mock).EnsureClean(repo, "msg")

	require.NoError(t, err)
	assert.False(t, result.IsGitRepo)
}

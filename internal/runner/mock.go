package runner

import (
	"errors"
	"io"
)

// MockRunner mocks command execution for tests.
// Responses are keyed by "dir:command args...".
type MockRunner struct {
	responses map[string]mockResponse
	// Calls records every command in execution order as "dir:command args...".
	Calls []string
}

type mockResponse struct {
	output []byte
	err    error
}

// NewMockRunner creates an empty MockRunner.
func NewMockRunner() *MockRunner {
	return &MockRunner{responses: make(map[string]mockResponse)}
}

// AddCommand registers the response for a command run in dir.
// An empty dir matches the command in any directory.
func (m *MockRunner) AddCommand(dir, cmd string, output []byte, err error) {
	m.responses[dir+":"+cmd] = mockResponse{output: output, err: err}
}

func (m *MockRunner) lookup(dir, name string, args []string) ([]byte, error) {
	cmd := CommandLine(name, args...)
	m.Calls = append(m.Calls, dir+":"+cmd)
	if resp, ok := m.responses[dir+":"+cmd]; ok {
		return resp.output, resp.err
	}
	if resp, ok := m.responses[":"+cmd]; ok {
		return resp.output, resp.err
	}
	return nil, errors.New("command not mocked: " + dir + ":" + cmd)
}

// RunInDir returns the registered response.
func (m *MockRunner) RunInDir(dir, name string, args ...string) ([]byte, error) {
	return m.lookup(dir, name, args)
}

// StreamInDir writes the registered output to out and returns its error.
func (m *MockRunner) StreamInDir(dir string, out io.Writer, name string, args ...string) error {
	output, err := m.lookup(dir, name, args)
	if len(output) > 0 && out != nil {
		_, _ = out.Write(output)
	}
	return err
}

// Called reports whether the command was executed in dir.
func (m *MockRunner) Called(dir, cmd string) bool {
	for _, c := range m.Calls {
		if c == dir+":"+cmd {
			return true
		}
	}
	return false
}

package cmd

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/3c0d/obsidian-inject/internal/backup"
	"github.com/3c0d/obsidian-inject/internal/interactive"
	"github.com/3c0d/obsidian-inject/internal/output"
	"github.com/3c0d/obsidian-inject/internal/style"
)

func newBackupFixture(t *testing.T) (afero.Fs, *backup.Manager) {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/plugin/package.json", []byte(`{"name": "before"}`), 0644))

	m := backup.NewManager(fs, "/plugin", "1.4.2")
	m.SetClock(func() time.Time { return time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC) })
	_, err := m.Create([]string{"package.json"}, "before injection")
	require.NoError(t, err)

	require.NoError(t, afero.WriteFile(fs, "/plugin/package.json", []byte(`{"name": "after"}`), 0644))
	return fs, m
}

func TestListBackups(t *testing.T) {
	_, m := newBackupFixture(t)

	var buf bytes.Buffer
	require.NoError(t, listBackups(m, output.NewWriter(&buf, output.FormatText), &buf))

	out := buf.String()
	assert.Contains(t, out, "2025-05-01-080000")
	assert.Contains(t, out, "before injection")
	assert.Contains(t, out, "1.4.2")
}

func TestListBackupsEmpty(t *testing.T) {
	m := backup.NewManager(afero.NewMemMapFs(), "/plugin", "1.4.2")

	var buf bytes.Buffer
	require.NoError(t, listBackups(m, output.NewWriter(&buf, output.FormatText), &buf))
	assert.Contains(t, buf.String(), "No backups found.")
}

func TestRestoreBackup(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		yes      bool
		wantName string
	}{
		{"confirmed", "y\n", false, "before"},
		{"declined", "n\n", false, "after"},
		{"skip prompt", "", true, "before"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs, m := newBackupFixture(t)
			var buf bytes.Buffer
			prompter := interactive.NewPrompterWithIO(strings.NewReader(tt.input), &buf)

			require.NoError(t, restoreBackup(m, prompter, style.NewPrinter(&buf, false), "latest", tt.yes))

			data, err := afero.ReadFile(fs, "/plugin/package.json")
			require.NoError(t, err)
			assert.Contains(t, string(data), tt.wantName)
		})
	}
}

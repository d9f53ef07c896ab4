// Package backup snapshots target files before an injection modifies them.
package backup

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/afero"
)

const (
	// DirName is the backup directory inside a target.
	DirName = ".injection-backups"

	metaFile = "backup.json"
	filesDir = "files"
	idFormat = "2006-01-02-150405"
)

// Backup represents a single backup snapshot.
type Backup struct {
	ID              string    `json:"id" yaml:"id" toml:"id"`
	CreatedAt       time.Time `json:"created_at" yaml:"created_at" toml:"created_at"`
	Note            string    `json:"note,omitempty" yaml:"note,omitempty" toml:"note,omitempty"`
	InjectorVersion string    `json:"injector_version" yaml:"injector_version" toml:"injector_version"`
	Files           []string  `json:"files" yaml:"files" toml:"files"`
}

// Manager handles the backups of one target directory.
type Manager struct {
	fs        afero.Fs
	target    string
	backupDir string
	version   string
	now       func() time.Time
}

// NewManager creates a backup manager for target.
func NewManager(fs afero.Fs, target, version string) *Manager {
	return &Manager{
		fs:        fs,
		target:    target,
		backupDir: filepath.Join(target, DirName),
		version:   version,
		now:       time.Now,
	}
}

// SetClock replaces the time source (for testing).
func (m *Manager) SetClock(now func() time.Time) {
	m.now = now
}

// BackupDir returns the backup directory path.
func (m *Manager) BackupDir() string {
	return m.backupDir
}

// Create copies the given target-relative files into a new snapshot. Files
// that do not exist are skipped. It returns nil when nothing was copied.
func (m *Manager) Create(files []string, note string) (*Backup, error) {
	var existing []string
	for _, rel := range files {
		if ok, _ := afero.Exists(m.fs, filepath.Join(m.target, filepath.FromSlash(rel))); ok {
			existing = append(existing, filepath.ToSlash(rel))
		}
	}
	if len(existing) == 0 {
		return nil, nil
	}
	sort.Strings(existing)

	now := m.now()
	id, err := m.newID(now)
	if err != nil {
		return nil, err
	}
	dir := filepath.Join(m.backupDir, id)

	for _, rel := range existing {
		src := filepath.Join(m.target, filepath.FromSlash(rel))
		dst := filepath.Join(dir, filesDir, filepath.FromSlash(rel))
		if err := copyFile(m.fs, src, dst); err != nil {
			return nil, fmt.Errorf("failed to back up %s: %w", rel, err)
		}
	}

	backup := &Backup{
		ID:              id,
		CreatedAt:       now,
		Note:            note,
		InjectorVersion: m.version,
		Files:           existing,
	}

	data, err := json.MarshalIndent(backup, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal backup: %w", err)
	}
	if err := afero.WriteFile(m.fs, filepath.Join(dir, metaFile), data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write backup file: %w", err)
	}

	return backup, nil
}

// newID returns a timestamp ID, suffixed when a snapshot from the same
// second already exists.
func (m *Manager) newID(now time.Time) (string, error) {
	base := now.Format(idFormat)
	id := base
	for i := 2; ; i++ {
		exists, err := afero.DirExists(m.fs, filepath.Join(m.backupDir, id))
		if err != nil {
			return "", fmt.Errorf("failed to check backup directory: %w", err)
		}
		if !exists {
			return id, nil
		}
		id = fmt.Sprintf("%s-%d", base, i)
	}
}

// List returns all backups sorted by creation time (newest first).
func (m *Manager) List() ([]Backup, error) {
	entries, err := afero.ReadDir(m.fs, m.backupDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Backup{}, nil
		}
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	backups := []Backup{}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		backup, err := m.load(entry.Name())
		if err != nil {
			continue
		}
		backups = append(backups, *backup)
	}

	sort.SliceStable(backups, func(i, j int) bool {
		if backups[i].CreatedAt.Equal(backups[j].CreatedAt) {
			return backups[i].ID > backups[j].ID
		}
		return backups[i].CreatedAt.After(backups[j].CreatedAt)
	})

	return backups, nil
}

// Get retrieves a backup by ID. Use "latest" to get the most recent backup.
func (m *Manager) Get(id string) (*Backup, error) {
	if id == "latest" {
		backups, err := m.List()
		if err != nil {
			return nil, err
		}
		if len(backups) == 0 {
			return nil, fmt.Errorf("no backups found")
		}
		return &backups[0], nil
	}
	return m.load(id)
}

// Restore copies the files of a backup back into the target.
func (m *Manager) Restore(id string) (*Backup, error) {
	backup, err := m.Get(id)
	if err != nil {
		return nil, err
	}

	for _, rel := range backup.Files {
		src := filepath.Join(m.backupDir, backup.ID, filesDir, filepath.FromSlash(rel))
		dst := filepath.Join(m.target, filepath.FromSlash(rel))
		if err := copyFile(m.fs, src, dst); err != nil {
			return nil, fmt.Errorf("failed to restore %s: %w", rel, err)
		}
	}
	return backup, nil
}

// Delete removes a backup by ID.
func (m *Manager) Delete(id string) error {
	if err := validID(id); err != nil {
		return err
	}
	dir := filepath.Join(m.backupDir, id)
	if exists, _ := afero.DirExists(m.fs, dir); !exists {
		return fmt.Errorf("backup not found: %s", id)
	}
	if err := m.fs.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to delete backup: %w", err)
	}
	return nil
}

func (m *Manager) load(id string) (*Backup, error) {
	if err := validID(id); err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(m.fs, filepath.Join(m.backupDir, id, metaFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("backup not found: %s", id)
		}
		return nil, fmt.Errorf("failed to read backup file: %w", err)
	}

	var backup Backup
	if err := json.Unmarshal(data, &backup); err != nil {
		return nil, fmt.Errorf("failed to parse backup file: %w", err)
	}
	return &backup, nil
}

func validID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("invalid backup id: %q", id)
	}
	return nil
}

func copyFile(fs afero.Fs, src, dst string) error {
	data, err := afero.ReadFile(fs, src)
	if err != nil {
		return err
	}
	info, err := fs.Stat(src)
	if err != nil {
		return err
	}
	if err := fs.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	return afero.WriteFile(fs, dst, data, info.Mode().Perm())
}

// Package templates reads the template files shipped in a source root.
package templates

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/spf13/afero"
)

// Dir is the templates directory inside a source root.
const Dir = "templates"

// ErrNoTemplates means the source root has no templates directory.
var ErrNoTemplates = errors.New("no templates directory")

// Info describes the source package the templates come from.
type Info struct {
	Name    string `json:"name" yaml:"name" toml:"name"`
	Version string `json:"version" yaml:"version" toml:"version"`
}

// Store gives read access to the files under <root>/templates.
type Store struct {
	fs   afero.Fs
	root string
}

// Open returns a Store for root, failing when root has no templates directory.
func Open(fsys afero.Fs, root string) (*Store, error) {
	dir := filepath.Join(root, Dir)
	ok, err := afero.DirExists(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to check %s: %w", dir, err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", dir, ErrNoTemplates)
	}
	return &Store{fs: afero.NewReadOnlyFs(fsys), root: root}, nil
}

// Root returns the source root directory.
func (s *Store) Root() string {
	return s.root
}

// Path returns the absolute path of a source-relative file such as
// "templates/scripts/utils.ts".
func (s *Store) Path(rel string) string {
	return filepath.Join(s.root, filepath.FromSlash(rel))
}

// Read returns the content of a source-relative file.
func (s *Store) Read(rel string) ([]byte, error) {
	data, err := afero.ReadFile(s.fs, s.Path(rel))
	if err != nil {
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) {
			return nil, fmt.Errorf("template '%s' not found: %w", rel, err)
		}
		return nil, fmt.Errorf("failed to read template '%s': %w", rel, err)
	}
	return data, nil
}

// Info reads name and version from the source root package.json. A missing
// or unreadable package.json yields an empty Info.
func (s *Store) Info() Info {
	var info Info
	data, err := afero.ReadFile(s.fs, filepath.Join(s.root, "package.json"))
	if err != nil {
		return info
	}
	_ = json.Unmarshal(data, &info)
	return info
}

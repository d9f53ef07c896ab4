// Package marker reads and writes the .injection-info.json record left in
// a target after a successful injection.
package marker

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"github.com/3c0d/obsidian-inject/internal/types"
)

const (
	// FileName is the marker file at the target root.
	FileName = ".injection-info.json"

	// LegacySentinel exists in targets injected before markers were written.
	LegacySentinel = "scripts/utils.ts"

	// InjectorName is recorded in every marker.
	InjectorName = "obsidian-plugin-config"

	// UnknownVersion is recorded when the source version cannot be read.
	UnknownVersion = "unknown"
)

// Marker records which tool injected a target, with what version and when.
type Marker struct {
	InjectorVersion string `json:"injectorVersion" yaml:"injector_version" toml:"injector_version"`
	InjectionDate   string `json:"injectionDate" yaml:"injection_date" toml:"injection_date"`
	InjectorName    string `json:"injectorName" yaml:"injector_name" toml:"injector_name"`
}

// New creates a marker for version at now.
func New(version string, now time.Time) Marker {
	if version == "" {
		version = UnknownVersion
	}
	return Marker{
		InjectorVersion: version,
		InjectionDate:   now.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		InjectorName:    InjectorName,
	}
}

// Date parses the injection timestamp.
func (m Marker) Date() (time.Time, error) {
	return time.Parse(time.RFC3339, m.InjectionDate)
}

// Read loads the marker from target. It returns nil without error when the
// file does not exist.
func Read(fs afero.Fs, target string) (*Marker, error) {
	data, err := afero.ReadFile(fs, filepath.Join(target, FileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", FileName, err)
	}

	var m Marker
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", FileName, err)
	}
	return &m, nil
}

// Write stores m in target with two-space indentation.
func Write(fs afero.Fs, target string, m Marker) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal marker: %w", err)
	}
	if err := afero.WriteFile(fs, filepath.Join(target, FileName), append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", FileName, err)
	}
	return nil
}

// Detect determines the injection state of target. A marker that cannot be
// parsed still counts as injected; the parse error is returned alongside.
func Detect(fs afero.Fs, target string) (types.InjectionState, *Marker, error) {
	m, err := Read(fs, target)
	if m != nil {
		return types.StateInjected, m, nil
	}
	if err != nil {
		if ok, _ := afero.Exists(fs, filepath.Join(target, FileName)); ok {
			return types.StateInjected, nil, err
		}
	}

	if ok, _ := afero.Exists(fs, filepath.Join(target, filepath.FromSlash(LegacySentinel))); ok {
		return types.StateLegacy, nil, err
	}
	return types.StateNotInjected, nil, err
}

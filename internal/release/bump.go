package release

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/3c0d/obsidian-inject/internal/git"
	"github.com/3c0d/obsidian-inject/internal/jsondoc"
	"github.com/3c0d/obsidian-inject/internal/logging"
)

const (
	// DefaultMinAppVersion is recorded in versions.json when manifest.json
	// declares no minAppVersion.
	DefaultMinAppVersion = "1.8.9"

	PackageFile  = "package.json"
	ManifestFile = "manifest.json"
	VersionsFile = "versions.json"
)

// CommitMessage returns the commit message for a version bump.
func CommitMessage(version string) string {
	return "Updated to version " + version
}

// BumpResult describes a completed bump.
type BumpResult struct {
	Dir       string          `json:"dir" yaml:"dir" toml:"dir"`
	From      string          `json:"from" yaml:"from" toml:"from"`
	To        string          `json:"to" yaml:"to" toml:"to"`
	Files     []string        `json:"files" yaml:"files" toml:"files"`
	Committed bool            `json:"committed" yaml:"committed" toml:"committed"`
	Push      *git.PushResult `json:"push,omitempty" yaml:"push,omitempty" toml:"push,omitempty"`
	PushError string          `json:"push_error,omitempty" yaml:"push_error,omitempty" toml:"push_error,omitempty"`
}

// Pushed reports whether the bump commit reached the remote.
func (r *BumpResult) Pushed() bool {
	return r.Push != nil
}

// Bumper writes a new version into a package directory and records it in git.
type Bumper struct {
	fs     afero.Fs
	git    *git.Client
	logger zerolog.Logger
}

// NewBumper creates a Bumper reading and writing through fs.
func NewBumper(fs afero.Fs, g *git.Client) *Bumper {
	return &Bumper{fs: fs, git: g, logger: logging.GetLogger("release")}
}

// CurrentVersion returns the version field of dir/package.json.
func (b *Bumper) CurrentVersion(dir string) (string, error) {
	doc, _, err := readDoc(b.fs, filepath.Join(dir, PackageFile))
	if os.IsNotExist(err) {
		return "", fmt.Errorf("%s not found in %s", PackageFile, dir)
	}
	if err != nil {
		return "", err
	}
	version, ok := doc.GetString("version")
	if !ok || version == "" {
		return "", fmt.Errorf("%s has no version", PackageFile)
	}
	return version, nil
}

// Bump resolves choice against the current version, writes it into
// package.json, versions.json and manifest.json (when present), then
// commits and pushes. Any write failure aborts before git; a commit
// failure aborts before the push; a push failure is only recorded.
func (b *Bumper) Bump(dir, choice string) (*BumpResult, error) {
	done := logging.LogOperationStart(b.logger, "bump")
	defer done()

	current, err := b.CurrentVersion(dir)
	if err != nil {
		return nil, err
	}
	next, err := NextVersion(current, choice)
	if err != nil {
		return nil, err
	}

	result := &BumpResult{Dir: dir, From: current, To: next}
	files, err := b.writeVersionFiles(dir, next)
	if err != nil {
		return nil, err
	}
	result.Files = files

	if err := b.git.Add(dir, files...); err != nil {
		return result, fmt.Errorf("failed to stage version files: %w", err)
	}
	if err := b.git.Commit(dir, CommitMessage(next)); err != nil {
		return result, fmt.Errorf("failed to commit version %s: %w", next, err)
	}
	result.Committed = true

	push, err := b.git.Push(dir)
	if err != nil {
		result.PushError = err.Error()
		b.logger.Warn().Err(err).Str("version", next).Msg("push failed, bump kept locally")
		return result, nil
	}
	result.Push = push

	b.logger.Info().Str("from", current).Str("to", next).Msg("version bumped")
	return result, nil
}

type pendingWrite struct {
	name string
	data []byte
}

// writeVersionFiles prepares every document before writing any, then
// attempts all writes and reports every failure together.
func (b *Bumper) writeVersionFiles(dir, version string) ([]string, error) {
	minApp := DefaultMinAppVersion
	var writes []pendingWrite

	pkg, indent, err := readDoc(b.fs, filepath.Join(dir, PackageFile))
	if err != nil {
		return nil, err
	}
	if err := pkg.Set("version", version); err != nil {
		return nil, fmt.Errorf("failed to update %s: %w", PackageFile, err)
	}
	writes = append(writes, pendingWrite{PackageFile, pkg.MarshalIndent(indent)})

	manifestPath := filepath.Join(dir, ManifestFile)
	if ok, _ := afero.Exists(b.fs, manifestPath); ok {
		manifest, indent, err := readDoc(b.fs, manifestPath)
		if err != nil {
			return nil, err
		}
		if v, ok := manifest.GetString("minAppVersion"); ok && v != "" {
			minApp = v
		}
		if err := manifest.Set("version", version); err != nil {
			return nil, fmt.Errorf("failed to update %s: %w", ManifestFile, err)
		}
		writes = append(writes, pendingWrite{ManifestFile, manifest.MarshalIndent(indent)})
	}

	versions, indent, err := readDoc(b.fs, filepath.Join(dir, VersionsFile))
	if os.IsNotExist(err) {
		versions, indent, err = jsondoc.New(), "\t", nil
	}
	if err != nil {
		return nil, err
	}
	if err := versions.Set(jsondoc.Path(version), minApp); err != nil {
		return nil, fmt.Errorf("failed to update %s: %w", VersionsFile, err)
	}
	writes = append(writes, pendingWrite{VersionsFile, versions.MarshalIndent(indent)})

	var files, failures []string
	for _, w := range writes {
		if err := afero.WriteFile(b.fs, filepath.Join(dir, w.name), w.data, 0644); err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", w.name, err))
			continue
		}
		files = append(files, w.name)
	}
	if len(failures) > 0 {
		return files, fmt.Errorf("failed to update version files: %s", strings.Join(failures, "; "))
	}
	return files, nil
}

// readDoc parses a JSON object file and returns it with its indent unit.
// A missing file returns an error satisfying os.IsNotExist.
func readDoc(fs afero.Fs, path string) (*jsondoc.Document, string, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", err
		}
		return nil, "", fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	doc, err := jsondoc.Parse(data)
	if err != nil {
		return nil, "", fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return doc, jsondoc.DetectIndent(data), nil
}

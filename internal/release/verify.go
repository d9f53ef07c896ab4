package release

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/tidwall/gjson"

	"github.com/3c0d/obsidian-inject/internal/jsondoc"
	"github.com/3c0d/obsidian-inject/internal/logging"
	"github.com/3c0d/obsidian-inject/internal/runner"
	"github.com/3c0d/obsidian-inject/internal/types"
)

// ErrVerification is wrapped by every failed verification.
var ErrVerification = errors.New("package verification failed")

// RequiredFields must be non-empty in package.json before publishing.
var RequiredFields = []string{"name", "version", "description", "bin", "repository", "author"}

// Check is the outcome of one verification step.
type Check struct {
	Name   string `json:"name" yaml:"name" toml:"name"`
	Passed bool   `json:"passed" yaml:"passed" toml:"passed"`
	Detail string `json:"detail,omitempty" yaml:"detail,omitempty" toml:"detail,omitempty"`
}

// VerifyOptions select what Verify checks.
type VerifyOptions struct {
	// RequiredFiles are paths relative to the package directory.
	RequiredFiles  []string
	PackageManager types.PackageManager
	// SkipBuild disables the build check.
	SkipBuild bool
}

type verifyStep struct {
	name string
	run  func() (string, error)
}

// Verifier checks that a package directory is ready to publish.
type Verifier struct {
	fs     afero.Fs
	runner runner.CommandRunner
	logger zerolog.Logger
}

// NewVerifier creates a Verifier.
func NewVerifier(fs afero.Fs, r runner.CommandRunner) *Verifier {
	return &Verifier{fs: fs, runner: r, logger: logging.GetLogger("release")}
}

// Verify runs the checks in order and stops at the first failure. The
// returned checks include the failed one; the error names it. A version
// missing from versions.json is added rather than failing.
func (v *Verifier) Verify(dir string, opts VerifyOptions) ([]Check, error) {
	steps := []verifyStep{
		{"required files", func() (string, error) { return v.checkFiles(dir, opts.RequiredFiles) }},
		{"package.json fields", func() (string, error) { return v.checkFields(dir) }},
		{"versions.json", func() (string, error) { return v.syncVersions(dir) }},
	}
	if !opts.SkipBuild {
		steps = append(steps, verifyStep{"build", func() (string, error) { return v.checkBuild(dir, opts.PackageManager) }})
	}

	var checks []Check
	for _, step := range steps {
		detail, err := step.run()
		if err != nil {
			checks = append(checks, Check{Name: step.name, Detail: err.Error()})
			v.logger.Warn().Str("check", step.name).Err(err).Msg("verification failed")
			return checks, fmt.Errorf("%w: %s: %v", ErrVerification, step.name, err)
		}
		checks = append(checks, Check{Name: step.name, Passed: true, Detail: detail})
		v.logger.Debug().Str("check", step.name).Msg("check passed")
	}
	return checks, nil
}

func (v *Verifier) checkFiles(dir string, files []string) (string, error) {
	required := append([]string{PackageFile}, files...)
	for _, rel := range required {
		if ok, _ := afero.Exists(v.fs, filepath.Join(dir, filepath.FromSlash(rel))); !ok {
			return "", fmt.Errorf("missing required file: %s", rel)
		}
	}
	return fmt.Sprintf("%d files present", len(required)), nil
}

func (v *Verifier) checkFields(dir string) (string, error) {
	pkg, _, err := readDoc(v.fs, filepath.Join(dir, PackageFile))
	if err != nil {
		return "", err
	}

	for _, field := range RequiredFields {
		if isEmpty(pkg.Get(jsondoc.Path(field))) {
			return "", fmt.Errorf("missing required package.json field: %s", field)
		}
	}

	// every bin entry must point at an existing file
	var bins []string
	switch bin := pkg.Get("bin"); {
	case bin.Type == gjson.String:
		bins = append(bins, bin.Str)
	case bin.IsObject():
		bin.ForEach(func(_, path gjson.Result) bool {
			if path.Type == gjson.String {
				bins = append(bins, path.Str)
			}
			return true
		})
	}
	sort.Strings(bins)
	for _, rel := range bins {
		if ok, _ := afero.Exists(v.fs, filepath.Join(dir, filepath.FromSlash(rel))); !ok {
			return "", fmt.Errorf("missing bin file: %s", rel)
		}
	}

	version, _ := pkg.GetString("version")
	if _, err := ParseVersion(version); err != nil {
		return "", fmt.Errorf("invalid package.json version: %w", err)
	}
	return "v" + version, nil
}

func isEmpty(value gjson.Result) bool {
	switch {
	case !value.Exists(), value.Type == gjson.Null:
		return true
	case value.Type == gjson.String:
		return value.Str == ""
	case value.IsObject(), value.IsArray():
		empty := true
		value.ForEach(func(_, _ gjson.Result) bool {
			empty = false
			return false
		})
		return empty
	default:
		return false
	}
}

func (v *Verifier) syncVersions(dir string) (string, error) {
	pkg, _, err := readDoc(v.fs, filepath.Join(dir, PackageFile))
	if err != nil {
		return "", err
	}
	version, _ := pkg.GetString("version")

	path := filepath.Join(dir, VersionsFile)
	versions, indent, err := readDoc(v.fs, path)
	if os.IsNotExist(err) {
		versions, indent, err = jsondoc.New(), "\t", nil
	}
	if err != nil {
		return "", err
	}
	if versions.Has(jsondoc.Path(version)) {
		return fmt.Sprintf("version %s listed", version), nil
	}

	if err := versions.Set(jsondoc.Path(version), DefaultMinAppVersion); err != nil {
		return "", err
	}
	if err := afero.WriteFile(v.fs, path, versions.MarshalIndent(indent), 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", VersionsFile, err)
	}
	return fmt.Sprintf("added version %s", version), nil
}

func (v *Verifier) checkBuild(dir string, pm types.PackageManager) (string, error) {
	if pm == "" {
		pm = types.PackageManagerYarn
	}
	args := []string{"build"}
	if pm == types.PackageManagerNPM {
		args = []string{"run", "build"}
	}
	if output, err := v.runner.RunInDir(dir, string(pm), args...); err != nil {
		return "", runner.Error(string(pm), args, output, err)
	}
	return runner.CommandLine(string(pm), args...) + " passed", nil
}

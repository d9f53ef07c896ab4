// Package source locates the source root: the obsidian-plugin-config
// checkout or installed package holding the templates to inject.
package source

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/3c0d/obsidian-inject/internal/logging"
	"github.com/3c0d/obsidian-inject/internal/types"
)

const (
	// PackageName is the npm package name of the source root.
	PackageName = "obsidian-plugin-config"

	// SiblingDir is the conventional directory name next to a plugin.
	SiblingDir = "obsidian-plugin-config"

	// ValueLocal requires the sibling directory.
	ValueLocal = "local"

	// ValuePrompt requires the caller to ask the user for a path.
	ValuePrompt = "prompt"
)

var (
	// ErrNotFound means a required source root location does not exist.
	ErrNotFound = errors.New("source root not found")

	// ErrPromptRequired means the override variable asks for interactive entry.
	ErrPromptRequired = errors.New("source root must be entered interactively")
)

// Result is a resolved source root.
type Result struct {
	Path     string                `json:"path" yaml:"path" toml:"path"`
	Strategy types.ResolveStrategy `json:"strategy" yaml:"strategy" toml:"strategy"`
}

// Resolver finds the source root by trying named strategies in order.
type Resolver struct {
	// EnvName is the override variable, PLUGIN_CONFIG_PATH by default.
	EnvName string
	// Explicit is a configured source root tried before everything else.
	Explicit string

	Getenv     func(string) string
	Getwd      func() (string, error)
	Executable func() (string, error)

	logger zerolog.Logger
}

// NewResolver creates a resolver reading the real environment.
func NewResolver(envName, explicit string) *Resolver {
	return &Resolver{
		EnvName:    envName,
		Explicit:   explicit,
		Getenv:     os.Getenv,
		Getwd:      os.Getwd,
		Executable: os.Executable,
		logger:     logging.GetLogger("source"),
	}
}

// strategy reports a path when it applies. A non-nil error stops resolution.
type strategy struct {
	name  types.ResolveStrategy
	probe func(env, cwd string) (string, bool, error)
}

func (r *Resolver) strategies() []strategy {
	return []strategy{
		{types.StrategyConfig, r.probeConfig},
		{types.StrategyEnvLocal, r.probeEnvLocal},
		{types.StrategyEnvPrompt, r.probeEnvPrompt},
		{types.StrategyEnvPath, r.probeEnvPath},
		{types.StrategySibling, r.probeSibling},
		{types.StrategyInstalled, r.probeInstalled},
		{types.StrategyCwd, r.probeCwd},
	}
}

// Resolve returns the first strategy that finds a source root. It fails
// only for an explicit location that does not exist (ErrNotFound) or the
// prompt override (ErrPromptRequired); otherwise the current directory is
// the fallback.
func (r *Resolver) Resolve() (Result, error) {
	env := strings.TrimSpace(r.Getenv(r.EnvName))

	cwd, err := r.Getwd()
	if err != nil {
		return Result{}, fmt.Errorf("failed to get current directory: %w", err)
	}

	for _, s := range r.strategies() {
		path, ok, err := s.probe(env, cwd)
		if err != nil {
			r.logger.Debug().Str("strategy", s.name.String()).Err(err).Msg("source root strategy failed")
			return Result{}, err
		}
		if !ok {
			r.logger.Trace().Str("strategy", s.name.String()).Msg("source root strategy not applicable")
			continue
		}

		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		r.logger.Info().Str("strategy", s.name.String()).Str("path", abs).Msg("resolved source root")
		return Result{Path: abs, Strategy: s.name}, nil
	}

	return Result{}, ErrNotFound
}

func (r *Resolver) probeConfig(_, _ string) (string, bool, error) {
	if r.Explicit == "" {
		return "", false, nil
	}
	if !isDir(r.Explicit) {
		return "", false, fmt.Errorf("configured source_root %s: %w", r.Explicit, ErrNotFound)
	}
	return r.Explicit, true, nil
}

func (r *Resolver) probeEnvLocal(env, cwd string) (string, bool, error) {
	if env != ValueLocal {
		return "", false, nil
	}
	path := siblingPath(cwd)
	if !isDir(path) {
		return "", false, fmt.Errorf("%s not found in parent directory: %w", SiblingDir, ErrNotFound)
	}
	return path, true, nil
}

func (r *Resolver) probeEnvPrompt(env, _ string) (string, bool, error) {
	if env != ValuePrompt {
		return "", false, nil
	}
	return "", false, ErrPromptRequired
}

func (r *Resolver) probeEnvPath(env, _ string) (string, bool, error) {
	if env == "" || env == ValueLocal || env == ValuePrompt {
		return "", false, nil
	}
	if !isDir(env) {
		r.logger.Warn().Str("variable", r.EnvName).Str("path", env).Msg("override path does not exist, auto-detecting")
		return "", false, nil
	}
	return env, true, nil
}

func (r *Resolver) probeSibling(_, cwd string) (string, bool, error) {
	path := siblingPath(cwd)
	return path, isDir(path), nil
}

// probeInstalled checks the directory of the running binary and its parent
// for a package.json naming the source package.
func (r *Resolver) probeInstalled(_, _ string) (string, bool, error) {
	if r.Executable == nil {
		return "", false, nil
	}
	exe, err := r.Executable()
	if err != nil {
		return "", false, nil
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}

	dir := filepath.Dir(exe)
	for _, candidate := range []string{dir, filepath.Dir(dir)} {
		if IsSourcePackage(candidate) {
			return candidate, true, nil
		}
	}
	return "", false, nil
}

func (r *Resolver) probeCwd(_, cwd string) (string, bool, error) {
	return cwd, true, nil
}

// IsSourcePackage reports whether dir holds a package.json named PackageName.
func IsSourcePackage(dir string) bool {
	data, err := os.ReadFile(filepath.Join(dir, "package.json"))
	if err != nil {
		return false
	}
	var pkg struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &pkg); err != nil {
		return false
	}
	return pkg.Name == PackageName
}

// ValidatePath checks a user-entered source root.
func ValidatePath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", fmt.Errorf("path is empty: %w", ErrNotFound)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("invalid path %s: %w", path, err)
	}
	if !isDir(abs) {
		return "", fmt.Errorf("%s: %w", abs, ErrNotFound)
	}
	return abs, nil
}

func siblingPath(cwd string) string {
	return filepath.Join(filepath.Dir(cwd), SiblingDir)
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

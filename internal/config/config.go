// Package config loads obsidian-inject settings and resolves the config file location.
//
// Settings are layered: built-in defaults, then an optional config file
// (yaml, toml or json), then OBSIDIAN_INJECT_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/3c0d/obsidian-inject/internal/types"
)

const (
	// AppName is the directory name used under the XDG config home.
	AppName = "obsidian-inject"

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "OBSIDIAN_INJECT_"

	// EnvConfigPath names an explicit config file.
	EnvConfigPath = EnvPrefix + "CONFIG"

	// DefaultSourceEnv is the variable selecting how the source root is found.
	DefaultSourceEnv = "PLUGIN_CONFIG_PATH"

	// DefaultRegistry is where packages are published.
	DefaultRegistry = "https://registry.npmjs.org/"

	// DefaultBackupKeep is the number of backup snapshots retained per target.
	DefaultBackupKeep = 5
)

// Config holds the tool settings.
type Config struct {
	SourceRoot       string               `koanf:"source_root" json:"source_root" yaml:"source_root" toml:"source_root"`
	SourceEnv        string               `koanf:"source_env" json:"source_env" yaml:"source_env" toml:"source_env"`
	PackageManager   types.PackageManager `koanf:"package_manager" json:"package_manager" yaml:"package_manager" toml:"package_manager"`
	Install          bool                 `koanf:"install" json:"install" yaml:"install" toml:"install"`
	AutoCommitSource bool                 `koanf:"auto_commit_source" json:"auto_commit_source" yaml:"auto_commit_source" toml:"auto_commit_source"`
	Backup           BackupConfig         `koanf:"backup" json:"backup" yaml:"backup" toml:"backup"`
	Publish          PublishConfig        `koanf:"publish" json:"publish" yaml:"publish" toml:"publish"`

	// Path of the config file that was loaded, empty when none was found.
	Path string `koanf:"-" json:"path,omitempty" yaml:"path,omitempty" toml:"path,omitempty"`
}

// BackupConfig controls target snapshots taken before injection.
type BackupConfig struct {
	Enabled bool `koanf:"enabled" json:"enabled" yaml:"enabled" toml:"enabled"`
	Keep    int  `koanf:"keep" json:"keep" yaml:"keep" toml:"keep"`
}

// PublishConfig controls the publish step.
type PublishConfig struct {
	Registry string `koanf:"registry" json:"registry" yaml:"registry" toml:"registry"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"source_root":        "",
		"source_env":         DefaultSourceEnv,
		"package_manager":    string(types.PackageManagerYarn),
		"install":            true,
		"auto_commit_source": true,
		"backup.enabled":     true,
		"backup.keep":        DefaultBackupKeep,
		"publish.registry":   DefaultRegistry,
	}
}

// Default returns the built-in configuration without reading any file or
// environment variable.
func Default() *Config {
	return &Config{
		SourceEnv:        DefaultSourceEnv,
		PackageManager:   types.PackageManagerYarn,
		Install:          true,
		AutoCommitSource: true,
		Backup:           BackupConfig{Enabled: true, Keep: DefaultBackupKeep},
		Publish:          PublishConfig{Registry: DefaultRegistry},
	}
}

// Load reads configuration from the defaults, the config file found by
// FindConfigFile(explicitPath) and the environment, then validates it.
func Load(explicitPath string) (*Config, error) {
	path, err := FindConfigFile(explicitPath)
	if err != nil {
		return nil, err
	}

	cfg, err := load(path)
	if err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		parser, err := parserFor(path)
		if err != nil {
			return nil, err
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
		}
	}

	err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	cfg.Path = path

	return &cfg, nil
}

// envKey maps OBSIDIAN_INJECT_BACKUP__KEEP to backup.keep. The config file
// variable itself is not a setting and maps to the empty key.
func envKey(s string) string {
	if s == EnvConfigPath {
		return ""
	}
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

func parserFor(path string) (koanf.Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	case ".toml":
		return toml.Parser(), nil
	case ".json":
		return json.Parser(), nil
	default:
		return nil, fmt.Errorf("unsupported config file format: %s (use .yaml, .toml or .json)", path)
	}
}

// FindConfigFile locates the config file using the following precedence:
//  1. Explicit path (from --config flag)
//  2. OBSIDIAN_INJECT_CONFIG environment variable
//  3. $XDG_CONFIG_HOME/obsidian-inject/config.{yaml,yml,toml,json}
//
// An explicit path that does not exist is an error. Finding nothing in the
// XDG location is not: the empty path means defaults only.
func FindConfigFile(explicitPath string) (string, error) {
	if explicitPath != "" {
		return requireFile(explicitPath)
	}

	if envPath := os.Getenv(EnvConfigPath); envPath != "" {
		return requireFile(envPath)
	}

	xdg.Reload()
	dir := filepath.Join(xdg.ConfigHome, AppName)
	for _, name := range []string{"config.yaml", "config.yml", "config.toml", "config.json"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", nil
}

func requireFile(path string) (string, error) {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to expand home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("config file not found: %s", path)
	}
	return path, nil
}

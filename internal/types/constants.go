// Package types provides type-safe constants shared across obsidian-inject.
//
// This package centralizes the enumerated values used by the planner, the
// injector and the release pipeline, replacing magic strings with typed
// constants that carry their own validation.
package types

import (
	"fmt"
	"strings"
)

// PolicyKind is how a managed file is written into a target directory.
type PolicyKind string

const (
	// PolicyAlwaysOverwrite replaces the target file on every run.
	PolicyAlwaysOverwrite PolicyKind = "always-overwrite"
	// PolicyNeverOverwrite writes the file only when the target has none.
	PolicyNeverOverwrite PolicyKind = "never-overwrite-if-exists"
	// PolicyStructuralMerge combines the existing file with the template.
	PolicyStructuralMerge PolicyKind = "structural-merge"
	// PolicyConditionalOverwrite replaces the file unless a keep-condition holds.
	PolicyConditionalOverwrite PolicyKind = "conditional-overwrite"
)

// AllPolicyKinds returns all valid policy kinds.
func AllPolicyKinds() []PolicyKind {
	return []PolicyKind{
		PolicyAlwaysOverwrite,
		PolicyNeverOverwrite,
		PolicyStructuralMerge,
		PolicyConditionalOverwrite,
	}
}

// Validate checks if the PolicyKind is a valid value.
func (p PolicyKind) Validate() error {
	switch p {
	case PolicyAlwaysOverwrite, PolicyNeverOverwrite, PolicyStructuralMerge, PolicyConditionalOverwrite:
		return nil
	case "":
		return fmt.Errorf("policy kind is required")
	default:
		return fmt.Errorf("invalid policy kind '%s'", p)
	}
}

// String returns the string representation of the PolicyKind.
func (p PolicyKind) String() string {
	return string(p)
}

// BumpKind is the kind of version increment requested by the user.
type BumpKind string

const (
	BumpPatch BumpKind = "patch"
	BumpMinor BumpKind = "minor"
	BumpMajor BumpKind = "major"
	// BumpExplicit means the user typed a full version string.
	BumpExplicit BumpKind = "explicit"
)

// ParseBumpKind maps user input to a bump kind.
// Accepts the long names plus the short forms used by the plugin scripts:
// "p"/"1", "min"/"2", "maj"/"3". Anything else is treated as an explicit
// version string and must be validated by the caller.
func ParseBumpKind(s string) BumpKind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "patch", "p", "1":
		return BumpPatch
	case "minor", "min", "2":
		return BumpMinor
	case "major", "maj", "3":
		return BumpMajor
	default:
		return BumpExplicit
	}
}

// String returns the string representation of the BumpKind.
func (b BumpKind) String() string {
	return string(b)
}

// IsIncrement returns true for patch, minor and major.
func (b BumpKind) IsIncrement() bool {
	return b == BumpPatch || b == BumpMinor || b == BumpMajor
}

// InjectionState describes whether a target was processed before.
type InjectionState string

const (
	// StateNotInjected means no marker and no legacy sentinel.
	StateNotInjected InjectionState = "not-injected"
	// StateLegacy means the legacy sentinel exists but no marker file.
	StateLegacy InjectionState = "legacy"
	// StateInjected means a marker file is present.
	StateInjected InjectionState = "injected"
)

// String returns the string representation of the InjectionState.
func (s InjectionState) String() string {
	return string(s)
}

// Describe returns a human-readable status line.
func (s InjectionState) Describe() string {
	switch s {
	case StateInjected:
		return "plugin is already injected"
	case StateLegacy:
		return "plugin appears to be injected (legacy, no version tracking)"
	default:
		return "plugin not yet injected"
	}
}

// PackageManager names the package manager the injected scripts expect.
type PackageManager string

const (
	PackageManagerYarn PackageManager = "yarn"
	PackageManagerNPM  PackageManager = "npm"
	PackageManagerPNPM PackageManager = "pnpm"
)

// AllPackageManagers returns all known package managers.
func AllPackageManagers() []PackageManager {
	return []PackageManager{PackageManagerYarn, PackageManagerNPM, PackageManagerPNPM}
}

// Validate checks if the PackageManager is a valid value.
func (m PackageManager) Validate() error {
	switch m {
	case PackageManagerYarn, PackageManagerNPM, PackageManagerPNPM:
		return nil
	case "":
		return fmt.Errorf("package manager is required")
	default:
		return fmt.Errorf("invalid package manager '%s' (must be yarn, npm, or pnpm)", m)
	}
}

// String returns the string representation of the PackageManager.
func (m PackageManager) String() string {
	return string(m)
}

// Lockfile returns the lockfile name written by the package manager.
func (m PackageManager) Lockfile() string {
	switch m {
	case PackageManagerNPM:
		return "package-lock.json"
	case PackageManagerPNPM:
		return "pnpm-lock.yaml"
	default:
		return "yarn.lock"
	}
}

// ConflictingLockfiles returns the lockfiles of every other package manager.
func (m PackageManager) ConflictingLockfiles() []string {
	var out []string
	for _, other := range AllPackageManagers() {
		if other != m {
			out = append(out, other.Lockfile())
		}
	}
	return out
}

// ParsePackageManager parses a string into a PackageManager.
func ParsePackageManager(s string) (PackageManager, error) {
	pm := PackageManager(strings.ToLower(strings.TrimSpace(s)))
	if err := pm.Validate(); err != nil {
		return "", err
	}
	return pm, nil
}

// ResolveStrategy names the rule that located the source root.
type ResolveStrategy string

const (
	// StrategyConfig is an explicit source_root from the config file or environment.
	StrategyConfig ResolveStrategy = "config"
	// StrategyEnvPath is a literal path in the override variable.
	StrategyEnvPath ResolveStrategy = "env-path"
	// StrategyEnvLocal is the "local" override: the sibling directory is required.
	StrategyEnvLocal ResolveStrategy = "env-local"
	// StrategyEnvPrompt is the "prompt" override: the user must type the path.
	StrategyEnvPrompt ResolveStrategy = "env-prompt"
	// StrategySibling is the conventional sibling directory.
	StrategySibling ResolveStrategy = "sibling"
	// StrategyInstalled is the installed package next to the running binary.
	StrategyInstalled ResolveStrategy = "installed"
	// StrategyCwd is the current directory fallback.
	StrategyCwd ResolveStrategy = "cwd"
)

// String returns the string representation of the ResolveStrategy.
func (s ResolveStrategy) String() string {
	return string(s)
}

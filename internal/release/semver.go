// Package release implements the version and publish workflow: bumping
// the version files, committing and pushing the bump, verifying a package
// and publishing it to the registry.
package release

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/3c0d/obsidian-inject/internal/types"
)

// ParseVersion parses a strict semantic version. A leading "v" is
// accepted and dropped.
// Supports formats like "0.8.2", "v0.8.2", "2.0.0-beta.1", "1.0.0+build.5".
func ParseVersion(s string) (*semver.Version, error) {
	v, err := semver.StrictNewVersion(strings.TrimPrefix(strings.TrimSpace(s), "v"))
	if err != nil {
		return nil, fmt.Errorf("invalid version format %q: %w", s, err)
	}
	return v, nil
}

// Increment returns the next version for an increment kind. A prerelease
// is released by the smallest increment that reaches it: 1.2.3-beta bumps
// to 1.2.3 on patch and 1.3.0-beta to 1.3.0 on minor. Build metadata is
// dropped.
func Increment(v *semver.Version, kind types.BumpKind) (semver.Version, error) {
	base, err := v.SetMetadata("")
	if err != nil {
		return semver.Version{}, err
	}
	pre := base.Prerelease() != ""

	switch kind {
	case types.BumpPatch:
		return base.IncPatch(), nil
	case types.BumpMinor:
		if pre && base.Patch() == 0 {
			return base.SetPrerelease("")
		}
		return base.IncMinor(), nil
	case types.BumpMajor:
		if pre && base.Minor() == 0 && base.Patch() == 0 {
			return base.SetPrerelease("")
		}
		return base.IncMajor(), nil
	default:
		return semver.Version{}, fmt.Errorf("cannot increment by %q", kind)
	}
}

// CompareVersions compares two version strings, ignoring build metadata.
// Returns:
//   - 1 if v1 > v2
//   - 0 if v1 == v2
//   - -1 if v1 < v2
//   - error if either version is invalid
func CompareVersions(v1, v2 string) (int, error) {
	ver1, err := ParseVersion(v1)
	if err != nil {
		return 0, fmt.Errorf("invalid version v1: %w", err)
	}

	ver2, err := ParseVersion(v2)
	if err != nil {
		return 0, fmt.Errorf("invalid version v2: %w", err)
	}

	return ver1.Compare(ver2), nil
}

// NextVersion resolves a bump choice against current: an increment kind
// (patch, p, 1, ...) or an explicit version, accepted only if it parses.
func NextVersion(current, choice string) (string, error) {
	kind := types.ParseBumpKind(choice)
	if kind == types.BumpExplicit {
		v, err := ParseVersion(choice)
		if err != nil {
			return "", err
		}
		return v.String(), nil
	}

	v, err := ParseVersion(current)
	if err != nil {
		return "", fmt.Errorf("current version: %w", err)
	}
	next, err := Increment(v, kind)
	if err != nil {
		return "", err
	}
	return next.String(), nil
}

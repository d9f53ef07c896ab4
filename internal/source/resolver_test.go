package source

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/3c0d/obsidian-inject/internal/types"
)

// layout creates <root>/my-plugin as the working directory and returns both paths.
func layout(t *testing.T, withSibling bool) (root, cwd string) {
	t.Helper()
	root = t.TempDir()
	cwd = filepath.Join(root, "my-plugin")
	require.NoError(t, os.MkdirAll(cwd, 0755))
	if withSibling {
		require.NoError(t, os.MkdirAll(filepath.Join(root, SiblingDir), 0755))
	}
	return root, cwd
}

func testResolver(env map[string]string, cwd string, exe string) *Resolver {
	r := NewResolver("PLUGIN_CONFIG_PATH", "")
	r.Getenv = func(k string) string { return env[k] }
	r.Getwd = func() (string, error) { return cwd, nil }
	r.Executable = func() (string, error) {
		if exe == "" {
			return "", errors.New("no executable")
		}
		return exe, nil
	}
	return r
}

func TestResolveEnvPath(t *testing.T) {
	_, cwd := layout(t, true)
	custom := t.TempDir()

	r := testResolver(map[string]string{"PLUGIN_CONFIG_PATH": custom}, cwd, "")
	res, err := r.Resolve()

	require.NoError(t, err)
	assert.Equal(t, custom, res.Path)
	assert.Equal(t, types.StrategyEnvPath, res.Strategy)
}

func TestResolveEnvPathMissingFallsThrough(t *testing.T) {
	root, cwd := layout(t, true)

	r := testResolver(map[string]string{"PLUGIN_CONFIG_PATH": "/does/not/exist"}, cwd, "")
	res, err := r.Resolve()

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, SiblingDir), res.Path)
	assert.Equal(t, types.StrategySibling, res.Strategy)
}

func TestResolveEnvLocal(t *testing.T) {
	root, cwd := layout(t, true)

	r := testResolver(map[string]string{"PLUGIN_CONFIG_PATH": " local "}, cwd, "")
	res, err := r.Resolve()

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, SiblingDir), res.Path)
	assert.Equal(t, types.StrategyEnvLocal, res.Strategy)
}

func TestResolveEnvLocalMissing(t *testing.T) {
	_, cwd := layout(t, false)

	r := testResolver(map[string]string{"PLUGIN_CONFIG_PATH": "local"}, cwd, "")
	_, err := r.Resolve()

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolveEnvPrompt(t *testing.T) {
	_, cwd := layout(t, true)

	r := testResolver(map[string]string{"PLUGIN_CONFIG_PATH": "prompt"}, cwd, "")
	_, err := r.Resolve()

	assert.ErrorIs(t, err, ErrPromptRequired)
}

func TestResolveConfigured(t *testing.T) {
	_, cwd := layout(t, true)
	configured := t.TempDir()

	r := testResolver(map[string]string{"PLUGIN_CONFIG_PATH": "prompt"}, cwd, "")
	r.Explicit = configured
	res, err := r.Resolve()

	require.NoError(t, err)
	assert.Equal(t, configured, res.Path)
	assert.Equal(t, types.StrategyConfig, res.Strategy)

	r.Explicit = filepath.Join(configured, "missing")
	_, err = r.Resolve()
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolveInstalled(t *testing.T) {
	_, cwd := layout(t, false)

	pkg := filepath.Join(t.TempDir(), "node_modules", PackageName)
	require.NoError(t, os.MkdirAll(filepath.Join(pkg, "bin"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(pkg, "package.json"),
		[]byte(`{"name": "obsidian-plugin-config", "version": "1.3.0"}`), 0644))

	r := testResolver(nil, cwd, filepath.Join(pkg, "bin", "obsidian-inject"))
	res, err := r.Resolve()

	require.NoError(t, err)
	assert.Equal(t, types.StrategyInstalled, res.Strategy)
	assert.Equal(t, pkg, res.Path)
}

func TestResolveInstalledWrongName(t *testing.T) {
	_, cwd := layout(t, false)

	pkg := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(pkg, "package.json"), []byte(`{"name": "other"}`), 0644))

	r := testResolver(nil, cwd, filepath.Join(pkg, "obsidian-inject"))
	res, err := r.Resolve()

	require.NoError(t, err)
	assert.Equal(t, types.StrategyCwd, res.Strategy)
}

func TestResolveCwdFallback(t *testing.T) {
	_, cwd := layout(t, false)

	r := testResolver(nil, cwd, "")
	res, err := r.Resolve()

	require.NoError(t, err)
	assert.Equal(t, cwd, res.Path)
	assert.Equal(t, types.StrategyCwd, res.Strategy)
}

func TestValidatePath(t *testing.T) {
	dir := t.TempDir()

	got, err := ValidatePath("  " + dir + "  ")
	require.NoError(t, err)
	assert.Equal(t, dir, got)

	_, err = ValidatePath("")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = ValidatePath(filepath.Join(dir, "nope"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIsSourcePackage(t *testing.T) {
	dir := t.TempDir()
	assert.False(t, IsSourcePackage(dir))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"), []byte("{broken"), 0644))
	assert.False(t, IsSourcePackage(dir))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"), []byte(`{"name":"obsidian-plugin-config"}`), 0644))
	assert.True(t, IsSourcePackage(dir))
}

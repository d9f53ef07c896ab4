package templates

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sourceFS(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	files := map[string]string{
		"/src/package.json":                            `{"name": "obsidian-plugin-config", "version": "1.4.2"}`,
		"/src/templates/scripts/utils.ts":              "export const x = 1;\n",
		"/src/templates/.gitignore":                    "node_modules\n",
		"/src/templates/.github/workflows/release.yml": "name: release\n",
		"/src/templates/tsconfig-template.json":        "{}\n",
	}
	for path, content := range files {
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0644))
	}
	return fs
}

func TestOpen(t *testing.T) {
	fs := sourceFS(t)

	store, err := Open(fs, "/src")
	require.NoError(t, err)
	assert.Equal(t, "/src", store.Root())

	_, err = Open(fs, "/elsewhere")
	assert.ErrorIs(t, err, ErrNoTemplates)
}

func TestRead(t *testing.T) {
	store, err := Open(sourceFS(t), "/src")
	require.NoError(t, err)

	data, err := store.Read("templates/.gitignore")
	require.NoError(t, err)
	assert.Equal(t, "node_modules\n", string(data))

	_, err = store.Read("templates/missing.ts")
	assert.ErrorContains(t, err, "not found")
}

func TestInfo(t *testing.T) {
	fs := sourceFS(t)
	store, err := Open(fs, "/src")
	require.NoError(t, err)

	assert.Equal(t, Info{Name: "obsidian-plugin-config", Version: "1.4.2"}, store.Info())

	require.NoError(t, fs.Remove("/src/package.json"))
	assert.Equal(t, Info{}, store.Info())
}

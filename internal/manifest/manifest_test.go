package manifest

import (
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/3c0d/obsidian-inject/internal/jsondoc"
)

func patchString(t *testing.T, input string, changes Changes) (*PatchResult, string) {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/plugin/package.json", []byte(input), 0644))

	result, err := Patch(fs, "/plugin/package.json", changes)
	require.NoError(t, err)

	out, err := afero.ReadFile(fs, "/plugin/package.json")
	require.NoError(t, err)
	return result, string(out)
}

func TestPatchTypescriptUpdate(t *testing.T) {
	changes := Changes{DevDependencies: []Entry{{"typescript", "^5.8.2"}}}

	result, out := patchString(t, `{"devDependencies": {"typescript": "^4.0.0"}}`, changes)

	assert.Equal(t, []string{"typescript"}, result.Updated)
	assert.Empty(t, result.Added)
	assert.Contains(t, out, `"typescript": "^5.8.2"`)
}

func TestPatchDefaultChanges(t *testing.T) {
	input := `{
  "name": "my-plugin",
  "version": "1.0.0",
  "description": "A plugin",
  "main": "main.js",
  "scripts": {
    "dev": "node esbuild.config.mjs",
    "custom": "echo hi"
  },
  "dependencies": {
    "obsidian-plugin-config": "^1.0.0",
    "lodash": "^4.17.21"
  },
  "devDependencies": {
    "typescript": "^4.0.0",
    "tsx": "^4.19.4",
    "obsidian-plugin-config": "^1.0.0"
  },
  "license": "MIT"
}`

	result, out := patchString(t, input, DefaultChanges(false))

	doc, err := jsondoc.Parse([]byte(out))
	require.NoError(t, err)

	assert.Equal(t, "my-plugin", result.PackageName)
	assert.Equal(t, len(Scripts), result.ScriptsSet)
	assert.Equal(t, []string{"dependencies", "devDependencies"}, result.RemovedFrom)
	assert.Equal(t, []string{"typescript"}, result.Updated)
	assert.Len(t, result.Added, len(DevDependencies)-2)
	assert.True(t, result.Changed)

	assert.Equal(t,
		[]string{"name", "version", "description", "main", "scripts", "dependencies", "devDependencies", "license", "engines", "type"},
		doc.Keys(""), "existing keys keep their order")

	custom, _ := doc.GetString(jsondoc.Path("scripts", "custom"))
	assert.Equal(t, "echo hi", custom)
	dev, _ := doc.GetString(jsondoc.Path("scripts", "dev"))
	assert.Equal(t, "tsx scripts/esbuild.config.ts", dev)
	fix, _ := doc.GetString(jsondoc.Path("scripts", "lint:fix"))
	assert.Equal(t, "eslint . --ext .ts --fix", fix)

	assert.False(t, doc.Has(jsondoc.Path("dependencies", CentralizedDependency)))
	assert.True(t, doc.Has(jsondoc.Path("dependencies", "lodash")))
	assert.True(t, doc.Has(jsondoc.Path("devDependencies", "@types/node")))

	npm, _ := doc.GetString(jsondoc.Path("engines", "npm"))
	assert.Equal(t, "please-use-yarn", npm)
	yarn, _ := doc.GetString(jsondoc.Path("engines", "yarn"))
	assert.Equal(t, ">=1.22.0", yarn)

	typ, _ := doc.GetString("type")
	assert.Equal(t, "module", typ)

	assert.Contains(t, out, `"start": "yarn install && yarn dev"`)
	assert.True(t, strings.HasPrefix(out, "{\n  \"name\""))
}

func TestPatchIdempotent(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/p/package.json", []byte(`{"name": "x"}`), 0644))

	_, err := Patch(fs, "/p/package.json", DefaultChanges(true))
	require.NoError(t, err)
	first, _ := afero.ReadFile(fs, "/p/package.json")

	result, err := Patch(fs, "/p/package.json", DefaultChanges(true))
	require.NoError(t, err)
	second, _ := afero.ReadFile(fs, "/p/package.json")

	assert.False(t, result.Changed)
	assert.Empty(t, result.Added)
	assert.Empty(t, result.Updated)
	assert.Equal(t, string(first), string(second))
	assert.Contains(t, string(second), `"esbuild-sass-plugin"`)
}

func TestPatchErrors(t *testing.T) {
	fs := afero.NewMemMapFs()

	_, err := Patch(fs, "/missing/package.json", DefaultChanges(false))
	assert.ErrorContains(t, err, "failed to read")

	require.NoError(t, afero.WriteFile(fs, "/p/package.json", []byte(`{"name": `), 0644))
	_, err = Patch(fs, "/p/package.json", DefaultChanges(false))
	assert.ErrorContains(t, err, "failed to parse")

	data, _ := afero.ReadFile(fs, "/p/package.json")
	assert.Equal(t, `{"name": `, string(data), "nothing written on parse failure")
}

func TestApplyNonStringDependencyIsUpdated(t *testing.T) {
	doc, err := jsondoc.Parse([]byte(`{"devDependencies": {"tsx": 4}}`))
	require.NoError(t, err)

	result, err := Apply(doc, Changes{DevDependencies: []Entry{{"tsx", "^4.19.4"}}})
	require.NoError(t, err)
	assert.Equal(t, []string{"tsx"}, result.Updated)
}

func TestPatchKeepsTabIndent(t *testing.T) {
	input := "{\n\t\"name\": \"x\",\n\t\"type\": \"module\"\n}\n"
	changes := Changes{Engines: []Entry{{"yarn", ">=1.22.0"}}}

	_, out := patchString(t, input, changes)

	assert.Equal(t, "{\n\t\"name\": \"x\",\n\t\"type\": \"module\",\n\t\"scripts\": {},\n\t\"devDependencies\": {},\n\t\"engines\": {\n\t\t\"yarn\": \">=1.22.0\"\n\t}\n}\n", out)
}

package e2e

import (
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

const (
	binaryName = "obsidian-inject"
)

var binaryPath string

// TestMain builds the binary before running tests
func TestMain(m *testing.M) {
	cmd := exec.Command("go", "build", "-o", binaryName, "../../cmd/obsidian-inject")
	if err := cmd.Run(); err != nil {
		panic("failed to build binary: " + err.Error())
	}

	binaryPath, _ = filepath.Abs(binaryName)

	code := m.Run()

	os.Remove(binaryName)

	os.Exit(code)
}

var sourceFixture = map[string]string{
	"package.json":                            `{"name": "obsidian-plugin-config", "version": "1.4.2"}`,
	"templates/scripts/utils.ts":              "// utils\n",
	"templates/scripts/esbuild.config.ts":     "// esbuild\n",
	"templates/scripts/acp.ts":                "// acp\n",
	"templates/scripts/update-version.ts":     "// update-version\n",
	"templates/scripts/release.ts":            "// release\n",
	"templates/scripts/help.ts":               "// help\n",
	"templates/tsconfig-template.json":        "{\"compilerOptions\": {\"target\": \"ES2018\"}}\n",
	"templates/.gitignore":                    "node_modules\nmain.js\n",
	"templates/.env":                          "TEST_VAULT=\nREAL_VAULT=\n",
	"templates/.vscode/settings.json":         "{\"editor.tabSize\": 2}\n",
	"templates/eslint.config.ts":              "// eslint\n",
	"templates/.github/workflows/release.yml": "name: release\n",
}

var pluginFixture = map[string]string{
	"manifest.json": `{"id": "sample", "name": "Sample", "version": "1.0.0", "minAppVersion": "1.5.0"}`,
	"package.json":  `{"name": "sample", "version": "1.0.0", "devDependencies": {"obsidian-plugin-config": "^1.0.0"}}`,
	".gitignore":    "node_modules\n",
	"src/main.ts":   "import { Plugin } from \"obsidian\";\n",
}

type testEnv struct {
	dir    string
	source string
	plugin string
}

// setupTestEnv creates a source root and a plugin in a temporary directory
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dir := t.TempDir()
	env := &testEnv{
		dir:    dir,
		source: filepath.Join(dir, "obsidian-plugin-config"),
		plugin: filepath.Join(dir, "sample-plugin"),
	}

	writeTree(t, env.source, sourceFixture)
	writeTree(t, env.plugin, pluginFixture)
	return env
}

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("failed to create %s: %v", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", path, err)
		}
	}
}

// run executes the binary with the source root selected through the
// override variable and config and log paths isolated in the test dir
func (e *testEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	cmd := exec.Command(binaryPath, args...)
	cmd.Dir = e.dir
	cmd.Env = append(os.Environ(),
		"PLUGIN_CONFIG_PATH="+e.source,
		"XDG_CONFIG_HOME="+filepath.Join(e.dir, "config"),
		"XDG_STATE_HOME="+filepath.Join(e.dir, "state"),
		"OBSIDIAN_INJECT_CONFIG=",
	)

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestInjectDryRun(t *testing.T) {
	env := setupTestEnv(t)

	stdout, stderr, err := env.run(t, env.plugin, "--dry-run")
	if err != nil {
		t.Fatalf("command failed: %v\nstderr: %s", err, stderr)
	}

	if !strings.Contains(stdout, "Dry run completed - no changes made") {
		t.Errorf("expected dry run notice, got: %s", stdout)
	}
	if fileExists(filepath.Join(env.plugin, "scripts")) {
		t.Error("dry run created scripts/")
	}
	if fileExists(filepath.Join(env.plugin, ".injection-info.json")) {
		t.Error("dry run wrote the marker")
	}
}

func TestInjectAndStatus(t *testing.T) {
	env := setupTestEnv(t)

	stdout, stderr, err := env.run(t, env.plugin, "--yes", "--no-install", "--skip-source-check")
	if err != nil {
		t.Fatalf("inject failed: %v\nstderr: %s\nstdout: %s", err, stderr, stdout)
	}

	for _, rel := range []string{"scripts/utils.ts", "scripts/acp.ts", "tsconfig.json", ".env", ".injection-info.json"} {
		if !fileExists(filepath.Join(env.plugin, rel)) {
			t.Errorf("expected %s after injection", rel)
		}
	}

	pkg, err := os.ReadFile(filepath.Join(env.plugin, "package.json"))
	if err != nil {
		t.Fatalf("failed to read package.json: %v", err)
	}
	if strings.Contains(string(pkg), "obsidian-plugin-config") {
		t.Errorf("centralized dependency still present: %s", pkg)
	}
	if !strings.Contains(string(pkg), `"type": "module"`) {
		t.Errorf("module type not set: %s", pkg)
	}

	t.Run("status JSON output", func(t *testing.T) {
		stdout, stderr, err := env.run(t, "status", env.plugin, "--output", "json")
		if err != nil {
			t.Fatalf("command failed: %v\nstderr: %s", err, stderr)
		}

		var result struct {
			Analysis struct {
				State  string `json:"state"`
				Marker struct {
					InjectorVersion string `json:"injectorVersion"`
				} `json:"marker"`
			} `json:"analysis"`
			SourceVersion string `json:"source_version"`
		}
		if err := json.Unmarshal([]byte(stdout), &result); err != nil {
			t.Fatalf("output is not valid JSON: %v\noutput: %s", err, stdout)
		}
		if result.Analysis.State != "injected" {
			t.Errorf("state = %q, want injected", result.Analysis.State)
		}
		if result.Analysis.Marker.InjectorVersion != "1.4.2" {
			t.Errorf("injector version = %q, want 1.4.2", result.Analysis.Marker.InjectorVersion)
		}
	})

	t.Run("status YAML output", func(t *testing.T) {
		stdout, stderr, err := env.run(t, "check", env.plugin, "--output", "yaml")
		if err != nil {
			t.Fatalf("command failed: %v\nstderr: %s", err, stderr)
		}

		var result map[string]interface{}
		if err := yaml.Unmarshal([]byte(stdout), &result); err != nil {
			t.Fatalf("output is not valid YAML: %v\noutput: %s", err, stdout)
		}
		if _, ok := result["analysis"]; !ok {
			t.Error("expected analysis field in YAML output")
		}
	})

	t.Run("backup list", func(t *testing.T) {
		stdout, stderr, err := env.run(t, "backup", "list", "--path", env.plugin)
		if err != nil {
			t.Fatalf("command failed: %v\nstderr: %s", err, stderr)
		}
		if !strings.Contains(stdout, "Backups stored in") {
			t.Errorf("expected a backup from the injection, got: %s", stdout)
		}
	})
}

func TestInjectRequiresPackageJSON(t *testing.T) {
	env := setupTestEnv(t)
	if err := os.Remove(filepath.Join(env.plugin, "package.json")); err != nil {
		t.Fatalf("failed to remove package.json: %v", err)
	}

	_, stderr, err := env.run(t, env.plugin, "--yes", "--no-install", "--skip-source-check")
	if err == nil {
		t.Fatal("expected failure without package.json")
	}
	if !strings.Contains(stderr, "package.json not found") {
		t.Errorf("expected package.json error, got: %s", stderr)
	}
}

func TestVersionCommand(t *testing.T) {
	env := setupTestEnv(t)

	stdout, stderr, err := env.run(t, "version")
	if err != nil {
		t.Fatalf("command failed: %v\nstderr: %s", err, stderr)
	}
	if !strings.Contains(stdout, "obsidian-inject version") {
		t.Errorf("unexpected output: %s", stdout)
	}
}

func TestInvalidOutputFormat(t *testing.T) {
	env := setupTestEnv(t)

	_, stderr, err := env.run(t, "status", env.plugin, "--output", "xml")
	if err == nil {
		t.Fatal("expected error for invalid output format")
	}
	if !strings.Contains(stderr, "xml") {
		t.Errorf("expected error to mention the format, got: %s", stderr)
	}
}

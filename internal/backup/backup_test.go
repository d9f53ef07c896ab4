package backup

import (
	"testing"
	"time"

	"github.com/spf13/afero"
)

func newTestManager(t *testing.T) (*Manager, afero.Fs, *time.Time) {
	t.Helper()
	fs := afero.NewMemMapFs()
	files := map[string]string{
		"/plugin/package.json":          `{"name": "my-plugin"}`,
		"/plugin/tsconfig.json":         `{"compilerOptions": {"target": "ES6"}}`,
		"/plugin/scripts/acp.ts":        "// acp",
		"/plugin/.vscode/settings.json": "{}",
	}
	for path, content := range files {
		if err := afero.WriteFile(fs, path, []byte(content), 0644); err != nil {
			t.Fatalf("WriteFile(%s) error = %v", path, err)
		}
	}

	clock := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	m := NewManager(fs, "/plugin", "1.2.0")
	m.SetClock(func() time.Time { return clock })
	return m, fs, &clock
}

func TestManager_Create(t *testing.T) {
	m, fs, _ := newTestManager(t)

	bak, err := m.Create([]string{"package.json", "scripts/acp.ts", "missing.json"}, "before injection")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if bak.ID != "2025-03-14-092653" {
		t.Errorf("Create() ID = %v, want 2025-03-14-092653", bak.ID)
	}
	if bak.InjectorVersion != "1.2.0" {
		t.Errorf("Create() InjectorVersion = %v, want 1.2.0", bak.InjectorVersion)
	}
	if len(bak.Files) != 2 || bak.Files[0] != "package.json" || bak.Files[1] != "scripts/acp.ts" {
		t.Errorf("Create() Files = %v, want [package.json scripts/acp.ts]", bak.Files)
	}

	data, err := afero.ReadFile(fs, "/plugin/.injection-backups/2025-03-14-092653/files/scripts/acp.ts")
	if err != nil {
		t.Fatalf("backup copy not created: %v", err)
	}
	if string(data) != "// acp" {
		t.Errorf("backup copy = %q, want %q", data, "// acp")
	}
}

func TestManager_CreateNothingToBackUp(t *testing.T) {
	m, _, _ := newTestManager(t)

	bak, err := m.Create([]string{"missing.json"}, "")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if bak != nil {
		t.Errorf("Create() = %v, want nil", bak)
	}

	backups, _ := m.List()
	if len(backups) != 0 {
		t.Errorf("List() count = %v, want 0", len(backups))
	}
}

func TestManager_CreateSameSecond(t *testing.T) {
	m, _, _ := newTestManager(t)

	first, err := m.Create([]string{"package.json"}, "First")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	second, err := m.Create([]string{"package.json"}, "Second")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if first.ID == second.ID {
		t.Fatalf("Create() reused ID %s", first.ID)
	}
	if second.ID != first.ID+"-2" {
		t.Errorf("second ID = %s, want %s-2", second.ID, first.ID)
	}

	latest, err := m.Get("latest")
	if err != nil {
		t.Fatalf("Get(latest) error = %v", err)
	}
	if latest.Note != "Second" {
		t.Errorf("Get(latest) Note = %v, want Second", latest.Note)
	}
}

func TestManager_List(t *testing.T) {
	m, _, clock := newTestManager(t)

	if _, err := m.Create([]string{"package.json"}, "First"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	*clock = clock.Add(time.Minute)
	if _, err := m.Create([]string{"package.json"}, "Second"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	backups, err := m.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(backups) != 2 {
		t.Fatalf("List() count = %v, want 2", len(backups))
	}
	if backups[0].Note != "Second" || backups[1].Note != "First" {
		t.Errorf("List() order = [%s %s], want [Second First]", backups[0].Note, backups[1].Note)
	}
}

func TestManager_ListEmpty(t *testing.T) {
	m, _, _ := newTestManager(t)

	backups, err := m.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(backups) != 0 {
		t.Errorf("List() count = %v, want 0", len(backups))
	}

	if _, err := m.Get("latest"); err == nil {
		t.Error("Get(latest) expected error with no backups")
	}
}

func TestManager_Restore(t *testing.T) {
	m, fs, _ := newTestManager(t)

	bak, err := m.Create([]string{"tsconfig.json", ".vscode/settings.json"}, "")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := afero.WriteFile(fs, "/plugin/tsconfig.json", []byte("overwritten"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := m.Restore(bak.ID); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}

	data, _ := afero.ReadFile(fs, "/plugin/tsconfig.json")
	if string(data) != `{"compilerOptions": {"target": "ES6"}}` {
		t.Errorf("Restore() tsconfig.json = %s", data)
	}
}

func TestManager_GetAndDeleteErrors(t *testing.T) {
	m, _, _ := newTestManager(t)

	tests := []struct {
		name string
		id   string
	}{
		{"nonexistent", "2000-01-01-000000"},
		{"traversal", "../package.json"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := m.Get(tt.id); err == nil {
				t.Errorf("Get(%q) expected error", tt.id)
			}
			if err := m.Delete(tt.id); err == nil {
				t.Errorf("Delete(%q) expected error", tt.id)
			}
		})
	}
}

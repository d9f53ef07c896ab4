package backup

import (
	"testing"
	"time"
)

func TestManager_Prune(t *testing.T) {
	m, _, clock := newTestManager(t)

	for i := 0; i < 5; i++ {
		if _, err := m.Create([]string{"package.json"}, ""); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		*clock = clock.Add(time.Second)
	}

	result, err := m.Prune(2)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}

	if result.Kept != 2 {
		t.Errorf("Prune() Kept = %v, want 2", result.Kept)
	}
	if len(result.Deleted) != 3 {
		t.Errorf("Prune() Deleted count = %v, want 3", len(result.Deleted))
	}

	backups, err := m.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(backups) != 2 {
		t.Fatalf("List() after prune = %v, want 2", len(backups))
	}
	if backups[0].ID != "2025-03-14-092657" {
		t.Errorf("newest kept = %s, want 2025-03-14-092657", backups[0].ID)
	}
}

func TestManager_PruneNoOp(t *testing.T) {
	m, _, _ := newTestManager(t)

	if _, err := m.Create([]string{"package.json"}, ""); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	result, err := m.Prune(DefaultKeepCount)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if result.Kept != 1 || len(result.Deleted) != 0 {
		t.Errorf("Prune() = %+v, want 1 kept, 0 deleted", result)
	}
}

func TestManager_PruneNegative(t *testing.T) {
	m, _, _ := newTestManager(t)

	if _, err := m.Prune(-1); err == nil {
		t.Error("Prune(-1) expected error")
	}
}

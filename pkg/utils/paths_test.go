package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestResolveAndEnsureDBPath_CreatesDirectory(t *testing.T) {
	base := t.TempDir()
	target := filepath.Join(base, "nested", "dir", "nutriscan.db")

	resolved, err := ResolveAndEnsureDBPath(target)
	if err != nil {
		t.Fatalf("ResolveAndEnsureDBPath failed: %v", err)
	}
	if resolved != target {
		t.Errorf("Expected %s, got %s", target, resolved)
	}
	if _, err := os.Stat(filepath.Dir(target)); err != nil {
		t.Errorf("Expected parent directory to exist: %v", err)
	}
}

func TestResolveAndEnsureDBPath_Memory(t *testing.T) {
	resolved, err := ResolveAndEnsureDBPath(":memory:")
	if err != nil {
		t.Fatalf("ResolveAndEnsureDBPath failed: %v", err)
	}
	if resolved != ":memory:" {
		t.Errorf("Expected :memory: to pass through, got %s", resolved)
	}
}

func TestLocalDateAndValidate(t *testing.T) {
	d := time.Date(2024, time.March, 7, 15, 4, 0, 0, time.Local)
	if got := LocalDate(d); got != "2024-03-07" {
		t.Errorf("Expected 2024-03-07, got %s", got)
	}
	if err := ValidateDate("2024-03-07"); err != nil {
		t.Errorf("Expected valid date, got %v", err)
	}
	for _, bad := range []string{"", "2024-3-7", "07/03/2024", "2024-13-01"} {
		if err := ValidateDate(bad); err == nil {
			t.Errorf("Expected error for %q", bad)
		}
	}
}

package logging

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCleanupOldLogsPrunesExpired(t *testing.T) {
	dir := t.TempDir()

	oldPath := filepath.Join(dir, "session-old.log")
	newPath := filepath.Join(dir, "session-new.log")
	keepPath := filepath.Join(dir, "slate.log")
	for _, p := range []string{oldPath, newPath, keepPath} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", p, err)
		}
	}
	stale := time.Now().AddDate(0, 0, -30)
	for _, p := range []string{oldPath, keepPath} {
		if err := os.Chtimes(p, stale, stale); err != nil {
			t.Fatalf("chtimes %s: %v", p, err)
		}
	}

	CleanupOldLogs(NewNop(), 14, RetentionTarget{
		Dir:     dir,
		Pattern: "*.log",
		Exclude: []string{keepPath},
	})

	if _, err := os.Stat(oldPath); !os.IsNotExist(err) {
		t.Fatalf("expired log should be removed: %v", err)
	}
	if _, err := os.Stat(newPath); err != nil {
		t.Fatalf("recent log should survive: %v", err)
	}
	if _, err := os.Stat(keepPath); err != nil {
		t.Fatalf("excluded log should survive: %v", err)
	}
}

func TestCleanupOldLogsDisabled(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.log")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	stale := time.Now().AddDate(0, 0, -365)
	if err := os.Chtimes(path, stale, stale); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	CleanupOldLogs(NewNop(), 0, RetentionTarget{Dir: dir, Pattern: "*.log"})

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("retention 0 must not prune: %v", err)
	}
}

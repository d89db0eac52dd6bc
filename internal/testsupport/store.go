package testsupport

import (
	"path/filepath"
	"testing"

	"slate/internal/config"
	"slate/internal/contextstore"
)

// MustOpenStore opens a contextstore.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *contextstore.Store {
	t.Helper()

	store, err := contextstore.OpenPath(filepath.Join(cfg.Paths.DataDir, "slate.db"))
	if err != nil {
		t.Fatalf("contextstore.OpenPath: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

package contextstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"slate/internal/platform"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenPath(filepath.Join(t.TempDir(), "slate.db"))
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestContextRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	resolved := platform.Context{
		EntityType: "Shot",
		EntityID:   42,
		Project:    "demo",
		Display:    "demo / sh010",
		WebURL:     "https://studio.example.com/detail/Shot/42",
	}
	if err := store.SaveContext(ctx, "/work/sh010.aep", resolved); err != nil {
		t.Fatalf("SaveContext: %v", err)
	}

	got, err := store.GetContext(ctx, "/work/sh010.aep")
	if err != nil {
		t.Fatalf("GetContext: %v", err)
	}
	if got == nil || *got != resolved {
		t.Fatalf("GetContext = %+v, want %+v", got, resolved)
	}
}

func TestGetContextUnknownPath(t *testing.T) {
	store := openTestStore(t)
	got, err := store.GetContext(context.Background(), "/never/seen.aep")
	if err != nil {
		t.Fatalf("GetContext: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for unknown path, got %+v", got)
	}
}

func TestSaveContextOverwrites(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.SaveContext(ctx, "/work/a.aep", platform.Context{EntityID: 1}); err != nil {
		t.Fatalf("SaveContext: %v", err)
	}
	if err := store.SaveContext(ctx, "/work/a.aep", platform.Context{EntityID: 2}); err != nil {
		t.Fatalf("SaveContext overwrite: %v", err)
	}
	got, err := store.GetContext(ctx, "/work/a.aep")
	if err != nil {
		t.Fatalf("GetContext: %v", err)
	}
	if got.EntityID != 2 {
		t.Fatalf("entity id = %d, want 2", got.EntityID)
	}
}

func TestDeleteContext(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.SaveContext(ctx, "/work/a.aep", platform.Context{EntityID: 1}); err != nil {
		t.Fatalf("SaveContext: %v", err)
	}
	if err := store.DeleteContext(ctx, "/work/a.aep"); err != nil {
		t.Fatalf("DeleteContext: %v", err)
	}
	got, err := store.GetContext(ctx, "/work/a.aep")
	if err != nil {
		t.Fatalf("GetContext: %v", err)
	}
	if got != nil {
		t.Fatal("context should be gone after delete")
	}
}

func TestPublishRunHistory(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_, err := store.RecordPublishRun(ctx, PublishRun{
			DocumentPath:   "/work/sh010.aep",
			StartedAt:      base.Add(time.Duration(i) * time.Hour),
			FinishedAt:     base.Add(time.Duration(i)*time.Hour + 5*time.Minute),
			ItemsTotal:     3,
			ItemsPublished: 2,
			ItemsFailed:    1,
			Success:        i == 2,
			Message:        "partial",
		})
		if err != nil {
			t.Fatalf("RecordPublishRun: %v", err)
		}
	}

	runs, err := store.ListPublishRuns(ctx, 2)
	if err != nil {
		t.Fatalf("ListPublishRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("len(runs) = %d, want 2", len(runs))
	}
	// Newest first.
	if !runs[0].Success || runs[1].Success {
		t.Fatalf("order wrong: %+v", runs)
	}
	if !runs[0].StartedAt.Equal(base.Add(2 * time.Hour)) {
		t.Fatalf("started at = %s", runs[0].StartedAt)
	}
	if runs[0].ItemsPublished != 2 || runs[0].ItemsFailed != 1 {
		t.Fatalf("counters = %+v", runs[0])
	}
}

func TestCheckHealth(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.SaveContext(ctx, "/work/a.aep", platform.Context{EntityID: 1}); err != nil {
		t.Fatalf("SaveContext: %v", err)
	}
	if _, err := store.RecordPublishRun(ctx, PublishRun{DocumentPath: "/work/a.aep"}); err != nil {
		t.Fatalf("RecordPublishRun: %v", err)
	}

	health, err := store.CheckHealth(ctx)
	if err != nil {
		t.Fatalf("CheckHealth: %v", err)
	}
	if !health.DatabaseExists || !health.DatabaseReadable {
		t.Fatalf("health = %+v", health)
	}
	if health.SchemaVersion != schemaVersion {
		t.Fatalf("schema version = %d", health.SchemaVersion)
	}
	if health.ContextCount != 1 || health.PublishRunCount != 1 {
		t.Fatalf("counts = %+v", health)
	}
}

func TestReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "slate.db")

	store, err := OpenPath(path)
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	if err := store.SaveContext(context.Background(), "/work/a.aep", platform.Context{EntityID: 9}); err != nil {
		t.Fatalf("SaveContext: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := OpenPath(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	got, err := reopened.GetContext(context.Background(), "/work/a.aep")
	if err != nil {
		t.Fatalf("GetContext: %v", err)
	}
	if got == nil || got.EntityID != 9 {
		t.Fatalf("reopened context = %+v", got)
	}
}

package publish

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"slate/internal/host"
	"slate/internal/platform"
)

type fakeSession struct {
	path    string
	pathErr error
	items   []host.QueueItem
}

func (f *fakeSession) ProjectPath(ctx context.Context) (string, error) {
	return f.path, f.pathErr
}

func (f *fakeSession) RenderQueueItems(ctx context.Context) ([]host.QueueItem, error) {
	return f.items, nil
}

type fakeLookup struct {
	resolved *platform.Context
	err      error
	calls    int
}

func (f *fakeLookup) ContextFor(ctx context.Context, documentPath string) (*platform.Context, error) {
	f.calls++
	return f.resolved, f.err
}

func TestCollectBuildsTree(t *testing.T) {
	dir := t.TempDir()
	movie := filepath.Join(dir, "shot.mov")
	if err := os.WriteFile(movie, []byte("frames"), 0o644); err != nil {
		t.Fatal(err)
	}

	session := &fakeSession{
		path: "/work/shots/sh010/comp_v003.aep",
		items: []host.QueueItem{
			{
				Index:            1,
				CompName:         "Main Comp",
				Status:           host.StatusQueued,
				RenderPaths:      []string{"/renders/main.[####].exr"},
				TimeSpanDuration: 1.0,
				FrameDuration:    0.04,
			},
			{
				Index:            2,
				CompName:         "Review Movie",
				Status:           host.StatusDone,
				RenderPaths:      []string{movie},
				TimeSpanDuration: 1.0,
				FrameDuration:    0.04,
			},
			{Index: 3, CompName: "Broken", Status: host.StatusErrStopped},
		},
	}
	lookup := &fakeLookup{resolved: &platform.Context{EntityType: "Shot", EntityID: 42, Display: "sh010"}}

	root, err := NewCollector(session, lookup, nil).Collect(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if root.Type != "session" {
		t.Fatalf("root type = %q", root.Type)
	}
	if got := root.StringProperty(PropDocumentPath); got != session.path {
		t.Fatalf("document path = %q", got)
	}
	resolved, ok := ContextOf(root)
	if !ok || resolved.EntityID != 42 {
		t.Fatalf("context = %+v, ok=%v", resolved, ok)
	}

	children := root.Children()
	if len(children) != 2 {
		t.Fatalf("got %d children, want 2 (stopped item skipped)", len(children))
	}

	seq := children[0]
	if seq.Type != "session.rendering.sequence" {
		t.Fatalf("first child type = %q", seq.Type)
	}
	if !seq.BoolProperty(PropRenderOnPublish) {
		t.Fatal("queued sequence should need a render pass")
	}
	if !IsSequence(seq) {
		t.Fatal("IsSequence = false for sequence item")
	}

	mov := children[1]
	if mov.Type != "session.rendering.movie" {
		t.Fatalf("second child type = %q", mov.Type)
	}
	if mov.BoolProperty(PropRenderOnPublish) {
		t.Fatal("done movie with output on disk should not re-render")
	}
	queueItem, ok := QueueItemOf(mov)
	if !ok || queueItem.Index != 2 {
		t.Fatalf("queue item = %+v, ok=%v", queueItem, ok)
	}

	// Context lookup propagates to children through the parent chain.
	if _, ok := ContextOf(mov); !ok {
		t.Fatal("child item should inherit the session context")
	}
}

func TestCollectMarksMissingOutputPath(t *testing.T) {
	session := &fakeSession{
		path: "/work/a.aep",
		items: []host.QueueItem{
			{Index: 1, CompName: "No Output", Status: host.StatusQueued},
		},
	}
	root, err := NewCollector(session, nil, nil).Collect(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	child := root.Children()[0]
	if !child.BoolProperty(PropNeedsOutputPath) {
		t.Fatal("item without render paths should be flagged")
	}
}

func TestCollectUnsavedProject(t *testing.T) {
	lookup := &fakeLookup{}
	root, err := NewCollector(&fakeSession{path: ""}, lookup, nil).Collect(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if root.Name != "Untitled Project" {
		t.Fatalf("root name = %q", root.Name)
	}
	if lookup.calls != 0 {
		t.Fatal("lookup must not run for an unsaved project")
	}
}

func TestCollectLookupFailureIsNotFatal(t *testing.T) {
	lookup := &fakeLookup{err: errors.New("site down")}
	root, err := NewCollector(&fakeSession{path: "/work/a.aep"}, lookup, nil).Collect(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := ContextOf(root); ok {
		t.Fatal("failed lookup must leave the context unset")
	}
}

func TestCollectProjectPathError(t *testing.T) {
	session := &fakeSession{pathErr: errors.New("bridge gone")}
	if _, err := NewCollector(session, nil, nil).Collect(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestMatches(t *testing.T) {
	tests := []struct {
		filters  []string
		itemType string
		want     bool
	}{
		{[]string{"session.rendering.*"}, "session.rendering.movie", true},
		{[]string{"session.rendering.*"}, "session", false},
		{[]string{"session", "session.rendering.*"}, "session", true},
		{nil, "session", false},
	}
	for _, tt := range tests {
		if got := Matches(tt.filters, tt.itemType); got != tt.want {
			t.Errorf("Matches(%v, %q) = %v, want %v", tt.filters, tt.itemType, got, tt.want)
		}
	}
}

package controller

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"slate/internal/bridge"
	"slate/internal/config"
	"slate/internal/platform"
)

// fakeConn records emits and answers calls from a script keyed by method.
type fakeConn struct {
	mu      sync.Mutex
	emits   []emittedEvent
	results map[string]any
	callErr error
}

type emittedEvent struct {
	event   string
	payload any
}

func newFakeConn() *fakeConn {
	return &fakeConn{results: make(map[string]any)}
}

func (f *fakeConn) Call(ctx context.Context, method string, params any, out any) error {
	if f.callErr != nil {
		return f.callErr
	}
	result, ok := f.results[method]
	if !ok {
		return errors.New("unscripted method " + method)
	}
	if out == nil {
		return nil
	}
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func (f *fakeConn) Emit(ctx context.Context, event string, payload any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.emits = append(f.emits, emittedEvent{event: event, payload: payload})
	return nil
}

func (f *fakeConn) Ping(ctx context.Context) error { return nil }

func (f *fakeConn) emitted(event string) []emittedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []emittedEvent
	for _, e := range f.emits {
		if e.event == event {
			out = append(out, e)
		}
	}
	return out
}

type fakeContextSource struct {
	resolved *platform.Context
	err      error
	thumb    string
}

func (f *fakeContextSource) ContextFor(ctx context.Context, documentPath string) (*platform.Context, error) {
	return f.resolved, f.err
}

func (f *fakeContextSource) Thumbnail(ctx context.Context, resolved platform.Context) (string, error) {
	return f.thumb, nil
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Session.AutomaticContextSwitch = true
	return &cfg
}

func TestRegistryOrdering(t *testing.T) {
	reg := NewRegistry()
	noop := func(ctx context.Context) error { return nil }
	reg.Register("publish", "Publish...", "", noop)
	reg.Register("reload", "Reload", "", noop)
	reg.Register("jump_site", "Jump to Site", "nav", noop)

	list := reg.List([]string{"jump_site", "missing", "publish"})
	if len(list) != 3 {
		t.Fatalf("got %d commands", len(list))
	}
	got := []string{list[0].Name, list[1].Name, list[2].Name}
	want := []string{"jump_site", "publish", "reload"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestRegistryUIDsMonotonic(t *testing.T) {
	reg := NewRegistry()
	noop := func(ctx context.Context) error { return nil }
	first := reg.Register("a", "A", "", noop)
	reg.Clear()
	second := reg.Register("b", "B", "", noop)
	if second <= first {
		t.Fatalf("uid %d not greater than %d after clear", second, first)
	}
}

func TestRegistryInvoke(t *testing.T) {
	reg := NewRegistry()
	ran := false
	uid := reg.Register("go", "Go", "", func(ctx context.Context) error {
		ran = true
		return nil
	})
	if err := reg.Invoke(context.Background(), uid); err != nil {
		t.Fatal(err)
	}
	if !ran {
		t.Fatal("command did not run")
	}
	if err := reg.Invoke(context.Background(), 9999); err == nil {
		t.Fatal("unknown uid must error")
	}
}

func TestSendState(t *testing.T) {
	conn := newFakeConn()
	conn.results["project.path"] = map[string]any{"path": "/work/a.aep"}
	source := &fakeContextSource{
		resolved: &platform.Context{Display: "Shot sh010", WebURL: "https://site/x"},
		thumb:    "/thumbs/shot_7.jpg",
	}

	ctl := New(conn, testConfig(), source, "/logs/slate.log", nil)
	ctl.Registry().Register("publish", "Publish...", "", func(ctx context.Context) error { return nil })

	ctl.SendState(context.Background())

	if got := conn.emitted(bridge.EventSetCommands); len(got) != 1 {
		t.Fatalf("set_commands emits = %d", len(got))
	}
	if got := conn.emitted(bridge.EventSetLogFilePath); len(got) != 1 {
		t.Fatalf("set_log_file_path emits = %d", len(got))
	}
	display := conn.emitted(bridge.EventSetContextDisplay)
	if len(display) != 1 {
		t.Fatalf("set_context_display emits = %d", len(display))
	}
	if got := conn.emitted(bridge.EventSetContextThumbnail); len(got) != 1 {
		t.Fatalf("set_context_thumbnail emits = %d", len(got))
	}
	if ctl.Document() != "/work/a.aep" {
		t.Fatalf("document = %q", ctl.Document())
	}
}

func TestSendStateUnknownContext(t *testing.T) {
	conn := newFakeConn()
	conn.results["project.path"] = map[string]any{"path": "/work/a.aep"}
	ctl := New(conn, testConfig(), &fakeContextSource{}, "", nil)

	ctl.SendState(context.Background())

	if got := conn.emitted(bridge.EventSetUnknownContext); len(got) != 1 {
		t.Fatalf("set_unknown_context emits = %d", len(got))
	}
	if got := conn.emitted(bridge.EventSetContextDisplay); len(got) != 0 {
		t.Fatalf("unexpected context display: %+v", got)
	}
}

func TestDocumentChangeSwitchesContext(t *testing.T) {
	conn := newFakeConn()
	source := &fakeContextSource{resolved: &platform.Context{Display: "Shot sh020"}}
	ctl := New(conn, testConfig(), source, "", nil)

	ctl.handleDocumentChange(context.Background(), bridge.DocumentChange{Path: "/work/b.aep"})

	if got := conn.emitted(bridge.EventContextAboutToChange); len(got) != 1 {
		t.Fatalf("context_about_to_change emits = %d", len(got))
	}
	if got := conn.emitted(bridge.EventSetContextDisplay); len(got) != 1 {
		t.Fatalf("set_context_display emits = %d", len(got))
	}
	if got := conn.emitted(bridge.EventSetCommands); len(got) != 1 {
		t.Fatalf("set_commands emits = %d", len(got))
	}

	// The same path again is a no-op.
	ctl.handleDocumentChange(context.Background(), bridge.DocumentChange{Path: "/work/b.aep"})
	if got := conn.emitted(bridge.EventContextAboutToChange); len(got) != 1 {
		t.Fatal("duplicate document change must not re-switch")
	}
}

func TestDocumentChangeManualMode(t *testing.T) {
	conn := newFakeConn()
	cfg := testConfig()
	cfg.Session.AutomaticContextSwitch = false
	ctl := New(conn, cfg, &fakeContextSource{resolved: &platform.Context{Display: "x"}}, "", nil)

	ctl.handleDocumentChange(context.Background(), bridge.DocumentChange{Path: "/work/c.aep"})

	if len(conn.emits) != 0 {
		t.Fatalf("manual mode must not emit, got %+v", conn.emits)
	}
	if ctl.Document() != "/work/c.aep" {
		t.Fatal("document must still be tracked in manual mode")
	}
}

func TestRunDispatchesCommand(t *testing.T) {
	conn := newFakeConn()
	ctl := New(conn, testConfig(), nil, "", nil)

	ran := make(chan struct{})
	uid := ctl.Registry().Register("go", "Go", "", func(ctx context.Context) error {
		close(ran)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = ctl.Run(ctx)
	}()

	ctl.Handlers().Command(bridge.CommandInvocation{UID: uid})

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("command did not run")
	}
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop on cancel")
	}
}

func TestPanelSink(t *testing.T) {
	conn := newFakeConn()
	sink := NewPanelSink(conn)
	sink.HandleLog("info", "hello from the daemon")

	got := conn.emitted(bridge.EventLogMessage)
	if len(got) != 1 {
		t.Fatalf("log_message emits = %d", len(got))
	}
	msg, ok := got[0].payload.(bridge.LogMessage)
	if !ok || msg.Message != "hello from the daemon" || msg.Level != "info" {
		t.Fatalf("payload = %+v", got[0].payload)
	}
}

package daemon

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"slate/internal/api"
	"slate/internal/config"
	"slate/internal/contextstore"
	"slate/internal/logging"
	"slate/internal/platform"
)

func newTestDaemon(t *testing.T) *Daemon {
	t.Helper()
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = base
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.ThumbDir = filepath.Join(base, "thumbs")
	cfg.Paths.APIBind = ""

	store, err := contextstore.OpenPath(filepath.Join(base, "slate.db"))
	if err != nil {
		t.Fatalf("contextstore.OpenPath: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	d, err := New(&cfg, store, platform.NewNoop(), logging.NewNop(), NewLogRing(16), "")
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	return d
}

func TestAPIServerHandleStatus(t *testing.T) {
	d := newTestDaemon(t)
	srv := &apiServer{daemon: d}

	w := httptest.NewRecorder()
	srv.handleStatus(w, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}

	var status api.DaemonStatus
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if status.Running {
		t.Fatal("daemon should not report running before Start")
	}
	if status.Bridge.Connected {
		t.Fatal("bridge should not report connected without a panel")
	}
	if status.DBPath == "" || status.LockFilePath == "" {
		t.Fatalf("expected populated paths, got %+v", status)
	}
}

func TestAPIServerHandleQueueNotConnected(t *testing.T) {
	d := newTestDaemon(t)
	srv := &apiServer{daemon: d}

	w := httptest.NewRecorder()
	srv.handleQueue(w, httptest.NewRequest(http.MethodGet, "/api/queue", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without a panel connection, got %d", w.Code)
	}
}

func TestAPIServerHandleHistory(t *testing.T) {
	d := newTestDaemon(t)
	srv := &apiServer{daemon: d}

	req := httptest.NewRequest(http.MethodGet, "/api/history?limit=5", nil)
	w := httptest.NewRecorder()
	srv.handleHistory(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}
	var resp api.HistoryResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Runs) != 0 {
		t.Fatalf("expected empty history, got %d runs", len(resp.Runs))
	}
}

func TestAPIServerHandleLogs(t *testing.T) {
	d := newTestDaemon(t)
	srv := &apiServer{daemon: d}

	d.Ring().Append(api.LogEvent{Level: "INFO", Component: "bridge", Message: "connected"})
	d.Ring().Append(api.LogEvent{Level: "WARN", Component: "publish", Message: "template mismatch"})

	w := httptest.NewRecorder()
	srv.handleLogs(w, httptest.NewRequest(http.MethodGet, "/api/logs", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}
	var resp api.LogStreamResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(resp.Events))
	}
	if resp.Next != 2 {
		t.Fatalf("expected cursor 2, got %d", resp.Next)
	}

	w = httptest.NewRecorder()
	srv.handleLogs(w, httptest.NewRequest(http.MethodGet, "/api/logs?component=publish", nil))
	resp = api.LogStreamResponse{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Events) != 1 || resp.Events[0].Component != "publish" {
		t.Fatalf("component filter failed: %+v", resp.Events)
	}
}

func TestAPIServerMethodNotAllowed(t *testing.T) {
	d := newTestDaemon(t)
	srv := &apiServer{daemon: d}

	w := httptest.NewRecorder()
	srv.handleStatus(w, httptest.NewRequest(http.MethodPost, "/api/status", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", w.Code)
	}
}

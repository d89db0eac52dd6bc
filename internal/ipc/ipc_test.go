package ipc_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"slate/internal/api"
	"slate/internal/daemon"
	"slate/internal/ipc"
	"slate/internal/logging"
	"slate/internal/platform"
	"slate/internal/testsupport"
)

func testDaemon(t *testing.T) (*daemon.Daemon, string) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	cfg.Paths.APIBind = ""
	store := testsupport.MustOpenStore(t, cfg)

	d, err := daemon.New(cfg, store, platform.NewNoop(), logging.NewNop(), daemon.NewLogRing(64), "")
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d, testsupport.BaseDir(cfg)
}

func TestIPCServerClient(t *testing.T) {
	d, base := testDaemon(t)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	socket := filepath.Join(base, "slate.sock")
	srv, err := ipc.NewServer(ctx, socket, d, logging.NewNop())
	if err != nil {
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping ipc server test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()
	t.Cleanup(srv.Close)

	time.Sleep(50 * time.Millisecond)

	client, err := ipc.Dial(socket)
	if err != nil {
		t.Fatalf("ipc.Dial: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	startResp, err := client.Start()
	if err != nil {
		t.Fatalf("Start RPC failed: %v", err)
	}
	if !startResp.Started {
		t.Fatalf("expected Started=true, message=%s", startResp.Message)
	}

	status, err := client.Status()
	if err != nil {
		t.Fatalf("Status RPC failed: %v", err)
	}
	if !status.Running {
		t.Fatal("expected running daemon")
	}
	if status.Bridge.Connected {
		t.Fatal("no panel is listening, bridge should be down")
	}
	if status.PID <= 0 {
		t.Fatalf("unexpected pid %d", status.PID)
	}

	if _, err := client.QueueList(); err == nil {
		t.Fatal("QueueList should fail without a panel connection")
	}

	if _, err := client.Commands(); err == nil {
		t.Fatal("Commands should fail without a panel connection")
	}

	doc, err := client.DocumentPath()
	if err != nil {
		t.Fatalf("DocumentPath RPC failed: %v", err)
	}
	if doc.Path != "" {
		t.Fatalf("expected empty document path, got %q", doc.Path)
	}

	trigger, err := client.TriggerCommand(1)
	if err != nil {
		t.Fatalf("TriggerCommand RPC failed: %v", err)
	}
	if trigger.Triggered {
		t.Fatal("trigger should not succeed without a panel connection")
	}

	render, err := client.Render(1)
	if err != nil {
		t.Fatalf("Render RPC failed: %v", err)
	}
	if render.Rendered {
		t.Fatal("render should not succeed without a panel connection")
	}

	history, err := client.PublishHistory(5)
	if err != nil {
		t.Fatalf("PublishHistory RPC failed: %v", err)
	}
	if len(history.Runs) != 0 {
		t.Fatalf("expected empty history, got %d runs", len(history.Runs))
	}

	health, err := client.DatabaseHealth()
	if err != nil {
		t.Fatalf("DatabaseHealth RPC failed: %v", err)
	}
	if !health.DatabaseExists {
		t.Fatal("expected database to exist")
	}

	note, err := client.TestNotification()
	if err != nil {
		t.Fatalf("TestNotification RPC failed: %v", err)
	}
	if note.Sent {
		t.Fatal("notification should not send without a topic")
	}

	d.Ring().Append(api.LogEvent{Level: "INFO", Message: "hello"})
	tail, err := client.LogTail(ipc.LogTailRequest{})
	if err != nil {
		t.Fatalf("LogTail RPC failed: %v", err)
	}
	if len(tail.Events) != 1 || tail.Events[0].Message != "hello" {
		t.Fatalf("unexpected tail events: %+v", tail.Events)
	}

	stopResp, err := client.Stop()
	if err != nil {
		t.Fatalf("Stop RPC failed: %v", err)
	}
	if !stopResp.Stopped {
		t.Fatal("expected Stopped=true")
	}
}

package logstream_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"slate/internal/api"
	"slate/internal/ipc"
	"slate/internal/logs"
	"slate/internal/logstream"
)

type fakeTail struct {
	responses []ipc.LogTailResponse
	calls     int
}

func (f *fakeTail) LogTail(req ipc.LogTailRequest) (*ipc.LogTailResponse, error) {
	if f.calls >= len(f.responses) {
		return &ipc.LogTailResponse{Next: req.Since}, nil
	}
	resp := f.responses[f.calls]
	f.calls++
	return &resp, nil
}

func TestStreamPrefersAPI(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/logs" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(api.LogStreamResponse{
			Events: []api.LogEvent{{Seq: 1, Message: "from api"}},
			Next:   1,
		})
	}))
	defer server.Close()

	client, err := logs.NewStreamClient(strings.TrimPrefix(server.URL, "http://"), "")
	if err != nil {
		t.Fatalf("NewStreamClient: %v", err)
	}

	tail := &fakeTail{}
	var got []api.LogEvent
	printed, err := logstream.Stream(context.Background(), client, tail, logstream.Options{Lines: 5}, func(evt api.LogEvent) {
		got = append(got, evt)
	})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if !printed || len(got) != 1 || got[0].Message != "from api" {
		t.Fatalf("unexpected events %#v", got)
	}
	if tail.calls != 0 {
		t.Fatal("IPC fallback should not be used when the API answers")
	}
}

func TestStreamFallsBackToIPC(t *testing.T) {
	tail := &fakeTail{responses: []ipc.LogTailResponse{
		{Events: []api.LogEvent{{Seq: 1, Message: "from ring"}}, Next: 1},
	}}

	var got []api.LogEvent
	printed, err := logstream.Stream(context.Background(), nil, tail, logstream.Options{Lines: 5}, func(evt api.LogEvent) {
		got = append(got, evt)
	})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if !printed || len(got) != 1 || got[0].Message != "from ring" {
		t.Fatalf("unexpected events %#v", got)
	}
}

func TestStreamFiltersRequireAPI(t *testing.T) {
	tail := &fakeTail{}
	_, err := logstream.Stream(context.Background(), nil, tail, logstream.Options{
		Filters: logstream.Filters{Component: "bridge"},
	}, nil)
	if !errors.Is(err, logstream.ErrFiltersRequireAPI) {
		t.Fatalf("expected ErrFiltersRequireAPI, got %v", err)
	}
}

func TestStreamNoBackendAvailable(t *testing.T) {
	_, err := logstream.Stream(context.Background(), nil, nil, logstream.Options{}, nil)
	if !errors.Is(err, logs.ErrAPIUnavailable) {
		t.Fatalf("expected ErrAPIUnavailable, got %v", err)
	}
}

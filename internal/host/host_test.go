package host

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

// scriptedCaller answers calls from a method table, moving params and
// results through JSON like the live bridge does.
type scriptedCaller struct {
	replies map[string]func(params json.RawMessage) (any, error)
	calls   []string
}

func (c *scriptedCaller) Call(_ context.Context, method string, params any, out any) error {
	c.calls = append(c.calls, method)
	fn, ok := c.replies[method]
	if !ok {
		return errors.New("unexpected method " + method)
	}
	var raw json.RawMessage
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return err
		}
		raw = data
	}
	result, err := fn(raw)
	if err != nil {
		return err
	}
	if out == nil || result == nil {
		return nil
	}
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func TestParseStatus(t *testing.T) {
	for _, status := range allStatuses {
		parsed, err := ParseStatus(" " + strings.ToUpper(string(status)) + " ")
		if err != nil {
			t.Fatalf("ParseStatus(%q): %v", status, err)
		}
		if parsed != status {
			t.Fatalf("ParseStatus round trip: %q != %q", parsed, status)
		}
	}
	if _, err := ParseStatus("exploded"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestStatusTerminal(t *testing.T) {
	terminal := map[Status]bool{
		StatusDone:       true,
		StatusErrStopped: true,
		StatusRendering:  true,
	}
	for _, status := range allStatuses {
		if got := status.Terminal(); got != terminal[status] {
			t.Errorf("%s.Terminal() = %v, want %v", status, got, terminal[status])
		}
	}
}

func TestFrameRange(t *testing.T) {
	cases := []struct {
		name       string
		item       QueueItem
		wantStart  int
		wantCount  int
		wantStride int
	}{
		{
			name: "full range at 24fps",
			item: QueueItem{
				TimeSpanStart:    1.0,
				TimeSpanDuration: 2.0,
				FrameDuration:    1.0 / 24.0,
			},
			wantStart:  24,
			wantCount:  48,
			wantStride: 1,
		},
		{
			name: "skip every other frame",
			item: QueueItem{
				TimeSpanStart:    0,
				TimeSpanDuration: 1.0,
				FrameDuration:    1.0 / 24.0,
				SkipFrames:       1,
			},
			wantStart:  0,
			wantCount:  12,
			wantStride: 2,
		},
		{
			name:       "zero frame duration",
			item:       QueueItem{TimeSpanDuration: 5},
			wantStart:  0,
			wantCount:  0,
			wantStride: 1,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			start, count, stride := tc.item.FrameRange()
			if start != tc.wantStart || count != tc.wantCount || stride != tc.wantStride {
				t.Fatalf("FrameRange = (%d, %d, %d), want (%d, %d, %d)",
					start, count, stride, tc.wantStart, tc.wantCount, tc.wantStride)
			}
		})
	}
}

func TestRenderQueueItemsRejectsUnknownStatus(t *testing.T) {
	caller := &scriptedCaller{replies: map[string]func(json.RawMessage) (any, error){
		"renderqueue.items": func(json.RawMessage) (any, error) {
			return map[string]any{"items": []map[string]any{
				{"index": 1, "status": "melted", "enabled": true},
			}}, nil
		},
	}}
	client := NewClient(caller, nil)

	if _, err := client.RenderQueueItems(context.Background()); err == nil {
		t.Fatal("expected error for unknown status value")
	}
}

func TestQueueItemStatus(t *testing.T) {
	caller := &scriptedCaller{replies: map[string]func(json.RawMessage) (any, error){
		"renderqueue.item_status": func(params json.RawMessage) (any, error) {
			var p struct {
				Index int `json:"index"`
			}
			if err := json.Unmarshal(params, &p); err != nil {
				return nil, err
			}
			if p.Index != 3 {
				return nil, errors.New("wrong index")
			}
			return map[string]string{"status": "DONE"}, nil
		},
	}}
	client := NewClient(caller, nil)

	status, err := client.QueueItemStatus(context.Background(), 3)
	if err != nil {
		t.Fatalf("QueueItemStatus: %v", err)
	}
	if status != StatusDone {
		t.Fatalf("status = %q, want done", status)
	}
}

func TestResolveImportKindExtensionDefault(t *testing.T) {
	caller := &scriptedCaller{replies: map[string]func(json.RawMessage) (any, error){}}
	client := NewClient(caller, nil)

	kind, err := client.ResolveImportKind(context.Background(), "/work/scene.AEP")
	if err != nil {
		t.Fatalf("ResolveImportKind: %v", err)
	}
	if kind != ImportProject {
		t.Fatalf("kind = %q, want project", kind)
	}
	if len(caller.calls) != 0 {
		t.Fatalf("extension default must not probe the host, called %v", caller.calls)
	}
}

func TestResolveImportKindProbesInOrder(t *testing.T) {
	accepted := map[ImportKind]bool{ImportCompCroppedLayers: true, ImportFootage: true}
	var probed []ImportKind
	caller := &scriptedCaller{replies: map[string]func(json.RawMessage) (any, error){
		"footage.can_import_as": func(params json.RawMessage) (any, error) {
			var p struct {
				Kind string `json:"kind"`
			}
			if err := json.Unmarshal(params, &p); err != nil {
				return nil, err
			}
			kind := ImportKind(p.Kind)
			probed = append(probed, kind)
			return map[string]bool{"ok": accepted[kind]}, nil
		},
	}}
	client := NewClient(caller, nil)

	kind, err := client.ResolveImportKind(context.Background(), "/work/shot.psd")
	if err != nil {
		t.Fatalf("ResolveImportKind: %v", err)
	}
	if kind != ImportCompCroppedLayers {
		t.Fatalf("kind = %q, want comp_cropped_layers", kind)
	}
	want := []ImportKind{ImportProject, ImportComp, ImportCompCroppedLayers}
	if len(probed) != len(want) {
		t.Fatalf("probed %v, want %v", probed, want)
	}
	for i := range want {
		if probed[i] != want[i] {
			t.Fatalf("probe order %v, want %v", probed, want)
		}
	}
}

func TestImportFileUsesResolvedKind(t *testing.T) {
	var imported struct {
		Path string `json:"path"`
		Kind string `json:"kind"`
	}
	caller := &scriptedCaller{replies: map[string]func(json.RawMessage) (any, error){
		"footage.import": func(params json.RawMessage) (any, error) {
			return nil, json.Unmarshal(params, &imported)
		},
	}}
	client := NewClient(caller, nil)

	kind, err := client.ImportFile(context.Background(), "/work/scene.aep", ImportOptions{})
	if err != nil {
		t.Fatalf("ImportFile: %v", err)
	}
	if kind != ImportProject {
		t.Fatalf("kind = %q", kind)
	}
	if imported.Path != "/work/scene.aep" || imported.Kind != "project" {
		t.Fatalf("import params = %+v", imported)
	}
}

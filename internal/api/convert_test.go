package api

import (
	"testing"
	"time"

	"slate/internal/contextstore"
	"slate/internal/host"
)

func TestFromQueueItem(t *testing.T) {
	item := host.QueueItem{
		Index:            2,
		CompName:         "Main Comp",
		Status:           host.StatusQueued,
		Enabled:          true,
		RenderPaths:      []string{"/r/main.[####].exr"},
		OutputModules:    []string{"Studio EXR"},
		TimeSpanStart:    1.0,
		TimeSpanDuration: 2.0,
		FrameDuration:    1.0,
	}

	dto := FromQueueItem(item)
	if dto.Index != 2 || dto.CompName != "Main Comp" || dto.Status != "queued" {
		t.Fatalf("dto = %+v", dto)
	}
	if dto.FirstFrame != 1 || dto.FrameCount != 2 || dto.FrameStride != 1 {
		t.Fatalf("frames = %d/%d/%d", dto.FirstFrame, dto.FrameCount, dto.FrameStride)
	}
}

func TestFromPublishRun(t *testing.T) {
	started := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)
	run := contextstore.PublishRun{
		ID:             7,
		DocumentPath:   "/work/a.aep",
		StartedAt:      started,
		FinishedAt:     started.Add(90 * time.Second),
		ItemsTotal:     3,
		ItemsPublished: 2,
		ItemsFailed:    1,
		Success:        false,
		Message:        "1 of 3 task(s) failed",
	}

	dto := FromPublishRun(run)
	if dto.ID != 7 || dto.Success || dto.ItemsFailed != 1 {
		t.Fatalf("dto = %+v", dto)
	}
	if dto.StartedAt != "2026-03-14T15:09:26.000Z" {
		t.Fatalf("startedAt = %q", dto.StartedAt)
	}
}

func TestFromPublishRunZeroTimes(t *testing.T) {
	dto := FromPublishRun(contextstore.PublishRun{})
	if dto.StartedAt != "" || dto.FinishedAt != "" {
		t.Fatalf("zero times must render empty, got %+v", dto)
	}
}

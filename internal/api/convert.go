package api

import (
	"time"

	"slate/internal/contextstore"
	"slate/internal/host"
)

// FromQueueItem converts a host queue entry to its wire representation.
func FromQueueItem(item host.QueueItem) QueueItem {
	start, count, stride := item.FrameRange()
	return QueueItem{
		Index:         item.Index,
		CompName:      item.CompName,
		Status:        string(item.Status),
		Enabled:       item.Enabled,
		RenderPaths:   append([]string(nil), item.RenderPaths...),
		OutputModules: append([]string(nil), item.OutputModules...),
		FirstFrame:    start,
		FrameCount:    count,
		FrameStride:   stride,
	}
}

// FromQueueItems converts a queue listing in order.
func FromQueueItems(items []host.QueueItem) []QueueItem {
	out := make([]QueueItem, 0, len(items))
	for _, item := range items {
		out = append(out, FromQueueItem(item))
	}
	return out
}

// FromPublishRun converts a recorded publish run to its wire representation.
func FromPublishRun(run contextstore.PublishRun) PublishRun {
	return PublishRun{
		ID:             run.ID,
		DocumentPath:   run.DocumentPath,
		StartedAt:      formatTime(run.StartedAt),
		FinishedAt:     formatTime(run.FinishedAt),
		ItemsTotal:     run.ItemsTotal,
		ItemsPublished: run.ItemsPublished,
		ItemsFailed:    run.ItemsFailed,
		Success:        run.Success,
		Message:        run.Message,
	}
}

// FromPublishRuns converts a history listing in order.
func FromPublishRuns(runs []contextstore.PublishRun) []PublishRun {
	out := make([]PublishRun, 0, len(runs))
	for _, run := range runs {
		out = append(out, FromPublishRun(run))
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}

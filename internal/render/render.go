// Package render drives the host's render queue for a single item without
// disturbing the rest of the queue.
package render

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"slate/internal/host"
	"slate/internal/logging"
	"slate/internal/sequence"
)

// Queue is the slice of the host client the renderer needs.
type Queue interface {
	RenderQueueItems(ctx context.Context) ([]host.QueueItem, error)
	QueueItemStatus(ctx context.Context, index int) (host.Status, error)
	SetQueueItemEnabled(ctx context.Context, index int, enabled bool) error
	StartRender(ctx context.Context) error
}

// Renderer forces single queue items through the host's batch render.
type Renderer struct {
	queue  Queue
	logger *slog.Logger
}

// New builds a Renderer. logger may be nil.
func New(queue Queue, logger *slog.Logger) *Renderer {
	return &Renderer{
		queue:  queue,
		logger: logging.NewComponentLogger(logger, "render"),
	}
}

// flagSnapshot remembers one item's enabled flag so it can be put back.
type flagSnapshot struct {
	index   int
	enabled bool
}

// ForceItem renders exactly the queue item at index: it snapshots the
// enabled flags of every queued item, disables all of them but the target,
// runs the batch render, and then restores the flags. Restoration always
// runs, also when the render fails, and skips items that meanwhile reached a
// terminal state (done, stopped on error, or still rendering). Success means
// the target polls as done afterwards.
func (r *Renderer) ForceItem(ctx context.Context, index int) error {
	items, err := r.queue.RenderQueueItems(ctx)
	if err != nil {
		return fmt.Errorf("list render queue: %w", err)
	}

	var target *host.QueueItem
	snapshots := make([]flagSnapshot, 0, len(items))
	for i := range items {
		item := &items[i]
		if item.Index == index {
			target = item
		}
		// Only queued items participate; everything else keeps its flag
		// untouched throughout.
		if item.Status == host.StatusQueued {
			snapshots = append(snapshots, flagSnapshot{index: item.Index, enabled: item.Enabled})
		}
	}
	if target == nil {
		return fmt.Errorf("render queue has no item %d", index)
	}
	if target.Status != host.StatusQueued {
		return fmt.Errorf("item %d is %s, not queued", index, target.Status)
	}

	for _, snap := range snapshots {
		enabled := snap.index == index
		if err := r.queue.SetQueueItemEnabled(ctx, snap.index, enabled); err != nil {
			r.restore(ctx, snapshots)
			return fmt.Errorf("prepare item %d: %w", snap.index, err)
		}
	}

	r.logger.Info("forcing render",
		logging.Int(logging.FieldQueueItem, index),
		logging.String("comp", target.CompName))

	renderErr := r.queue.StartRender(ctx)
	r.restore(ctx, snapshots)
	if renderErr != nil {
		return fmt.Errorf("render item %d: %w", index, renderErr)
	}

	status, err := r.queue.QueueItemStatus(ctx, index)
	if err != nil {
		return fmt.Errorf("poll item %d after render: %w", index, err)
	}
	if status != host.StatusDone {
		return fmt.Errorf("item %d finished as %s", index, status)
	}
	return nil
}

// restore puts enabled flags back for every snapshotted item that has not
// reached a terminal state. Failures are logged and skipped so one stuck
// item cannot block the rest.
func (r *Renderer) restore(ctx context.Context, snapshots []flagSnapshot) {
	for _, snap := range snapshots {
		status, err := r.queue.QueueItemStatus(ctx, snap.index)
		if err != nil {
			r.logger.Warn("cannot check item before restore",
				logging.Int(logging.FieldQueueItem, snap.index),
				logging.Error(err))
			continue
		}
		if status.Terminal() {
			continue
		}
		if err := r.queue.SetQueueItemEnabled(ctx, snap.index, snap.enabled); err != nil {
			r.logger.Warn("cannot restore render flag",
				logging.Int(logging.FieldQueueItem, snap.index),
				logging.Error(err))
		}
	}
}

// OutputFiles expands the item's render paths to the concrete files the host
// writes, one slice per output module.
func OutputFiles(item host.QueueItem) [][]string {
	start, count, stride := item.FrameRange()
	files := make([][]string, 0, len(item.RenderPaths))
	for _, path := range item.RenderPaths {
		files = append(files, sequence.Expand(path, start, count, stride))
	}
	return files
}

// Rendered reports whether every output file of the item exists on disk.
func Rendered(item host.QueueItem) bool {
	groups := OutputFiles(item)
	if len(groups) == 0 {
		return false
	}
	for _, group := range groups {
		if len(group) == 0 {
			return false
		}
		for _, path := range group {
			if _, err := os.Stat(path); err != nil {
				return false
			}
		}
	}
	return true
}

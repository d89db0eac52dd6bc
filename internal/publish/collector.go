package publish

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"slate/internal/host"
	"slate/internal/logging"
	"slate/internal/platform"
	"slate/internal/render"
	"slate/internal/sequence"
)

// PropContext holds the resolved platform.Context on the session item.
const PropContext = "context"

// Session is the slice of the host client the collector reads.
type Session interface {
	ProjectPath(ctx context.Context) (string, error)
	RenderQueueItems(ctx context.Context) ([]host.QueueItem, error)
}

// ContextLookup resolves a document path to its tracking context, typically
// cache first, then the site.
type ContextLookup interface {
	ContextFor(ctx context.Context, documentPath string) (*platform.Context, error)
}

// Collector builds the publish item tree from the current host session.
type Collector struct {
	session Session
	lookup  ContextLookup
	logger  *slog.Logger
}

// NewCollector builds a Collector. lookup and logger may be nil.
func NewCollector(session Session, lookup ContextLookup, logger *slog.Logger) *Collector {
	return &Collector{
		session: session,
		lookup:  lookup,
		logger:  logging.NewComponentLogger(logger, "collect"),
	}
}

// Collect returns the root session item with one rendering child per usable
// render queue entry. Usable means queued or already done; failed, stopped,
// and in-flight entries are skipped.
func (c *Collector) Collect(ctx context.Context) (*Item, error) {
	projectPath, err := c.session.ProjectPath(ctx)
	if err != nil {
		return nil, fmt.Errorf("read project path: %w", err)
	}

	name := "Untitled Project"
	if projectPath != "" {
		name = filepath.Base(projectPath)
	}
	root := NewItem("session", "Session", name)
	root.SetProperty(PropDocumentPath, projectPath)

	if c.lookup != nil && projectPath != "" {
		resolved, err := c.lookup.ContextFor(ctx, projectPath)
		switch {
		case err != nil:
			c.logger.Warn("cannot resolve context",
				logging.String(logging.FieldDocument, projectPath),
				logging.Error(err))
		case resolved != nil:
			root.SetProperty(PropContext, *resolved)
		}
	}

	items, err := c.session.RenderQueueItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("read render queue: %w", err)
	}
	for _, queueItem := range items {
		if queueItem.Status != host.StatusQueued && queueItem.Status != host.StatusDone {
			c.logger.Debug("skipping queue item",
				logging.Int(logging.FieldQueueItem, queueItem.Index),
				logging.String("status", string(queueItem.Status)))
			continue
		}
		child := root.CreateItem(renderingType(queueItem), renderingDisplayType(queueItem), queueItem.CompName)
		child.SetProperty(PropQueueItem, queueItem)
		child.SetProperty(PropRenderPaths, append([]string(nil), queueItem.RenderPaths...))
		child.SetProperty(PropNeedsOutputPath, len(queueItem.RenderPaths) == 0)
		// A done item with all files on disk publishes as-is; everything
		// else needs a render pass first.
		child.SetProperty(PropRenderOnPublish, !(queueItem.Status == host.StatusDone && render.Rendered(queueItem)))
	}

	c.logger.Info("collected session",
		logging.String(logging.FieldDocument, projectPath),
		logging.Int("items", len(root.Children())))
	return root, nil
}

// renderingType distinguishes sequence and movie renders so plugins can
// filter on either.
func renderingType(item host.QueueItem) string {
	if isSequenceItem(item) {
		return "session.rendering.sequence"
	}
	return "session.rendering.movie"
}

func renderingDisplayType(item host.QueueItem) string {
	if isSequenceItem(item) {
		return "Rendered Image Sequence"
	}
	return "Rendered Movie"
}

func isSequenceItem(item host.QueueItem) bool {
	for _, path := range item.RenderPaths {
		if sequence.HasToken(path) {
			return true
		}
	}
	return false
}

// IsSequence reports whether any collected render path carries a frame token.
func IsSequence(item *Item) bool {
	queueItem, ok := QueueItemOf(item)
	if !ok {
		return strings.HasSuffix(item.Type, ".sequence")
	}
	return isSequenceItem(queueItem)
}

// QueueItemOf returns the queue snapshot stored on a rendering item.
func QueueItemOf(item *Item) (host.QueueItem, bool) {
	value, ok := item.Property(PropQueueItem)
	if !ok {
		return host.QueueItem{}, false
	}
	queueItem, ok := value.(host.QueueItem)
	return queueItem, ok
}

// ContextOf returns the tracking context stored on the item or its nearest
// ancestor.
func ContextOf(item *Item) (platform.Context, bool) {
	for node := item; node != nil; node = node.Parent() {
		value, ok := node.Property(PropContext)
		if !ok {
			continue
		}
		resolved, ok := value.(platform.Context)
		return resolved, ok
	}
	return platform.Context{}, false
}

package daemon

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"slate/internal/api"
	"slate/internal/logging"
)

// LogRing keeps the most recent structured log events in memory for the
// /api/logs endpoint. Events get increasing sequence numbers so clients can
// resume from where they left off.
type LogRing struct {
	mu       sync.Mutex
	events   []api.LogEvent
	capacity int
	next     uint64
	// wake is closed and replaced on every append so followers can block.
	wake chan struct{}
}

// NewLogRing builds a ring holding up to capacity events.
func NewLogRing(capacity int) *LogRing {
	if capacity <= 0 {
		capacity = 1024
	}
	return &LogRing{
		capacity: capacity,
		wake:     make(chan struct{}),
	}
}

// Append stores one event and assigns its sequence number.
func (r *LogRing) Append(event api.LogEvent) {
	r.mu.Lock()
	r.next++
	event.Seq = r.next
	r.events = append(r.events, event)
	if len(r.events) > r.capacity {
		r.events = r.events[len(r.events)-r.capacity:]
	}
	close(r.wake)
	r.wake = make(chan struct{})
	r.mu.Unlock()
}

// Since returns events with Seq > since, up to limit, and the cursor for the
// next call.
func (r *LogRing) Since(since uint64, limit int) ([]api.LogEvent, uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := since
	var out []api.LogEvent
	for _, event := range r.events {
		if event.Seq <= since {
			continue
		}
		out = append(out, event)
		next = event.Seq
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	if next < r.next && (limit <= 0 || len(out) < limit) {
		next = r.next
	}
	return out, next
}

// Wait blocks until an event newer than since arrives or ctx ends.
func (r *LogRing) Wait(ctx context.Context, since uint64) {
	r.mu.Lock()
	if r.next > since {
		r.mu.Unlock()
		return
	}
	wake := r.wake
	r.mu.Unlock()

	select {
	case <-ctx.Done():
	case <-wake:
	}
}

// ringHandler feeds records into a LogRing. It is attached to the logger's
// fanout so every daemon log line is also available over the API.
type ringHandler struct {
	ring  *LogRing
	level slog.Level
	attrs []slog.Attr
}

// NewRingHandler wraps ring as a slog handler emitting records at or above
// minLevel.
func NewRingHandler(ring *LogRing, minLevel slog.Level) slog.Handler {
	if ring == nil {
		return logging.NoopHandler{}
	}
	return &ringHandler{ring: ring, level: minLevel}
}

func (h *ringHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *ringHandler) Handle(_ context.Context, record slog.Record) error {
	component := ""
	for _, attr := range h.attrs {
		if attr.Key == logging.FieldComponent {
			component = attr.Value.String()
		}
	}
	record.Attrs(func(attr slog.Attr) bool {
		if attr.Key == logging.FieldComponent {
			component = attr.Value.String()
		}
		return true
	})

	h.ring.Append(api.LogEvent{
		Time:      record.Time.UTC().Format(time.RFC3339Nano),
		Level:     record.Level.String(),
		Component: component,
		Message:   record.Message,
	})
	return nil
}

func (h *ringHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := &ringHandler{ring: h.ring, level: h.level}
	clone.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return clone
}

func (h *ringHandler) WithGroup(string) slog.Handler { return h }

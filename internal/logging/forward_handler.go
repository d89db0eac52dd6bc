package logging

import (
	"context"
	"log/slog"
	"strings"
)

// Sink receives rendered log records for delivery outside the process, such
// as the host application's panel console.
type Sink interface {
	HandleLog(level, message string)
}

// sinkHandler renders records to a single line and hands them to a Sink.
// Delivery failures are swallowed so logging can never take down the caller.
type sinkHandler struct {
	sink  Sink
	level slog.Level
	attrs []slog.Attr
}

// NewSinkHandler wraps sink as a slog handler emitting records at or above
// minLevel.
func NewSinkHandler(sink Sink, minLevel slog.Level) slog.Handler {
	if sink == nil {
		return NoopHandler{}
	}
	return &sinkHandler{sink: sink, level: minLevel}
}

// NewForwardHandler fans records out to base and to sink. Either argument may
// be nil.
func NewForwardHandler(base slog.Handler, sink Sink, minLevel slog.Level) slog.Handler {
	handlers := make([]slog.Handler, 0, 2)
	if base != nil {
		handlers = append(handlers, base)
	}
	if sink != nil {
		handlers = append(handlers, NewSinkHandler(sink, minLevel))
	}
	return newFanoutHandler(handlers...)
}

func (h *sinkHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *sinkHandler) Handle(_ context.Context, record slog.Record) error {
	if record.Level < h.level {
		return nil
	}

	var sb strings.Builder
	sb.WriteString(strings.TrimSpace(record.Message))

	kvs := make([]kv, 0, record.NumAttrs()+len(h.attrs))
	flattenAttrs(&kvs, nil, h.attrs)
	record.Attrs(func(attr slog.Attr) bool {
		flattenAttr(&kvs, nil, attr)
		return true
	})
	for _, kv := range kvs {
		if kv.key == "" || kv.key == FieldComponent {
			continue
		}
		sb.WriteByte(' ')
		sb.WriteString(kv.key)
		sb.WriteByte('=')
		sb.WriteString(formatValue(kv.value))
	}

	h.sink.HandleLog(strings.ToLower(levelLabel(record.Level)), sb.String())
	return nil
}

func (h *sinkHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := &sinkHandler{sink: h.sink, level: h.level}
	clone.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return clone
}

func (h *sinkHandler) WithGroup(string) slog.Handler { return h }

type fanoutHandler struct {
	handlers []slog.Handler
}

func newFanoutHandler(handlers ...slog.Handler) slog.Handler {
	filtered := make([]slog.Handler, 0, len(handlers))
	for _, h := range handlers {
		if h != nil {
			filtered = append(filtered, h)
		}
	}
	if len(filtered) == 0 {
		return NoopHandler{}
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &fanoutHandler{handlers: filtered}
}

func (h *fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *fanoutHandler) Handle(ctx context.Context, record slog.Record) error {
	var firstErr error
	for _, handler := range h.handlers {
		if !handler.Enabled(ctx, record.Level) {
			continue
		}
		if err := handler.Handle(ctx, record.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (h *fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		next[i] = handler.WithAttrs(attrs)
	}
	return &fanoutHandler{handlers: next}
}

func (h *fanoutHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		next[i] = handler.WithGroup(name)
	}
	return &fanoutHandler{handlers: next}
}

// Fanout combines handlers into one that dispatches each record to all of
// them. Nil handlers are skipped.
func Fanout(handlers ...slog.Handler) slog.Handler {
	return newFanoutHandler(handlers...)
}

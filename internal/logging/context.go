package logging

import (
	"context"
	"log/slog"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldEventType is the standardized structured logging key for machine-readable event names.
	FieldEventType = "event_type"
	// FieldDocument is the standardized structured logging key for host document names.
	FieldDocument = "document"
	// FieldCommand is the standardized structured logging key for registered command identifiers.
	FieldCommand = "command"
	// FieldPlugin is the standardized structured logging key for publish plugin names.
	FieldPlugin = "plugin"
	// FieldItem is the standardized structured logging key for publish item names.
	FieldItem = "item"
	// FieldQueueItem is the standardized structured logging key for render queue item indices.
	FieldQueueItem = "queue_item"
	// FieldCorrelationID is the standardized structured logging key for request correlation identifiers.
	FieldCorrelationID = "correlation_id"
	// FieldErrorHint is the standardized structured logging key for recovery guidance.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for the user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldAlert flags warnings or anomalies that should stand out in structured logs.
	FieldAlert = "alert"
)

type contextKey string

const (
	documentContextKey      contextKey = "slate.document"
	pluginContextKey        contextKey = "slate.plugin"
	correlationIDContextKey contextKey = "slate.correlation_id"
)

// WithDocument stores the active host document name on the context.
func WithDocument(ctx context.Context, document string) context.Context {
	if document == "" {
		return ctx
	}
	return context.WithValue(ctx, documentContextKey, document)
}

// WithPlugin stores the running publish plugin name on the context.
func WithPlugin(ctx context.Context, plugin string) context.Context {
	if plugin == "" {
		return ctx
	}
	return context.WithValue(ctx, pluginContextKey, plugin)
}

// WithCorrelationID stores a request correlation identifier on the context.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, correlationIDContextKey, id)
}

// DocumentFromContext returns the host document name stored on the context.
func DocumentFromContext(ctx context.Context) (string, bool) {
	return stringFromContext(ctx, documentContextKey)
}

// PluginFromContext returns the publish plugin name stored on the context.
func PluginFromContext(ctx context.Context) (string, bool) {
	return stringFromContext(ctx, pluginContextKey)
}

// CorrelationIDFromContext returns the correlation identifier stored on the context.
func CorrelationIDFromContext(ctx context.Context) (string, bool) {
	return stringFromContext(ctx, correlationIDContextKey)
}

func stringFromContext(ctx context.Context, key contextKey) (string, bool) {
	if ctx == nil {
		return "", false
	}
	value, ok := ctx.Value(key).(string)
	if !ok || value == "" {
		return "", false
	}
	return value, true
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if document, ok := DocumentFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldDocument, document))
	}
	if plugin, ok := PluginFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldPlugin, plugin))
	}
	if rid, ok := CorrelationIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from
// the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}

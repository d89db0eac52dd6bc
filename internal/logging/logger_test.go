package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"Info", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"nonsense", slog.LevelInfo},
	}
	for _, tc := range cases {
		if got := parseLevel(tc.input); got != tc.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tc.input, got, tc.want)
		}
	}
}

func TestPrettyHandlerOutput(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	lvl.Set(slog.LevelInfo)
	logger := slog.New(newPrettyHandler(&buf, lvl, false))

	logger.Info("render started",
		String(FieldComponent, "render"),
		Int(FieldQueueItem, 3),
		String(FieldDocument, "shot_010_comp.aep"))

	line := buf.String()
	if !strings.Contains(line, "INFO render: render started") {
		t.Fatalf("unexpected line: %q", line)
	}
	if !strings.Contains(line, "queue_item=3") {
		t.Fatalf("missing queue_item attr: %q", line)
	}
	if !strings.Contains(line, "document=shot_010_comp.aep") {
		t.Fatalf("missing document attr: %q", line)
	}
	if strings.Contains(line, "component=") {
		t.Fatalf("component should be folded into the prefix: %q", line)
	}
}

func TestPrettyHandlerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	lvl.Set(slog.LevelWarn)
	logger := slog.New(newPrettyHandler(&buf, lvl, false))

	logger.Info("suppressed")
	if buf.Len() != 0 {
		t.Fatalf("info record should be suppressed at warn level: %q", buf.String())
	}

	logger.Warn("kept")
	if !strings.Contains(buf.String(), "WARN kept") {
		t.Fatalf("warn record missing: %q", buf.String())
	}
}

func TestWithContextAddsFields(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newPrettyHandler(&buf, lvl, false))

	ctx := WithDocument(context.Background(), "intro.aep")
	ctx = WithCorrelationID(ctx, "abc-123")

	WithContext(ctx, logger).Info("state sent")

	line := buf.String()
	if !strings.Contains(line, "document=intro.aep") {
		t.Fatalf("missing document field: %q", line)
	}
	if !strings.Contains(line, "correlation_id=abc-123") {
		t.Fatalf("missing correlation field: %q", line)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestNewComponentLoggerNilBase(t *testing.T) {
	logger := NewComponentLogger(nil, "bridge")
	// Must not panic.
	logger.Info("noop")
}

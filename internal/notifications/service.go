package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"slate/internal/config"
)

const userAgent = "Slate/0.1.0"

// Service defines the notification surface exposed to the daemon and the
// publish pipeline.
type Service interface {
	NotifyRenderStarted(ctx context.Context, compName string) error
	NotifyRenderCompleted(ctx context.Context, compName string, duration time.Duration) error
	NotifyPublishStarted(ctx context.Context, documentName string, itemCount int) error
	NotifyPublishCompleted(ctx context.Context, documentName string, published, failed int, duration time.Duration) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg config.Notifications) Service {
	topic := strings.TrimSpace(cfg.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		cfg:      cfg,
		client:   &http.Client{Timeout: timeout},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	cfg      config.Notifications
	client   *http.Client
}

func (n *ntfyService) NotifyRenderStarted(ctx context.Context, compName string) error {
	if !n.cfg.Render {
		return nil
	}
	data := payload{
		title:   "Slate - Render Started",
		message: fmt.Sprintf("Started rendering: %s", strings.TrimSpace(compName)),
		tags:    []string{"slate", "render", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRenderCompleted(ctx context.Context, compName string, duration time.Duration) error {
	if !n.cfg.Render {
		return nil
	}
	data := payload{
		title:   "Slate - Render Complete",
		message: fmt.Sprintf("Render complete: %s in %s", strings.TrimSpace(compName), durationText(duration)),
		tags:    []string{"slate", "render", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyPublishStarted(ctx context.Context, documentName string, itemCount int) error {
	if !n.cfg.Publish {
		return nil
	}
	data := payload{
		title:   "Slate - Publish Started",
		message: fmt.Sprintf("Publishing %s with %d items", strings.TrimSpace(documentName), itemCount),
		tags:    []string{"slate", "publish", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyPublishCompleted(ctx context.Context, documentName string, published, failed int, duration time.Duration) error {
	if !n.cfg.Publish {
		return nil
	}
	documentName = strings.TrimSpace(documentName)

	var title, message string
	if failed == 0 {
		title = "Slate - Publish Complete"
		message = fmt.Sprintf("Published %s: %d items in %s", documentName, published, durationText(duration))
	} else {
		title = "Slate - Publish Complete (with errors)"
		message = fmt.Sprintf("Published %s: %d succeeded, %d failed in %s", documentName, published, failed, durationText(duration))
	}

	data := payload{
		title:    title,
		message:  message,
		tags:     []string{"slate", "publish", "completed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.cfg.Errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Slate - Error",
		message:  builder.String(),
		tags:     []string{"slate", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Slate - Test",
		message:  "Notification system test",
		tags:     []string{"slate", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func durationText(duration time.Duration) string {
	duration = duration.Round(time.Second)
	if duration <= 0 {
		return "0s"
	}
	return duration.String()
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyRenderStarted(context.Context, string) error                 { return nil }
func (noopService) NotifyRenderCompleted(context.Context, string, time.Duration) error { return nil }
func (noopService) NotifyPublishStarted(context.Context, string, int) error           { return nil }
func (noopService) NotifyPublishCompleted(context.Context, string, int, int, time.Duration) error {
	return nil
}
func (noopService) NotifyError(context.Context, error, string) error { return nil }
func (noopService) TestNotification(context.Context) error           { return nil }

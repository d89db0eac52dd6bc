package logstream

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"slate/internal/api"
	"slate/internal/ipc"
	"slate/internal/logs"
)

var ErrFiltersRequireAPI = errors.New("log filters require API access")

// TailClient captures the IPC log tail contract used for fallback streaming.
type TailClient interface {
	LogTail(req ipc.LogTailRequest) (*ipc.LogTailResponse, error)
}

// Filters contains optional predicates supported by API log streaming.
type Filters struct {
	Component string
	Level     string
	Search    string
}

func (f Filters) empty() bool {
	return strings.TrimSpace(f.Component) == "" &&
		strings.TrimSpace(f.Level) == "" &&
		strings.TrimSpace(f.Search) == ""
}

// Options controls stream behavior.
type Options struct {
	Lines   int
	Follow  bool
	Filters Filters
}

// Stream emits log events from the HTTP API when available, falling back to
// IPC tailing. It returns true when at least one event was emitted.
func Stream(
	ctx context.Context,
	apiClient *logs.StreamClient,
	legacy TailClient,
	opts Options,
	onEvent func(api.LogEvent),
) (bool, error) {
	printed, err := streamAPI(ctx, apiClient, opts, onEvent)
	if err == nil {
		return printed, nil
	}
	if !logs.IsAPIUnavailable(err) {
		return printed, err
	}
	if !opts.Filters.empty() {
		return false, fmt.Errorf("%w: %w", ErrFiltersRequireAPI, logs.ErrAPIUnavailable)
	}
	if legacy == nil {
		return false, logs.ErrAPIUnavailable
	}
	return streamLegacy(ctx, legacy, opts, onEvent)
}

func streamAPI(
	ctx context.Context,
	client *logs.StreamClient,
	opts Options,
	onEvent func(api.LogEvent),
) (bool, error) {
	query := logs.StreamQuery{
		Limit:     opts.Lines,
		Component: opts.Filters.Component,
		Level:     opts.Filters.Level,
		Search:    opts.Filters.Search,
	}
	if query.Limit <= 0 {
		query.Limit = 200
	}

	printed := false
	for {
		resp, err := client.Fetch(ctx, query)
		if err != nil {
			return printed, err
		}
		for _, evt := range resp.Events {
			if onEvent != nil {
				onEvent(evt)
			}
			printed = true
		}
		if !opts.Follow {
			return printed, nil
		}
		query.Since = resp.Next
		query.Limit = 200
		query.Follow = true
	}
}

// streamLegacy polls the daemon's log ring over IPC. The ring cursor doubles
// as the resume point, so follow mode is a poll loop rather than a long poll.
func streamLegacy(ctx context.Context, client TailClient, opts Options, onEvent func(api.LogEvent)) (bool, error) {
	limit := opts.Lines
	if limit <= 0 {
		limit = 200
	}

	since := uint64(0)
	printed := false
	for {
		resp, err := client.LogTail(ipc.LogTailRequest{Since: since, Limit: limit})
		if err != nil {
			return printed, fmt.Errorf("tail logs: %w", err)
		}
		if resp == nil {
			return printed, errors.New("log tail response missing")
		}
		for _, evt := range resp.Events {
			if onEvent != nil {
				onEvent(evt)
			}
			printed = true
		}
		since = resp.Next
		limit = 200
		if !opts.Follow {
			return printed, nil
		}
		select {
		case <-ctx.Done():
			return printed, nil
		case <-time.After(time.Second):
		}
	}
}

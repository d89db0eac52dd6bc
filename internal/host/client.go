package host

import (
	"context"
	"log/slog"

	"slate/internal/logging"
)

// Caller issues one RPC into the host and decodes its result. *bridge.Bridge
// satisfies this; tests substitute a scripted fake.
type Caller interface {
	Call(ctx context.Context, method string, params any, out any) error
}

// Client exposes the host object model as typed methods.
type Client struct {
	caller Caller
	logger *slog.Logger
}

// NewClient wraps caller. logger may be nil.
func NewClient(caller Caller, logger *slog.Logger) *Client {
	return &Client{
		caller: caller,
		logger: logging.NewComponentLogger(logger, "host"),
	}
}

package bridge

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"slate/internal/logging"
)

// HeartbeatOptions configures the connection monitor.
type HeartbeatOptions struct {
	// Interval between pings.
	Interval time.Duration
	// Timeout bounds a single ping.
	Timeout time.Duration
	// Tolerance is how many consecutive failed pings end the monitor.
	Tolerance int
	Logger    *slog.Logger
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Heartbeat pings the host connection on a fixed interval. Run returns nil
// when ctx is cancelled and an error once Tolerance consecutive pings have
// failed, which callers treat as "the host is gone".
type Heartbeat struct {
	target    pinger
	interval  time.Duration
	timeout   time.Duration
	tolerance int
	logger    *slog.Logger

	failures atomic.Uint64
}

// NewHeartbeat builds a monitor for target, typically a *Bridge.
func NewHeartbeat(target pinger, opts HeartbeatOptions) *Heartbeat {
	interval := opts.Interval
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = interval
	}
	tolerance := opts.Tolerance
	if tolerance < 1 {
		tolerance = 2
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Heartbeat{
		target:    target,
		interval:  interval,
		timeout:   timeout,
		tolerance: tolerance,
		logger:    logging.NewComponentLogger(logger, "heartbeat"),
	}
}

// Failures returns the total number of failed pings observed. It is safe to
// call while Run is active; the status and metrics paths read it live.
func (h *Heartbeat) Failures() uint64 { return h.failures.Load() }

// Run blocks until ctx is cancelled or the tolerance is exhausted.
func (h *Heartbeat) Run(ctx context.Context) error {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	consecutive := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		err := WithTimeout(h.timeout, "ping", func() error {
			return h.target.Ping(ctx)
		})
		if ctx.Err() != nil {
			return nil
		}
		if err == nil {
			consecutive = 0
			continue
		}

		consecutive++
		h.failures.Add(1)
		h.logger.Warn("heartbeat failed",
			logging.Int("consecutive", consecutive),
			logging.Int("tolerance", h.tolerance),
			logging.Error(err))
		if consecutive >= h.tolerance {
			return err
		}
	}
}

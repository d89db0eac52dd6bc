package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"slate/internal/logging"
)

// Options configures a Bridge.
type Options struct {
	// ResponseTimeout bounds every call into the host. Zero disables the
	// guard (tests only).
	ResponseTimeout time.Duration
	// NetworkDebug logs every frame at debug level.
	NetworkDebug bool
	Logger       *slog.Logger
	Handlers     Handlers
}

// Stats is a snapshot of bridge counters, exported through the daemon's
// metrics endpoint.
type Stats struct {
	Calls      uint64
	Timeouts   uint64
	HostErrors uint64
	Events     uint64
}

// Bridge correlates calls into the host with their responses and dispatches
// named panel events to handlers.
type Bridge struct {
	transport Transport
	timeout   time.Duration
	debug     bool
	logger    *slog.Logger
	handlers  Handlers

	mu      sync.Mutex
	pending map[string]chan Response

	calls      atomic.Uint64
	timeouts   atomic.Uint64
	hostErrors atomic.Uint64
	events     atomic.Uint64
}

// New wraps transport. Call Run to start the read pump before issuing calls.
func New(transport Transport, opts Options) *Bridge {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Bridge{
		transport: transport,
		timeout:   opts.ResponseTimeout,
		debug:     opts.NetworkDebug,
		logger:    logging.NewComponentLogger(logger, "bridge"),
		handlers:  opts.Handlers,
		pending:   make(map[string]chan Response),
	}
}

// Run drives the read pump until ctx is cancelled or the transport fails.
// Pending calls are failed when Run returns.
func (b *Bridge) Run(ctx context.Context) error {
	defer b.failPending()
	for {
		frame, err := b.transport.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		if b.debug {
			b.logger.Debug("frame received",
				logging.String(logging.FieldEventType, frame.Event),
				logging.Int("payload_bytes", len(frame.Payload)))
		}
		if frame.Event == EventResponse {
			b.dispatchResponse(frame.Payload)
			continue
		}
		b.events.Add(1)
		b.dispatchEvent(frame)
	}
}

func (b *Bridge) dispatchResponse(payload json.RawMessage) {
	var resp Response
	if err := json.Unmarshal(payload, &resp); err != nil {
		b.logger.Warn("undecodable response frame", logging.Error(err))
		return
	}

	b.mu.Lock()
	waiter, ok := b.pending[resp.ID]
	if ok {
		delete(b.pending, resp.ID)
	}
	b.mu.Unlock()

	if !ok {
		// Late answer to a call that already timed out.
		b.logger.Debug("response for unknown call id",
			logging.String(logging.FieldCorrelationID, resp.ID))
		return
	}
	waiter <- resp
}

func (b *Bridge) dispatchEvent(frame Frame) {
	switch frame.Event {
	case EventLogging:
		if b.handlers.Logging == nil {
			return
		}
		var msg LogMessage
		if err := json.Unmarshal(frame.Payload, &msg); err != nil {
			b.logger.Warn("undecodable logging event", logging.Error(err))
			return
		}
		b.handlers.Logging(msg)
	case EventCommand:
		if b.handlers.Command == nil {
			return
		}
		var cmd CommandInvocation
		if err := json.Unmarshal(frame.Payload, &cmd); err != nil {
			b.logger.Warn("undecodable command event", logging.Error(err))
			return
		}
		b.handlers.Command(cmd)
	case EventRunTests:
		if b.handlers.RunTests != nil {
			b.handlers.RunTests()
		}
	case EventStateRequested:
		if b.handlers.StateRequested != nil {
			b.handlers.StateRequested()
		}
	case EventActiveDocumentChanged:
		if b.handlers.ActiveDocumentChanged == nil {
			return
		}
		var change DocumentChange
		if err := json.Unmarshal(frame.Payload, &change); err != nil {
			b.logger.Warn("undecodable document change event", logging.Error(err))
			return
		}
		b.handlers.ActiveDocumentChanged(change)
	default:
		b.logger.Debug("unhandled event",
			logging.String(logging.FieldEventType, frame.Event))
	}
}

func (b *Bridge) failPending() {
	b.mu.Lock()
	pending := b.pending
	b.pending = make(map[string]chan Response)
	b.mu.Unlock()
	for id, waiter := range pending {
		waiter <- Response{ID: id, Error: &ResponseError{Message: "connection closed"}}
	}
}

// Call invokes method on the host and decodes the result into out (which may
// be nil). It blocks until the host answers, the response timeout fires, or
// ctx is cancelled. A timed-out call is abandoned: a late response is
// discarded by the read pump.
func (b *Bridge) Call(ctx context.Context, method string, params any, out any) error {
	b.calls.Add(1)

	var encoded json.RawMessage
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("encode params for %s: %w", method, err)
		}
		encoded = data
	}

	id := uuid.NewString()
	waiter := make(chan Response, 1)
	b.mu.Lock()
	b.pending[id] = waiter
	b.mu.Unlock()

	payload, err := json.Marshal(Request{JSONRPC: "2.0", ID: id, Method: method, Params: encoded})
	if err != nil {
		b.forget(id)
		return fmt.Errorf("encode call %s: %w", method, err)
	}
	if err := b.transport.Send(ctx, Frame{Event: EventCall, Payload: payload}); err != nil {
		b.forget(id)
		return err
	}

	var timeoutC <-chan time.Time
	if b.timeout > 0 {
		timer := time.NewTimer(b.timeout)
		defer timer.Stop()
		timeoutC = timer.C
	}

	select {
	case resp := <-waiter:
		if resp.Error != nil {
			b.hostErrors.Add(1)
			return &HostError{Method: method, Message: resp.Error.Message, Detail: resp.Error.Data}
		}
		if out == nil || len(resp.Result) == 0 {
			return nil
		}
		if err := json.Unmarshal(resp.Result, out); err != nil {
			return fmt.Errorf("decode result of %s: %w", method, err)
		}
		return nil
	case <-timeoutC:
		b.forget(id)
		b.timeouts.Add(1)
		b.logger.Warn("host call timed out",
			logging.String("method", method),
			logging.String(logging.FieldCorrelationID, id),
			logging.Duration("limit", b.timeout))
		return &TimeoutError{Op: method, Limit: b.timeout}
	case <-ctx.Done():
		b.forget(id)
		return ctx.Err()
	}
}

func (b *Bridge) forget(id string) {
	b.mu.Lock()
	delete(b.pending, id)
	b.mu.Unlock()
}

// Emit sends a named event to the panel without waiting for an answer.
func (b *Bridge) Emit(ctx context.Context, event string, payload any) error {
	var encoded json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode event %s: %w", event, err)
		}
		encoded = data
	}
	if b.debug {
		b.logger.Debug("frame sent",
			logging.String(logging.FieldEventType, event),
			logging.Int("payload_bytes", len(encoded)))
	}
	return b.transport.Send(ctx, Frame{Event: event, Payload: encoded})
}

// Ping checks connection liveness.
func (b *Bridge) Ping(ctx context.Context) error {
	return b.transport.Ping(ctx)
}

// Close tears down the transport; the read pump exits afterwards.
func (b *Bridge) Close() error {
	return b.transport.Close()
}

// Stats returns a snapshot of the bridge counters.
func (b *Bridge) Stats() Stats {
	return Stats{
		Calls:      b.calls.Load(),
		Timeouts:   b.timeouts.Load(),
		HostErrors: b.hostErrors.Load(),
		Events:     b.events.Load(),
	}
}

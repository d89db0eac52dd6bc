package bridge

import (
	"context"
	"encoding/json"
)

// Frame is one named event on the wire.
type Frame struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Transport moves frames between the daemon and the host panel. Receive
// blocks until a frame arrives, the context is cancelled, or the connection
// drops. Implementations must support one concurrent reader and any number
// of concurrent writers.
type Transport interface {
	Send(ctx context.Context, frame Frame) error
	Receive(ctx context.Context) (Frame, error)
	Ping(ctx context.Context) error
	Close() error
}

// Request is the payload of outbound EventCall frames.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      string          `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is the payload of inbound EventResponse frames.
type Response struct {
	ID     string          `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *ResponseError  `json:"error,omitempty"`
}

// ResponseError carries a host-side failure inside a Response.
type ResponseError struct {
	Message string `json:"message"`
	Data    string `json:"data,omitempty"`
}

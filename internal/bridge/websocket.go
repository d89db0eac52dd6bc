package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/coder/websocket"
)

// DialOptions configures the websocket transport.
type DialOptions struct {
	// URL of the panel endpoint, e.g. "ws://127.0.0.1:8090/slate".
	URL string
	// Identifier is sent as the X-Slate-Client header so the panel can tell
	// daemon connections from browser debug sessions.
	Identifier string
	// HTTPClient overrides the client used for the opening handshake.
	HTTPClient *http.Client
}

type wsTransport struct {
	conn *websocket.Conn
}

// Dial connects to the host panel's websocket endpoint.
func Dial(ctx context.Context, opts DialOptions) (Transport, error) {
	header := http.Header{}
	if opts.Identifier != "" {
		header.Set("X-Slate-Client", opts.Identifier)
	}
	conn, _, err := websocket.Dial(ctx, opts.URL, &websocket.DialOptions{
		HTTPClient: opts.HTTPClient,
		HTTPHeader: header,
	})
	if err != nil {
		return nil, fmt.Errorf("dial host panel %s: %w", opts.URL, err)
	}
	// Host state payloads (full render queues, item trees) can be large.
	conn.SetReadLimit(16 << 20)
	return &wsTransport{conn: conn}, nil
}

func (t *wsTransport) Send(ctx context.Context, frame Frame) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("encode frame %s: %w", frame.Event, err)
	}
	if err := t.conn.Write(ctx, websocket.MessageText, data); err != nil {
		return fmt.Errorf("send frame %s: %w", frame.Event, err)
	}
	return nil
}

func (t *wsTransport) Receive(ctx context.Context) (Frame, error) {
	_, data, err := t.conn.Read(ctx)
	if err != nil {
		return Frame{}, fmt.Errorf("read frame: %w", err)
	}
	var frame Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		return Frame{}, fmt.Errorf("decode frame: %w", err)
	}
	return frame, nil
}

func (t *wsTransport) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return t.conn.Ping(ctx)
}

func (t *wsTransport) Close() error {
	return t.conn.Close(websocket.StatusNormalClosure, "")
}

package bridge

import (
	"context"
	"errors"
	"sync"
)

// ErrTransportClosed is returned by pair transport operations after Close.
var ErrTransportClosed = errors.New("bridge: transport closed")

// pairEnd is one side of an in-memory transport pair. It exists for tests
// and for exercising the bridge without a live host.
type pairEnd struct {
	send chan Frame
	recv chan Frame

	mu     sync.Mutex
	closed chan struct{}
}

// NewPair returns two connected in-memory transports. Frames sent on one end
// arrive at the other. Ping succeeds while both ends are open.
func NewPair() (Transport, Transport) {
	a := make(chan Frame, 16)
	b := make(chan Frame, 16)
	left := &pairEnd{send: a, recv: b, closed: make(chan struct{})}
	right := &pairEnd{send: b, recv: a, closed: left.closed}
	return left, right
}

func (p *pairEnd) Send(ctx context.Context, frame Frame) error {
	select {
	case <-p.closed:
		return ErrTransportClosed
	case <-ctx.Done():
		return ctx.Err()
	case p.send <- frame:
		return nil
	}
}

func (p *pairEnd) Receive(ctx context.Context) (Frame, error) {
	select {
	case <-p.closed:
		return Frame{}, ErrTransportClosed
	case <-ctx.Done():
		return Frame{}, ctx.Err()
	case frame := <-p.recv:
		return frame, nil
	}
}

func (p *pairEnd) Ping(ctx context.Context) error {
	select {
	case <-p.closed:
		return ErrTransportClosed
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

func (p *pairEnd) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	select {
	case <-p.closed:
	default:
		close(p.closed)
	}
	return nil
}

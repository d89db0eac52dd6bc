package bridge

import (
	"fmt"
	"time"
)

// TimeoutError reports that the host did not answer within the allowed
// duration. It is distinct from host-side failures so callers can tell "the
// host never answered" from "the host answered with an error".
type TimeoutError struct {
	Op    string
	Limit time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("bridge: %s timed out after %s", e.Op, e.Limit)
}

// Timeout implements the conventional net-style timeout probe.
func (e *TimeoutError) Timeout() bool { return true }

// HostError is an error reported by the host application itself.
type HostError struct {
	Method  string
	Message string
	Detail  string
}

func (e *HostError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("host: %s failed: %s (%s)", e.Method, e.Message, e.Detail)
	}
	return fmt.Sprintf("host: %s failed: %s", e.Method, e.Message)
}

// WithTimeout runs fn and bounds its duration. If fn has not returned within
// limit, WithTimeout returns a TimeoutError naming op; fn's eventual result
// is discarded. On the normal-return path the timer is always stopped, so a
// completed call can never report a timeout afterwards.
func WithTimeout(limit time.Duration, op string, fn func() error) error {
	if limit <= 0 {
		return fn()
	}

	done := make(chan error, 1)
	go func() {
		done <- fn()
	}()

	timer := time.NewTimer(limit)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return &TimeoutError{Op: op, Limit: limit}
	}
}

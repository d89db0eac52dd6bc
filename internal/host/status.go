package host

import (
	"fmt"
	"strings"
)

// Status is the lifecycle state of a render queue item as reported by the
// host.
type Status string

const (
	StatusQueued       Status = "queued"
	StatusUnqueued     Status = "unqueued"
	StatusNeedsOutput  Status = "needs_output"
	StatusWillContinue Status = "will_continue"
	StatusUserStopped  Status = "user_stopped"
	StatusErrStopped   Status = "err_stopped"
	StatusRendering    Status = "rendering"
	StatusPaused       Status = "paused"
	StatusDone         Status = "done"
)

var allStatuses = []Status{
	StatusQueued,
	StatusUnqueued,
	StatusNeedsOutput,
	StatusWillContinue,
	StatusUserStopped,
	StatusErrStopped,
	StatusRendering,
	StatusPaused,
	StatusDone,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// ParseStatus converts a wire value into a Status.
func ParseStatus(value string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := statusSet[status]; !ok {
		return "", fmt.Errorf("unknown render queue status %q", value)
	}
	return status, nil
}

// Terminal reports whether an item in this status can no longer have its
// enabled flag restored: it finished, failed, or is actively rendering.
func (s Status) Terminal() bool {
	switch s {
	case StatusDone, StatusErrStopped, StatusRendering:
		return true
	}
	return false
}

func (s Status) String() string { return string(s) }

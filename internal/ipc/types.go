package ipc

import "slate/internal/api"

// StartRequest triggers daemon startup.
type StartRequest struct{}

// StartResponse indicates whether the daemon was started.
type StartResponse struct {
	Started bool   `json:"started"`
	Message string `json:"message"`
}

// StopRequest stops the daemon.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse represents daemon runtime status including the host panel
// connection.
type StatusResponse struct {
	Running  bool             `json:"running"`
	PID      int              `json:"pid"`
	Document string           `json:"document,omitempty"`
	DBPath   string           `json:"db_path"`
	LockPath string           `json:"lock_path"`
	Bridge   api.BridgeStatus `json:"bridge"`
}

// QueueListRequest fetches the host's render queue.
type QueueListRequest struct{}

// QueueListResponse contains render queue entries.
type QueueListResponse struct {
	Items []api.QueueItem `json:"items"`
}

// CommandsRequest lists the panel's shelf commands.
type CommandsRequest struct{}

// CommandsResponse contains the registered shelf commands, favorites first.
type CommandsResponse struct {
	Commands []api.Command `json:"commands"`
}

// TriggerCommandRequest invokes a shelf command by uid.
type TriggerCommandRequest struct {
	UID int `json:"uid"`
}

// TriggerCommandResponse indicates invocation result.
type TriggerCommandResponse struct {
	Triggered bool   `json:"triggered"`
	Message   string `json:"message,omitempty"`
}

// DocumentPathRequest fetches the host's active document path.
type DocumentPathRequest struct{}

// DocumentPathResponse carries the active document path, empty when the
// document is unsaved or no panel is connected.
type DocumentPathResponse struct {
	Path string `json:"path,omitempty"`
}

// RenderRequest forces a render of one queue entry by index.
type RenderRequest struct {
	Index int `json:"index"`
}

// RenderResponse indicates render result.
type RenderResponse struct {
	Rendered bool   `json:"rendered"`
	Message  string `json:"message,omitempty"`
}

// PublishRequest runs the publish pipeline over the current session.
type PublishRequest struct{}

// PublishIssue is one validation finding reported by a publish plugin.
type PublishIssue struct {
	Plugin   string `json:"plugin"`
	Item     string `json:"item"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// PublishResponse summarizes a publish run.
type PublishResponse struct {
	Success   bool           `json:"success"`
	Published int            `json:"published"`
	Failed    int            `json:"failed"`
	Skipped   int            `json:"skipped"`
	Message   string         `json:"message,omitempty"`
	Issues    []PublishIssue `json:"issues,omitempty"`
}

// PublishHistoryRequest fetches recorded publish runs.
type PublishHistoryRequest struct {
	Limit int `json:"limit"`
}

// PublishHistoryResponse contains recorded publish runs.
type PublishHistoryResponse struct {
	Runs []api.PublishRun `json:"runs"`
}

// DatabaseHealthRequest fetches detailed context database diagnostics.
type DatabaseHealthRequest struct{}

// DatabaseHealthResponse carries context database diagnostics.
type DatabaseHealthResponse struct {
	DBPath           string `json:"db_path"`
	DatabaseExists   bool   `json:"database_exists"`
	DatabaseReadable bool   `json:"database_readable"`
	SchemaVersion    int    `json:"schema_version"`
	ContextCount     int    `json:"context_count"`
	PublishRunCount  int    `json:"publish_run_count"`
	Error            string `json:"error,omitempty"`
}

// TestNotificationRequest triggers a test notification.
type TestNotificationRequest struct{}

// TestNotificationResponse indicates whether the notification was sent.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}

// LogTailRequest fetches recent log events from the daemon's in-memory ring.
type LogTailRequest struct {
	Since uint64 `json:"since"`
	Limit int    `json:"limit"`
}

// LogTailResponse contains log events and the cursor for the next call.
type LogTailResponse struct {
	Events []api.LogEvent `json:"events"`
	Next   uint64         `json:"next"`
}

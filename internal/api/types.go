package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// QueueItem describes a host render queue entry in a transport-friendly
// format.
type QueueItem struct {
	Index         int      `json:"index"`
	CompName      string   `json:"compName"`
	Status        string   `json:"status"`
	Enabled       bool     `json:"enabled"`
	RenderPaths   []string `json:"renderPaths,omitempty"`
	OutputModules []string `json:"outputModules,omitempty"`
	FirstFrame    int      `json:"firstFrame"`
	FrameCount    int      `json:"frameCount"`
	FrameStride   int      `json:"frameStride"`
}

// BridgeStatus summarizes the connection to the host panel.
type BridgeStatus struct {
	Connected  bool   `json:"connected"`
	Calls      uint64 `json:"calls"`
	Timeouts   uint64 `json:"timeouts"`
	HostErrors uint64 `json:"hostErrors"`
	Events     uint64 `json:"events"`
	Heartbeats uint64 `json:"heartbeatFailures"`
}

// PublishRun describes one recorded publish run.
type PublishRun struct {
	ID             int64  `json:"id"`
	DocumentPath   string `json:"documentPath"`
	StartedAt      string `json:"startedAt,omitempty"`
	FinishedAt     string `json:"finishedAt,omitempty"`
	ItemsTotal     int    `json:"itemsTotal"`
	ItemsPublished int    `json:"itemsPublished"`
	ItemsFailed    int    `json:"itemsFailed"`
	Success        bool   `json:"success"`
	Message        string `json:"message,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool         `json:"running"`
	PID          int          `json:"pid"`
	Document     string       `json:"document,omitempty"`
	DBPath       string       `json:"dbPath"`
	LockFilePath string       `json:"lockFilePath"`
	Bridge       BridgeStatus `json:"bridge"`
}

// Command describes one registered shelf command.
type Command struct {
	UID         int    `json:"uid"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Group       string `json:"group,omitempty"`
}

// QueueListResponse wraps a collection of queue items for API responses.
type QueueListResponse struct {
	Items []QueueItem `json:"items"`
}

// HistoryResponse wraps recorded publish runs.
type HistoryResponse struct {
	Runs []PublishRun `json:"runs"`
}

// LogEvent is one structured log record for live tailing.
type LogEvent struct {
	Seq       uint64 `json:"seq"`
	Time      string `json:"time"`
	Level     string `json:"level"`
	Component string `json:"component,omitempty"`
	Message   string `json:"message"`
}

// LogStreamResponse returns log events and the next cursor.
type LogStreamResponse struct {
	Events []LogEvent `json:"events"`
	Next   uint64     `json:"next"`
}

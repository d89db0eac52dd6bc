package bridge

// Frame event names. Calls and responses share the channel with named
// events, so every frame carries one of these.
const (
	// EventCall / EventResponse carry the request/response payloads.
	EventCall     = "call"
	EventResponse = "response"

	// Events received from the panel.
	EventLogging               = "logging"
	EventCommand               = "command"
	EventRunTests              = "run_tests"
	EventStateRequested        = "state_requested"
	EventActiveDocumentChanged = "active_document_changed"

	// Events emitted to the panel.
	EventLogMessage           = "log_message"
	EventSetCommands          = "set_commands"
	EventSetContextDisplay    = "set_context_display"
	EventSetContextThumbnail  = "set_context_thumbnail"
	EventSetLogFilePath       = "set_log_file_path"
	EventSetUnknownContext    = "set_unknown_context"
	EventContextAboutToChange = "context_about_to_change"
)

// LogMessage is the payload of logging relay events in both directions.
type LogMessage struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// CommandInvocation is sent by the panel when the user triggers a command.
type CommandInvocation struct {
	UID int `json:"uid"`
}

// DocumentChange is sent by the panel when the host's active document
// changes. Path is empty for a document that has never been saved.
type DocumentChange struct {
	Path string `json:"path"`
}

// Handlers receives named panel events. Nil fields are skipped. Handlers run
// on the read pump goroutine, so they must not call back into the bridge
// synchronously with a blocking Call.
type Handlers struct {
	Logging               func(LogMessage)
	Command               func(CommandInvocation)
	RunTests              func()
	StateRequested        func()
	ActiveDocumentChanged func(DocumentChange)
}

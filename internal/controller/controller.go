// Package controller runs the panel-facing session: it registers shelf
// commands, relays logs both ways, tracks the active document, and keeps the
// panel's context display current.
package controller

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"slate/internal/bridge"
	"slate/internal/config"
	"slate/internal/host"
	"slate/internal/logging"
	"slate/internal/platform"
)

// Conn is the slice of the bridge the controller drives. *bridge.Bridge
// satisfies this.
type Conn interface {
	Call(ctx context.Context, method string, params any, out any) error
	Emit(ctx context.Context, event string, payload any) error
	Ping(ctx context.Context) error
}

// ContextSource resolves documents to tracking contexts. *SessionManager
// satisfies this.
type ContextSource interface {
	ContextFor(ctx context.Context, documentPath string) (*platform.Context, error)
	Thumbnail(ctx context.Context, resolved platform.Context) (string, error)
}

// panelEvent is one queued event from the panel, tagged by kind.
type panelEvent struct {
	kind string
	log  bridge.LogMessage
	cmd  bridge.CommandInvocation
	doc  bridge.DocumentChange
}

// Controller owns the panel session state.
type Controller struct {
	conn        Conn
	cfg         *config.Config
	registry    *Registry
	session     ContextSource
	hostClient  *host.Client
	logger      *slog.Logger
	panelLogger *slog.Logger
	logFilePath string

	events chan panelEvent

	mu       sync.Mutex
	document string
}

// New builds a Controller. session may be nil for installs without a
// tracking site, logger may be nil.
func New(conn Conn, cfg *config.Config, session ContextSource, logFilePath string, logger *slog.Logger) *Controller {
	return &Controller{
		conn:        conn,
		cfg:         cfg,
		registry:    NewRegistry(),
		session:     session,
		hostClient:  host.NewClient(conn, logger),
		logger:      logging.NewComponentLogger(logger, "controller"),
		panelLogger: logging.NewComponentLogger(logger, "panel"),
		logFilePath: logFilePath,
		events:      make(chan panelEvent, 64),
	}
}

// Registry returns the command registry for callers to register shelf
// commands on.
func (c *Controller) Registry() *Registry { return c.registry }

// Host returns the typed host client sharing the controller's connection.
func (c *Controller) Host() *host.Client { return c.hostClient }

// Document returns the last known active document path.
func (c *Controller) Document() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.document
}

func (c *Controller) setDocument(path string) (changed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.document == path {
		return false
	}
	c.document = path
	return true
}

// Handlers returns the bridge handlers feeding this controller. The handler
// funcs only enqueue, so they are safe to run on the bridge's read pump.
func (c *Controller) Handlers() bridge.Handlers {
	return bridge.Handlers{
		Logging: func(msg bridge.LogMessage) {
			c.push(panelEvent{kind: bridge.EventLogging, log: msg})
		},
		Command: func(cmd bridge.CommandInvocation) {
			c.push(panelEvent{kind: bridge.EventCommand, cmd: cmd})
		},
		RunTests: func() {
			c.push(panelEvent{kind: bridge.EventRunTests})
		},
		StateRequested: func() {
			c.push(panelEvent{kind: bridge.EventStateRequested})
		},
		ActiveDocumentChanged: func(doc bridge.DocumentChange) {
			c.push(panelEvent{kind: bridge.EventActiveDocumentChanged, doc: doc})
		},
	}
}

func (c *Controller) push(ev panelEvent) {
	select {
	case c.events <- ev:
	default:
		c.logger.Warn("panel event dropped, queue full",
			logging.String(logging.FieldEventType, ev.kind))
	}
}

// Run consumes panel events until ctx is cancelled. Events run one at a
// time; a slow command delays the next event rather than racing it.
func (c *Controller) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-c.events:
			c.handle(ctx, ev)
		}
	}
}

func (c *Controller) handle(ctx context.Context, ev panelEvent) {
	switch ev.kind {
	case bridge.EventLogging:
		c.relayPanelLog(ev.log)
	case bridge.EventCommand:
		if err := c.registry.Invoke(ctx, ev.cmd.UID); err != nil {
			c.logger.Error("command failed", logging.Error(err))
		}
	case bridge.EventRunTests:
		c.runDiagnostics(ctx)
	case bridge.EventStateRequested:
		c.SendState(ctx)
	case bridge.EventActiveDocumentChanged:
		c.handleDocumentChange(ctx, ev.doc)
	}
}

func (c *Controller) relayPanelLog(msg bridge.LogMessage) {
	level := slog.LevelInfo
	switch msg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warning", "warn":
		level = slog.LevelWarn
	case "error", "critical":
		level = slog.LevelError
	}
	c.panelLogger.Log(context.Background(), level, msg.Message)
}

// SendState pushes the full panel state: the command shelf, the log file
// path, and the context display for the current document.
func (c *Controller) SendState(ctx context.Context) {
	c.sendCommands(ctx)
	if c.logFilePath != "" {
		c.emit(ctx, bridge.EventSetLogFilePath, struct {
			Path string `json:"path"`
		}{Path: c.logFilePath})
	}

	path, err := c.hostClient.ProjectPath(ctx)
	if err != nil {
		c.logger.Warn("cannot read project path", logging.Error(err))
		return
	}
	c.setDocument(path)
	c.refreshContext(ctx, path)
}

func (c *Controller) sendCommands(ctx context.Context) {
	commands := c.registry.List(c.cfg.Publish.ShelfFavorites)
	c.emit(ctx, bridge.EventSetCommands, struct {
		Commands []Command `json:"commands"`
	}{Commands: commands})
}

// handleDocumentChange reacts to the host switching documents. With
// automatic context switching off, the change is only recorded; the panel
// keeps showing the previous context until the user refreshes.
func (c *Controller) handleDocumentChange(ctx context.Context, doc bridge.DocumentChange) {
	if !c.setDocument(doc.Path) {
		return
	}
	c.logger.Info("active document changed",
		logging.String(logging.FieldDocument, doc.Path))
	if !c.cfg.Session.AutomaticContextSwitch {
		return
	}
	c.emit(ctx, bridge.EventContextAboutToChange, struct{}{})
	c.refreshContext(ctx, doc.Path)
	c.sendCommands(ctx)
}

// refreshContext resolves the document's context and updates the panel
// header. Unknown documents show the unknown-context state.
func (c *Controller) refreshContext(ctx context.Context, documentPath string) {
	if c.session == nil || documentPath == "" {
		c.emit(ctx, bridge.EventSetUnknownContext, struct{}{})
		return
	}

	resolved, err := c.session.ContextFor(ctx, documentPath)
	if err != nil {
		c.logger.Error("context resolution failed",
			logging.String(logging.FieldDocument, documentPath),
			logging.Error(err))
		c.emit(ctx, bridge.EventSetUnknownContext, struct{}{})
		return
	}
	if resolved == nil {
		c.emit(ctx, bridge.EventSetUnknownContext, struct{}{})
		return
	}

	c.emit(ctx, bridge.EventSetContextDisplay, struct {
		Display string `json:"display"`
		WebURL  string `json:"web_url,omitempty"`
	}{Display: resolved.Display, WebURL: resolved.WebURL})

	thumb, err := c.session.Thumbnail(ctx, *resolved)
	if err != nil {
		c.logger.Warn("thumbnail fetch failed", logging.Error(err))
		return
	}
	if thumb != "" {
		c.emit(ctx, bridge.EventSetContextThumbnail, struct {
			Path string `json:"path"`
		}{Path: thumb})
	}
}

// runDiagnostics answers the panel's self-test request with a connection
// round trip.
func (c *Controller) runDiagnostics(ctx context.Context) {
	started := time.Now()
	if err := c.conn.Ping(ctx); err != nil {
		c.logger.Error("diagnostics: ping failed", logging.Error(err))
		return
	}
	c.logger.Info("diagnostics passed",
		logging.Duration("round_trip", time.Since(started)))
}

func (c *Controller) emit(ctx context.Context, event string, payload any) {
	if err := c.conn.Emit(ctx, event, payload); err != nil {
		c.logger.Warn("emit failed",
			logging.String(logging.FieldEventType, event),
			logging.Error(err))
	}
}

// panelSink forwards rendered log lines to the panel console.
type panelSink struct {
	conn Conn
}

// NewPanelSink returns a logging.Sink that mirrors log lines to the panel
// over the connection.
func NewPanelSink(conn Conn) logging.Sink {
	return &panelSink{conn: conn}
}

// HandleLog delivers one rendered record. Failures are dropped; the sink
// contract forbids logging from here.
func (s *panelSink) HandleLog(level, message string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = s.conn.Emit(ctx, bridge.EventLogMessage, bridge.LogMessage{Level: level, Message: message})
}

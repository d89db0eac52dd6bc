package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"

	"slate/internal/api"
	"slate/internal/daemon"
	"slate/internal/logging"
	"slate/internal/publish"
)

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	daemon    *daemon.Daemon
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, logger: logger, ctx: ctx}
	if err := rpcServer.RegisterName("Slate", srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		daemon:    d,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("ipc server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				s.logger.Warn("accept failed", logging.Error(err))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err))
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) log() *slog.Logger {
	if s.logger == nil {
		return logging.NewNop()
	}
	return s.logger.With(logging.String("component", "ipc"))
}

func (s *service) Start(_ StartRequest, resp *StartResponse) error {
	s.log().Debug("daemon start requested")
	if err := s.daemon.Start(s.ctx); err != nil {
		resp.Started = false
		resp.Message = err.Error()
		return nil
	}
	resp.Started = true
	resp.Message = "daemon started"
	return nil
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.log().Debug("daemon stop requested")
	s.daemon.Stop()
	resp.Stopped = true
	return nil
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status(s.ctx)
	resp.Running = status.Running
	resp.PID = status.PID
	resp.Document = status.Document
	resp.DBPath = status.DBPath
	resp.LockPath = status.LockFilePath
	resp.Bridge = status.Bridge
	return nil
}

func (s *service) QueueList(_ QueueListRequest, resp *QueueListResponse) error {
	items, err := s.daemon.QueueList(s.ctx)
	if err != nil {
		return err
	}
	resp.Items = api.FromQueueItems(items)
	return nil
}

func (s *service) Commands(_ CommandsRequest, resp *CommandsResponse) error {
	commands, err := s.daemon.Commands()
	if err != nil {
		return err
	}
	resp.Commands = commands
	return nil
}

func (s *service) TriggerCommand(req TriggerCommandRequest, resp *TriggerCommandResponse) error {
	if err := s.daemon.TriggerCommand(s.ctx, req.UID); err != nil {
		resp.Triggered = false
		resp.Message = err.Error()
		return nil
	}
	resp.Triggered = true
	return nil
}

func (s *service) DocumentPath(_ DocumentPathRequest, resp *DocumentPathResponse) error {
	resp.Path = s.daemon.Document()
	return nil
}

func (s *service) Render(req RenderRequest, resp *RenderResponse) error {
	if err := s.daemon.RenderItem(s.ctx, req.Index); err != nil {
		resp.Rendered = false
		resp.Message = err.Error()
		return nil
	}
	resp.Rendered = true
	return nil
}

func (s *service) Publish(_ PublishRequest, resp *PublishResponse) error {
	result, err := s.daemon.Publish(s.ctx)
	resp.Published = result.Published
	resp.Failed = result.Failed
	resp.Skipped = result.Skipped
	for _, issue := range result.Issues {
		resp.Issues = append(resp.Issues, PublishIssue{
			Plugin:   issue.Plugin,
			Item:     issue.Item,
			Severity: string(issue.Severity),
			Message:  issue.Message,
		})
	}
	switch {
	case err == nil:
		resp.Success = true
	case errors.Is(err, publish.ErrValidationFailed):
		resp.Message = "validation failed"
	default:
		resp.Message = err.Error()
	}
	return nil
}

func (s *service) PublishHistory(req PublishHistoryRequest, resp *PublishHistoryResponse) error {
	limit := req.Limit
	if limit <= 0 {
		limit = 20
	}
	runs, err := s.daemon.PublishHistory(s.ctx, limit)
	if err != nil {
		return err
	}
	resp.Runs = api.FromPublishRuns(runs)
	return nil
}

func (s *service) DatabaseHealth(_ DatabaseHealthRequest, resp *DatabaseHealthResponse) error {
	health, err := s.daemon.DatabaseHealth(s.ctx)
	resp.DBPath = health.DBPath
	resp.DatabaseExists = health.DatabaseExists
	resp.DatabaseReadable = health.DatabaseReadable
	resp.SchemaVersion = health.SchemaVersion
	resp.ContextCount = health.ContextCount
	resp.PublishRunCount = health.PublishRunCount
	resp.Error = health.Error
	if err != nil && resp.Error == "" {
		resp.Error = err.Error()
	}
	return nil
}

func (s *service) TestNotification(_ TestNotificationRequest, resp *TestNotificationResponse) error {
	sent, message, err := s.daemon.TestNotification(s.ctx)
	resp.Sent = sent
	resp.Message = message
	if err != nil {
		resp.Message = fmt.Sprintf("%s: %v", message, err)
	}
	return nil
}

func (s *service) LogTail(req LogTailRequest, resp *LogTailResponse) error {
	ring := s.daemon.Ring()
	if ring == nil {
		return nil
	}
	limit := req.Limit
	if limit <= 0 {
		limit = 200
	}
	resp.Events, resp.Next = ring.Since(req.Since, limit)
	return nil
}

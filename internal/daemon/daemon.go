package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"slate/internal/api"
	"slate/internal/bridge"
	"slate/internal/config"
	"slate/internal/contextstore"
	"slate/internal/controller"
	"slate/internal/host"
	"slate/internal/logging"
	"slate/internal/notifications"
	"slate/internal/platform"
	"slate/internal/publish"
	"slate/internal/render"
)

// ErrNotConnected is returned by operations that need a live host panel
// connection while the daemon is between connections.
var ErrNotConnected = errors.New("host panel not connected")

// Daemon owns the host panel connection, the publish machinery, and the HTTP
// API, and enforces single-instance execution through a lock file.
type Daemon struct {
	cfg      *config.Config
	store    *contextstore.Store
	service  platform.Service
	notifier notifications.Service
	session  *controller.SessionManager
	logger   *slog.Logger
	logPath  string
	ring     *LogRing

	lockPath string
	lock     *flock.Flock

	metrics *metrics
	api     *apiServer

	mu  sync.Mutex
	br  *bridge.Bridge
	ctl *controller.Controller
	hb  *bridge.Heartbeat

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New constructs a daemon with initialized dependencies. ring and logPath may
// be zero when log tailing is not wired up.
func New(cfg *config.Config, store *contextstore.Store, service platform.Service, logger *slog.Logger, ring *LogRing, logPath string) (*Daemon, error) {
	if cfg == nil || store == nil || service == nil || logger == nil {
		return nil, errors.New("daemon requires config, store, platform service, and logger")
	}

	lockPath := filepath.Join(cfg.Paths.DataDir, "slated.lock")
	d := &Daemon{
		cfg:      cfg,
		store:    store,
		service:  service,
		notifier: notifications.NewService(cfg.Notifications),
		session:  controller.NewSessionManager(cfg.Session, service, store, cfg.Paths.ThumbDir, logger),
		logger:   logger,
		logPath:  logPath,
		ring:     ring,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	d.metrics = newMetrics(d)

	srv, err := newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, err
	}
	d.api = srv
	return d, nil
}

// Start acquires the daemon lock and launches the connection loop and the
// HTTP API. It returns once both are running; the panel connection itself is
// established (and re-established) in the background.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another slate daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	if err := d.api.start(runCtx); err != nil {
		cancel()
		d.cancel = nil
		_ = d.lock.Unlock()
		return err
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.connectLoop(runCtx)
	}()

	d.running.Store(true)
	d.logger.Info("slate daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop tears down the panel connection and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.wg.Wait()
	d.api.stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("slate daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Connected reports whether a host panel connection is currently up.
func (d *Daemon) Connected() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ctl != nil
}

// Document returns the project path last reported by the panel, if any.
func (d *Daemon) Document() string {
	d.mu.Lock()
	ctl := d.ctl
	d.mu.Unlock()
	if ctl == nil {
		return ""
	}
	return ctl.Document()
}

// LogPath returns the daemon log file location.
func (d *Daemon) LogPath() string { return d.logPath }

// Ring exposes the in-memory log buffer backing the /api/logs endpoint.
func (d *Daemon) Ring() *LogRing { return d.ring }

func (d *Daemon) bridgeStats() bridge.Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.br == nil {
		return bridge.Stats{}
	}
	return d.br.Stats()
}

func (d *Daemon) heartbeatFailures() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.hb == nil {
		return 0
	}
	return d.hb.Failures()
}

func (d *Daemon) controller() (*controller.Controller, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ctl == nil {
		return nil, ErrNotConnected
	}
	return d.ctl, nil
}

// Commands returns the shelf commands registered for the connected panel,
// favorites first.
func (d *Daemon) Commands() ([]api.Command, error) {
	ctl, err := d.controller()
	if err != nil {
		return nil, err
	}
	list := ctl.Registry().List(d.cfg.Publish.ShelfFavorites)
	out := make([]api.Command, 0, len(list))
	for _, cmd := range list {
		out = append(out, api.Command{
			UID:         cmd.UID,
			Name:        cmd.Name,
			DisplayName: cmd.DisplayName,
			Group:       cmd.Group,
		})
	}
	return out, nil
}

// TriggerCommand invokes a registered shelf command by uid.
func (d *Daemon) TriggerCommand(ctx context.Context, uid int) error {
	ctl, err := d.controller()
	if err != nil {
		return err
	}
	return ctl.Registry().Invoke(ctx, uid)
}

// Status aggregates daemon runtime information.
func (d *Daemon) Status(ctx context.Context) api.DaemonStatus {
	stats := d.bridgeStats()
	return api.DaemonStatus{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		Document:     d.Document(),
		DBPath:       filepath.Join(d.cfg.Paths.DataDir, "slate.db"),
		LockFilePath: d.lockPath,
		Bridge: api.BridgeStatus{
			Connected:  d.Connected(),
			Calls:      stats.Calls,
			Timeouts:   stats.Timeouts,
			HostErrors: stats.HostErrors,
			Events:     stats.Events,
			Heartbeats: d.heartbeatFailures(),
		},
	}
}

// QueueList returns the host's render queue.
func (d *Daemon) QueueList(ctx context.Context) ([]host.QueueItem, error) {
	ctl, err := d.controller()
	if err != nil {
		return nil, err
	}
	return ctl.Host().RenderQueueItems(ctx)
}

// RenderItem forces a render of a single queue entry, restoring the enabled
// flags of its siblings afterwards.
func (d *Daemon) RenderItem(ctx context.Context, index int) error {
	ctl, err := d.controller()
	if err != nil {
		return err
	}

	compName := fmt.Sprintf("item %d", index)
	if items, listErr := ctl.Host().RenderQueueItems(ctx); listErr == nil {
		for _, item := range items {
			if item.Index == index {
				compName = item.CompName
				break
			}
		}
	}

	if nerr := d.notifier.NotifyRenderStarted(ctx, compName); nerr != nil {
		d.logger.Warn("render-start notification failed", logging.Error(nerr))
	}

	started := time.Now()
	renderer := render.New(ctl.Host(), d.logger)
	if err := renderer.ForceItem(ctx, index); err != nil {
		d.metrics.renderRuns.WithLabelValues("failure").Inc()
		if nerr := d.notifier.NotifyError(ctx, err, "render "+compName); nerr != nil {
			d.logger.Warn("render-error notification failed", logging.Error(nerr))
		}
		return err
	}
	d.metrics.renderRuns.WithLabelValues("success").Inc()
	if nerr := d.notifier.NotifyRenderCompleted(ctx, compName, time.Since(started)); nerr != nil {
		d.logger.Warn("render-complete notification failed", logging.Error(nerr))
	}
	return nil
}

// Publish runs the full publish pipeline over the current session.
func (d *Daemon) Publish(ctx context.Context) (publish.Result, error) {
	ctl, err := d.controller()
	if err != nil {
		return publish.Result{}, err
	}

	documentName := filepath.Base(ctl.Document())
	if documentName == "." || documentName == string(filepath.Separator) {
		documentName = "Untitled Project"
	}
	itemCount := 0
	if items, listErr := ctl.Host().RenderQueueItems(ctx); listErr == nil {
		itemCount = len(items)
	}
	if nerr := d.notifier.NotifyPublishStarted(ctx, documentName, itemCount); nerr != nil {
		d.logger.Warn("publish-start notification failed", logging.Error(nerr))
	}

	started := time.Now()
	result, err := d.newRunner(ctl).Run(ctx)
	switch {
	case err == nil:
		d.metrics.publishRuns.WithLabelValues("success").Inc()
	case errors.Is(err, publish.ErrValidationFailed):
		d.metrics.publishRuns.WithLabelValues("validation_failed").Inc()
	default:
		d.metrics.publishRuns.WithLabelValues("error").Inc()
	}

	if err != nil {
		if nerr := d.notifier.NotifyError(ctx, err, "publish "+documentName); nerr != nil {
			d.logger.Warn("publish-error notification failed", logging.Error(nerr))
		}
		return result, err
	}
	if nerr := d.notifier.NotifyPublishCompleted(ctx, documentName, result.Published, result.Failed, time.Since(started)); nerr != nil {
		d.logger.Warn("publish-complete notification failed", logging.Error(nerr))
	}
	return result, nil
}

func (d *Daemon) newRunner(ctl *controller.Controller) *publish.Runner {
	hostClient := ctl.Host()
	renderer := render.New(hostClient, d.logger)
	plugins := []publish.Plugin{
		publish.NewRenderPlugin(renderer, hostClient, d.cfg.Publish, d.logger),
		publish.NewCopyPlugin(d.cfg.Publish, d.logger),
		publish.NewUploadPlugin(d.service, d.logger),
		publish.NewRegisterPlugin(d.service, d.logger),
	}
	collector := publish.NewCollector(hostClient, d.session, d.logger)
	return publish.NewRunner(collector, plugins, d.store, d.logger)
}

// PublishHistory returns the most recent recorded publish runs.
func (d *Daemon) PublishHistory(ctx context.Context, limit int) ([]contextstore.PublishRun, error) {
	return d.store.ListPublishRuns(ctx, limit)
}

// DatabaseHealth returns detailed database diagnostics.
func (d *Daemon) DatabaseHealth(ctx context.Context) (contextstore.DatabaseHealth, error) {
	return d.store.CheckHealth(ctx)
}

// TestNotification triggers a test notification using the current
// configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	if err := d.notifier.TestNotification(ctx); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

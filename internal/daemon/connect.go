package daemon

import (
	"context"
	"fmt"
	"time"

	"slate/internal/bridge"
	"slate/internal/controller"
	"slate/internal/host"
	"slate/internal/logging"
)

const (
	reconnectBaseDelay = time.Second
	reconnectMaxDelay  = 30 * time.Second
)

func (d *Daemon) panelURL() string {
	return fmt.Sprintf("ws://127.0.0.1:%d/%s", d.cfg.Bridge.Port, d.cfg.Bridge.Identifier)
}

// connectLoop dials the host panel and keeps the connection alive, redialing
// with capped backoff whenever the panel goes away.
func (d *Daemon) connectLoop(ctx context.Context) {
	delay := reconnectBaseDelay
	for {
		if ctx.Err() != nil {
			return
		}

		transport, err := bridge.Dial(ctx, bridge.DialOptions{
			URL:        d.panelURL(),
			Identifier: d.cfg.Bridge.Identifier,
		})
		if err != nil {
			d.logger.Debug("host panel unavailable",
				logging.String("url", d.panelURL()),
				logging.Duration("retry_in", delay),
				logging.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
			delay *= 2
			if delay > reconnectMaxDelay {
				delay = reconnectMaxDelay
			}
			continue
		}

		delay = reconnectBaseDelay
		d.metrics.reconnects.Inc()
		d.serveConnection(ctx, transport)
	}
}

// serveConnection runs one panel connection to completion: the bridge read
// pump, the heartbeat, and the controller event loop.
func (d *Daemon) serveConnection(ctx context.Context, transport bridge.Transport) {
	// The controller needs the bridge for outbound calls and the bridge
	// needs the controller's handlers for inbound events. Handlers are
	// looked up through this pointer, which is assigned before Run starts
	// the read pump.
	var ctl *controller.Controller
	handlers := bridge.Handlers{
		Logging: func(m bridge.LogMessage) {
			if ctl != nil {
				ctl.Handlers().Logging(m)
			}
		},
		Command: func(inv bridge.CommandInvocation) {
			d.metrics.panelCommands.Inc()
			if ctl != nil {
				ctl.Handlers().Command(inv)
			}
		},
		RunTests: func() {
			if ctl != nil {
				ctl.Handlers().RunTests()
			}
		},
		StateRequested: func() {
			if ctl != nil {
				ctl.Handlers().StateRequested()
			}
		},
		ActiveDocumentChanged: func(change bridge.DocumentChange) {
			if ctl != nil {
				ctl.Handlers().ActiveDocumentChanged(change)
			}
		},
	}

	br := bridge.New(transport, bridge.Options{
		ResponseTimeout: time.Duration(d.cfg.Bridge.ResponseTimeoutSeconds) * time.Second,
		NetworkDebug:    d.cfg.Bridge.NetworkDebug,
		Logger:          d.logger,
		Handlers:        handlers,
	})
	ctl = controller.New(br, d.cfg, d.session, d.logPath, d.logger)
	d.registerCommands(ctl)

	hb := bridge.NewHeartbeat(br, bridge.HeartbeatOptions{
		Interval:  time.Duration(d.cfg.Bridge.HeartbeatIntervalMS) * time.Millisecond,
		Timeout:   time.Duration(d.cfg.Bridge.HeartbeatTimeoutMS) * time.Millisecond,
		Tolerance: d.cfg.Bridge.HeartbeatTolerance,
		Logger:    d.logger,
	})

	d.mu.Lock()
	d.br, d.ctl, d.hb = br, ctl, hb
	d.mu.Unlock()
	d.logger.Info("host panel connected", logging.String("url", d.panelURL()))

	connCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 3)
	go func() { done <- br.Run(connCtx) }()
	go func() { done <- hb.Run(connCtx) }()
	go func() { done <- ctl.Run(connCtx) }()

	ctl.SendState(connCtx)

	err := <-done
	cancel()
	_ = transport.Close()
	// Drain the remaining goroutines so nothing writes after teardown.
	<-done
	<-done

	d.mu.Lock()
	d.br, d.ctl, d.hb = nil, nil, nil
	d.mu.Unlock()

	if err != nil && ctx.Err() == nil {
		d.logger.Warn("host panel connection lost", logging.Error(err))
	} else {
		d.logger.Info("host panel connection closed")
	}
}

// registerCommands populates the panel shelf. Command callbacks run on the
// controller's event loop, serialized with other panel events.
func (d *Daemon) registerCommands(ctl *controller.Controller) {
	ctl.Registry().Register("publish", "Publish...", "shelf", func(ctx context.Context) error {
		_, err := d.Publish(ctx)
		return err
	})
	ctl.Registry().Register("render_queued", "Render Queued Items", "shelf", func(ctx context.Context) error {
		items, err := ctl.Host().RenderQueueItems(ctx)
		if err != nil {
			return err
		}
		for _, item := range items {
			if item.Status != host.StatusQueued {
				continue
			}
			if err := d.RenderItem(ctx, item.Index); err != nil {
				return err
			}
		}
		return nil
	})
	ctl.Registry().Register("refresh", "Refresh Context", "shelf", func(ctx context.Context) error {
		ctl.SendState(ctx)
		return nil
	})
}

package main

import (
	"context"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"slate/internal/config"
	"slate/internal/daemon"
	"slate/internal/logging"
	"slate/internal/platform"
	"slate/internal/preflight"
)

// logRingCapacity bounds the in-memory log buffer served over the HTTP API.
const logRingCapacity = 2048

// buildLogger constructs the daemon logger, fanning every record out to the
// log ring so the API and CLI can stream recent entries.
func buildLogger(cfg *config.Config, ring *daemon.LogRing) (*slog.Logger, string, error) {
	base, err := logging.NewFromConfig(cfg)
	if err != nil {
		return nil, "", err
	}
	logPath := ""
	if cfg != nil && cfg.Paths.LogDir != "" {
		logPath = filepath.Join(cfg.Paths.LogDir, "slate.log")
	}
	handler := logging.Fanout(base.Handler(), daemon.NewRingHandler(ring, slog.LevelDebug))
	return slog.New(handler), logPath, nil
}

// buildPlatformService returns the tracking platform client, or a noop
// service when no platform credentials are configured.
func buildPlatformService(cfg *config.Config, logger *slog.Logger) platform.Service {
	if cfg == nil || strings.TrimSpace(cfg.Platform.BaseURL) == "" {
		logger.Info("tracking platform not configured; publishes will stay local")
		return platform.NewNoop()
	}
	timeout := time.Duration(cfg.Platform.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client := &http.Client{Timeout: timeout}
	return platform.NewHTTPService(cfg.Platform, client)
}

// runPreflight logs startup check results without blocking launch; failed
// checks surface again through `slate status`.
func runPreflight(ctx context.Context, cfg *config.Config, logger *slog.Logger) {
	for _, result := range preflight.RunAll(ctx, cfg) {
		if result.Passed {
			logger.Debug("preflight check passed", logging.String("check", result.Name))
			continue
		}
		logger.Warn("preflight check failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail))
	}
}

func buildSocketPath(cfg *config.Config) string {
	if cfg == nil {
		return "slate.sock"
	}
	return filepath.Join(cfg.Paths.LogDir, "slate.sock")
}

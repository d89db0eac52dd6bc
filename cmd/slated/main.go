package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"slate/internal/config"
	"slate/internal/contextstore"
	"slate/internal/daemon"
	"slate/internal/ipc"
	"slate/internal/logging"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	configPath := flag.String("config", "", "Path to configuration file")
	socketPath := flag.String("socket", "", "Path to control socket")
	flag.Parse()

	cfg, _, _, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("ensure directories: %v", err)
	}

	ring := daemon.NewLogRing(logRingCapacity)
	logger, logPath, err := buildLogger(cfg, ring)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays, logging.RetentionTarget{
		Dir:     cfg.Paths.LogDir,
		Pattern: "*.log",
		Exclude: []string{"slate.log"},
	})

	store, err := contextstore.Open(cfg)
	if err != nil {
		logger.Error("open context store", logging.Error(err))
		os.Exit(1)
	}

	service := buildPlatformService(cfg, logger)
	runPreflight(ctx, cfg, logger)

	d, err := daemon.New(cfg, store, service, logger, ring, logPath)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		store.Close()
		os.Exit(1)
	}
	defer d.Close()

	socket := *socketPath
	if socket == "" {
		socket = buildSocketPath(cfg)
	}
	ipcServer, err := ipc.NewServer(ctx, socket, d, logger)
	if err != nil {
		logger.Error("start control socket", logging.Error(err))
		os.Exit(1)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(ctx); err != nil {
		logger.Warn("daemon start", logging.Error(err))
	}

	<-ctx.Done()
	logger.Info("slated shutting down")
}

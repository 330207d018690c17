// yolobridge - Entry Point
//
// yolobridge wraps a local YOLO CLI install behind an HTTP API. It runs
// as a systemd service (Type=notify) on training boxes, responsible for:
//   - Translating JSON task requests into CLI invocations
//   - Running the tool under a hard timeout with process group cleanup
//   - Scraping metrics from tool output and collecting result files
//   - Persisting every run to a local history database
//   - Broadcasting run lifecycle events over WebSocket
//   - Firing configured schedules through the same pipeline
//
// Configuration is loaded from /etc/yolobridge/config.yaml (or the path
// given with -config). A missing config file is fine: everything has a
// default, so `yolobridge` next to a working `yolo` just runs.
//
// Lifecycle:
//  1. Load configuration from YAML file
//  2. Setup structured logger
//  3. Open the run history database
//  4. Wire the orchestrator (translator, executor, collectors)
//  5. Start the scheduler and HTTP server
//  6. Notify systemd that the service is ready
//  7. Start watchdog goroutine if systemd provides WatchdogSec
//  8. Wait for shutdown signal (SIGTERM/SIGINT)
//  9. Notify systemd that the service is stopping
//  10. Coordinated shutdown with timeout
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/visionops/yolobridge/internal/args"
	"github.com/visionops/yolobridge/internal/config"
	"github.com/visionops/yolobridge/internal/device"
	"github.com/visionops/yolobridge/internal/events"
	"github.com/visionops/yolobridge/internal/executor"
	"github.com/visionops/yolobridge/internal/history"
	"github.com/visionops/yolobridge/internal/logging"
	"github.com/visionops/yolobridge/internal/notify"
	"github.com/visionops/yolobridge/internal/outputs"
	"github.com/visionops/yolobridge/internal/runner"
	"github.com/visionops/yolobridge/internal/scheduler"
	"github.com/visionops/yolobridge/internal/server"
	"github.com/visionops/yolobridge/internal/shutdown"
	"github.com/visionops/yolobridge/internal/stats"
	"github.com/visionops/yolobridge/internal/systemd"
	"github.com/visionops/yolobridge/internal/version"
)

// Default shutdown timeout - how long to wait for graceful shutdown.
// Generous because an in-flight training run's response still has to
// be written out.
const shutdownTimeout = 30 * time.Second

func main() {
	configPath := flag.String("config", config.DefaultConfigPath, "path to configuration file")
	showVersion := flag.Bool("version", false, "print version information and exit")
	writeConfig := flag.Bool("write-config", false, "write the effective configuration to the config path and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Info())
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		// Use basic stderr logging before logger is configured
		fmt.Fprintf(os.Stderr, "ERROR: failed to load configuration from %s: %v\n", *configPath, err)
		os.Exit(1)
	}

	if *writeConfig {
		if err := config.Save(*configPath, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: failed to write configuration: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("configuration written to %s\n", *configPath)
		os.Exit(0)
	}

	logger := logging.SetupLogger(cfg.LogLevel, cfg.LogFormat)

	logger.Info("yolobridge starting",
		slog.String("version", version.Version),
		slog.String("commit", version.Commit),
		slog.String("build_time", version.BuildTime),
		slog.String("config_path", *configPath),
		slog.String("listen_addr", cfg.ListenAddr),
		slog.String("tool_path", cfg.ToolPath),
		slog.String("work_dir", cfg.WorkDir),
		slog.Int("timeout_seconds", cfg.TimeoutSeconds),
		slog.Int("schedules", len(cfg.Schedules)),
		slog.Bool("systemd", systemd.IsRunningUnderSystemd()),
	)

	// Create shutdown context that listens for SIGTERM and SIGINT
	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// Open the run history database
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		logger.Error("failed to create data directory",
			slog.String("path", cfg.DataDir),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}
	historyPath := filepath.Join(cfg.DataDir, "history.db")
	store, err := history.Open(historyPath)
	if err != nil {
		logger.Error("failed to open history database",
			slog.String("path", historyPath),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}
	logger.Info("history database opened", slog.String("path", historyPath))

	// Wire the orchestrator pipeline
	detector := device.CUDA()
	run := runner.New(
		args.NewTranslator(detector),
		executor.NewRunner(cfg.ToolPath, cfg.WorkDir, time.Duration(cfg.TimeoutSeconds)*time.Second),
		outputs.NewCollector(cfg.WorkDir),
		outputs.NewScanner(cfg.WorkDir),
		logging.WithComponent(logger, "runner"),
	)

	hub := events.NewHub(logging.WithComponent(logger, "events"))

	notifier := notify.New(cfg.WebhookURL, logging.WithComponent(logger, "notify"))
	if notifier.Enabled() {
		logger.Info("webhook notifications enabled", slog.String("url", cfg.WebhookURL))
	}

	// Create shutdown coordinator for ordered component shutdown.
	// LIFO order: the HTTP server and scheduler stop producing runs
	// before the event hub and history database close.
	coordinator := shutdown.NewCoordinator(logger)
	coordinator.Register("history", shutdown.ShutdownFunc(func(context.Context) error {
		return store.Close()
	}))
	coordinator.Register("events-hub", hub)

	sched, err := scheduler.New(cfg.Schedules, run, store, hub, logging.WithComponent(logger, "scheduler"))
	if err != nil {
		logger.Error("failed to create scheduler", "error", err)
		os.Exit(1)
	}
	coordinator.Register("scheduler", sched)

	srv := server.New(server.Options{
		Addr:         cfg.ListenAddr,
		Runner:       run,
		Store:        store,
		Notifier:     notifier,
		Hub:          hub,
		Stats:        stats.NewCollector(cfg.WorkDir, logging.WithComponent(logger, "stats")),
		HistoryLimit: cfg.HistoryLimit,
		Logger:       logging.WithComponent(logger, "server"),
	})
	coordinator.Register("http-server", srv)

	go sched.Run(ctx)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.ListenAndServe()
	}()

	// Notify systemd that we're ready
	systemd.NotifyReady()
	logger.Info("yolobridge ready")

	// Start watchdog if systemd provides WatchdogSec. The history
	// database doubles as the health probe: if it stops answering,
	// the service is wedged.
	systemd.StartWatchdog(ctx, func() bool {
		_, err := store.Count()
		return err == nil
	})

	// Wait for shutdown signal or server failure
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received, starting graceful shutdown")
	case err := <-serverErr:
		if err != nil {
			logger.Error("http server failed", "error", err)
			os.Exit(1)
		}
	}

	// Notify systemd we're stopping
	systemd.NotifyStopping()

	// Cancel the run context so the scheduler loop exits even when
	// shutdown was triggered by a server failure rather than a signal
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := coordinator.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("shutdown complete")
}

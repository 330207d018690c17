// Package systemd integrates yolobridge with systemd service management.
//
// The service unit uses Type=notify, so systemd waits for an explicit
// READY signal before considering the service started; that keeps
// requests from arriving before the history database and HTTP listener
// are up. An optional watchdog loop pings systemd while the HTTP server
// is healthy, letting systemd restart a wedged process.
//
// All functions degrade gracefully outside systemd (no NOTIFY_SOCKET):
// they become no-ops, so development runs behave normally.
package systemd

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
)

// NotifyReady sends sd_notify READY=1. Call once initialization is
// complete and the listener is accepting connections.
func NotifyReady() bool {
	sent, err := daemon.SdNotify(false, daemon.SdNotifyReady)
	if err != nil {
		slog.Warn("failed to send systemd ready notification", "error", err)
		return false
	}
	return sent
}

// NotifyStopping sends sd_notify STOPPING=1 at the start of shutdown,
// so systemd waits for the process instead of killing it.
func NotifyStopping() bool {
	sent, err := daemon.SdNotify(false, daemon.SdNotifyStopping)
	if err != nil {
		slog.Warn("failed to send systemd stopping notification", "error", err)
		return false
	}
	return sent
}

// HealthCheckFunc reports whether the service is healthy. A false
// return skips the watchdog ping and lets systemd restart the service.
type HealthCheckFunc func() bool

// StartWatchdog starts a goroutine pinging the systemd watchdog every
// half WatchdogSec, as the systemd documentation recommends. It is a
// no-op when the unit does not configure a watchdog.
func StartWatchdog(ctx context.Context, healthCheck HealthCheckFunc) {
	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil || interval == 0 {
		slog.Debug("systemd watchdog not enabled")
		return
	}

	pingInterval := interval / 2
	slog.Info("starting systemd watchdog",
		"watchdog_interval", interval,
		"ping_interval", pingInterval,
	)

	go func() {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if !healthCheck() {
					slog.Warn("health check failed, skipping watchdog ping")
					continue
				}
				if _, err := daemon.SdNotify(false, daemon.SdNotifyWatchdog); err != nil {
					slog.Warn("failed to send watchdog ping", "error", err)
				}
			}
		}
	}()
}

// IsRunningUnderSystemd reports whether the process was started by
// systemd, detected via the NOTIFY_SOCKET environment variable.
func IsRunningUnderSystemd() bool {
	return os.Getenv("NOTIFY_SOCKET") != ""
}

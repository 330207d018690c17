// Package stats provides host capacity snapshots for yolobridge.
//
// Training and benchmark jobs are resource-hungry; GET /system exposes
// a point-in-time snapshot of CPU, memory, disk, load, and uptime
// (collected with gopsutil v4) so callers can check headroom before
// launching a long run on a busy box.
package stats

import (
	"context"
	"log/slog"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
)

// Snapshot contains host statistics at a point in time.
// Byte values are in bytes, percentages are 0-100, uptime in seconds.
type Snapshot struct {
	// Timestamp is when this snapshot was collected.
	Timestamp time.Time `json:"timestamp"`

	// CPU is the current CPU usage percentage (0-100), sampled over
	// a short interval (100ms).
	CPU float64 `json:"cpu"`

	// Memory metrics
	MemoryUsed  uint64  `json:"memory_used"`
	MemoryTotal uint64  `json:"memory_total"`
	MemoryPct   float64 `json:"memory_pct"`

	// Disk metrics for the filesystem holding the work directory
	DiskUsed  uint64  `json:"disk_used"`
	DiskTotal uint64  `json:"disk_total"`
	DiskPct   float64 `json:"disk_pct"`

	// Load averages
	Load1  float64 `json:"load1"`
	Load5  float64 `json:"load5"`
	Load15 float64 `json:"load15"`

	// Uptime is the system uptime in seconds since boot.
	Uptime uint64 `json:"uptime"`
}

// Collector gathers host statistics.
type Collector struct {
	logger *slog.Logger

	// diskPath is the mount point measured for disk usage.
	diskPath string
}

// NewCollector creates a collector. diskPath is the directory whose
// filesystem is measured (the tool's work directory); empty means "/".
func NewCollector(diskPath string, logger *slog.Logger) *Collector {
	if diskPath == "" {
		diskPath = "/"
	}
	return &Collector{logger: logger, diskPath: diskPath}
}

// Collect gathers a snapshot of current host statistics.
//
// If an individual metric fails to collect, it logs a warning and
// continues with partial data; the corresponding fields stay zero.
// The context is used for cancellation.
func (c *Collector) Collect(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{
		Timestamp: time.Now(),
	}

	// CPU needs a sample interval to measure usage accurately
	cpuPcts, err := cpu.PercentWithContext(ctx, 100*time.Millisecond, false)
	if err != nil {
		c.logger.Warn("failed to collect CPU stats", slog.String("error", err.Error()))
	} else if len(cpuPcts) > 0 {
		snap.CPU = cpuPcts[0]
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	memInfo, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		c.logger.Warn("failed to collect memory stats", slog.String("error", err.Error()))
	} else {
		snap.MemoryUsed = memInfo.Used
		snap.MemoryTotal = memInfo.Total
		snap.MemoryPct = memInfo.UsedPercent
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	diskInfo, err := disk.UsageWithContext(ctx, c.diskPath)
	if err != nil {
		c.logger.Warn("failed to collect disk stats",
			slog.String("path", c.diskPath),
			slog.String("error", err.Error()),
		)
	} else {
		snap.DiskUsed = diskInfo.Used
		snap.DiskTotal = diskInfo.Total
		snap.DiskPct = diskInfo.UsedPercent
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	loadInfo, err := load.AvgWithContext(ctx)
	if err != nil {
		c.logger.Warn("failed to collect load stats", slog.String("error", err.Error()))
	} else {
		snap.Load1 = loadInfo.Load1
		snap.Load5 = loadInfo.Load5
		snap.Load15 = loadInfo.Load15
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	uptime, err := host.UptimeWithContext(ctx)
	if err != nil {
		c.logger.Warn("failed to collect uptime", slog.String("error", err.Error()))
	} else {
		snap.Uptime = uptime
	}

	return snap, nil
}

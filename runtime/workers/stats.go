package workers

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"

	"im-core/directory"
	"im-core/observability"
)

// StatsWorker periodically reports the gateway node's health: live
// connection count, auth counters, and process self-stats.
type StatsWorker struct {
	log      *slog.Logger
	sessions *directory.Sessions
	monitor  *observability.Monitor
	interval time.Duration
}

func NewStatsWorker(log *slog.Logger, sessions *directory.Sessions, monitor *observability.Monitor, interval time.Duration) *StatsWorker {
	return &StatsWorker{log: log, sessions: sessions, monitor: monitor, interval: interval}
}

func (w *StatsWorker) Run(ctx context.Context) error {
	w.log.Info("Starting gateway stats worker", "interval", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			rss, cpu, err := selfStats(p)
			if err != nil {
				w.log.Error("Failed to collect self stats", "err", err)
				continue
			}
			stats := w.monitor.Snapshot()
			w.log.Info("Gateway stats",
				"online", w.sessions.OnlineCount(),
				"connections_now", stats.ConnectionsNow,
				"auth_ok", stats.AuthSucceeded,
				"auth_failed", stats.AuthFailed,
				"ram_bytes", rss,
				"cpu_percent", cpu,
			)
		}
	}
}

// selfStats retrieves memory and CPU usage for the given process.
func selfStats(p *process.Process) (uint64, float64, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, err
	}
	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, err
	}
	return memInfo.RSS, cpuPercent, nil
}

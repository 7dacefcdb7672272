// Package observability aggregates the gateway's connection telemetry:
// authentication outcomes and connection lifecycle events, exposed as a
// snapshot for the stats worker and logged as structured events.
package observability

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// MonitoringStats is a point-in-time view of the gateway counters.
type MonitoringStats struct {
	AuthSucceeded  uint64            `json:"auth_succeeded"`
	AuthFailed     uint64            `json:"auth_failed"`
	AuthFailures   map[string]uint64 `json:"auth_failures"`
	ConnectionsNow int64             `json:"connections_now"`
	ClosedByReason map[string]uint64 `json:"closed_by_reason"`
}

// Monitor is safe for concurrent use by every connection worker.
type Monitor struct {
	log *slog.Logger

	authSucceeded  atomic.Uint64
	authFailed     atomic.Uint64
	connectionsNow atomic.Int64

	mu             sync.Mutex
	authFailures   map[string]uint64
	closedByReason map[string]uint64
}

func NewMonitor(log *slog.Logger) *Monitor {
	return &Monitor{
		log:            log,
		authFailures:   make(map[string]uint64),
		closedByReason: make(map[string]uint64),
	}
}

func (m *Monitor) ConnectionOpened() {
	m.connectionsNow.Add(1)
}

// AuthSucceeded records one successful handshake.
func (m *Monitor) AuthSucceeded(userID, deviceID string) {
	m.authSucceeded.Add(1)
	m.log.Info("auth.succeeded", "user_id", userID, "device_id", deviceID)
}

// AuthRejected records one failed handshake with its reason code.
func (m *Monitor) AuthRejected(reason string) {
	m.authFailed.Add(1)
	m.mu.Lock()
	m.authFailures[reason]++
	m.mu.Unlock()
	m.log.Info("auth.failed", "reason", reason)
}

// ConnectionClosed records the close exactly once per connection; the
// worker's close path guarantees the once.
func (m *Monitor) ConnectionClosed(reason string) {
	m.connectionsNow.Add(-1)
	m.mu.Lock()
	m.closedByReason[reason]++
	m.mu.Unlock()
	m.log.Info("connection.closed", "reason", reason)
}

// Snapshot copies the counters for reporting.
func (m *Monitor) Snapshot() MonitoringStats {
	m.mu.Lock()
	failures := make(map[string]uint64, len(m.authFailures))
	for k, v := range m.authFailures {
		failures[k] = v
	}
	closed := make(map[string]uint64, len(m.closedByReason))
	for k, v := range m.closedByReason {
		closed[k] = v
	}
	m.mu.Unlock()

	return MonitoringStats{
		AuthSucceeded:  m.authSucceeded.Load(),
		AuthFailed:     m.authFailed.Load(),
		AuthFailures:   failures,
		ConnectionsNow: m.connectionsNow.Load(),
		ClosedByReason: closed,
	}
}

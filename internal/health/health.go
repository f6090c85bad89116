// Package health provides watcher health reporting over HTTP.
package health

import (
	"github.com/vietddude/buswatch/internal/watch"
)

// SystemStatus represents the overall health state of the watcher.
type SystemStatus string

const (
	StatusHealthy  SystemStatus = "healthy"
	StatusDegraded SystemStatus = "degraded"
	StatusCritical SystemStatus = "critical"
)

// Report is the health report served on /health/detailed.
type Report struct {
	Status SystemStatus `json:"status"`
	State  watch.State  `json:"state"`
}

// StateSource reports the watcher lifecycle state.
type StateSource interface {
	State() watch.State
}

// Monitor derives health from the watcher state.
type Monitor struct {
	source StateSource
}

// NewMonitor creates a new health monitor.
func NewMonitor(source StateSource) *Monitor {
	return &Monitor{source: source}
}

// CheckHealth builds the current report.
func (m *Monitor) CheckHealth() Report {
	state := m.source.State()

	status := StatusDegraded
	switch state {
	case watch.StateWatching:
		status = StatusHealthy
	case watch.StateTerminated:
		status = StatusCritical
	}

	return Report{Status: status, State: state}
}

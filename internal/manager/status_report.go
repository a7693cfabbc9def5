package manager

import (
	"time"

	"vidgend/pkg/types"
)

// Status builds the response for /status. It never blocks on the queue.
func (m *Manager) Status() types.StatusResponse {
	qs := m.queue.Status()
	tier := "none"
	if m.loader != nil {
		tier = m.loader.CurrentTier()
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	now := time.Now()
	return types.StatusResponse{
		Pending:        qs.Pending,
		Active:         qs.Active,
		Capacity:       qs.Capacity,
		Workers:        m.cfg.Workers,
		CurrentTier:    tier,
		State:          string(m.state),
		UptimeSeconds:  int64(now.Sub(m.startTime).Seconds()),
		ServerTimeUnix: now.Unix(),
		Completed:      m.completed,
		Failed:         m.failed,
		Rejected:       m.rejected,
		LastError:      m.lastError,
	}
}

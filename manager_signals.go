package goSession

import (
	"github.com/MrEthical07/goSession/broadcast"
	internalaudit "github.com/MrEthical07/goSession/internal/audit"
	"github.com/MrEthical07/goSession/internal/health"
)

// handleLifecycle applies an identity provider notification.
func (m *Manager) handleLifecycle(ev LifecycleEvent) {
	if !m.alive.Load() {
		return
	}
	ctx := m.base

	m.mu.Lock()
	status := m.state.status
	held := m.state.user != nil
	m.mu.Unlock()
	if status == StatusIdle {
		return
	}

	if ev.Type == EventSignedOut || ev.Session == nil {
		// A forced sign-out already cleared local state and published its
		// own error; the boundary's echo must not overwrite it.
		if !held {
			return
		}
		if m.clearSession(ctx, "") {
			if err := m.clearAdminFlag(ctx); err != nil {
				m.logger.Warn("goSession: admin flag delete failed", "error", err)
			}
			m.logger.Info("goSession: signed out", "event", string(ev.Type))
			m.emitAudit(ctx, internalaudit.TypeSignedOut, true, "", nil, nil)
			if m.navigator != nil {
				m.navigator.SignedOut(string(ev.Type))
			}
		}
		return
	}

	expiry, ok, err := m.establish(ctx, ev.Session)
	if err != nil {
		m.logger.Debug("goSession: lifecycle session rejected", "event", string(ev.Type), "error", err)
		return
	}
	if ok {
		m.arm(expiry)
	}
}

// onNetworkSettled runs after the debounce delivers a changed state.
func (m *Manager) onNetworkSettled(online bool) {
	if !m.alive.Load() {
		return
	}

	if online {
		m.metrics.Inc(MetricNetworkOnline)
		m.logger.Info("goSession: network online")
		m.emitAudit(m.base, internalaudit.TypeNetworkOnline, true, "", nil, nil)
		m.scheduler.Resume()
		m.retry.Resume()

		m.mu.Lock()
		status := m.state.status
		m.mu.Unlock()
		if status != StatusIdle {
			m.retry.Refresh(m.base, 0)
		}
		return
	}

	m.metrics.Inc(MetricNetworkOffline)
	m.logger.Info("goSession: network offline")
	m.emitAudit(m.base, internalaudit.TypeNetworkOffline, false, "", ErrOffline, nil)
	m.scheduler.Suspend()
	m.retry.Suspend()

	m.mu.Lock()
	status := m.state.status
	m.mu.Unlock()
	if status != StatusIdle {
		m.fail(m.base, Classify(ErrOffline))
	}
}

// publishHealth records a poll outcome. It never changes Status; an
// unhealthy result only fills an empty error, and a healthy one clears the
// error the poller itself wrote.
func (m *Manager) publishHealth(out health.Outcome) {
	if !m.alive.Load() {
		return
	}

	m.mu.Lock()
	prev := m.state.serverStatus
	if out.Healthy {
		m.state.serverStatus = ServerHealthy
		if m.state.healthErr {
			m.state.errMsg = ""
			m.state.healthErr = false
		}
	} else {
		m.state.serverStatus = ServerUnhealthy
		if m.state.errMsg == "" {
			m.state.errMsg = MessageServerUnhealthy
			m.state.healthErr = true
		}
	}
	changed := prev != m.state.serverStatus
	snap := m.snapshotLocked()
	m.mu.Unlock()

	if out.Healthy {
		m.metrics.Inc(MetricHealthHealthy)
	} else {
		m.metrics.Inc(MetricHealthUnhealthy)
	}
	if !changed {
		return
	}
	m.logger.Info("goSession: server status changed",
		"from", prev.String(), "to", snap.ServerStatus.String(), "message", out.Message, "error", out.Err)
	m.emitAudit(m.base, internalaudit.TypeHealthChanged, out.Healthy, "", out.Err, func() map[string]string {
		return map[string]string{"server_status": snap.ServerStatus.String()}
	})
	m.notify(snap)
}

func (m *Manager) currentChecksum() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.checksum
}

func (m *Manager) onPeerMessage(broadcast.Message) {
	m.metrics.Inc(MetricCrossTabReceived)
}

// onPeerMismatch re-derives state from the identity provider. The peer's
// checksum is never adopted.
func (m *Manager) onPeerMismatch(msg broadcast.Message) {
	if !m.alive.Load() {
		return
	}
	m.mu.Lock()
	status := m.state.status
	m.mu.Unlock()
	if status == StatusIdle {
		return
	}

	m.metrics.Inc(MetricCrossTabMismatch)
	m.logger.Debug("goSession: peer checksum differs, refreshing", "peer", msg.Origin)
	m.emitAudit(m.base, internalaudit.TypeCrossTabMismatch, true, "", nil, func() map[string]string {
		return map[string]string{"peer": msg.Origin}
	})
	m.retry.Refresh(m.base, 0)
}

package goSession

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	internalaudit "github.com/MrEthical07/goSession/internal/audit"
	"github.com/MrEthical07/goSession/internal/flows"
)

// transitionLocked moves to `to` if the table allows it. Must be called
// with m.mu held.
func (m *Manager) transitionLocked(to Status) bool {
	from := m.state.status
	if !CanTransition(from, to) {
		m.metrics.Inc(MetricIllegalTransition)
		m.logger.Warn("goSession: transition rejected",
			"from", from.String(), "to", to.String(), "error", ErrIllegalTransition)
		return false
	}
	m.state.status = to
	return true
}

func (m *Manager) snapshotLocked() Snapshot {
	s := Snapshot{
		Status:          m.state.status,
		Error:           m.state.errMsg,
		ServerStatus:    m.state.serverStatus,
		SessionChecksum: m.state.checksum,
	}
	if m.state.user != nil {
		u := *m.state.user
		s.User = &u
		s.IsAdmin = u.IsAdmin
		s.Role = u.Role
	}
	return s
}

// afterTransition publishes a committed change. It runs without m.mu.
func (m *Manager) afterTransition(ctx context.Context, from, to Status, snap Snapshot) {
	m.metrics.Inc(MetricTransition)
	m.logger.Debug("goSession: transition", "from", from.String(), "to", to.String())
	m.emitTransition(ctx, from, to, snap)
	m.notify(snap)
}

// notify delivers snap to every listener.
func (m *Manager) notify(snap Snapshot) {
	m.mu.Lock()
	fns := make([]func(Snapshot), 0, len(m.listeners))
	for _, fn := range m.listeners {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

// establish runs the establish flow for sess and applies the result. It
// reports the expiry to arm when a user was established.
func (m *Manager) establish(ctx context.Context, sess *Session) (time.Time, bool, error) {
	res := flows.RunEstablish(ctx, sess, m.flows.Establish)
	if !m.alive.Load() {
		return time.Time{}, false, ErrClosed
	}

	switch {
	case res.Failure == flows.EstablishFailureNone:
		if !m.applyUser(ctx, res) {
			return time.Time{}, false, nil
		}
		m.logger.Debug("goSession: session established",
			"identity", res.User.ID, "expires_at", res.ExpiresAt, "expiry_source", res.ExpirySource)
		return res.ExpiresAt, true, nil
	case res.Failure == flows.EstablishFailureNoSession:
		m.clearSession(ctx, "")
		return time.Time{}, false, nil
	default:
		cause := ErrSessionInvalid
		if res.Failure == flows.EstablishFailureExpired {
			cause = ErrSessionExpired
		}
		e := Classify(joinCause(cause, res.Err))
		m.forceSignOut(ctx, e)
		return time.Time{}, false, e
	}
}

// applyUser commits an established user and runs the side effects of a
// user-bearing transition: durable admin flag and checksum broadcast.
func (m *Manager) applyUser(ctx context.Context, res flows.EstablishResult) bool {
	user := res.User

	m.mu.Lock()
	from := m.state.status
	if !m.transitionLocked(StatusAuthenticated) {
		m.mu.Unlock()
		return false
	}
	m.state.user = &user
	m.state.checksum = res.Checksum
	m.state.expiresAt = res.ExpiresAt
	if !m.state.healthErr {
		m.state.errMsg = ""
	}
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.writeAdminFlag(ctx, user.IsAdmin)
	m.afterTransition(ctx, from, StatusAuthenticated, snap)
	if from != StatusAuthenticated {
		m.logger.Info("goSession: signed in", "identity", user.ID, "role", user.Role)
		m.emitAudit(ctx, internalaudit.TypeSignedIn, true, user.ID, nil, nil)
	}
	m.publishChecksum(ctx, res.Checksum)
	return true
}

// clearSession drops the held user and moves to unauthenticated with msg as
// the published error. It reports whether a user was held.
func (m *Manager) clearSession(ctx context.Context, msg string) bool {
	m.mu.Lock()
	from := m.state.status
	hadUser := m.state.user != nil
	if !m.transitionLocked(StatusUnauthenticated) {
		m.mu.Unlock()
		return false
	}
	m.state.user = nil
	m.state.checksum = ""
	m.state.expiresAt = time.Time{}
	m.state.errMsg = msg
	m.state.healthErr = false
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.scheduler.Cancel()
	m.retry.Cancel()
	m.afterTransition(ctx, from, StatusUnauthenticated, snap)
	if hadUser {
		m.metrics.Inc(MetricSignedOut)
		m.publishChecksum(ctx, "")
	}
	return hadUser
}

// forceSignOut treats an integrity failure as a sign-out: local state goes
// first so a SIGNED_OUT notification raised by the boundary finds nothing
// left to clear.
func (m *Manager) forceSignOut(ctx context.Context, e *Error) {
	m.metrics.Inc(MetricForcedSignOut)
	m.metrics.Inc(MetricSessionInvalid)

	m.mu.Lock()
	userID := ""
	if m.state.user != nil {
		userID = m.state.user.ID
	}
	m.mu.Unlock()

	m.logger.Warn("goSession: forcing sign-out", "identity", userID, "error", e.Err)
	m.clearSession(ctx, e.Error())
	if err := flows.RunSignOut(ctx, e.Kind.String(), m.flows.SignOut); err != nil {
		m.logger.Warn("goSession: sign-out cleanup failed", "error", err)
	}
	m.emitAudit(ctx, internalaudit.TypeForcedSignOut, false, userID, e, nil)
}

// fail moves to StatusError with e as the published message. The held user
// is kept.
func (m *Manager) fail(ctx context.Context, e *Error) {
	m.mu.Lock()
	from := m.state.status
	if !m.transitionLocked(StatusError) {
		m.mu.Unlock()
		return
	}
	m.state.errMsg = e.Error()
	m.state.healthErr = false
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.afterTransition(ctx, from, StatusError, snap)
}

// arm hands expiry to the scheduler. The scheduler may refresh at once.
func (m *Manager) arm(expiry time.Time) {
	d := m.scheduler.Arm(expiry)
	switch {
	case d.Immediate:
		m.logger.Debug("goSession: expiry inside buffer, refreshing now", "expires_at", expiry)
	case d.Delay > 0:
		m.logger.Debug("goSession: refresh armed", "delay", d.Delay, "at", d.At)
	}
}

func (m *Manager) publishChecksum(ctx context.Context, sum string) {
	if m.channel == nil {
		return
	}
	if err := m.sync.Publish(ctx, sum); err != nil {
		m.logger.Warn("goSession: broadcast failed", "error", err)
		return
	}
	m.metrics.Inc(MetricCrossTabBroadcast)
}

func (m *Manager) writeAdminFlag(ctx context.Context, isAdmin bool) {
	if err := m.flags.Set(ctx, m.cfg.Storage.AdminFlagKey, strconv.FormatBool(isAdmin)); err != nil {
		m.logger.Warn("goSession: admin flag write failed", "error", err)
	}
}

func (m *Manager) clearAdminFlag(ctx context.Context) error {
	return m.flags.Delete(ctx, m.cfg.Storage.AdminFlagKey)
}

func joinCause(sentinel, cause error) error {
	if cause == nil || errors.Is(cause, sentinel) {
		return sentinel
	}
	return fmt.Errorf("%w: %v", sentinel, cause)
}

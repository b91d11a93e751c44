package goSession

import (
	"context"
	"fmt"
	"time"

	internalaudit "github.com/MrEthical07/goSession/internal/audit"
	"github.com/MrEthical07/goSession/internal/retry"
	"github.com/MrEthical07/goSession/internal/schedule"
)

// TriggerRefresh asks the retry controller for attempt 0. The result says
// whether this call ran; callers that need the outcome read Snapshot.
func (m *Manager) TriggerRefresh(ctx context.Context) RefreshResult {
	if !m.alive.Load() {
		return RefreshSkipped
	}
	return refreshResult(m.retry.Refresh(ctx, 0))
}

func refreshResult(r retry.Result) RefreshResult {
	switch r {
	case retry.ResultSucceeded:
		return RefreshSucceeded
	case retry.ResultDropped:
		return RefreshDropped
	case retry.ResultDeferred:
		return RefreshDeferred
	case retry.ResultRetryScheduled:
		return RefreshRetryScheduled
	case retry.ResultFailed:
		return RefreshFailed
	default:
		return RefreshSkipped
	}
}

// onScheduled is the scheduler trigger for both expiry and idle timers.
func (m *Manager) onScheduled(reason schedule.Reason) {
	if !m.alive.Load() {
		return
	}
	if reason == schedule.ReasonIdle {
		m.metrics.Inc(MetricIdleValidation)
	}
	m.logger.Debug("goSession: scheduled refresh", "reason", reason.String())
	m.retry.Refresh(m.base, 0)
}

// attemptRefresh is the body of one controller attempt. Boundary failures
// are returned classified; integrity failures are applied here and
// reported as handled.
func (m *Manager) attemptRefresh(ctx context.Context) error {
	if !m.alive.Load() {
		return nil
	}
	m.metrics.Inc(MetricRefreshAttempt)

	start := m.clock.Now()
	sess, err := m.callIdentity(ctx, m.identity.RefreshSession)
	m.metrics.Observe(MetricRefreshLatency, m.clock.Now().Sub(start))
	if !m.alive.Load() {
		return nil
	}

	if err != nil {
		e := Classify(err)
		switch e.Kind {
		case KindRateLimit:
			m.metrics.Inc(MetricRefreshRateLimited)
		case KindIntegrity:
			m.forceSignOut(ctx, e)
			return nil
		}
		return e
	}

	if _, _, err := m.establish(ctx, sess); err != nil {
		m.logger.Debug("goSession: refreshed session rejected", "error", err)
	}
	return nil
}

// afterRefresh re-arms the scheduler from the held expiry. It runs after
// the controller released its lock so an immediate fire goes through the
// cooldown instead of being dropped.
func (m *Manager) afterRefresh() {
	m.mu.Lock()
	status := m.state.status
	expiry := m.state.expiresAt
	userID := ""
	if m.state.user != nil {
		userID = m.state.user.ID
	}
	m.mu.Unlock()

	if status != StatusAuthenticated || expiry.IsZero() {
		return
	}
	m.metrics.Inc(MetricRefreshSuccess)
	m.emitAudit(m.base, internalaudit.TypeRefreshSuccess, true, userID, nil, nil)
	m.arm(expiry)
}

// refreshTerminal handles a failure the controller will not retry. Both
// scheduler timers stop; only RetryAuth, a reconnect or a lifecycle event
// arms them again.
func (m *Manager) refreshTerminal(err error, attempts int, exhausted bool) {
	if !m.alive.Load() {
		return
	}
	m.scheduler.Cancel()
	m.retry.Cancel()
	m.metrics.Inc(MetricRefreshFailure)

	e := Classify(err)
	eventType := internalaudit.TypeRefreshFailure
	if exhausted {
		m.metrics.Inc(MetricRefreshExhausted)
		e = newError(KindRateLimit, MessageRefreshExhausted, fmt.Errorf("%w: %v", ErrRefreshExhausted, err))
		eventType = internalaudit.TypeRefreshExhaust
	}
	m.logger.Warn("goSession: refresh failed",
		"kind", e.Kind.String(), "attempts", attempts, "exhausted", exhausted, "error", err)
	m.emitAudit(m.base, eventType, false, "", e, func() map[string]string {
		return map[string]string{"attempts": fmt.Sprint(attempts)}
	})
	m.fail(m.base, e)
}

func (m *Manager) observeRefresh(r retry.Result, attempt int, delay time.Duration) {
	switch r {
	case retry.ResultDropped:
		m.metrics.Inc(MetricRefreshDropped)
	case retry.ResultDeferred:
		m.metrics.Inc(MetricRefreshDeferred)
	case retry.ResultSkipped:
		m.metrics.Inc(MetricRefreshSkipped)
	case retry.ResultRetryScheduled:
		m.metrics.Inc(MetricRefreshRetryScheduled)
		m.logger.Warn("goSession: refresh rate limited, retrying", "attempt", attempt+1, "delay", delay)
	}
}

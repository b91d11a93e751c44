package goSession

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/goSession/checksum"
	"github.com/MrEthical07/goSession/clock"
	internalaudit "github.com/MrEthical07/goSession/internal/audit"
	"github.com/MrEthical07/goSession/internal/crosstab"
	"github.com/MrEthical07/goSession/internal/flows"
	"github.com/MrEthical07/goSession/internal/health"
	"github.com/MrEthical07/goSession/internal/netmon"
	"github.com/MrEthical07/goSession/internal/retry"
	"github.com/MrEthical07/goSession/internal/schedule"
	"github.com/MrEthical07/goSession/session"
)

// Manager is the session state machine. It is the only writer of Status,
// User, SessionChecksum, Error and ServerStatus.
type Manager struct {
	cfg    Config
	clock  clock.Clock
	logger *slog.Logger
	base   context.Context
	origin string

	identity     IdentityProvider
	profiles     ProfileProvider
	healthCheck  HealthChecker
	privileges   PrivilegeChecker
	navigator    Navigator
	reachability ReachabilitySource
	channel      BroadcastChannel
	flags        session.FlagStore
	hasher       *checksum.Hasher
	metrics      *Metrics
	audit        *internalaudit.Dispatcher
	flows        flows.Deps

	retry     *retry.Controller
	scheduler *schedule.Scheduler
	network   *netmon.Monitor
	poller    *health.Poller
	sync      *crosstab.Sync

	alive     atomic.Bool
	startOnce sync.Once
	closeOnce sync.Once

	mu           sync.Mutex
	state        managerState
	listeners    map[int]func(Snapshot)
	nextListener int
	stopReach    func()
	unsubscribe  func()
}

type managerState struct {
	status       Status
	user         *User
	checksum     string
	errMsg       string
	serverStatus ServerStatus
	// healthErr is set when errMsg was written by the health poller.
	healthErr   bool
	expiresAt   time.Time
	initialized bool
}

// Origin returns the identifier this Manager stamps on broadcasts.
func (m *Manager) Origin() string { return m.origin }

// Metrics returns the Manager's counters.
func (m *Manager) Metrics() *Metrics { return m.metrics }

// MetricsSnapshot copies the Manager's counters.
func (m *Manager) MetricsSnapshot() MetricsSnapshot { return m.metrics.Snapshot() }

// Initialize performs the first session check. Only the first call per
// mount does any work; later calls return nil until RetryAuth resets the
// guard.
//
// Order: first-boot health check, offline check, GetCurrentSession, then
// establishment. An unhealthy backend or a missing network moves the
// Manager to StatusError and returns the classified *Error; there is no
// automatic retry.
func (m *Manager) Initialize(ctx context.Context) error {
	if !m.alive.Load() {
		return ErrClosed
	}
	if ctx == nil {
		ctx = m.base
	}

	m.mu.Lock()
	if m.state.initialized {
		m.mu.Unlock()
		return nil
	}
	m.state.initialized = true
	from := m.state.status
	ok := m.transitionLocked(StatusLoading)
	m.state.errMsg = ""
	m.state.healthErr = false
	snap := m.snapshotLocked()
	m.mu.Unlock()

	if ok {
		m.afterTransition(ctx, from, StatusLoading, snap)
	}
	m.metrics.Inc(MetricInitialize)
	m.startOnce.Do(m.startBackground)

	if m.healthCheck != nil {
		out := m.poller.Check(ctx)
		if !m.alive.Load() {
			return ErrClosed
		}
		m.publishHealth(out)
		if !out.Healthy {
			e := newError(KindConnectivity, MessageServerUnhealthy, joinCause(ErrServerUnhealthy, out.Err))
			m.fail(ctx, e)
			return e
		}
	}

	if !m.network.Online() {
		e := Classify(ErrOffline)
		m.fail(ctx, e)
		return e
	}

	sess, err := m.callIdentity(ctx, m.identity.GetCurrentSession)
	if !m.alive.Load() {
		return ErrClosed
	}
	if err != nil {
		e := Classify(err)
		m.logger.Warn("goSession: session fetch failed", "kind", e.Kind.String(), "error", err)
		m.fail(ctx, e)
		return e
	}

	expiry, ok, err := m.establish(ctx, sess)
	if err != nil {
		return err
	}
	if ok {
		m.arm(expiry)
	}
	return nil
}

// RetryAuth resets the initialization guard, drops pending timers and runs
// Initialize again. It is the remedy for StatusError.
func (m *Manager) RetryAuth(ctx context.Context) error {
	if !m.alive.Load() {
		return ErrClosed
	}
	m.mu.Lock()
	m.state.initialized = false
	m.mu.Unlock()

	m.scheduler.Cancel()
	m.retry.Cancel()
	return m.Initialize(ctx)
}

// ValidateSession recomputes the held user's checksum and compares it with
// the stored one. It is false when no user is held.
func (m *Manager) ValidateSession() bool {
	m.mu.Lock()
	var user *User
	if m.state.user != nil {
		u := *m.state.user
		user = &u
	}
	stored := m.state.checksum
	m.mu.Unlock()

	ok := flows.RunValidate(user, stored, m.hasher)
	if !ok && user != nil {
		m.metrics.Inc(MetricSessionInvalid)
		m.logger.Warn("goSession: checksum validation failed", "identity", user.ID)
	}
	return ok
}

// ReportNetwork feeds a raw connectivity observation into the debounce.
func (m *Manager) ReportNetwork(online bool) {
	if !m.alive.Load() {
		return
	}
	m.network.Report(online)
}

// RecordActivity marks the session as in use for idle validation.
func (m *Manager) RecordActivity() {
	if !m.alive.Load() {
		return
	}
	m.scheduler.RecordActivity()
}

// NextRefreshAt returns when the armed proactive refresh fires.
func (m *Manager) NextRefreshAt() (time.Time, bool) {
	return m.scheduler.NextRefresh()
}

// CachedAdmin reads the durable admin flag. It never touches a boundary
// and is false when the flag is absent or unreadable.
func (m *Manager) CachedAdmin(ctx context.Context) bool {
	if ctx == nil {
		ctx = m.base
	}
	v, ok, err := m.flags.Get(ctx, m.cfg.Storage.AdminFlagKey)
	if err != nil {
		m.logger.Warn("goSession: admin flag read failed", "error", err)
		return false
	}
	return ok && v == "true"
}

// Snapshot returns the current read-only view.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Subscribe registers fn for every published Snapshot. fn runs without any
// Manager lock held and must not block.
func (m *Manager) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listeners == nil {
		m.listeners = make(map[int]func(Snapshot))
	}
	id := m.nextListener
	m.nextListener++
	m.listeners[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.listeners, id)
			m.mu.Unlock()
		})
	}
}

// Close tears the Manager down. The liveness flag flips first so results
// still in flight are discarded on arrival. Close is idempotent.
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		m.alive.Store(false)

		m.retry.Close()
		m.scheduler.Close()
		m.network.Close()
		m.poller.Close()
		m.sync.Stop()

		m.mu.Lock()
		stopReach := m.stopReach
		unsubscribe := m.unsubscribe
		m.stopReach = nil
		m.unsubscribe = nil
		m.listeners = nil
		m.mu.Unlock()

		if stopReach != nil {
			stopReach()
		}
		if unsubscribe != nil {
			unsubscribe()
		}
		if m.channel != nil {
			if err := m.channel.Close(); err != nil {
				m.logger.Warn("goSession: broadcast close failed", "error", err)
			}
		}
		m.audit.Close()
	})
}

// startBackground wires long-lived subscriptions on first Initialize.
func (m *Manager) startBackground() {
	unsubscribe := m.identity.Subscribe(m.handleLifecycle)
	m.sync.Start()
	if m.healthCheck != nil {
		m.poller.Start()
	}

	var stopReach func()
	if m.reachability != nil {
		stopReach = m.reachability.Start(m.ReportNetwork)
	}

	m.mu.Lock()
	m.unsubscribe = unsubscribe
	m.stopReach = stopReach
	m.mu.Unlock()

	// Close may have run while the subscriptions were being opened.
	if !m.alive.Load() {
		m.mu.Lock()
		stopReach, unsubscribe = m.stopReach, m.unsubscribe
		m.stopReach, m.unsubscribe = nil, nil
		m.mu.Unlock()
		if stopReach != nil {
			stopReach()
		}
		if unsubscribe != nil {
			unsubscribe()
		}
	}
}

// callIdentity bounds a boundary call with the request timeout.
func (m *Manager) callIdentity(ctx context.Context, fn func(context.Context) (*Session, error)) (*Session, error) {
	if m.cfg.Refresh.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.cfg.Refresh.RequestTimeout)
		defer cancel()
	}
	return fn(ctx)
}

// AuditDropped reports audit events lost to dispatcher backpressure.
func (m *Manager) AuditDropped() uint64 { return m.audit.Dropped() }

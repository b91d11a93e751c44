package goSession

import (
	"context"
	"errors"
	"log/slog"

	"github.com/MrEthical07/goSession/broadcast"
	"github.com/MrEthical07/goSession/checksum"
	"github.com/MrEthical07/goSession/clock"
	internalaudit "github.com/MrEthical07/goSession/internal/audit"
	"github.com/MrEthical07/goSession/internal/crosstab"
	"github.com/MrEthical07/goSession/internal/flows"
	"github.com/MrEthical07/goSession/internal/health"
	"github.com/MrEthical07/goSession/internal/netmon"
	"github.com/MrEthical07/goSession/internal/retry"
	"github.com/MrEthical07/goSession/internal/schedule"
	"github.com/MrEthical07/goSession/jwt"
	"github.com/MrEthical07/goSession/session"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Builder assembles a Manager. A Builder is single-use.
type Builder struct {
	config Config
	clock  clock.Clock
	logger *slog.Logger
	redis  redis.UniversalClient

	identity     IdentityProvider
	profiles     ProfileProvider
	healthCheck  HealthChecker
	privileges   PrivilegeChecker
	navigator    Navigator
	reachability ReachabilitySource
	channel      BroadcastChannel
	flags        session.FlagStore
	auditSink    AuditSink

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithClock replaces the wall clock, typically with clock.Fake in tests.
func (b *Builder) WithClock(c clock.Clock) *Builder {
	b.clock = c
	return b
}

// WithLogger sets the structured logger. The default discards.
func (b *Builder) WithLogger(l *slog.Logger) *Builder {
	b.logger = l
	return b
}

// WithRedis stores the admin flag in Redis and, unless WithBroadcast is
// also used, opens the sync channel over Redis pub/sub.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

func (b *Builder) WithIdentityProvider(p IdentityProvider) *Builder {
	b.identity = p
	return b
}

func (b *Builder) WithProfileProvider(p ProfileProvider) *Builder {
	b.profiles = p
	return b
}

// WithHealthChecker enables the first-boot health gate and periodic polling.
func (b *Builder) WithHealthChecker(h HealthChecker) *Builder {
	b.healthCheck = h
	return b
}

func (b *Builder) WithPrivilegeChecker(p PrivilegeChecker) *Builder {
	b.privileges = p
	return b
}

func (b *Builder) WithNavigator(n Navigator) *Builder {
	b.navigator = n
	return b
}

func (b *Builder) WithReachability(r ReachabilitySource) *Builder {
	b.reachability = r
	return b
}

// WithBroadcast sets the cross-instance channel. The Manager owns it and
// closes it on Close.
func (b *Builder) WithBroadcast(ch BroadcastChannel) *Builder {
	b.channel = ch
	return b
}

func (b *Builder) WithFlagStore(s session.FlagStore) *Builder {
	b.flags = s
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires every component.
func (b *Builder) Build() (*Manager, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.identity == nil {
		return nil, errors.New("identity provider required")
	}

	c := b.clock
	if c == nil {
		c = clock.Real()
	}
	logger := b.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	flags := b.flags
	if flags == nil {
		if b.redis != nil {
			flags = session.NewRedisStore(b.redis, "gs")
		} else {
			flags = session.NewMemoryStore()
		}
	}

	channel := b.channel
	if channel == nil && b.redis != nil {
		rc, err := broadcast.NewRedisChannel(context.Background(), b.redis, cfg.Sync.ChannelName)
		if err != nil {
			return nil, err
		}
		channel = rc
	}

	origin := uuid.NewString()
	m := &Manager{
		cfg:          cfg,
		clock:        c,
		logger:       logger,
		base:         context.Background(),
		origin:       origin,
		identity:     b.identity,
		profiles:     b.profiles,
		healthCheck:  b.healthCheck,
		privileges:   b.privileges,
		navigator:    b.navigator,
		reachability: b.reachability,
		channel:      channel,
		flags:        flags,
		hasher:       checksum.New(cfg.Checksum.digest()),
		metrics:      NewMetrics(cfg.Metrics),
		audit: internalaudit.NewDispatcher(internalaudit.Config{
			Enabled:    cfg.Audit.Enabled,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
			Origin:     origin,
			Now:        c.Now,
		}, b.auditSink),
	}
	m.flows = m.buildFlowDeps()

	m.retry = retry.New(m.base, c, retry.Config{
		MaxRetries: cfg.Refresh.MaxRetries,
		Backoff:    cloneDurations(cfg.Refresh.Backoff),
		Cooldown:   cfg.Refresh.Cooldown,
	}, retry.Hooks{
		Attempt:      m.attemptRefresh,
		Retryable:    func(err error) bool { return Classify(err).Retryable() },
		AfterSuccess: m.afterRefresh,
		OnTerminal:   m.refreshTerminal,
		Observe:      m.observeRefresh,
	})
	m.scheduler = schedule.New(c, schedule.Config{
		Buffer:        cfg.Refresh.Buffer,
		MinDelay:      cfg.Refresh.MinDelay,
		IdleInterval:  cfg.Idle.Interval,
		IdleThreshold: cfg.Idle.Threshold,
	}, m.onScheduled)
	m.network = netmon.New(c, cfg.Network.Debounce, m.onNetworkSettled)
	m.poller = health.New(m.base, c, cfg.Health.Interval, cfg.Health.Timeout, m.checkHealth, m.publishHealth)
	m.sync = crosstab.New(channel, m.origin, c, crosstab.Hooks{
		Current:    m.currentChecksum,
		OnMismatch: m.onPeerMismatch,
		OnReceive:  m.onPeerMessage,
	})
	m.alive.Store(true)

	b.built = true
	return m, nil
}

func (m *Manager) buildFlowDeps() flows.Deps {
	est := flows.EstablishDeps{
		Now:         m.clock.Now,
		Window:      m.cfg.Session.Window,
		TokenExpiry: jwt.ExpiresAt,
		DefaultRole: m.cfg.Profile.DefaultRole,
		AdminRole:   m.cfg.Profile.AdminRole,
		Hasher:      m.hasher,
		Warn:        m.logger.Warn,
	}
	if m.profiles != nil {
		est.Role = func(ctx context.Context, id string) (string, error) {
			p, err := m.profiles.GetOrCreateProfile(ctx, id)
			return p.Role, err
		}
	}
	if m.privileges != nil {
		est.IsAdmin = m.privileges.IsAdminUser
	}

	return flows.Deps{
		Establish: est,
		SignOut: flows.SignOutDeps{
			SignOut:   m.identity.SignOut,
			ClearFlag: m.clearAdminFlag,
			Navigate: func(reason string) {
				if m.navigator != nil {
					m.navigator.SignedOut(reason)
				}
			},
		},
	}
}

// checkHealth adapts the HealthChecker boundary. The backend counts as
// healthy only when it and its auth service both say so.
func (m *Manager) checkHealth(ctx context.Context) (health.Report, error) {
	if m.healthCheck == nil {
		return health.Report{Healthy: true, Auth: true}, nil
	}
	r, err := m.healthCheck.CheckHealth(ctx)
	if err != nil {
		return health.Report{}, err
	}
	return health.Report{
		Healthy: r.Healthy && r.Services.Auth,
		Auth:    r.Services.Auth,
		Message: r.Message,
	}, nil
}

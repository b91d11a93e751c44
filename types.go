package goSession

import (
	"context"

	"github.com/MrEthical07/goSession/broadcast"
	internalaudit "github.com/MrEthical07/goSession/internal/audit"
	"github.com/MrEthical07/goSession/session"
)

// Session, Identity and User are re-exported from the session package.
type (
	Session  = session.Session
	Identity = session.Identity
	User     = session.User
)

// Status is the authoritative authentication status.
type Status uint8

const (
	// StatusIdle is the state before the first session check.
	StatusIdle Status = iota
	// StatusLoading covers the initial check and blocking re-auth.
	StatusLoading
	// StatusAuthenticated means a valid session is held.
	StatusAuthenticated
	// StatusUnauthenticated means there is no session or it was rejected.
	StatusUnauthenticated
	// StatusError means the last operation failed.
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusAuthenticated:
		return "authenticated"
	case StatusUnauthenticated:
		return "unauthenticated"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// ServerStatus is the advisory backend health published by the poller.
type ServerStatus uint8

const (
	ServerUnknown ServerStatus = iota
	ServerHealthy
	ServerUnhealthy
)

func (s ServerStatus) String() string {
	switch s {
	case ServerHealthy:
		return "healthy"
	case ServerUnhealthy:
		return "unhealthy"
	default:
		return "unknown"
	}
}

// Snapshot is a read-only view of Manager state. User is nil when no
// session is held.
type Snapshot struct {
	User            *User
	Status          Status
	Error           string
	ServerStatus    ServerStatus
	SessionChecksum string
	IsAdmin         bool
	Role            string
}

// LifecycleEventType names identity provider notifications.
type LifecycleEventType string

const (
	EventSignedIn       LifecycleEventType = "SIGNED_IN"
	EventSignedOut      LifecycleEventType = "SIGNED_OUT"
	EventTokenRefreshed LifecycleEventType = "TOKEN_REFRESHED"
	EventUserUpdated    LifecycleEventType = "USER_UPDATED"
)

// LifecycleEvent is one identity provider notification. Session may be nil.
type LifecycleEvent struct {
	Type    LifecycleEventType
	Session *Session
}

// IdentityProvider is the remote identity service. GetCurrentSession
// returns (nil, nil) when no session exists.
type IdentityProvider interface {
	GetCurrentSession(ctx context.Context) (*Session, error)
	RefreshSession(ctx context.Context) (*Session, error)
	SignOut(ctx context.Context) error
	Subscribe(fn func(LifecycleEvent)) (unsubscribe func())
}

// Profile is the role record returned by the profile store.
type Profile struct {
	Role string
}

// ProfileProvider resolves the role of an identity, creating the profile
// when it does not exist.
type ProfileProvider interface {
	GetOrCreateProfile(ctx context.Context, identityID string) (Profile, error)
}

// HealthReport is the backend health answer.
type HealthReport struct {
	Healthy  bool
	Services HealthServices
	Message  string
}

// HealthServices reports per-service health.
type HealthServices struct {
	Auth bool
}

// HealthChecker probes backend health.
type HealthChecker interface {
	CheckHealth(ctx context.Context) (HealthReport, error)
}

// PrivilegeChecker decides whether an identity has administrator rights.
type PrivilegeChecker interface {
	IsAdminUser(ctx context.Context, identityID string) (bool, error)
}

// Navigator receives control when the session ends without the user asking,
// for example after an integrity failure or a sign-out in another instance.
type Navigator interface {
	SignedOut(reason string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(reason string)

func (f NavigatorFunc) SignedOut(reason string) { f(reason) }

// ReachabilitySource produces raw connectivity observations. Start must
// return a stop function that ends reporting.
type ReachabilitySource interface {
	Start(report func(online bool)) (stop func())
}

// BroadcastChannel is the cross-instance transport.
type BroadcastChannel = broadcast.Channel

// RefreshResult reports what a triggered refresh did.
type RefreshResult uint8

const (
	RefreshSucceeded RefreshResult = iota
	RefreshSkipped
	RefreshDropped
	RefreshDeferred
	RefreshRetryScheduled
	RefreshFailed
)

func (r RefreshResult) String() string {
	switch r {
	case RefreshSucceeded:
		return "succeeded"
	case RefreshSkipped:
		return "skipped"
	case RefreshDropped:
		return "dropped"
	case RefreshDeferred:
		return "deferred"
	case RefreshRetryScheduled:
		return "retry_scheduled"
	case RefreshFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Audit types are aliases of the internal dispatcher types.
type (
	AuditEvent     = internalaudit.Event
	AuditSink      = internalaudit.Sink
	NoOpSink       = internalaudit.NoOpSink
	ChannelSink    = internalaudit.ChannelSink
	JSONWriterSink = internalaudit.JSONWriterSink
	SlogSink       = internalaudit.SlogSink
)

var (
	NewChannelSink    = internalaudit.NewChannelSink
	NewJSONWriterSink = internalaudit.NewJSONWriterSink
	NewSlogSink       = internalaudit.NewSlogSink
)


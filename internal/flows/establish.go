package flows

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goSession/checksum"
	"github.com/MrEthical07/goSession/session"
)

var (
	// ErrNoIdentity is returned when a session does not name an identity.
	ErrNoIdentity = errors.New("session has no identity")
	// ErrExpired is returned when the resolved expiry is not in the future.
	ErrExpired = errors.New("session expired")
)

// EstablishFailureKind classifies establish failures for root-level mapping.
type EstablishFailureKind int

const (
	EstablishFailureNone EstablishFailureKind = iota
	EstablishFailureNoSession
	EstablishFailureInvalidIdentity
	EstablishFailureExpired
)

// EstablishResult carries the projected user or failure metadata.
type EstablishResult struct {
	Failure   EstablishFailureKind
	Err       error
	User      session.User
	Checksum  string
	ExpiresAt time.Time
	// ExpirySource is "session", "token" or "window".
	ExpirySource string
}

// EstablishDeps captures establish flow dependencies.
type EstablishDeps struct {
	Now         func() time.Time
	Window      time.Duration
	TokenExpiry func(token string) (time.Time, error)
	Role        func(ctx context.Context, identityID string) (string, error)
	IsAdmin     func(ctx context.Context, identityID string) (bool, error)
	DefaultRole string
	AdminRole   string
	Hasher      *checksum.Hasher
	Warn        func(msg string, args ...any)
}

// RunEstablish validates sess and projects it into a User. Profile and
// privilege lookups degrade to the default role and a false admin flag;
// only integrity problems fail the flow.
func RunEstablish(ctx context.Context, sess *session.Session, deps EstablishDeps) EstablishResult {
	if sess == nil {
		return EstablishResult{Failure: EstablishFailureNoSession}
	}
	if !sess.Valid() {
		return EstablishResult{Failure: EstablishFailureInvalidIdentity, Err: ErrNoIdentity}
	}

	now := deps.Now()
	expiresAt, source := resolveExpiry(sess, now, deps)
	if !expiresAt.After(now) {
		return EstablishResult{
			Failure:      EstablishFailureExpired,
			Err:          ErrExpired,
			ExpiresAt:    expiresAt,
			ExpirySource: source,
		}
	}

	// The checksum is derived fresh on every establish. A changed email under
	// the same identity is a user update and yields a new checksum.
	sum := deps.Hasher.Create(checksum.Subject{
		ID:        sess.Identity.ID,
		Email:     sess.Identity.Email,
		CreatedAt: sess.Identity.CreatedAt,
	})

	role := deps.DefaultRole
	if deps.Role != nil {
		r, err := deps.Role(ctx, sess.Identity.ID)
		switch {
		case err != nil:
			warn(deps, "goSession: profile lookup failed, using default role", "identity", sess.Identity.ID, "error", err)
		case r != "":
			role = r
		}
	}

	isAdmin := false
	if deps.IsAdmin != nil {
		ok, err := deps.IsAdmin(ctx, sess.Identity.ID)
		if err != nil {
			warn(deps, "goSession: privilege check failed", "identity", sess.Identity.ID, "error", err)
		} else {
			isAdmin = ok
		}
	}
	if !isAdmin && deps.AdminRole != "" && role == deps.AdminRole {
		isAdmin = true
	}

	return EstablishResult{
		User: session.User{
			Identity: sess.Identity,
			Role:     role,
			IsAdmin:  isAdmin,
		},
		Checksum:     sum,
		ExpiresAt:    expiresAt,
		ExpirySource: source,
	}
}

// resolveExpiry prefers the session's own expiry, then the access token's
// exp claim, then a fresh window from now.
func resolveExpiry(sess *session.Session, now time.Time, deps EstablishDeps) (time.Time, string) {
	if !sess.ExpiresAt.IsZero() {
		return sess.ExpiresAt, "session"
	}
	if deps.TokenExpiry != nil && sess.AccessToken != "" {
		if exp, err := deps.TokenExpiry(sess.AccessToken); err == nil {
			return exp, "token"
		}
	}
	return now.Add(deps.Window), "window"
}

func warn(deps EstablishDeps, msg string, args ...any) {
	if deps.Warn != nil {
		deps.Warn(msg, args...)
	}
}

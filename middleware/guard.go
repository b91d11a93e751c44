package middleware

import (
	"context"
	"net/http"

	goSession "github.com/MrEthical07/goSession"
)

type snapshotContextKey struct{}

// SnapshotFromContext returns the Snapshot a guard admitted the request
// with.
func SnapshotFromContext(ctx context.Context) (goSession.Snapshot, bool) {
	snap, ok := ctx.Value(snapshotContextKey{}).(goSession.Snapshot)
	return snap, ok
}

// Level selects how much a guard checks.
type Level uint8

const (
	// LevelAuthenticated requires an authenticated status.
	LevelAuthenticated Level = iota
	// LevelStrict also recomputes the session checksum.
	LevelStrict
	// LevelAdmin also requires the cached admin flag.
	LevelAdmin
)

// source is the part of *goSession.Manager a guard reads.
type source interface {
	Snapshot() goSession.Snapshot
	ValidateSession() bool
	CachedAdmin(ctx context.Context) bool
}

// Guard returns middleware admitting requests only while m satisfies level.
func Guard(m *goSession.Manager, level Level) func(http.Handler) http.Handler {
	if m == nil {
		return guard(nil, level)
	}
	return guard(m, level)
}

func guard(src source, level Level) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if src == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			snap := src.Snapshot()
			if snap.Status != goSession.StatusAuthenticated || snap.User == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if level >= LevelStrict && !src.ValidateSession() {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if level == LevelAdmin && !src.CachedAdmin(r.Context()) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), snapshotContextKey{}, snap)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	goSession "github.com/MrEthical07/goSession"
)

type fakeSource struct {
	snap  goSession.Snapshot
	valid bool
	admin bool
}

func (f fakeSource) Snapshot() goSession.Snapshot     { return f.snap }
func (f fakeSource) ValidateSession() bool            { return f.valid }
func (f fakeSource) CachedAdmin(context.Context) bool { return f.admin }

func authenticated() goSession.Snapshot {
	return goSession.Snapshot{
		Status: goSession.StatusAuthenticated,
		User:   &goSession.User{Identity: goSession.Identity{ID: "u1", Email: "a@x.com"}},
	}
}

func TestGuardLevels(t *testing.T) {
	tests := []struct {
		name  string
		src   source
		level Level
		want  int
	}{
		{"nil source", nil, LevelAuthenticated, http.StatusUnauthorized},
		{"signed out", fakeSource{snap: goSession.Snapshot{Status: goSession.StatusUnauthenticated}}, LevelAuthenticated, http.StatusUnauthorized},
		{"error status", fakeSource{snap: goSession.Snapshot{Status: goSession.StatusError}}, LevelAuthenticated, http.StatusUnauthorized},
		{"authenticated", fakeSource{snap: authenticated()}, LevelAuthenticated, http.StatusOK},
		{"strict checksum mismatch", fakeSource{snap: authenticated()}, LevelStrict, http.StatusUnauthorized},
		{"strict valid", fakeSource{snap: authenticated(), valid: true}, LevelStrict, http.StatusOK},
		{"admin flag missing", fakeSource{snap: authenticated(), valid: true}, LevelAdmin, http.StatusForbidden},
		{"admin", fakeSource{snap: authenticated(), valid: true, admin: true}, LevelAdmin, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen goSession.Snapshot
			h := guard(tt.src, tt.level)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				snap, ok := SnapshotFromContext(r.Context())
				if !ok {
					t.Fatal("expected snapshot in context")
				}
				seen = snap
				w.WriteHeader(http.StatusOK)
			}))

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.want == http.StatusOK && (seen.User == nil || seen.User.ID != "u1") {
				t.Fatalf("unexpected snapshot %+v", seen)
			}
		})
	}
}

func TestGuardNilManager(t *testing.T) {
	h := RequireAuthenticated(nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
}

package middleware

import (
	"net/http"

	goSession "github.com/MrEthical07/goSession"
)

// RequireAuthenticated admits requests while m holds a session.
func RequireAuthenticated(m *goSession.Manager) func(http.Handler) http.Handler {
	return Guard(m, LevelAuthenticated)
}

// RequireAdmin admits authenticated requests whose cached admin flag is
// set. The flag is read from the flag store, never from a boundary.
func RequireAdmin(m *goSession.Manager) func(http.Handler) http.Handler {
	return Guard(m, LevelAdmin)
}

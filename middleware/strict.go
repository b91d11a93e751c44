package middleware

import (
	"net/http"

	goSession "github.com/MrEthical07/goSession"
)

// RequireStrict admits requests while m holds a session whose checksum
// still validates.
func RequireStrict(m *goSession.Manager) func(http.Handler) http.Handler {
	return Guard(m, LevelStrict)
}

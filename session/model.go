package session

import "time"

// Identity is the stable identity reference carried by a Session.
type Identity struct {
	ID        string
	Email     string
	CreatedAt time.Time
}

// Session is the record issued by the identity provider on sign-in or
// refresh. ExpiresAt may be zero when only AccessToken carries the expiry.
type Session struct {
	Identity     Identity
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Valid reports whether the session names an identity.
func (s *Session) Valid() bool {
	return s != nil && s.Identity.ID != ""
}

// User is the authenticated projection of a Session. It is built once per
// transition and never mutated; a role change produces a new User.
type User struct {
	Identity
	Role    string
	IsAdmin bool
}

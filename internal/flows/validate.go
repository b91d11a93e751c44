package flows

import (
	"github.com/MrEthical07/goSession/checksum"
	"github.com/MrEthical07/goSession/session"
)

// RunValidate recomputes the checksum of user and compares it against
// stored. A nil user never validates.
func RunValidate(user *session.User, stored string, h *checksum.Hasher) bool {
	if user == nil {
		return false
	}
	return h.Validate(&checksum.Subject{
		ID:        user.ID,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}, stored)
}

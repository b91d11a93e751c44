package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/zeebo/blake3"
)

// Digest selects the hash used by a [Hasher].
type Digest uint8

const (
	// DigestSHA256 is the default cryptographic digest.
	DigestSHA256 Digest = iota
	// DigestBLAKE3 uses BLAKE3-256.
	DigestBLAKE3
	// DigestFallback is a non-cryptographic xxHash64 combinator for hosts
	// that cannot or should not pay for a cryptographic digest.
	DigestFallback
)

func (d Digest) String() string {
	switch d {
	case DigestSHA256:
		return "sha256"
	case DigestBLAKE3:
		return "blake3"
	case DigestFallback:
		return "fallback"
	default:
		return "digest(" + strconv.Itoa(int(d)) + ")"
	}
}

// Subject is the minimal identity projection that is fingerprinted.
type Subject struct {
	ID        string
	Email     string
	CreatedAt time.Time
}

type canonical struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

// Hasher creates checksums with a fixed digest.
type Hasher struct {
	digest Digest
}

// New returns a Hasher for d. Unknown digests fall back to [DigestFallback].
func New(d Digest) *Hasher {
	switch d {
	case DigestSHA256, DigestBLAKE3, DigestFallback:
	default:
		d = DigestFallback
	}
	return &Hasher{digest: d}
}

// Digest reports the digest in use.
func (h *Hasher) Digest() Digest {
	if h == nil {
		return DigestSHA256
	}
	return h.digest
}

// Create returns the checksum of s.
func (h *Hasher) Create(s Subject) string {
	payload := serialize(s)

	switch h.Digest() {
	case DigestBLAKE3:
		sum := blake3.Sum256(payload)
		return hex.EncodeToString(sum[:])
	case DigestFallback:
		return strconv.FormatUint(xxhash.Sum64(payload), 16)
	default:
		sum := sha256.Sum256(payload)
		return hex.EncodeToString(sum[:])
	}
}

// Validate reports whether stored matches the checksum of s. It is false
// when s is nil or stored is empty.
func (h *Hasher) Validate(s *Subject, stored string) bool {
	if s == nil || stored == "" {
		return false
	}
	return h.Create(*s) == stored
}

var defaultHasher = New(DigestSHA256)

// Create returns the SHA-256 checksum of s.
func Create(s Subject) string { return defaultHasher.Create(s) }

// Validate compares stored against the SHA-256 checksum of s.
func Validate(s *Subject, stored string) bool { return defaultHasher.Validate(s, stored) }

func serialize(s Subject) []byte {
	createdAt := ""
	if !s.CreatedAt.IsZero() {
		createdAt = s.CreatedAt.UTC().Format(time.RFC3339Nano)
	}
	// Marshal of a flat struct of strings cannot fail.
	out, _ := json.Marshal(canonical{
		ID:        s.ID,
		Email:     s.Email,
		CreatedAt: createdAt,
	})
	return out
}

package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// TypeSessionUpdate is the only message type the session manager emits.
const TypeSessionUpdate = "SESSION_UPDATE"

var (
	// ErrClosed is returned when posting to a closed channel.
	ErrClosed = errors.New("broadcast channel closed")
	// ErrRedisUnavailable wraps Redis transport failures.
	ErrRedisUnavailable = errors.New("redis unavailable")
	// ErrInvalidMessage is returned when a payload cannot be decoded.
	ErrInvalidMessage = errors.New("invalid broadcast message")
)

// Message is a session-change notice.
type Message struct {
	Type      string `json:"type"`
	Checksum  string `json:"checksum"`
	Timestamp int64  `json:"timestamp"`
	Origin    string `json:"origin,omitempty"`
}

// NewSessionUpdate builds a SESSION_UPDATE message stamped at now.
func NewSessionUpdate(origin, checksum string, now time.Time) Message {
	return Message{
		Type:      TypeSessionUpdate,
		Checksum:  checksum,
		Timestamp: now.UnixMilli(),
		Origin:    origin,
	}
}

// Encode returns the JSON wire form of m.
func Encode(m Message) ([]byte, error) {
	return json.Marshal(m)
}

// Decode parses a JSON payload. Payloads without a type are rejected.
func Decode(data []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return Message{}, ErrInvalidMessage
	}
	if m.Type == "" {
		return Message{}, ErrInvalidMessage
	}
	return m, nil
}

// Channel is one endpoint of a named broadcast channel.
type Channel interface {
	Post(ctx context.Context, m Message) error
	Subscribe(fn func(Message)) (unsubscribe func())
	Close() error
}

package audit

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"time"
)

// Event types emitted by the Manager.
const (
	TypeTransition       = "session.transition"
	TypeSignedIn         = "session.signed_in"
	TypeSignedOut        = "session.signed_out"
	TypeForcedSignOut    = "session.forced_sign_out"
	TypeRefreshSuccess   = "refresh.succeeded"
	TypeRefreshFailure   = "refresh.failed"
	TypeRefreshExhaust   = "refresh.exhausted"
	TypeCrossTabMismatch = "crosstab.mismatch"
	TypeNetworkOnline    = "network.online"
	TypeNetworkOffline   = "network.offline"
	TypeHealthChanged    = "health.changed"
)

// Event is one lifecycle record.
type Event struct {
	ID        string            `json:"id"`
	Seq       uint64            `json:"seq"`
	Timestamp time.Time         `json:"timestamp"`
	EventType string            `json:"event_type"`
	Origin    string            `json:"origin,omitempty"`
	UserID    string            `json:"user_id,omitempty"`
	From      string            `json:"from,omitempty"`
	To        string            `json:"to,omitempty"`
	Success   bool              `json:"success"`
	Error     string            `json:"error,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Sink receives emitted audit events.
type Sink interface {
	Emit(ctx context.Context, event Event)
}

// NoOpSink drops audit events.
type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, Event) {}

// ChannelSink writes audit events into a buffered channel.
type ChannelSink struct {
	events chan Event
}

func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{events: make(chan Event, buffer)}
}

func (s *ChannelSink) Emit(ctx context.Context, event Event) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

func (s *ChannelSink) Events() <-chan Event {
	return s.events
}

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{writer: w}
}

func (s *JSONWriterSink) Emit(_ context.Context, event Event) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	data = append(data, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = s.writer.Write(data)
}

// SlogSink logs each event at info level.
type SlogSink struct {
	logger *slog.Logger
}

func NewSlogSink(logger *slog.Logger) *SlogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogSink{logger: logger}
}

func (s *SlogSink) Emit(ctx context.Context, event Event) {
	attrs := []slog.Attr{
		slog.String("id", event.ID),
		slog.String("origin", event.Origin),
		slog.Bool("success", event.Success),
	}
	if event.UserID != "" {
		attrs = append(attrs, slog.String("user_id", event.UserID))
	}
	if event.From != "" || event.To != "" {
		attrs = append(attrs, slog.String("from", event.From), slog.String("to", event.To))
	}
	if event.Error != "" {
		attrs = append(attrs, slog.String("error", event.Error))
	}
	for k, v := range event.Metadata {
		attrs = append(attrs, slog.String(k, v))
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, event.EventType, attrs...)
}

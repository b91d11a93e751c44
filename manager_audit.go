package goSession

import (
	"context"

	internalaudit "github.com/MrEthical07/goSession/internal/audit"
)

// emitAudit queues one event; the dispatcher stamps time and origin. err is reduced to its kind so no
// raw boundary text reaches the sink.
func (m *Manager) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if m == nil || m.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		EventType: eventType,
		UserID:    userID,
		Success:   success,
		Metadata:  metadata,
	}
	if err != nil {
		event.Error = Classify(err).Kind.String()
	}
	m.audit.Emit(ctx, event)
}

func (m *Manager) emitTransition(ctx context.Context, from, to Status, snap Snapshot) {
	if m.audit == nil {
		return
	}
	userID := ""
	if snap.User != nil {
		userID = snap.User.ID
	}
	m.audit.Emit(ctx, AuditEvent{
		EventType: internalaudit.TypeTransition,
		UserID:    userID,
		From:      from.String(),
		To:        to.String(),
		Success:   to != StatusError,
	})
}

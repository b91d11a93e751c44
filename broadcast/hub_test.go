package broadcast

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestHubDeliversToPeersOnly(t *testing.T) {
	hub := NewHub()
	a := hub.Open("sync")
	b := hub.Open("sync")
	other := hub.Open("other")

	var gotA, gotB, gotOther []Message
	a.Subscribe(func(m Message) { gotA = append(gotA, m) })
	b.Subscribe(func(m Message) { gotB = append(gotB, m) })
	other.Subscribe(func(m Message) { gotOther = append(gotOther, m) })

	msg := NewSessionUpdate("tab-a", "c1", time.UnixMilli(1700000000000))
	if err := a.Post(context.Background(), msg); err != nil {
		t.Fatalf("Post failed: %v", err)
	}

	if len(gotA) != 0 {
		t.Fatalf("sender must not receive its own post, got %v", gotA)
	}
	if len(gotB) != 1 || gotB[0] != msg {
		t.Fatalf("peer expected message, got %v", gotB)
	}
	if len(gotOther) != 0 {
		t.Fatalf("other channel must not receive, got %v", gotOther)
	}
}

func TestHubUnsubscribeAndClose(t *testing.T) {
	hub := NewHub()
	a := hub.Open("sync")
	b := hub.Open("sync")

	count := 0
	unsubscribe := b.Subscribe(func(Message) { count++ })
	_ = a.Post(context.Background(), NewSessionUpdate("a", "c1", time.Now()))
	unsubscribe()
	unsubscribe()
	_ = a.Post(context.Background(), NewSessionUpdate("a", "c2", time.Now()))
	if count != 1 {
		t.Fatalf("expected 1 delivery, got %d", count)
	}

	if err := a.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := a.Post(context.Background(), NewSessionUpdate("a", "c3", time.Now())); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantErr bool
	}{
		{name: "valid", payload: `{"type":"SESSION_UPDATE","checksum":"c1","timestamp":1}`},
		{name: "not json", payload: `nope`, wantErr: true},
		{name: "missing type", payload: `{"checksum":"c1"}`, wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode([]byte(tc.payload))
			if tc.wantErr && !errors.Is(err, ErrInvalidMessage) {
				t.Fatalf("expected ErrInvalidMessage, got %v", err)
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error %v", err)
			}
		})
	}
}

func TestEncodeWireFormat(t *testing.T) {
	data, err := Encode(NewSessionUpdate("", "c1", time.UnixMilli(42)))
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	want := `{"type":"SESSION_UPDATE","checksum":"c1","timestamp":42}`
	if string(data) != want {
		t.Fatalf("Encode = %s, want %s", data, want)
	}
}

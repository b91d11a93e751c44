// Package crosstab keeps sibling session managers converged by exchanging
// session checksums over a broadcast channel.
//
// A mismatch never adopts the peer's checksum. It asks the owner to
// re-derive state from the identity provider, which is the only source of
// truth.
package crosstab

import (
	"context"
	"sync"

	"github.com/MrEthical07/goSession/broadcast"
	"github.com/MrEthical07/goSession/clock"
)

// Hooks connects a Sync to its owner.
type Hooks struct {
	// Current returns the local checksum, empty when signed out.
	Current func() string
	// OnMismatch runs when a peer reports a different checksum.
	OnMismatch func(m broadcast.Message)
	// OnReceive runs for every accepted peer message.
	OnReceive func(m broadcast.Message)
}

// Sync is one manager's attachment to the shared channel. A nil channel
// makes every method a no-op.
type Sync struct {
	ch     broadcast.Channel
	origin string
	clock  clock.Clock
	hooks  Hooks

	mu    sync.Mutex
	unsub func()
}

// New returns a Sync posting as origin.
func New(ch broadcast.Channel, origin string, c clock.Clock, hooks Hooks) *Sync {
	if c == nil {
		c = clock.Real()
	}
	return &Sync{ch: ch, origin: origin, clock: c, hooks: hooks}
}

// Origin returns the identifier stamped on outgoing messages.
func (s *Sync) Origin() string { return s.origin }

// Start subscribes to peer messages. Calling it twice is a no-op.
func (s *Sync) Start() {
	if s.ch == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unsub != nil {
		return
	}
	s.unsub = s.ch.Subscribe(s.handle)
}

func (s *Sync) handle(m broadcast.Message) {
	if m.Type != broadcast.TypeSessionUpdate {
		return
	}
	if m.Origin != "" && m.Origin == s.origin {
		return
	}
	if s.hooks.OnReceive != nil {
		s.hooks.OnReceive(m)
	}

	local := ""
	if s.hooks.Current != nil {
		local = s.hooks.Current()
	}
	if m.Checksum != local && s.hooks.OnMismatch != nil {
		s.hooks.OnMismatch(m)
	}
}

// Publish announces checksum to peers.
func (s *Sync) Publish(ctx context.Context, checksum string) error {
	if s.ch == nil {
		return nil
	}
	return s.ch.Post(ctx, broadcast.NewSessionUpdate(s.origin, checksum, s.clock.Now()))
}

// Stop unsubscribes. The channel itself is owned by the caller.
func (s *Sync) Stop() {
	s.mu.Lock()
	unsub := s.unsub
	s.unsub = nil
	s.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

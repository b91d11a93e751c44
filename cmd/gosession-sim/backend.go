package main

import (
	"context"
	"errors"
	"sync"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/clock"
)

// backend is the identity service every simulated tab talks to.
type backend struct {
	clock          clock.Clock
	window         time.Duration
	rateLimitEvery int

	mu        sync.Mutex
	current   *goSession.Session
	refreshes int
	limited   int
}

func newBackend(c clock.Clock, window time.Duration, rateLimitEvery int) *backend {
	return &backend{
		clock:          c,
		window:         window,
		rateLimitEvery: rateLimitEvery,
	}
}

func (b *backend) signIn(id goSession.Identity) {
	b.mu.Lock()
	b.current = &goSession.Session{
		Identity:     id,
		AccessToken:  "sim-access",
		RefreshToken: "sim-refresh",
		ExpiresAt:    b.clock.Now().Add(b.window),
	}
	b.mu.Unlock()
}

func (b *backend) GetCurrentSession(context.Context) (*goSession.Session, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current == nil {
		return nil, nil
	}
	s := *b.current
	return &s, nil
}

func (b *backend) RefreshSession(context.Context) (*goSession.Session, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refreshes++
	if b.rateLimitEvery > 0 && b.refreshes%b.rateLimitEvery == 0 {
		b.limited++
		return nil, goSession.ErrRateLimited
	}
	if b.current == nil {
		return nil, errors.New("invalid refresh token: refresh token not found")
	}
	b.current.ExpiresAt = b.clock.Now().Add(b.window)
	s := *b.current
	return &s, nil
}

// tab returns a per-tab view of the backend. Lifecycle notifications are
// local to the tab that caused them, the way a browser SDK raises them.
func (b *backend) tab() *tabIdentity {
	return &tabIdentity{backend: b}
}

func (b *backend) counts() (refreshes, limited int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.refreshes, b.limited
}

func (b *backend) report(context.Context) goSession.HealthReport {
	return goSession.HealthReport{Healthy: true, Services: goSession.HealthServices{Auth: true}}
}

type tabIdentity struct {
	backend *backend

	mu  sync.Mutex
	sub func(goSession.LifecycleEvent)
}

func (t *tabIdentity) GetCurrentSession(ctx context.Context) (*goSession.Session, error) {
	return t.backend.GetCurrentSession(ctx)
}

func (t *tabIdentity) RefreshSession(ctx context.Context) (*goSession.Session, error) {
	return t.backend.RefreshSession(ctx)
}

func (t *tabIdentity) SignOut(context.Context) error {
	t.backend.mu.Lock()
	t.backend.current = nil
	t.backend.mu.Unlock()
	t.emit(goSession.LifecycleEvent{Type: goSession.EventSignedOut})
	return nil
}

func (t *tabIdentity) Subscribe(fn func(goSession.LifecycleEvent)) func() {
	t.mu.Lock()
	t.sub = fn
	t.mu.Unlock()
	return func() {
		t.mu.Lock()
		t.sub = nil
		t.mu.Unlock()
	}
}

func (t *tabIdentity) emit(ev goSession.LifecycleEvent) {
	t.mu.Lock()
	fn := t.sub
	t.mu.Unlock()
	if fn != nil {
		fn(ev)
	}
}

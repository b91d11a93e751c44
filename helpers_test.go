package goSession

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/goSession/clock"
)

var testStart = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

var testIdentity = Identity{
	ID:        "u1",
	Email:     "a@x.com",
	CreatedAt: time.Date(2025, 12, 24, 8, 30, 0, 0, time.UTC),
}

// fakeIdentity is a shared in-memory identity backend.
type fakeIdentity struct {
	clock  clock.Clock
	window time.Duration

	mu             sync.Mutex
	current        *Session
	getCalls       int
	refreshCalls   int
	signOutCalls   int
	refreshErr     error
	refreshGate    chan struct{}
	refreshStarted chan struct{}
	subs           map[int]func(LifecycleEvent)
	nextSub        int
}

func newFakeIdentity(c clock.Clock) *fakeIdentity {
	return &fakeIdentity{
		clock:  c,
		window: 90 * time.Minute,
		subs:   map[int]func(LifecycleEvent){},
	}
}

func (f *fakeIdentity) signIn(id Identity) *Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = &Session{
		Identity:     id,
		AccessToken:  "access",
		RefreshToken: "refresh",
		ExpiresAt:    f.clock.Now().Add(f.window),
	}
	s := *f.current
	return &s
}

func (f *fakeIdentity) GetCurrentSession(context.Context) (*Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if f.current == nil {
		return nil, nil
	}
	s := *f.current
	return &s, nil
}

func (f *fakeIdentity) RefreshSession(context.Context) (*Session, error) {
	f.mu.Lock()
	f.refreshCalls++
	gate, started, err := f.refreshGate, f.refreshStarted, f.refreshErr
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.current == nil {
		return nil, errors.New("Invalid Refresh Token: Refresh Token Not Found")
	}
	f.current.ExpiresAt = f.clock.Now().Add(f.window)
	s := *f.current
	return &s, nil
}

func (f *fakeIdentity) SignOut(context.Context) error {
	f.mu.Lock()
	f.signOutCalls++
	f.current = nil
	f.mu.Unlock()
	f.emit(LifecycleEvent{Type: EventSignedOut})
	return nil
}

func (f *fakeIdentity) Subscribe(fn func(LifecycleEvent)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextSub
	f.nextSub++
	f.subs[id] = fn
	return func() {
		f.mu.Lock()
		delete(f.subs, id)
		f.mu.Unlock()
	}
}

func (f *fakeIdentity) emit(ev LifecycleEvent) {
	f.mu.Lock()
	fns := make([]func(LifecycleEvent), 0, len(f.subs))
	for _, fn := range f.subs {
		fns = append(fns, fn)
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}

func (f *fakeIdentity) counts() (get, refresh, signOut int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.getCalls, f.refreshCalls, f.signOutCalls
}

func (f *fakeIdentity) setRefreshErr(err error) {
	f.mu.Lock()
	f.refreshErr = err
	f.mu.Unlock()
}

type staticProfiles map[string]string

func (p staticProfiles) GetOrCreateProfile(_ context.Context, id string) (Profile, error) {
	return Profile{Role: p[id]}, nil
}

type staticPrivileges map[string]bool

func (p staticPrivileges) IsAdminUser(_ context.Context, id string) (bool, error) {
	return p[id], nil
}

type fakeHealth struct {
	mu     sync.Mutex
	report HealthReport
	err    error
	calls  int
}

func (h *fakeHealth) set(healthy bool) {
	h.mu.Lock()
	h.report = HealthReport{Healthy: healthy, Services: HealthServices{Auth: healthy}}
	h.mu.Unlock()
}

func (h *fakeHealth) CheckHealth(context.Context) (HealthReport, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls++
	return h.report, h.err
}

type recordingNavigator struct {
	mu      sync.Mutex
	reasons []string
}

func (n *recordingNavigator) SignedOut(reason string) {
	n.mu.Lock()
	n.reasons = append(n.reasons, reason)
	n.mu.Unlock()
}

func (n *recordingNavigator) calls() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.reasons...)
}

// testConfig disables idle validation so timer tests see only the expiry
// timer.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Idle.Interval = 0
	return cfg
}

func buildTestManager(t *testing.T, fc *clock.FakeClock, id IdentityProvider, cfg Config, opts ...func(*Builder)) *Manager {
	t.Helper()

	b := New().
		WithConfig(cfg).
		WithClock(fc).
		WithIdentityProvider(id)
	for _, opt := range opts {
		opt(b)
	}
	m, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(m.Close)
	return m
}

type statusRecorder struct {
	mu       sync.Mutex
	statuses []Status
}

func (r *statusRecorder) record(s Snapshot) {
	r.mu.Lock()
	r.statuses = append(r.statuses, s.Status)
	r.mu.Unlock()
}

func (r *statusRecorder) list() []Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Status(nil), r.statuses...)
}

// Package netmon debounces raw connectivity reports into settled
// online/offline transitions.
package netmon

import (
	"sync"
	"time"

	"github.com/MrEthical07/goSession/clock"
)

// Monitor collapses bursts of reports into one settled state. Only a
// settled state that differs from the previous one is delivered.
type Monitor struct {
	clock    clock.Clock
	debounce time.Duration
	onChange func(online bool)

	mu      sync.Mutex
	timer   clock.Timer
	online  bool
	pending bool
	closed  bool
}

// New returns a Monitor that starts out online.
func New(c clock.Clock, debounce time.Duration, onChange func(online bool)) *Monitor {
	if c == nil {
		c = clock.Real()
	}
	return &Monitor{
		clock:    c,
		debounce: debounce,
		onChange: onChange,
		online:   true,
	}
}

// Report records a raw observation and restarts the debounce window.
func (m *Monitor) Report(online bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	if m.timer != nil {
		m.timer.Stop()
	}
	m.pending = online
	m.timer = m.clock.AfterFunc(m.debounce, m.settle)
}

func (m *Monitor) settle() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.timer = nil
	next := m.pending
	changed := next != m.online
	m.online = next
	m.mu.Unlock()

	if changed && m.onChange != nil {
		m.onChange(next)
	}
}

// Online returns the last settled state.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// Close stops the debounce timer. Reports after Close are ignored.
func (m *Monitor) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

package ws

import (
	"context"
	"sync"
	"time"
)

// statusHub is what the monitor needs from the hub.
type statusHub interface {
	ClientCount() int
	BroadcastStatus(StatusUpdate)
}

type MonitorConfig struct {
	// Timeout is the silence window after which the simulator is
	// considered disconnected.
	Timeout time.Duration
	// Period is the evaluation interval while clients are registered.
	Period time.Duration
	// IdlePeriod is the slower check interval with no clients.
	IdlePeriod time.Duration

	// LastData reports when the bridge last accepted a telemetry record.
	LastData func() time.Time
	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time
}

// Monitor derives "simulator connected" from data recency and pushes a
// status update to clients only when the state flips. Steady state is
// silent so broadcast volume stays bounded.
type Monitor struct {
	cfg MonitorConfig
	hub statusHub

	mu        sync.Mutex
	connected bool
}

func NewMonitor(hub statusHub, cfg MonitorConfig) *Monitor {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.Period <= 0 {
		cfg.Period = 2 * time.Second
	}
	if cfg.IdlePeriod <= 0 {
		cfg.IdlePeriod = 10 * time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Monitor{cfg: cfg, hub: hub}
}

func (m *Monitor) Run(ctx context.Context) {
	for {
		period := m.cfg.Period
		if m.hub.ClientCount() == 0 {
			period = m.cfg.IdlePeriod
		}
		timer := time.NewTimer(period)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		m.Evaluate()
	}
}

// Evaluate recomputes connectivity and broadcasts on a transition.
// With no clients registered it does nothing.
func (m *Monitor) Evaluate() {
	if m.hub.ClientCount() == 0 {
		return
	}

	last := m.cfg.LastData()
	now := m.cfg.Now()
	connected := !last.IsZero() && now.Sub(last) <= m.cfg.Timeout

	m.mu.Lock()
	changed := connected != m.connected
	m.connected = connected
	m.mu.Unlock()

	if changed {
		m.hub.BroadcastStatus(StatusUpdate{SimConnected: &connected})
	}
}

// NoteData is the edge-triggered fast path: when a record arrives while
// the last known state was disconnected, flip immediately rather than
// waiting for the next periodic check.
func (m *Monitor) NoteData() {
	m.mu.Lock()
	wasConnected := m.connected
	m.mu.Unlock()
	if !wasConnected {
		m.Evaluate()
	}
}

// Connected reports the last evaluated state.
func (m *Monitor) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

// Package narrate paces agent output so a narration consumer can keep
// up. The delivery gate is a credit semaphore: each agent message
// spends a credit, each narration ack returns one. Credits absorb
// bursts up to BufferSize; past that the scheduler blocks FIFO until
// the narrator catches up or the wait times out.
package narrate

import (
	"context"
	"sync"
	"time"

	"github.com/and1mon/clueless/internal/platform/metrics"
)

const (
	// BufferSize is how many unacknowledged messages a game may have
	// in flight before the scheduler blocks.
	BufferSize = 5
	// WaitTimeout bounds a blocked wait so a dead narrator can never
	// wedge a game.
	WaitTimeout = 15 * time.Second
)

// Gate is one game's delivery gate. Gating starts disabled: Wait is a
// no-op until a narration consumer enables it.
type Gate struct {
	mu      sync.Mutex
	enabled bool
	credits int
	waiters []chan struct{}
	timeout time.Duration
}

// NewGate creates a gate with a full credit buffer, gating disabled.
func NewGate() *Gate {
	return &Gate{
		credits: BufferSize,
		timeout: WaitTimeout,
	}
}

// Wait spends a credit, blocking FIFO behind earlier waiters when the
// buffer is exhausted. Returns when handed a credit, when the timeout
// fires, or when ctx is done. Disabled gates never block.
func (g *Gate) Wait(ctx context.Context) {
	g.mu.Lock()
	if !g.enabled {
		g.mu.Unlock()
		return
	}
	if g.credits > 0 {
		g.credits--
		g.mu.Unlock()
		metrics.Get().RecordGateWait(false)
		return
	}
	ch := make(chan struct{})
	g.waiters = append(g.waiters, ch)
	timeout := g.timeout
	g.mu.Unlock()
	metrics.Get().RecordGateWait(true)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-ch:
		return
	case <-timer.C:
		metrics.Get().RecordGateTimeout()
	case <-ctx.Done():
	}

	// Timed out or cancelled: pull the waiter out of the queue. If an
	// ack dequeued it first, the channel is already closed and the
	// hand-off counts as a normal wake.
	g.mu.Lock()
	defer g.mu.Unlock()
	for i, w := range g.waiters {
		if w == ch {
			g.waiters = append(g.waiters[:i], g.waiters[i+1:]...)
			return
		}
	}
}

// Ack returns one credit. A blocked waiter gets it directly, oldest
// first; otherwise it banks, capped at BufferSize.
func (g *Gate) Ack() {
	metrics.Get().RecordGateAck()
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.enabled {
		return
	}
	if len(g.waiters) > 0 {
		ch := g.waiters[0]
		g.waiters = g.waiters[1:]
		close(ch)
		return
	}
	if g.credits < BufferSize {
		g.credits++
	}
}

// SetEnabled switches gating on or off. Disabling wakes every blocked
// waiter and resets the credit buffer to full.
func (g *Gate) SetEnabled(on bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.enabled == on {
		return
	}
	g.enabled = on
	if !on {
		for _, ch := range g.waiters {
			close(ch)
		}
		g.waiters = nil
		g.credits = BufferSize
	}
}

// Enabled reports whether gating is active.
func (g *Gate) Enabled() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.enabled
}

// GateSet maps game IDs to their gates, creating them on first use.
type GateSet struct {
	mu    sync.RWMutex
	gates map[string]*Gate
}

// NewGateSet creates an empty gate set.
func NewGateSet() *GateSet {
	return &GateSet{gates: make(map[string]*Gate)}
}

// For returns the game's gate, creating it if needed.
func (s *GateSet) For(gameID string) *Gate {
	s.mu.RLock()
	g, ok := s.gates[gameID]
	s.mu.RUnlock()
	if ok {
		return g
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if g, ok := s.gates[gameID]; ok {
		return g
	}
	g = NewGate()
	s.gates[gameID] = g
	return g
}

// Ack acknowledges one delivered message for a game.
func (s *GateSet) Ack(gameID string) {
	s.For(gameID).Ack()
}

// SetGating enables or disables gating for a game.
func (s *GateSet) SetGating(gameID string, on bool) {
	s.For(gameID).SetEnabled(on)
}

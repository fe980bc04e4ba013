// Package engine - registry.go
package engine

import (
	"fmt"
	"sync"

	"github.com/and1mon/clueless/internal/platform/logger"
	"github.com/and1mon/clueless/internal/platform/metrics"
)

// Registry is the process-wide map of live games. Games exist only in
// memory; the archive behind the persister is write-only history.
type Registry struct {
	mu        sync.RWMutex
	games     map[string]*Game
	persister MessagePersister
	logger    *logger.Logger
}

// NewRegistry creates an empty registry. The persister may be nil to
// disable archiving.
func NewRegistry(persister MessagePersister, log *logger.Logger) *Registry {
	return &Registry{
		games:     make(map[string]*Game),
		persister: persister,
		logger:    log,
	}
}

// Create deals a new game and registers it.
func (r *Registry) Create(cfg GameConfig) (*Game, error) {
	g, err := NewGame(cfg, r.persister, r.logger)
	if err != nil {
		return nil, fmt.Errorf("create game: %w", err)
	}

	r.mu.Lock()
	r.games[g.ID()] = g
	r.mu.Unlock()

	metrics.Get().RecordGameCreated()
	if r.logger != nil {
		r.logger.Event("GAME_CREATED", g.ID(), fmt.Sprintf("seats=%d", len(cfg.Seats)))
	}
	if r.persister != nil {
		p := r.persister
		snap := g.Snapshot()
		go func() {
			if err := p.SaveGame(snap.ID, snap.CreatedAt); err != nil && r.logger != nil {
				r.logger.Errorf("archive game write failed for %s: %v", snap.ID, err)
			}
		}()
	}
	return g, nil
}

// Get resolves a live game by ID.
func (r *Registry) Get(id string) (*Game, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.games[id]
	return g, ok
}

// All returns every live game, in no particular order.
func (r *Registry) All() []*Game {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Game, 0, len(r.games))
	for _, g := range r.games {
		out = append(out, g)
	}
	return out
}

// Package inflight guards (class, season) recalibration units against
// duplicate concurrent work.
//
// Correctness never depends on the guard: units append records, so two
// overlapping runs produce two valid records. The guard only saves the
// wasted computation.
package inflight

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/okian/leaguelearn/internal/domain/model"
)

// Guard tracks units currently being computed.
type Guard interface {
	// TryAcquire claims the unit. It returns false if another caller holds it.
	TryAcquire(ctx context.Context, class model.LeagueClass, season int) bool
	// Release frees a unit claimed by TryAcquire.
	Release(ctx context.Context, class model.LeagueClass, season int)
	// Size returns the number of units currently held.
	Size() int64
}

type inMemoryGuard struct {
	mu      sync.Mutex
	held    map[string]struct{}
	maxSize int
	size    atomic.Int64
}

// NewInMemoryGuard creates a process-local guard.
func NewInMemoryGuard(opts ...Option) Guard {
	g := &inMemoryGuard{}
	for _, opt := range opts {
		opt(g)
	}
	g.held = make(map[string]struct{})
	return g
}

func unitKey(class model.LeagueClass, season int) string {
	return fmt.Sprintf("%s/%d", class, season)
}

func (g *inMemoryGuard) TryAcquire(_ context.Context, class model.LeagueClass, season int) bool {
	key := unitKey(class, season)

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.held[key]; exists {
		return false
	}
	if g.maxSize > 0 && len(g.held) >= g.maxSize {
		return false
	}
	g.held[key] = struct{}{}
	g.size.Add(1)
	return true
}

func (g *inMemoryGuard) Release(_ context.Context, class model.LeagueClass, season int) {
	key := unitKey(class, season)

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.held[key]; exists {
		delete(g.held, key)
		g.size.Add(-1)
	}
}

func (g *inMemoryGuard) Size() int64 {
	return g.size.Load()
}

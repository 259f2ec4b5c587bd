// File path: internal/router/session.go
package router

import (
	"sync"

	"github.com/google/uuid"
)

// SessionStats is the per-session rollup of routed calls.
type SessionStats struct {
	QueriesBySource  map[string]int `json:"queries_by_source"`
	EstimatedCostUSD float64        `json:"estimated_cost_usd"`
}

// Tracker accumulates usage counters for one logical session. The tracker is
// passed explicitly with every router call; there is no process-global
// counter, so concurrent sessions cannot corrupt each other.
type Tracker interface {
	Record(source string, cost float64)
	Stats() SessionStats
}

// MemoryTracker is the in-memory default Tracker.
type MemoryTracker struct {
	mu      sync.Mutex
	queries map[string]int
	cost    float64
}

func NewMemoryTracker() *MemoryTracker {
	return &MemoryTracker{queries: make(map[string]int)}
}

func (t *MemoryTracker) Record(source string, cost float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.queries[source]++
	t.cost += cost
}

func (t *MemoryTracker) Stats() SessionStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	queries := make(map[string]int, len(t.queries))
	for source, count := range t.queries {
		queries[source] = count
	}
	return SessionStats{QueriesBySource: queries, EstimatedCostUSD: t.cost}
}

// Session identifies one logical batch of router calls.
type Session struct {
	ID      string
	Tracker Tracker
}

// NewSession creates a session with a fresh id and an in-memory tracker.
func NewSession() *Session {
	return &Session{ID: uuid.NewString(), Tracker: NewMemoryTracker()}
}

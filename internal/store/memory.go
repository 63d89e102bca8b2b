// internal/store/memory.go
//
// In-memory registry of live solver sessions.
// Each session is a *worker.Worker owning its own engine.
//
// Characteristics:
//   - Sessions keyed by a random UUID.
//   - Concurrency-safe via RWMutex (concurrent lookups, exclusive writes).
//   - State is lost when the process restarts.
//   - Idle sessions are closed and dropped by Sweep.

package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Storm-fyre/silversolver/internal/worker"
)

// ErrNotFound is returned for unknown or expired session IDs.
var ErrNotFound = errors.New("session not found")

// Factory builds the worker for a new session.
type Factory func(id string) *worker.Worker

// Store holds live sessions.
type Store interface {
	// Create registers a new session and returns its ID and worker.
	Create(ctx context.Context) (string, *worker.Worker, error)

	// Get looks a session up by ID.
	Get(ctx context.Context, id string) (*worker.Worker, error)

	// Delete closes and removes a session.
	Delete(ctx context.Context, id string) error

	// Sweep closes sessions idle for longer than maxIdle and returns how many went.
	Sweep(maxIdle time.Duration) int

	// Len returns the number of live sessions.
	Len() int

	// Close shuts every session down.
	Close()
}

type memory struct {
	mu       sync.RWMutex              // guards sessions
	sessions map[string]*worker.Worker // keyed by session ID
	factory  Factory
	now      func() time.Time
}

// NewMemoryStore constructs an in-memory Store that builds sessions with f.
func NewMemoryStore(f Factory) Store {
	return &memory{
		sessions: make(map[string]*worker.Worker),
		factory:  f,
		now:      time.Now,
	}
}

func (m *memory) Create(ctx context.Context) (string, *worker.Worker, error) {
	id := uuid.NewString()
	w := m.factory(id)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[id] = w
	return id, w, nil
}

func (m *memory) Get(ctx context.Context, id string) (*worker.Worker, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if w, ok := m.sessions[id]; ok {
		return w, nil
	}
	return nil, ErrNotFound
}

func (m *memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	w, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	w.Close()
	return nil
}

func (m *memory) Sweep(maxIdle time.Duration) int {
	cutoff := m.now().Add(-maxIdle)

	m.mu.Lock()
	var stale []*worker.Worker
	for id, w := range m.sessions {
		if w.LastUsed().Before(cutoff) {
			stale = append(stale, w)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, w := range stale {
		w.Close()
	}
	return len(stale)
}

func (m *memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *memory) Close() {
	m.mu.Lock()
	all := m.sessions
	m.sessions = make(map[string]*worker.Worker)
	m.mu.Unlock()
	for _, w := range all {
		w.Close()
	}
}

// RunSweeper calls Sweep every interval until ctx ends.
func RunSweeper(ctx context.Context, s Store, every, maxIdle time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := s.Sweep(maxIdle); n > 0 {
				log.Info().Int("expired", n).Int("live", s.Len()).Msg("swept idle sessions")
			}
		}
	}
}

// internal/store/memory.go
//
// In-memory implementation of the Store interface.
// Holds live game sessions keyed by ID for the HTTP and websocket layers.
//
// Characteristics:
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - Each Session carries its own mutex so guesses against one game are
//     evaluated one at a time.
//   - State is lost when the process restarts; durable records live in
//     internal/history.
//   - Idle sessions are dropped with Evict.

package store

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robalobadob/wordle/engine/internal/game"
	"github.com/robalobadob/wordle/engine/internal/history"
)

// ErrNotFound is returned by Get for unknown session IDs.
var ErrNotFound = errors.New("not found")

// Game modes.
const (
	ModeNormal = "normal"
	ModeDaily  = "daily"
)

// Session is a live game plus the metadata the server needs around it.
type Session struct {
	ID        string
	Mode      string
	Date      string // daily mode only
	WordIndex int    // daily mode only
	Owner     history.Owner
	Started   time.Time

	lastActive atomic.Int64 // unix nanos

	mu     sync.Mutex
	engine *game.Engine
}

// NewSession wraps e.
func NewSession(id, mode string, owner history.Owner, e *game.Engine) *Session {
	s := &Session{ID: id, Mode: mode, Owner: owner, Started: time.Now(), engine: e}
	s.Touch(s.Started)
	return s
}

// Touch records t as the session's last use.
func (s *Session) Touch(t time.Time) { s.lastActive.Store(t.UnixNano()) }

// LastActive returns the time of the last Touch.
func (s *Session) LastActive() time.Time { return time.Unix(0, s.lastActive.Load()) }

// With runs fn with exclusive access to the session's engine.
func (s *Session) With(fn func(e *game.Engine)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.engine)
}

// Store defines the persistence interface for live sessions.
type Store interface {
	// Save persists or updates a session.
	Save(ctx context.Context, s *Session) error

	// Get retrieves a session by ID, or ErrNotFound.
	Get(ctx context.Context, id string) (*Session, error)

	// Delete drops a session. Unknown IDs are ignored.
	Delete(ctx context.Context, id string) error

	// Evict drops every session last used before cutoff and returns their IDs.
	Evict(ctx context.Context, cutoff time.Time) ([]string, error)
}

// memory is an in-memory map-based Store implementation.
type memory struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{sessions: make(map[string]*Session)}
}

func (m *memory) Save(ctx context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return nil
}

func (m *memory) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	return nil, ErrNotFound
}

func (m *memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *memory) Evict(ctx context.Context, cutoff time.Time) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var gone []string
	for id, s := range m.sessions {
		if s.LastActive().Before(cutoff) {
			delete(m.sessions, id)
			gone = append(gone, id)
		}
	}
	return gone, nil
}

// Package session keeps conversation state between requests.
package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/vbonduro/whatthefridge/internal/domain"
)

// Store persists sessions by id. Get returns domain.ErrNotFound for unknown
// ids. Lock serializes work on one id: callers hold it across a
// Get/modify/Put cycle and release it with the returned func.
type Store interface {
	Get(ctx context.Context, id string) (*domain.Session, error)
	Put(ctx context.Context, s *domain.Session) error
	Lock(id string) (unlock func())
}

var _ Store = (*MemoryStore)(nil)

// MemoryStore is an in-memory Store. Sessions are copied on the way in and
// on the way out, so a caller's copy is never shared with another request.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
	locks    *KeyedMutex
	logger   *slog.Logger
}

func NewMemoryStore(logger *slog.Logger) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*domain.Session),
		locks:    NewKeyedMutex(),
		logger:   logger,
	}
}

func (m *MemoryStore) Get(_ context.Context, id string) (*domain.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		m.logger.Debug("session not found", "session_id", id)
		return nil, domain.ErrNotFound
	}
	return s.Clone(), nil
}

// Put replaces the stored session with s.
func (m *MemoryStore) Put(_ context.Context, s *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.logger.Debug("saving session", "session_id", s.ID, "step", s.CurrentStep.String(), "recipes", len(s.Recipes))
	m.sessions[s.ID] = s.Clone()
	return nil
}

func (m *MemoryStore) Lock(id string) func() {
	return m.locks.Lock(id)
}

// Len returns the number of stored sessions.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

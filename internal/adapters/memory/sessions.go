// Package memory keeps sessions in process memory.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ewilliams-labs/moodmusic/internal/core/domain"
	"github.com/ewilliams-labs/moodmusic/internal/core/ports"
	"github.com/google/uuid"
)

// SessionStore is a mutex-guarded map of sessions. Sessions idle for longer
// than the ttl are dropped by Sweep.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
	ttl      time.Duration
	now      func() time.Time
}

var _ ports.SessionStore = (*SessionStore)(nil)

// NewSessionStore creates an empty store. A ttl of zero disables expiry.
func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*domain.Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (m *SessionStore) Create(ctx context.Context) (domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return domain.Session{}, err
	}
	s := domain.NewSession(uuid.NewString(), m.now())

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = &s
	return s.Clone(), nil
}

func (m *SessionStore) Get(ctx context.Context, id string) (domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return domain.Session{}, fmt.Errorf("session %q: %w", id, domain.ErrNotFound)
	}
	return s.Clone(), nil
}

// Update runs fn on a copy and stores it only when fn succeeds.
func (m *SessionStore) Update(ctx context.Context, id string, fn func(s *domain.Session) error) (domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return domain.Session{}, fmt.Errorf("session %q: %w", id, domain.ErrNotFound)
	}

	working := s.Clone()
	if err := fn(&working); err != nil {
		return s.Clone(), err
	}
	working.UpdatedAt = m.now()
	m.sessions[id] = &working
	return working.Clone(), nil
}

// Sweep removes expired sessions and returns how many were dropped.
func (m *SessionStore) Sweep() int {
	if m.ttl <= 0 {
		return 0
	}
	cutoff := m.now().Add(-m.ttl)

	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, s := range m.sessions {
		if s.UpdatedAt.Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of live sessions.
func (m *SessionStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

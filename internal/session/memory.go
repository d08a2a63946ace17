package session

import (
	"context"
	"sync"
	"time"

	"barkpark-backend/internal/models"

	"github.com/google/uuid"
)

// MemoryStore is the in-process session backend. Entries expire lazily on
// read; there is no persistence across restarts.
type MemoryStore struct {
	mu       sync.RWMutex
	ttl      time.Duration
	sessions map[string]memoryEntry
}

type memoryEntry struct {
	session   *Session
	expiresAt time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		ttl:      ttl,
		sessions: make(map[string]memoryEntry),
	}
}

func (s *MemoryStore) Create(_ context.Context, user *models.User) (*Session, error) {
	sess := &Session{
		Token:  uuid.NewString(),
		UserID: user.UserID,
		User:   snapshot(user),
	}

	s.mu.Lock()
	s.sessions[sess.Token] = memoryEntry{session: sess, expiresAt: time.Now().Add(s.ttl)}
	s.mu.Unlock()

	return sess, nil
}

func (s *MemoryStore) Get(_ context.Context, token string) (*Session, error) {
	s.mu.RLock()
	entry, ok := s.sessions[token]
	s.mu.RUnlock()

	if !ok {
		return nil, nil
	}
	if time.Now().After(entry.expiresAt) {
		s.mu.Lock()
		delete(s.sessions, token)
		s.mu.Unlock()
		return nil, nil
	}
	return entry.session, nil
}

func (s *MemoryStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) TTL() time.Duration {
	return s.ttl
}

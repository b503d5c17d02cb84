package store

import (
	"context"
	"sync"

	blogify "github.com/HiravPansuriya/blogify-client"
)

// MemoryStore keeps the session in process memory. Sessions do not survive a
// restart; intended for tests and ephemeral embeddings.
type MemoryStore struct {
	mu      sync.Mutex
	session *blogify.Session
}

var _ blogify.SessionStore = (*MemoryStore)(nil)

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns a copy of the held session, or nil.
func (s *MemoryStore) Load(_ context.Context) (*blogify.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil || !s.session.Valid() {
		return nil, nil
	}

	cp := *s.session
	if s.session.User != nil {
		user := *s.session.User
		cp.User = &user
	}
	return &cp, nil
}

// Save stores a copy of the session. Saving nil clears the store.
func (s *MemoryStore) Save(_ context.Context, session *blogify.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session == nil {
		s.session = nil
		return nil
	}

	cp := *session
	if session.User != nil {
		user := *session.User
		cp.User = &user
	}
	s.session = &cp
	return nil
}

// Clear drops the held session. Idempotent.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = nil
	return nil
}

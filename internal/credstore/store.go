// Package credstore persists the bearer token proving an authenticated
// session. It is the only owner of the raw credential; nothing else reads
// or writes it directly.
package credstore

import (
	"context"
	"sync"
)

// Storage is the persistent key/value slot for the bearer token. An absent
// token is ("", nil), not an error.
type Storage interface {
	Token(ctx context.Context) (string, error)
	SetToken(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// MemoryStore keeps the token in process memory. It backs tests and the
// "memory" config backend, where the credential should not outlive the
// process.
type MemoryStore struct {
	mu    sync.Mutex
	token string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Token(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, nil
}

func (s *MemoryStore) SetToken(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return nil
}

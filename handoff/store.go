// Package handoff parks the task tokens of adapter activities that complete
// asynchronously. The worker side stores a Pending entry when a session is
// launched; the presentation side reads the launch URL and later takes the
// entry to complete the activity exactly once.
package handoff

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNotFound is returned when no session is pending under a key.
var ErrNotFound = errors.New("no pending adapter session")

// Pending is one adapter session awaiting its terminal outcome.
type Pending struct {
	TaskToken []byte    `json:"taskToken"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store is implemented by MemoryStore and RedisStore.
type Store interface {
	Put(ctx context.Context, key string, p Pending) error
	Peek(ctx context.Context, key string) (Pending, error)
	Take(ctx context.Context, key string) (Pending, error)
}

// Key derives the store key of an adapter session.
func Key(sessionKey, adapter string) string {
	return sessionKey + "/" + adapter
}

// MemoryStore is a process-local Store. It only works when the activity
// worker and the host API share a process.
type MemoryStore struct {
	mu      sync.Mutex
	pending map[string]Pending
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{pending: make(map[string]Pending)}
}

func (s *MemoryStore) Put(_ context.Context, key string, p Pending) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[key] = p
	return nil
}

func (s *MemoryStore) Peek(_ context.Context, key string) (Pending, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pending[key]
	if !ok {
		return Pending{}, ErrNotFound
	}
	return p, nil
}

func (s *MemoryStore) Take(_ context.Context, key string) (Pending, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pending[key]
	if !ok {
		return Pending{}, ErrNotFound
	}
	delete(s.pending, key)
	return p, nil
}

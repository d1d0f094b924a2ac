// Package bridge implements the cross-engine synchronization protocol:
// versioned state groups written through a shared key-value store with
// independent per-key writes, polled by the peer engine.
package bridge

import (
	"context"
	"sync"
)

// Store is the shared channel between the two engines. Writes to distinct
// keys are independent and non-atomic; there are no change notifications.
// Implementations must make a single Set durable before returning.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// MemStore is an in-process Store for tests and for running both engines
// inside one binary. Each key is written independently, matching the
// non-transactional semantics of the durable backends.
type MemStore struct {
	mu   sync.Mutex
	data map[string]string
}

func NewMemStore() *MemStore {
	return &MemStore{data: make(map[string]string)}
}

func (s *MemStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *MemStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

func (s *MemStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

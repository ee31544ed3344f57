// memory.go implements the Store interface with in-process maps. It is the
// backend for local development and tests, and carries the same semantics as
// the Redis backend, including atomic compare-and-swap.
package kv

import (
	"bytes"
	"context"
	"sync"

	"github.com/checklist-rve/checklist-rve/internal/config"
)

func init() {
	Register("memory", func(cfg *config.Config) (Store, error) {
		return NewMemoryStore(), nil
	})
}

// MemoryStore is an in-process Store for development and tests
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string][]byte
	lists  map[string][]string
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values: make(map[string][]byte),
		lists:  make(map[string][]string),
	}
}

func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	val, ok := s.values[key]
	if !ok {
		return nil, false, nil
	}
	// Copy so callers cannot mutate the stored value
	out := make([]byte, len(val))
	copy(out, val)
	return out, true, nil
}

func (s *MemoryStore) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]byte, len(value))
	copy(stored, value)
	s.values[key] = stored
	return nil
}

func (s *MemoryStore) SetNX(ctx context.Context, key string, value []byte) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.values[key]; ok {
		return false, nil
	}

	stored := make([]byte, len(value))
	copy(stored, value)
	s.values[key] = stored
	return true, nil
}

func (s *MemoryStore) CompareAndSwap(ctx context.Context, key string, old, value []byte) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.values[key]
	if !ok || !bytes.Equal(current, old) {
		return false, nil
	}

	stored := make([]byte, len(value))
	copy(stored, value)
	s.values[key] = stored
	return true, nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, key)
	return nil
}

func (s *MemoryStore) LPush(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lists[key] = append([]string{value}, s.lists[key]...)
	return nil
}

func (s *MemoryStore) LRem(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.lists[key]
	kept := list[:0]
	for _, v := range list {
		if v != value {
			kept = append(kept, v)
		}
	}
	if len(kept) == 0 {
		delete(s.lists, key)
		return nil
	}
	s.lists[key] = kept
	return nil
}

func (s *MemoryStore) LRange(ctx context.Context, key string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.lists[key]
	out := make([]string, len(list))
	copy(out, list)
	return out, nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

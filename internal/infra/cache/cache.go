// Package cache provides a concurrent in-memory key-value store with
// last-writer-wins replacement semantics. Entries live until deleted or
// process restart; there is deliberately no TTL, the recommendation
// scheduler replaces values wholesale on every successful cycle.
package cache

import "sync"

// Store is a thread-safe in-memory map. Reads return the last fully
// published value and never observe a partial write.
type Store[T any] struct {
	mu    sync.RWMutex
	items map[string]T
}

// New creates an empty store.
func New[T any]() *Store[T] {
	return &Store[T]{items: make(map[string]T)}
}

// Get retrieves a value. Returns false if the key has never been put.
func (s *Store[T]) Get(key string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.items[key]
	return v, ok
}

// Put replaces the value at key. Concurrent puts for the same key race
// harmlessly: last writer wins.
func (s *Store[T]) Put(key string, value T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[key] = value
}

// Delete removes a value.
func (s *Store[T]) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items, key)
}

// Len returns the number of stored entries.
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.items)
}

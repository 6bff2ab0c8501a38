package cache

import "sync"

// Store is an insertion-ordered key/value cache of resolved fetch results.
// Keys are opaque strings (resource locators in practice); values are
// decoded JSON (maps, slices, primitives, or nil). The zero value is not
// usable; construct with New. Safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	order []string
	items map[string]any
}

// New builds an empty store.
func New() *Store {
	return &Store{items: make(map[string]any)}
}

// Get returns the cached value for key, if present.
func (s *Store) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.items[key]
	return v, ok
}

// Has reports whether key is cached.
func (s *Store) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.items[key]
	return ok
}

// Set stores value under key, overwriting any previous value. The first
// write of a key fixes its position in insertion order; overwrites keep it.
func (s *Store) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[key]; !ok {
		s.order = append(s.order, key)
	}
	s.items[key] = value
}

// Delete removes key from the store. Deleting an absent key is a no-op.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[key]; !ok {
		return
	}
	delete(s.items, key)
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Len returns the number of cached entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Keys returns the cached keys in insertion order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.order...)
}

// Clear removes all entries.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = nil
	s.items = make(map[string]any)
}

// internal/common/cache/memory.go
package cache

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store. Expiry is evaluated lazily against its clock.
type MemoryStore struct {
	mu      sync.Mutex
	clock   Clock
	entries map[entryKey]Entry
	groups  map[string]map[string]struct{}
}

func NewMemoryStore(clock Clock) *MemoryStore {
	if clock == nil {
		clock = SystemClock
	}
	return &MemoryStore{
		clock:   clock,
		entries: make(map[entryKey]Entry),
		groups:  make(map[string]map[string]struct{}),
	}
}

func (s *MemoryStore) Get(_ context.Context, key, group string) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[entryKey{group: group, key: key}]
	if !ok {
		return Entry{}, ErrNotFound
	}
	if !s.clock.Now().Before(e.ExpiresAt) {
		s.removeLocked(key, group)
		return Entry{}, ErrNotFound
	}
	e.Value = append([]byte(nil), e.Value...)
	return e, nil
}

func (s *MemoryStore) Set(_ context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry.Value = append([]byte(nil), entry.Value...)
	s.entries[entryKey{group: entry.Group, key: entry.Key}] = entry
	members, ok := s.groups[entry.Group]
	if !ok {
		members = make(map[string]struct{})
		s.groups[entry.Group] = members
	}
	members[entry.Key] = struct{}{}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key, group string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(key, group)
	return nil
}

func (s *MemoryStore) DeleteGroup(_ context.Context, group string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	members := s.groups[group]
	for key := range members {
		delete(s.entries, entryKey{group: group, key: key})
	}
	delete(s.groups, group)
	return len(members), nil
}

// Len reports the number of stored entries, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *MemoryStore) removeLocked(key, group string) {
	delete(s.entries, entryKey{group: group, key: key})
	if members, ok := s.groups[group]; ok {
		delete(members, key)
		if len(members) == 0 {
			delete(s.groups, group)
		}
	}
}

type entryKey struct {
	group, key string
}

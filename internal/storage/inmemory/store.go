package inmemory

import (
	"context"
	"sync"
)

// Store реализует интерфейс ListStore в памяти.
type Store struct {
	mu      sync.RWMutex
	entries []string
}

// New создает хранилище, заполненное копией seed.
func New(seed ...string) *Store {
	entries := make([]string, len(seed))
	copy(entries, seed)
	return &Store{entries: entries}
}

func (s *Store) Append(ctx context.Context, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, value)
}

func (s *Store) Len(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.entries)
}

func (s *Store) Snapshot(ctx context.Context) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := make([]string, len(s.entries))
	copy(snapshot, s.entries)
	return snapshot
}

package memory

import (
	"context"
	"sync"
	"time"
)

// DebounceStore implements ports.DebounceStore in memory.
// Entries are never evicted; the map is bounded by the number of distinct keys.
type DebounceStore struct {
	mu   sync.Mutex
	last map[string]time.Time
}

// NewDebounceStore creates an empty store.
func NewDebounceStore() *DebounceStore {
	return &DebounceStore{
		last: make(map[string]time.Time),
	}
}

// TryMark records now for key unless the previous mark is younger than interval.
func (s *DebounceStore) TryMark(ctx context.Context, key string, now time.Time, interval time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.last[key]; ok && now.Sub(prev) < interval {
		return false, nil
	}
	s.last[key] = now
	return true, nil
}

// Len returns the number of tracked keys.
func (s *DebounceStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.last)
}

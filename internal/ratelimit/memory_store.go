package ratelimit

import (
	"context"
	"sync"
	"time"
)

const defaultSweepThreshold = 10000

type windowEntry struct {
	count       int
	windowStart time.Time
}

// MemoryStore keeps counters in a process-local map guarded by a mutex.
// Counts are lost on restart.
type MemoryStore struct {
	mu             sync.Mutex
	entries        map[string]*windowEntry
	sweepThreshold int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries:        make(map[string]*windowEntry),
		sweepThreshold: defaultSweepThreshold,
	}
}

// Hit starts a fresh window with count 1 when key is new or its window has
// elapsed (strictly longer than window ago). Otherwise it increments the
// count while it is below limit.
func (s *MemoryStore) Hit(_ context.Context, key string, limit int, window time.Duration, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok || now.Sub(entry.windowStart) > window {
		if !ok && len(s.entries) >= s.sweepThreshold {
			s.sweep(window, now)
		}
		s.entries[key] = &windowEntry{count: 1, windowStart: now}
		return true, nil
	}

	if entry.count < limit {
		entry.count++
		return true, nil
	}
	return false, nil
}

// Len returns the number of tracked keys.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *MemoryStore) sweep(window time.Duration, now time.Time) {
	for key, entry := range s.entries {
		if now.Sub(entry.windowStart) > window {
			delete(s.entries, key)
		}
	}
}

package sequence

import (
	"context"
	"sync"
)

// MemoryStore is a process-local CounterStore. It exists for tests and
// single-node development; production uses RedisStore because the
// counter must be atomic across process boundaries.
type MemoryStore struct {
	mu       sync.Mutex
	counters map[string]int64
}

var _ CounterStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{counters: make(map[string]int64)}
}

func (s *MemoryStore) Increment(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[key]++
	return s.counters[key], nil
}

func (s *MemoryStore) SetIfAbsent(_ context.Context, key string, value int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.counters[key]; ok {
		return false, nil
	}
	s.counters[key] = value
	return true, nil
}

func (s *MemoryStore) Get(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counters[key], nil
}

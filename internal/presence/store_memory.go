package presence

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is the in-memory presence store used by default and in tests.
type MemoryStore struct {
	mu     sync.RWMutex
	online map[int64]struct{}
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{online: make(map[int64]struct{})}
}

func (s *MemoryStore) SetOnline(ctx context.Context, userID int64, online bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if online {
		s.online[userID] = struct{}{}
	} else {
		delete(s.online, userID)
	}
	return nil
}

func (s *MemoryStore) ListOnline(ctx context.Context) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]int64, 0, len(s.online))
	for id := range s.online {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

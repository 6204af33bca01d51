package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"circles/internal/circle/models"
)

// MemoryStore is the in-memory CircleStore used by default and in tests.
type MemoryStore struct {
	mu      sync.RWMutex
	nextID  int64
	circles map[int64]models.Circle
	byCode  map[string]int64
	members map[int64]map[int64]struct{} // circleID -> userIDs
}

var _ CircleStore = (*MemoryStore)(nil)

func NewMemory() *MemoryStore {
	return &MemoryStore{
		nextID:  1,
		circles: make(map[int64]models.Circle),
		byCode:  make(map[string]int64),
		members: make(map[int64]map[int64]struct{}),
	}
}

func (s *MemoryStore) Create(ctx context.Context, circle *models.Circle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	circle.ID = s.nextID
	s.nextID++
	if circle.CreatedAt.IsZero() {
		circle.CreatedAt = time.Now()
	}
	s.circles[circle.ID] = *circle
	s.byCode[circle.InviteCode] = circle.ID
	s.members[circle.ID] = make(map[int64]struct{})
	return nil
}

func (s *MemoryStore) FindByID(ctx context.Context, id int64) (models.Circle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	circle, ok := s.circles[id]
	if !ok {
		return models.Circle{}, ErrNotFound
	}
	return circle, nil
}

func (s *MemoryStore) FindByInviteCode(ctx context.Context, code string) (models.Circle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byCode[code]
	if !ok {
		return models.Circle{}, ErrNotFound
	}
	return s.circles[id], nil
}

func (s *MemoryStore) AddMember(ctx context.Context, circleID, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.members[circleID]
	if !ok {
		return ErrNotFound
	}
	set[userID] = struct{}{}
	return nil
}

func (s *MemoryStore) RemoveMember(ctx context.Context, circleID, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.members[circleID]
	if !ok {
		return ErrNotFound
	}
	delete(set, userID)
	return nil
}

func (s *MemoryStore) IsMember(ctx context.Context, circleID, userID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set, ok := s.members[circleID]
	if !ok {
		return false, nil
	}
	_, member := set[userID]
	return member, nil
}

func (s *MemoryStore) MemberIDs(ctx context.Context, circleID int64) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set, ok := s.members[circleID]
	if !ok {
		return nil, ErrNotFound
	}
	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *MemoryStore) CirclesOf(ctx context.Context, userID int64) ([]models.Circle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Circle
	for circleID, set := range s.members {
		if _, ok := set[userID]; ok {
			out = append(out, s.circles[circleID])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

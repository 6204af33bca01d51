package store

import (
	"context"
	"sync"
	"time"

	"circles/internal/identity/models"
	dErrors "circles/pkg/domain-errors"
)

// MemoryStore is the in-memory UserStore used by default and in tests.
type MemoryStore struct {
	mu       sync.RWMutex
	nextID   int64
	users    map[int64]models.User
	byName   map[string]int64
	profiles map[int64]models.Profile
}

var _ UserStore = (*MemoryStore)(nil)

func NewMemory() *MemoryStore {
	return &MemoryStore{
		nextID:   1,
		users:    make(map[int64]models.User),
		byName:   make(map[string]int64),
		profiles: make(map[int64]models.Profile),
	}
}

func (s *MemoryStore) Create(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byName[user.Username]; exists {
		return dErrors.New(dErrors.CodeConflict, "username already exists")
	}
	user.ID = s.nextID
	s.nextID++
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	s.users[user.ID] = *user
	s.byName[user.Username] = user.ID
	return nil
}

func (s *MemoryStore) FindByID(ctx context.Context, id int64) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return user, nil
}

func (s *MemoryStore) FindByUsername(ctx context.Context, username string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byName[username]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return s.users[id], nil
}

func (s *MemoryStore) Update(ctx context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.users[user.ID]
	if !ok {
		return ErrNotFound
	}
	if current.Username != user.Username {
		if _, taken := s.byName[user.Username]; taken {
			return dErrors.New(dErrors.CodeConflict, "username already exists")
		}
		delete(s.byName, current.Username)
		s.byName[user.Username] = user.ID
	}
	s.users[user.ID] = user
	return nil
}

func (s *MemoryStore) SaveProfile(ctx context.Context, profile models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[profile.UserID] = profile
	return nil
}

func (s *MemoryStore) FindProfile(ctx context.Context, userID int64) (models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profile, ok := s.profiles[userID]
	if !ok {
		return models.Profile{}, ErrNotFound
	}
	return profile, nil
}

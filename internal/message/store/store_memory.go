package store

import (
	"context"
	"sync"
	"time"

	"circles/internal/message/models"
)

// MemoryStore is the in-memory MessageStore used by default and in tests.
// Messages are appended in save order, which preserves the per-group
// ordering invariant without explicit sorting.
type MemoryStore struct {
	mu     sync.RWMutex
	nextID int64
	chat   map[int64][]models.Message // circleID -> messages
	direct []models.DirectMessage
}

var _ MessageStore = (*MemoryStore)(nil)

func NewMemory() *MemoryStore {
	return &MemoryStore{
		nextID: 1,
		chat:   make(map[int64][]models.Message),
	}
}

func (s *MemoryStore) SaveMessage(ctx context.Context, msg *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg.ID = s.nextID
	s.nextID++
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	s.chat[msg.CircleID] = append(s.chat[msg.CircleID], *msg)
	return nil
}

func (s *MemoryStore) ListByCircle(ctx context.Context, circleID int64) ([]models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := s.chat[circleID]
	out := make([]models.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

func (s *MemoryStore) SaveDirectMessage(ctx context.Context, msg *models.DirectMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg.ID = s.nextID
	s.nextID++
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	s.direct = append(s.direct, *msg)
	return nil
}

func (s *MemoryStore) ListConversation(ctx context.Context, userA, userB int64) ([]models.DirectMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.DirectMessage
	for _, msg := range s.direct {
		if (msg.SenderID == userA && msg.ReceiverID == userB) ||
			(msg.SenderID == userB && msg.ReceiverID == userA) {
			out = append(out, msg)
		}
	}
	return out, nil
}

package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"circles/internal/task/models"
)

// MemoryStore is the in-memory TaskStore used by default and in tests.
type MemoryStore struct {
	mu         sync.RWMutex
	nextTaskID int64
	nextItemID int64
	tasks      map[int64]models.Task
	items      map[int64]models.ChecklistItem
}

var _ TaskStore = (*MemoryStore)(nil)

func NewMemory() *MemoryStore {
	return &MemoryStore{
		nextTaskID: 1,
		nextItemID: 1,
		tasks:      make(map[int64]models.Task),
		items:      make(map[int64]models.ChecklistItem),
	}
}

func (s *MemoryStore) Create(ctx context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task.ID = s.nextTaskID
	s.nextTaskID++
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now()
	}
	s.tasks[task.ID] = *task
	return nil
}

func (s *MemoryStore) FindByID(ctx context.Context, id int64) (models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[id]
	if !ok {
		return models.Task{}, ErrNotFound
	}
	return task, nil
}

func (s *MemoryStore) Update(ctx context.Context, task models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[task.ID]; !ok {
		return ErrNotFound
	}
	s.tasks[task.ID] = task
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[id]; !ok {
		return ErrNotFound
	}
	delete(s.tasks, id)
	for itemID, item := range s.items {
		if item.TaskID == id {
			delete(s.items, itemID)
		}
	}
	return nil
}

func (s *MemoryStore) ListByCircle(ctx context.Context, circleID int64) ([]models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Task
	for _, task := range s.tasks {
		if task.CircleID == circleID {
			out = append(out, task)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) AddChecklistItem(ctx context.Context, item *models.ChecklistItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[item.TaskID]; !ok {
		return ErrNotFound
	}
	item.ID = s.nextItemID
	s.nextItemID++
	s.items[item.ID] = *item
	return nil
}

func (s *MemoryStore) FindChecklistItem(ctx context.Context, itemID, taskID int64) (models.ChecklistItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[itemID]
	if !ok || item.TaskID != taskID {
		return models.ChecklistItem{}, ErrNotFound
	}
	return item, nil
}

func (s *MemoryStore) UpdateChecklistItem(ctx context.Context, item models.ChecklistItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[item.ID]; !ok {
		return ErrNotFound
	}
	s.items[item.ID] = item
	return nil
}

func (s *MemoryStore) ListChecklistItems(ctx context.Context, taskID int64) ([]models.ChecklistItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.ChecklistItem
	for _, item := range s.items {
		if item.TaskID == taskID {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

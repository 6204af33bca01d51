package store

import (
	"context"
	"sync"
	"time"

	"circles/internal/sudoku/models"
)

// MemoryStore is the in-memory GameStore used by default and in tests.
type MemoryStore struct {
	mu    sync.RWMutex
	games map[int64]models.Game
}

var _ GameStore = (*MemoryStore)(nil)

func NewMemory() *MemoryStore {
	return &MemoryStore{games: make(map[int64]models.Game)}
}

func (s *MemoryStore) Find(ctx context.Context, circleID int64) (models.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	game, ok := s.games[circleID]
	if !ok {
		return models.Game{}, ErrNotFound
	}
	game.Board = game.Board.Clone()
	game.InitialBoard = game.InitialBoard.Clone()
	game.Solution = game.Solution.Clone()
	return game, nil
}

func (s *MemoryStore) Upsert(ctx context.Context, game models.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	game.Board = game.Board.Clone()
	game.InitialBoard = game.InitialBoard.Clone()
	game.Solution = game.Solution.Clone()
	game.UpdatedAt = time.Now()
	s.games[game.CircleID] = game
	return nil
}

func (s *MemoryStore) UpdateCell(ctx context.Context, circleID int64, row, col, value int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	game, ok := s.games[circleID]
	if !ok {
		return ErrNotFound
	}
	game.Board[row][col] = value
	game.UpdatedAt = time.Now()
	s.games[circleID] = game
	return nil
}

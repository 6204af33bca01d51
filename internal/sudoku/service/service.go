package service

import (
	"context"
	"errors"

	"circles/internal/sudoku/models"
	"circles/internal/sudoku/store"
	dErrors "circles/pkg/domain-errors"
)

// Service owns the persisted sudoku boards. The realtime core calls it
// before broadcasting deltas, keeping the store the single source of truth.
type Service struct {
	games store.GameStore
}

func New(games store.GameStore) *Service {
	return &Service{games: games}
}

// Get returns the circle's current game, or ErrNotFound if none was started.
func (s *Service) Get(ctx context.Context, circleID int64) (models.Game, error) {
	return s.games.Find(ctx, circleID)
}

// UpdateCell mutates a single cell after validating coordinates.
func (s *Service) UpdateCell(ctx context.Context, circleID int64, row, col, value int) error {
	if !models.InBounds(row, col) {
		return dErrors.New(dErrors.CodeValidation, "cell out of bounds")
	}
	if value < 0 || value > 9 {
		return dErrors.New(dErrors.CodeValidation, "cell value out of range")
	}
	err := s.games.UpdateCell(ctx, circleID, row, col, value)
	if errors.Is(err, store.ErrNotFound) {
		// Mirrors a cell update racing a board reset: ignore, the client
		// will resync from the next game_state snapshot.
		return nil
	}
	return err
}

// NewGame replaces the circle's board wholesale.
func (s *Service) NewGame(ctx context.Context, circleID int64, board, initial, solution models.Board, difficulty string) error {
	if !wellFormed(board) || !wellFormed(initial) {
		return dErrors.New(dErrors.CodeValidation, "board must be 9x9")
	}
	if len(solution) > 0 && !wellFormed(solution) {
		return dErrors.New(dErrors.CodeValidation, "solution must be 9x9")
	}
	if difficulty == "" {
		difficulty = "easy"
	}
	return s.games.Upsert(ctx, models.Game{
		CircleID:     circleID,
		Board:        board,
		InitialBoard: initial,
		Solution:     solution,
		Difficulty:   difficulty,
	})
}

func wellFormed(b models.Board) bool {
	if len(b) != models.BoardSize {
		return false
	}
	for _, row := range b {
		if len(row) != models.BoardSize {
			return false
		}
	}
	return true
}

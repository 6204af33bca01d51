package store

import (
	"context"

	"circles/internal/sudoku/models"
	dErrors "circles/pkg/domain-errors"
)

// ErrNotFound keeps storage-specific 404s consistent across implementations.
var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "record not found")

// GameStore persists one sudoku game per circle.
type GameStore interface {
	Find(ctx context.Context, circleID int64) (models.Game, error)
	// Upsert replaces the circle's game wholesale (new_game semantics).
	Upsert(ctx context.Context, game models.Game) error
	// UpdateCell mutates a single cell of the stored board.
	UpdateCell(ctx context.Context, circleID int64, row, col, value int) error
}

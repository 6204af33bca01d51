package models

import "time"

// BoardSize is the side length of the grid.
const BoardSize = 9

// Board is a 9x9 grid; zero means an empty cell.
type Board [][]int

// Game is a circle's shared sudoku board. At most one game exists per circle
// (upserted on new_game).
type Game struct {
	CircleID     int64
	Board        Board
	InitialBoard Board
	Solution     Board
	Difficulty   string
	IsSolved     bool
	UpdatedAt    time.Time
}

// Clone deep-copies a board so callers cannot alias store-internal state.
func (b Board) Clone() Board {
	if b == nil {
		return nil
	}
	out := make(Board, len(b))
	for i, row := range b {
		out[i] = make([]int, len(row))
		copy(out[i], row)
	}
	return out
}

// InBounds reports whether (row, col) addresses a cell on a 9x9 grid.
func InBounds(row, col int) bool {
	return row >= 0 && row < BoardSize && col >= 0 && col < BoardSize
}

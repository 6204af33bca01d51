package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"circles/internal/sudoku/models"
)

// PostgresStore persists games in PostgreSQL with JSONB board columns.
type PostgresStore struct {
	pool *pgxpool.Pool
}

var _ GameStore = (*PostgresStore)(nil)

func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Find(ctx context.Context, circleID int64) (models.Game, error) {
	var game models.Game
	var board, initial, solution []byte
	err := s.pool.QueryRow(ctx,
		`SELECT circle_id, board, initial_board, solution, difficulty, is_solved, updated_at
		 FROM sudoku_games WHERE circle_id = $1`, circleID,
	).Scan(&game.CircleID, &board, &initial, &solution, &game.Difficulty, &game.IsSolved, &game.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Game{}, ErrNotFound
	}
	if err != nil {
		return models.Game{}, fmt.Errorf("find game: %w", err)
	}

	for _, pair := range []struct {
		raw []byte
		dst *models.Board
	}{{board, &game.Board}, {initial, &game.InitialBoard}, {solution, &game.Solution}} {
		if err := json.Unmarshal(pair.raw, pair.dst); err != nil {
			return models.Game{}, fmt.Errorf("decode board: %w", err)
		}
	}
	return game, nil
}

func (s *PostgresStore) Upsert(ctx context.Context, game models.Game) error {
	board, err := json.Marshal(game.Board)
	if err != nil {
		return fmt.Errorf("encode board: %w", err)
	}
	initial, err := json.Marshal(game.InitialBoard)
	if err != nil {
		return fmt.Errorf("encode initial board: %w", err)
	}
	solution, err := json.Marshal(game.Solution)
	if err != nil {
		return fmt.Errorf("encode solution: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO sudoku_games (circle_id, board, initial_board, solution, difficulty, is_solved, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, now())
		 ON CONFLICT (circle_id) DO UPDATE
		 SET board = $2, initial_board = $3, solution = $4, difficulty = $5, is_solved = $6, updated_at = now()`,
		game.CircleID, board, initial, solution, game.Difficulty, game.IsSolved)
	if err != nil {
		return fmt.Errorf("upsert game: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateCell(ctx context.Context, circleID int64, row, col, value int) error {
	// jsonb_set path elements are text; the board is a JSON array of arrays.
	tag, err := s.pool.Exec(ctx,
		`UPDATE sudoku_games
		 SET board = jsonb_set(board, ARRAY[$2::text, $3::text], to_jsonb($4::int)), updated_at = now()
		 WHERE circle_id = $1`,
		circleID, row, col, value)
	if err != nil {
		return fmt.Errorf("update cell: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

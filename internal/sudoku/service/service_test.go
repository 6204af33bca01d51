package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"

	"circles/internal/sudoku/models"
	"circles/internal/sudoku/store"
	dErrors "circles/pkg/domain-errors"
)

func emptyBoard() models.Board {
	board := make(models.Board, models.BoardSize)
	for i := range board {
		board[i] = make([]int, models.BoardSize)
	}
	return board
}

type SudokuServiceSuite struct {
	suite.Suite
	svc *Service
	ctx context.Context
}

func TestSudokuServiceSuite(t *testing.T) {
	suite.Run(t, new(SudokuServiceSuite))
}

func (s *SudokuServiceSuite) SetupTest() {
	s.svc = New(store.NewMemory())
	s.ctx = context.Background()
}

func (s *SudokuServiceSuite) TestNewGameThenGet() {
	s.Require().NoError(s.svc.NewGame(s.ctx, 7, emptyBoard(), emptyBoard(), nil, "hard"))

	game, err := s.svc.Get(s.ctx, 7)
	s.Require().NoError(err)
	s.Equal("hard", game.Difficulty)
	s.False(game.IsSolved)
}

func (s *SudokuServiceSuite) TestUpdateCellVisibleOnNextGet() {
	s.Require().NoError(s.svc.NewGame(s.ctx, 7, emptyBoard(), emptyBoard(), nil, ""))
	s.Require().NoError(s.svc.UpdateCell(s.ctx, 7, 4, 5, 9))

	game, err := s.svc.Get(s.ctx, 7)
	s.Require().NoError(err)
	s.Equal(9, game.Board[4][5])
}

func (s *SudokuServiceSuite) TestUpdateCellValidation() {
	s.Require().NoError(s.svc.NewGame(s.ctx, 7, emptyBoard(), emptyBoard(), nil, ""))

	s.Run("out of bounds", func() {
		err := s.svc.UpdateCell(s.ctx, 7, 9, 0, 1)
		s.True(dErrors.Is(err, dErrors.CodeValidation))
	})

	s.Run("value out of range", func() {
		err := s.svc.UpdateCell(s.ctx, 7, 0, 0, 10)
		s.True(dErrors.Is(err, dErrors.CodeValidation))
	})

	s.Run("missing game is ignored", func() {
		s.NoError(s.svc.UpdateCell(s.ctx, 999, 0, 0, 1))
	})
}

func (s *SudokuServiceSuite) TestNewGameRejectsMalformedBoard() {
	err := s.svc.NewGame(s.ctx, 7, models.Board{{1, 2}}, emptyBoard(), nil, "")
	s.True(dErrors.Is(err, dErrors.CodeValidation))
}

func (s *SudokuServiceSuite) TestNewGameRejectsMalformedSolution() {
	s.Run("ragged row", func() {
		ragged := emptyBoard()
		ragged[3] = ragged[3][:5]
		err := s.svc.NewGame(s.ctx, 7, emptyBoard(), emptyBoard(), ragged, "")
		s.True(dErrors.Is(err, dErrors.CodeValidation))
	})

	s.Run("wrong row count", func() {
		err := s.svc.NewGame(s.ctx, 7, emptyBoard(), emptyBoard(), models.Board{{1}}, "")
		s.True(dErrors.Is(err, dErrors.CodeValidation))
	})

	s.Run("absent solution is allowed", func() {
		s.NoError(s.svc.NewGame(s.ctx, 7, emptyBoard(), emptyBoard(), nil, ""))
	})
}

func (s *SudokuServiceSuite) TestGetMissing() {
	_, err := s.svc.Get(s.ctx, 42)
	s.True(errors.Is(err, store.ErrNotFound))
}

func (s *SudokuServiceSuite) TestStoreDoesNotAliasCallerBoard() {
	board := emptyBoard()
	s.Require().NoError(s.svc.NewGame(s.ctx, 7, board, emptyBoard(), nil, ""))
	board[0][0] = 8

	game, err := s.svc.Get(s.ctx, 7)
	s.Require().NoError(err)
	s.Equal(0, game.Board[0][0])
}

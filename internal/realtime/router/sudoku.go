package router

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"circles/internal/realtime/event"
	"circles/internal/realtime/registry"
	"circles/internal/sudoku/models"
	"circles/internal/sudoku/store"
	dErrors "circles/pkg/domain-errors"
)

// GameService is the sudoku operations the family needs.
// *sudoku/service.Service satisfies it.
type GameService interface {
	Get(ctx context.Context, circleID int64) (models.Game, error)
	UpdateCell(ctx context.Context, circleID int64, row, col, value int) error
	NewGame(ctx context.Context, circleID int64, board, initial, solution models.Board, difficulty string) error
}

// SudokuFamily keeps a circle's shared board in sync. Cell edits are
// persisted and then broadcast as single-cell deltas; replacing the
// board resets everyone.
type SudokuFamily struct {
	games    GameService
	circles  CircleRoster
	registry *registry.Registry
	logger   *slog.Logger
}

func NewSudokuFamily(games GameService, circles CircleRoster, reg *registry.Registry, logger *slog.Logger) *SudokuFamily {
	return &SudokuFamily{games: games, circles: circles, registry: reg, logger: logger}
}

func (f *SudokuFamily) Name() string { return "sudoku" }

func (f *SudokuFamily) Join(ctx context.Context, sess *Session) error {
	ok, err := f.circles.IsMember(ctx, sess.CircleID, sess.UserID)
	if err != nil {
		return err
	}
	if !ok {
		return dErrors.New(dErrors.CodeForbidden, "not a member of this circle")
	}
	f.registry.Join(sess.GroupKey, sess.Conn)

	// Snapshot for the joining connection only. No game yet means no
	// snapshot, the client starts one with new_game.
	game, err := f.games.Get(ctx, sess.CircleID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			f.logger.Warn("load sudoku snapshot", "circle_id", sess.CircleID, "error", err)
		}
		return nil
	}
	sess.Conn.TrySend(event.Marshal(event.GameState{
		Type:         event.TypeGameState,
		Board:        game.Board,
		InitialBoard: game.InitialBoard,
		Solution:     game.Solution,
		Difficulty:   game.Difficulty,
		IsSolved:     game.IsSolved,
	}))
	return nil
}

type inboundSudoku struct {
	Type         string  `json:"type"`
	Row          int     `json:"row"`
	Col          int     `json:"col"`
	Value        int     `json:"value"`
	Board        [][]int `json:"board"`
	InitialBoard [][]int `json:"initial_board"`
	Solution     [][]int `json:"solution"`
	Difficulty   string  `json:"difficulty"`
}

func (f *SudokuFamily) Receive(ctx context.Context, sess *Session, payload []byte) {
	var in inboundSudoku
	if err := json.Unmarshal(payload, &in); err != nil {
		sess.Conn.TrySend(event.Marshal(event.NewError("invalid payload")))
		return
	}

	switch in.Type {
	case "update_cell":
		if err := f.games.UpdateCell(ctx, sess.CircleID, in.Row, in.Col, in.Value); err != nil {
			sess.Conn.TrySend(event.Marshal(event.NewError(receiveErrorMessage(err))))
			return
		}
		f.registry.Publish(sess.GroupKey, event.Marshal(event.BoardUpdate{
			Type:     event.TypeBoardUpdate,
			Row:      in.Row,
			Col:      in.Col,
			Value:    in.Value,
			SenderID: sess.UserID,
		}))
	case "new_game":
		if err := f.games.NewGame(ctx, sess.CircleID, in.Board, in.InitialBoard, in.Solution, in.Difficulty); err != nil {
			sess.Conn.TrySend(event.Marshal(event.NewError(receiveErrorMessage(err))))
			return
		}
		f.registry.Publish(sess.GroupKey, event.Marshal(event.NewGame{
			Type:         event.TypeNewGame,
			Board:        in.Board,
			InitialBoard: in.InitialBoard,
			Solution:     in.Solution,
			Difficulty:   in.Difficulty,
		}))
	default:
		sess.Conn.TrySend(event.Marshal(event.NewError("unknown event type")))
	}
}

func (f *SudokuFamily) Leave(_ context.Context, sess *Session) {
	f.registry.Leave(sess.GroupKey, sess.Conn)
}

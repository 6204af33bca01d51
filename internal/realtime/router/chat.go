package router

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"circles/internal/message/models"
	"circles/internal/realtime/event"
	"circles/internal/realtime/registry"
	dErrors "circles/pkg/domain-errors"
)

// CircleRoster answers membership questions for chat and sudoku
// authorization. *circle/service.Service satisfies it.
type CircleRoster interface {
	IsMember(ctx context.Context, circleID, userID int64) (bool, error)
}

// ChatHistory persists chat messages before they are broadcast.
type ChatHistory interface {
	SaveChatMessage(ctx context.Context, senderID int64, content string, circleID int64) (models.Message, error)
}

// ChatFamily fans circle chat out to everyone in the circle's room.
// A message is only broadcast once the store has acknowledged it.
type ChatFamily struct {
	messages ChatHistory
	circles  CircleRoster
	registry *registry.Registry
	logger   *slog.Logger
}

func NewChatFamily(messages ChatHistory, circles CircleRoster, reg *registry.Registry, logger *slog.Logger) *ChatFamily {
	return &ChatFamily{messages: messages, circles: circles, registry: reg, logger: logger}
}

func (f *ChatFamily) Name() string { return "chat" }

func (f *ChatFamily) Join(ctx context.Context, sess *Session) error {
	ok, err := f.circles.IsMember(ctx, sess.CircleID, sess.UserID)
	if err != nil {
		return err
	}
	if !ok {
		return dErrors.New(dErrors.CodeForbidden, "not a member of this circle")
	}
	f.registry.Join(sess.GroupKey, sess.Conn)
	return nil
}

type inboundChat struct {
	Message string `json:"message"`
}

func (f *ChatFamily) Receive(ctx context.Context, sess *Session, payload []byte) {
	var in inboundChat
	if err := json.Unmarshal(payload, &in); err != nil {
		sess.Conn.TrySend(event.Marshal(event.NewError("invalid payload")))
		return
	}
	if _, err := f.messages.SaveChatMessage(ctx, sess.UserID, in.Message, sess.CircleID); err != nil {
		f.logger.Warn("save chat message", "circle_id", sess.CircleID, "user_id", sess.UserID, "error", err)
		sess.Conn.TrySend(event.Marshal(event.NewError(receiveErrorMessage(err))))
		return
	}
	f.registry.Publish(sess.GroupKey, event.Marshal(event.NewChatMessage(in.Message, sess.UserID, sess.Username)))
}

func (f *ChatFamily) Leave(_ context.Context, sess *Session) {
	f.registry.Leave(sess.GroupKey, sess.Conn)
}

// receiveErrorMessage surfaces validation failures to the client but
// hides everything else behind a generic message.
func receiveErrorMessage(err error) string {
	var de *dErrors.Error
	if errors.As(err, &de) && de.Code == dErrors.CodeValidation {
		return de.Message
	}
	return "message could not be saved"
}

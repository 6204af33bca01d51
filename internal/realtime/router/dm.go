package router

import (
	"context"
	"encoding/json"
	"log/slog"

	"circles/internal/message/models"
	"circles/internal/realtime/event"
	"circles/internal/realtime/registry"
)

// DMHistory persists direct messages before they are broadcast.
type DMHistory interface {
	SaveDirectMessage(ctx context.Context, senderID int64, content string, receiverID int64) (models.DirectMessage, error)
}

// DMFamily carries two-party conversations. Both participants share
// one group key regardless of who opened the socket, and any
// authenticated user may open a conversation.
type DMFamily struct {
	messages DMHistory
	registry *registry.Registry
	logger   *slog.Logger
}

func NewDMFamily(messages DMHistory, reg *registry.Registry, logger *slog.Logger) *DMFamily {
	return &DMFamily{messages: messages, registry: reg, logger: logger}
}

func (f *DMFamily) Name() string { return "dm" }

func (f *DMFamily) Join(_ context.Context, sess *Session) error {
	f.registry.Join(sess.GroupKey, sess.Conn)
	return nil
}

func (f *DMFamily) Receive(ctx context.Context, sess *Session, payload []byte) {
	var in inboundChat
	if err := json.Unmarshal(payload, &in); err != nil {
		sess.Conn.TrySend(event.Marshal(event.NewError("invalid payload")))
		return
	}
	if _, err := f.messages.SaveDirectMessage(ctx, sess.UserID, in.Message, sess.PeerID); err != nil {
		f.logger.Warn("save direct message", "user_id", sess.UserID, "peer_id", sess.PeerID, "error", err)
		sess.Conn.TrySend(event.Marshal(event.NewError(receiveErrorMessage(err))))
		return
	}
	f.registry.Publish(sess.GroupKey, event.Marshal(event.NewChatMessage(in.Message, sess.UserID, sess.Username)))
}

func (f *DMFamily) Leave(_ context.Context, sess *Session) {
	f.registry.Leave(sess.GroupKey, sess.Conn)
}

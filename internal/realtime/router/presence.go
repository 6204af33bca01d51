package router

import (
	"context"
	"log/slog"

	"circles/internal/realtime/event"
	"circles/internal/realtime/registry"
	"circles/internal/realtime/rooms"
)

// PresenceTracker counts live sessions per user so a second browser
// tab never flickers the user offline. *presence.Tracker satisfies it.
type PresenceTracker interface {
	Connect(ctx context.Context, userID int64) (bool, error)
	Disconnect(ctx context.Context, userID int64) (bool, error)
	ListOnline(ctx context.Context) ([]int64, error)
}

// PresenceFamily maintains the single global presence group. Status
// flips are broadcast only on a user's first connection and last
// disconnection.
type PresenceFamily struct {
	tracker  PresenceTracker
	registry *registry.Registry
	logger   *slog.Logger
}

func NewPresenceFamily(tracker PresenceTracker, reg *registry.Registry, logger *slog.Logger) *PresenceFamily {
	return &PresenceFamily{tracker: tracker, registry: reg, logger: logger}
}

func (f *PresenceFamily) Name() string { return "presence" }

func (f *PresenceFamily) Join(ctx context.Context, sess *Session) error {
	f.registry.Join(rooms.PresenceKey, sess.Conn)

	first, err := f.tracker.Connect(ctx, sess.UserID)
	if err != nil {
		f.registry.Leave(rooms.PresenceKey, sess.Conn)
		return err
	}
	if first {
		f.registry.Publish(rooms.PresenceKey, event.Marshal(event.NewUserStatus(sess.UserID, true)))
	}

	online, err := f.tracker.ListOnline(ctx)
	if err != nil {
		f.logger.Warn("list online users", "error", err)
		online = nil
	}
	sess.Conn.TrySend(event.Marshal(event.NewInitialState(online)))
	return nil
}

func (f *PresenceFamily) Receive(_ context.Context, _ *Session, _ []byte) {
	// Presence is broadcast-only; inbound frames are ignored.
}

func (f *PresenceFamily) Leave(ctx context.Context, sess *Session) {
	last, err := f.tracker.Disconnect(ctx, sess.UserID)
	if err != nil {
		f.logger.Warn("presence disconnect", "user_id", sess.UserID, "error", err)
	}
	if last {
		f.registry.Publish(rooms.PresenceKey, event.Marshal(event.NewUserStatus(sess.UserID, false)))
	}
	f.registry.Leave(rooms.PresenceKey, sess.Conn)
}

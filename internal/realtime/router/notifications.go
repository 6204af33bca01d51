package router

import (
	"context"
	"encoding/json"
	"log/slog"

	"circles/internal/realtime/registry"
)

// Acknowledgements for inbound frames on a notifications socket. The
// channel is push-oriented; clients only ever send pings or garbage.
var (
	ackReceived    = []byte(`{"status":"received"}`)
	ackInvalidJSON = []byte(`{"error":"Invalid JSON"}`)
)

// NotificationsFamily is the per-user delivery channel for targeted
// notifications. A session may only join its own group.
type NotificationsFamily struct {
	registry *registry.Registry
	logger   *slog.Logger
}

func NewNotificationsFamily(reg *registry.Registry, logger *slog.Logger) *NotificationsFamily {
	return &NotificationsFamily{registry: reg, logger: logger}
}

func (f *NotificationsFamily) Name() string { return "notifications" }

func (f *NotificationsFamily) Join(_ context.Context, sess *Session) error {
	f.registry.Join(sess.GroupKey, sess.Conn)
	return nil
}

func (f *NotificationsFamily) Receive(_ context.Context, sess *Session, payload []byte) {
	if !json.Valid(payload) {
		sess.Conn.TrySend(ackInvalidJSON)
		return
	}
	sess.Conn.TrySend(ackReceived)
}

func (f *NotificationsFamily) Leave(_ context.Context, sess *Session) {
	f.registry.Leave(sess.GroupKey, sess.Conn)
}

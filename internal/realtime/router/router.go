// Package router dispatches WebSocket traffic to the broadcast family
// selected by the upgrade path. Each family owns the authorization,
// inbound payload handling, and fan-out rules of one surface.
package router

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"circles/internal/audit"
	"circles/internal/platform/metrics"
	"circles/internal/realtime/event"
	"circles/internal/realtime/registry"
	"circles/internal/realtime/rooms"
	dErrors "circles/pkg/domain-errors"
)

func errUnknownFamily(name string) error {
	return dErrors.Newf(dErrors.CodeInternal, "no handler mounted for family %s", name)
}

// Session is the immutable context of one live connection, fixed at
// handshake time. Nothing mutates it afterwards; reauthorization only
// happens by reconnecting.
type Session struct {
	Conn     registry.Subscriber
	Family   string
	UserID   int64
	Username string
	GroupKey string

	// CircleID is set for chat and sudoku sessions, PeerID for dm.
	CircleID int64
	PeerID   int64
}

// Family handles one broadcast surface. Join authorizes the session
// and registers it; Receive handles a single inbound frame; Leave
// undoes Join. A Receive error never tears the connection down, the
// sender just gets an error envelope.
type Family interface {
	Name() string
	Join(ctx context.Context, sess *Session) error
	Receive(ctx context.Context, sess *Session, payload []byte)
	Leave(ctx context.Context, sess *Session)
}

type Router struct {
	registry *registry.Registry
	families map[string]Family
	audit    *audit.Publisher
	metrics  *metrics.Metrics
	tracer   trace.Tracer
	logger   *slog.Logger
}

func New(reg *registry.Registry, auditPub *audit.Publisher, m *metrics.Metrics, logger *slog.Logger) *Router {
	return &Router{
		registry: reg,
		families: make(map[string]Family),
		audit:    auditPub,
		metrics:  m,
		tracer:   otel.Tracer("circles/realtime"),
		logger:   logger,
	}
}

func (r *Router) Mount(families ...Family) {
	for _, f := range families {
		r.families[f.Name()] = f
	}
}

// Connect runs the session's family Join. On failure the caller closes
// the socket; no side effects have happened yet.
func (r *Router) Connect(ctx context.Context, sess *Session) error {
	f, ok := r.families[sess.Family]
	if !ok {
		return errUnknownFamily(sess.Family)
	}
	if err := f.Join(ctx, sess); err != nil {
		if r.audit != nil {
			r.audit.Emit(audit.Event{
				UserID:   sess.UserID,
				Action:   audit.ActionRejected,
				GroupKey: sess.GroupKey,
			})
		}
		return err
	}
	if r.metrics != nil {
		r.metrics.ConnectionsActive.WithLabelValues(sess.Family).Inc()
	}
	if r.audit != nil {
		r.audit.Emit(audit.Event{
			UserID:   sess.UserID,
			Action:   audit.ActionConnect,
			GroupKey: sess.GroupKey,
		})
	}
	return nil
}

// HandleMessage routes one inbound frame to the session's family.
func (r *Router) HandleMessage(ctx context.Context, sess *Session, payload []byte) {
	f, ok := r.families[sess.Family]
	if !ok {
		return
	}
	ctx, span := r.tracer.Start(ctx, "realtime.receive",
		trace.WithAttributes(
			attribute.String("family", sess.Family),
			attribute.String("group", sess.GroupKey),
		))
	defer span.End()
	f.Receive(ctx, sess, payload)
	if r.audit != nil {
		r.audit.Emit(audit.Event{
			UserID:   sess.UserID,
			Action:   audit.ActionMessageSent,
			GroupKey: sess.GroupKey,
		})
	}
}

// Disconnect runs the family Leave and removes the connection from
// every group. After this returns no publish can reach the session.
func (r *Router) Disconnect(ctx context.Context, sess *Session) {
	if f, ok := r.families[sess.Family]; ok {
		f.Leave(ctx, sess)
	}
	r.registry.Drop(sess.Conn)
	if r.metrics != nil {
		r.metrics.ConnectionsActive.WithLabelValues(sess.Family).Dec()
	}
	if r.audit != nil {
		r.audit.Emit(audit.Event{
			UserID:   sess.UserID,
			Action:   audit.ActionDisconnect,
			GroupKey: sess.GroupKey,
		})
	}
}

// NotifyUser delivers a notification to every session of one user.
// Fire and forget: an offline user simply has no subscribers.
func (r *Router) NotifyUser(userID int64, data event.NotificationData) {
	r.registry.Publish(rooms.NotificationsKey(userID), event.Marshal(event.NewNotification(data)))
}

// BroadcastTaskUpdate tells a circle's chat subscribers that the task
// list changed. Fire and forget, same as NotifyUser.
func (r *Router) BroadcastTaskUpdate(circleID int64, action string) {
	r.registry.Publish(rooms.ChatKey(circleID), event.Marshal(event.NewTaskUpdate(action)))
	if r.audit != nil {
		r.audit.Emit(audit.Event{
			Action:   audit.ActionTaskChanged,
			GroupKey: rooms.ChatKey(circleID),
			Detail:   action,
		})
	}
}

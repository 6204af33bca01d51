// Package handler owns the WebSocket upgrade endpoints. It
// authenticates the handshake, builds the immutable session for the
// requested surface, and hands the socket to the router.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"circles/internal/identity/models"
	"circles/internal/platform/metrics"
	"circles/internal/realtime/router"
	"circles/internal/realtime/rooms"
	"circles/internal/realtime/transport"
	dErrors "circles/pkg/domain-errors"
)

// Identity resolves the handshake token to a live user. It fails
// closed when the token is valid but the user no longer exists.
type Identity interface {
	Authenticate(ctx context.Context, token string) (models.User, error)
}

type Handler struct {
	identity Identity
	router   *router.Router
	upgrader websocket.Upgrader
	sendBuf  int
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func New(identity Identity, rt *router.Router, sendBuf int, m *metrics.Metrics, logger *slog.Logger) *Handler {
	return &Handler{
		identity: identity,
		router:   rt,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browsers connect from a separately served frontend.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		sendBuf: sendBuf,
		metrics: m,
		logger:  logger,
	}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/ws/chat/dm/{userID}", h.serveDM)
	r.Get("/ws/chat/{circleID}", h.serveChat)
	r.Get("/ws/sudoku/{circleID}", h.serveSudoku)
	r.Get("/ws/notifications", h.serveNotifications)
	r.Get("/ws/online", h.servePresence)
}

func (h *Handler) serveChat(w http.ResponseWriter, r *http.Request) {
	circleID, ok := h.pathID(w, r, "circleID")
	if !ok {
		return
	}
	h.serve(w, r, func(user models.User, conn *transport.Connection) *router.Session {
		return &router.Session{
			Conn:     conn,
			Family:   "chat",
			UserID:   user.ID,
			Username: user.Username,
			GroupKey: rooms.ChatKey(circleID),
			CircleID: circleID,
		}
	})
}

func (h *Handler) serveDM(w http.ResponseWriter, r *http.Request) {
	peerID, ok := h.pathID(w, r, "userID")
	if !ok {
		return
	}
	h.serve(w, r, func(user models.User, conn *transport.Connection) *router.Session {
		return &router.Session{
			Conn:     conn,
			Family:   "dm",
			UserID:   user.ID,
			Username: user.Username,
			GroupKey: rooms.DMKey(user.ID, peerID),
			PeerID:   peerID,
		}
	})
}

func (h *Handler) serveSudoku(w http.ResponseWriter, r *http.Request) {
	circleID, ok := h.pathID(w, r, "circleID")
	if !ok {
		return
	}
	h.serve(w, r, func(user models.User, conn *transport.Connection) *router.Session {
		return &router.Session{
			Conn:     conn,
			Family:   "sudoku",
			UserID:   user.ID,
			Username: user.Username,
			GroupKey: rooms.SudokuKey(circleID),
			CircleID: circleID,
		}
	})
}

func (h *Handler) serveNotifications(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(user models.User, conn *transport.Connection) *router.Session {
		return &router.Session{
			Conn:     conn,
			Family:   "notifications",
			UserID:   user.ID,
			Username: user.Username,
			GroupKey: rooms.NotificationsKey(user.ID),
		}
	})
}

func (h *Handler) servePresence(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(user models.User, conn *transport.Connection) *router.Session {
		return &router.Session{
			Conn:     conn,
			Family:   "presence",
			UserID:   user.ID,
			Username: user.Username,
			GroupKey: rooms.PresenceKey,
		}
	})
}

// serve runs the shared handshake: authenticate from the token query
// parameter, upgrade, authorize via the family, then pump frames until
// the peer goes away.
func (h *Handler) serve(w http.ResponseWriter, r *http.Request, buildSession func(models.User, *transport.Connection) *router.Session) {
	token := r.URL.Query().Get("token")
	if token == "" {
		h.reject(w, "missing_token", http.StatusUnauthorized)
		return
	}
	user, err := h.identity.Authenticate(r.Context(), token)
	if err != nil {
		h.reject(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", "error", err)
		return
	}

	conn := transport.NewConnection(ws, user.ID, user.Username, h.sendBuf, h.logger)
	sess := buildSession(user, conn)

	if err := h.router.Connect(r.Context(), sess); err != nil {
		if h.metrics != nil {
			reason := "error"
			if dErrors.HasCode(err, dErrors.CodeForbidden) {
				reason = "forbidden"
			}
			h.metrics.HandshakesRejected.WithLabelValues(reason).Inc()
		}
		h.logger.Info("realtime join rejected",
			"family", sess.Family, "user_id", user.ID, "group", sess.GroupKey, "error", err)
		conn.CloseWithCode(websocket.ClosePolicyViolation, "join rejected")
		return
	}

	go conn.WritePump()
	conn.ReadPump(func(payload []byte) {
		h.router.HandleMessage(r.Context(), sess, payload)
	})

	// ReadPump returned, the peer is gone.
	h.router.Disconnect(context.WithoutCancel(r.Context()), sess)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		h.reject(w, "bad_request", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func (h *Handler) reject(w http.ResponseWriter, reason string, status int) {
	if h.metrics != nil {
		h.metrics.HandshakesRejected.WithLabelValues(reason).Inc()
	}
	http.Error(w, http.StatusText(status), status)
}

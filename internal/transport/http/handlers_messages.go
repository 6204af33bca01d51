package httptransport

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"circles/internal/message/models"
	"circles/internal/platform/middleware"
	dErrors "circles/pkg/domain-errors"
)

// MessageService is the history surface the handlers need.
type MessageService interface {
	History(ctx context.Context, circleID int64) ([]models.Message, error)
	Conversation(ctx context.Context, userID, targetID int64) ([]models.DirectMessage, error)
}

type MessageHandler struct {
	messages MessageService
	circles  CircleService
}

func NewMessageHandler(messages MessageService, circles CircleService) *MessageHandler {
	return &MessageHandler{messages: messages, circles: circles}
}

func (h *MessageHandler) Register(r chi.Router) {
	r.Get("/api/messages", h.handleHistory)
	r.Get("/api/direct-messages", h.handleConversation)
}

func (h *MessageHandler) handleHistory(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == 0 {
		writeError(w, errMissingIdentity)
		return
	}
	circleID, err := queryID(r, "circle_id")
	if err != nil {
		writeError(w, err)
		return
	}
	member, err := h.circles.IsMember(r.Context(), circleID, userID)
	if err != nil {
		writeError(w, err)
		return
	}
	if !member {
		writeError(w, dErrors.New(dErrors.CodeForbidden, "not a member of this circle"))
		return
	}
	history, err := h.messages.History(r.Context(), circleID)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(history))
	for _, msg := range history {
		out = append(out, map[string]any{
			"id":        msg.ID,
			"circle_id": msg.CircleID,
			"sender_id": msg.SenderID,
			"content":   msg.Content,
			"timestamp": msg.Timestamp,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *MessageHandler) handleConversation(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == 0 {
		writeError(w, errMissingIdentity)
		return
	}
	targetID, err := queryID(r, "target_id")
	if err != nil {
		writeError(w, err)
		return
	}
	conv, err := h.messages.Conversation(r.Context(), userID, targetID)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(conv))
	for _, msg := range conv {
		out = append(out, map[string]any{
			"id":          msg.ID,
			"sender_id":   msg.SenderID,
			"receiver_id": msg.ReceiverID,
			"content":     msg.Content,
			"timestamp":   msg.Timestamp,
			"is_read":     msg.IsRead,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

package httptransport

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"circles/internal/circle/models"
	"circles/internal/platform/middleware"
	dErrors "circles/pkg/domain-errors"
)

// CircleService is the circle surface the handlers need.
type CircleService interface {
	Create(ctx context.Context, adminID int64, name, description string) (models.Circle, error)
	Get(ctx context.Context, circleID int64) (models.CircleDetail, error)
	MyCircles(ctx context.Context, userID int64) ([]models.Circle, error)
	Join(ctx context.Context, circleID, userID int64) error
	JoinByCode(ctx context.Context, code string, userID int64) (models.Circle, error)
	Leave(ctx context.Context, circleID, userID int64) error
	Kick(ctx context.Context, circleID, actorID, memberID int64) error
	IsMember(ctx context.Context, circleID, userID int64) (bool, error)
}

type CircleHandler struct {
	circles CircleService
}

func NewCircleHandler(circles CircleService) *CircleHandler {
	return &CircleHandler{circles: circles}
}

func (h *CircleHandler) Register(r chi.Router) {
	r.Post("/api/circles", h.handleCreate)
	r.Get("/api/circles/my", h.handleMyCircles)
	r.Post("/api/circles/join-by-code", h.handleJoinByCode)
	r.Get("/api/circles/{circleID}", h.handleGet)
	r.Post("/api/circles/{circleID}/join", h.handleJoin)
	r.Post("/api/circles/{circleID}/leave", h.handleLeave)
	r.Post("/api/circles/{circleID}/kick", h.handleKick)
}

func (h *CircleHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == 0 {
		writeError(w, errMissingIdentity)
		return
	}
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	circle, err := h.circles.Create(r.Context(), userID, req.Name, req.Description)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, circleResponse(circle))
}

func (h *CircleHandler) handleMyCircles(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == 0 {
		writeError(w, errMissingIdentity)
		return
	}
	circles, err := h.circles.MyCircles(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(circles))
	for _, c := range circles {
		out = append(out, circleResponse(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *CircleHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == 0 {
		writeError(w, errMissingIdentity)
		return
	}
	circleID, err := pathID(r, "circleID")
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
	detail, err := h.circles.Get(r.Context(), circleID)
	if err != nil {
		writeError(w, err)
		return
	}
	resp := circleResponse(detail.Circle)
	resp["members"] = detail.Members
	writeJSON(w, http.StatusOK, resp)
}

func (h *CircleHandler) handleJoin(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == 0 {
		writeError(w, errMissingIdentity)
		return
	}
	circleID, err := pathID(r, "circleID")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.circles.Join(r.Context(), circleID, userID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "joined circle"})
}

func (h *CircleHandler) handleJoinByCode(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == 0 {
		writeError(w, errMissingIdentity)
		return
	}
	var req struct {
		Code string `json:"code"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	circle, err := h.circles.JoinByCode(r.Context(), req.Code, userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "joined",
		"circle": circleResponse(circle),
	})
}

func (h *CircleHandler) handleLeave(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == 0 {
		writeError(w, errMissingIdentity)
		return
	}
	circleID, err := pathID(r, "circleID")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.circles.Leave(r.Context(), circleID, userID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "left circle"})
}

func (h *CircleHandler) handleKick(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == 0 {
		writeError(w, errMissingIdentity)
		return
	}
	circleID, err := pathID(r, "circleID")
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		UserID int64 `json:"user_id"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.circles.Kick(r.Context(), circleID, userID, req.UserID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "kicked"})
}

func circleResponse(c models.Circle) map[string]any {
	return map[string]any{
		"id":          c.ID,
		"name":        c.Name,
		"description": c.Description,
		"admin_id":    c.AdminID,
		"invite_code": c.InviteCode,
		"created_at":  c.CreatedAt,
	}
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, dErrors.Newf(dErrors.CodeBadRequest, "invalid %s", name)
	}
	return id, nil
}

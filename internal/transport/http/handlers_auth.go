package httptransport

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"circles/internal/identity/models"
	"circles/internal/identity/service"
	"circles/internal/platform/middleware"
)

// IdentityService is the account surface the auth handlers need.
type IdentityService interface {
	Register(ctx context.Context, username, password, email string, termsAccepted bool) (service.Credentials, error)
	Login(ctx context.Context, username, password, userAgent string) (service.Credentials, error)
	Get(ctx context.Context, id int64) (models.User, error)
	UpdateProfile(ctx context.Context, userID int64, update service.ProfileUpdate) (models.User, error)
}

type AuthHandler struct {
	identity IdentityService
}

func NewAuthHandler(identity IdentityService) *AuthHandler {
	return &AuthHandler{identity: identity}
}

func (h *AuthHandler) RegisterPublic(r chi.Router) {
	r.Post("/api/auth/register", h.handleRegister)
	r.Post("/api/auth/login", h.handleLogin)
}

func (h *AuthHandler) RegisterProtected(r chi.Router) {
	r.Get("/api/profile/me", h.handleMe)
	r.Put("/api/profile/me", h.handleUpdateMe)
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username      string `json:"username"`
		Password      string `json:"password"`
		Email         string `json:"email"`
		TermsAccepted bool   `json:"terms_accepted"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	creds, err := h.identity.Register(r.Context(), req.Username, req.Password, req.Email, req.TermsAccepted)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, creds)
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	creds, err := h.identity.Login(r.Context(), req.Username, req.Password, r.UserAgent())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, creds)
}

func (h *AuthHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == 0 {
		writeError(w, errMissingIdentity)
		return
	}
	user, err := h.identity.Get(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user.Public())
}

func (h *AuthHandler) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == 0 {
		writeError(w, errMissingIdentity)
		return
	}
	var req struct {
		Username *string `json:"username"`
		Email    *string `json:"email"`
		Password *string `json:"password"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	user, err := h.identity.UpdateProfile(r.Context(), userID, service.ProfileUpdate{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user.Public())
}

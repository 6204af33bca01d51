// Package httptransport is the thin HTTP layer. Handlers delegate to
// domain services without embedding business logic so transport
// concerns remain isolated.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"circles/internal/platform/middleware"
	realtimehandler "circles/internal/realtime/handler"
)

// Deps collects everything the router mounts.
type Deps struct {
	Identity IdentityService
	Circles  CircleService
	Tasks    TaskService
	Messages MessageService
	Realtime *realtimehandler.Handler

	TokenValidator middleware.TokenValidator
	Logger         *slog.Logger
}

// NewRouter wires the middleware chain, the REST API, the WebSocket
// upgrade endpoints, and the operational endpoints. WebSocket routes
// authenticate with a token query parameter during the handshake, not
// a bearer header, so they sit outside RequireAuth.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.Recovery(deps.Logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	auth := NewAuthHandler(deps.Identity)
	auth.RegisterPublic(r)

	r.Group(func(protected chi.Router) {
		protected.Use(middleware.RequireAuth(deps.TokenValidator, deps.Logger))
		auth.RegisterProtected(protected)
		NewCircleHandler(deps.Circles).Register(protected)
		NewTaskHandler(deps.Tasks).Register(protected)
		NewMessageHandler(deps.Messages, deps.Circles).Register(protected)
	})

	deps.Realtime.Register(r)
	return r
}

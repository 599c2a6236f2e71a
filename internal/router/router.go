// Package router wires the HTTP surface: versioned API routes, the
// websocket endpoint and health checks.
package router

import (
	"net/http"

	authctl "commentfeed/internal/handlers/api/v1/auth"
	"commentfeed/internal/handlers/api/v1/comments"
	appmiddleware "commentfeed/internal/middleware"
	"commentfeed/internal/realtime"
	"commentfeed/internal/response"
	"commentfeed/internal/services"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Dependencies collects everything the router needs.
type Dependencies struct {
	CommentService services.CommentService
	AuthService    services.AuthService
	UserService    services.UserService
	Hub            *realtime.Hub
	Builder        *response.Builder
	Logger         *zap.Logger
	HealthCheck    func() error
	CORSOrigin     string
}

// New builds the application router.
func New(deps *Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(appmiddleware.RequestID)
	r.Use(appmiddleware.Recovery(deps.Logger))
	r.Use(appmiddleware.Logger(deps.Logger))
	r.Use(appmiddleware.CORS(deps.CORSOrigin))
	r.Use(chimiddleware.RealIP)

	auth := appmiddleware.NewAuthMiddleware(deps.AuthService, deps.Builder, deps.Logger)

	commentController := comments.NewCommentController(deps.CommentService, deps.Logger, deps.Builder)
	authController := authctl.NewAuthController(deps.AuthService, deps.UserService, deps.Logger, deps.Builder)

	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/auth", authController.Routes(auth.RequireAuth))
		r.Mount("/comments", commentController.Routes(auth.RequireAuth, auth.OptionalAuth))
	})

	r.Get("/ws", deps.Hub.ServeHTTP)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		if deps.HealthCheck != nil {
			if err := deps.HealthCheck(); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"status":"unhealthy"}`))
				return
			}
		}
		w.Write([]byte(`{"status":"ok"}`))
	})

	return r
}

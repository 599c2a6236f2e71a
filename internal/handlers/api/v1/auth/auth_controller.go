// ===============================
// FILE: internal/handlers/api/v1/auth/auth_controller.go
// ===============================

package auth

import (
	"encoding/json"
	"net/http"

	"commentfeed/internal/contextutils"
	"commentfeed/internal/response"
	"commentfeed/internal/services"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// AuthController handles account registration and login.
type AuthController struct {
	authService services.AuthService
	userService services.UserService
	logger      *zap.Logger
	builder     *response.Builder
}

// NewAuthController creates a new auth controller.
func NewAuthController(
	authService services.AuthService,
	userService services.UserService,
	logger *zap.Logger,
	builder *response.Builder,
) *AuthController {
	return &AuthController{
		authService: authService,
		userService: userService,
		logger:      logger,
		builder:     builder,
	}
}

// Routes mounts the auth endpoints.
func (c *AuthController) Routes(requireAuth func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/register", c.Register)
	r.Post("/login", c.Login)
	r.With(requireAuth).Get("/me", c.Me)
	return r
}

// Register handles POST /api/v1/auth/register
func (c *AuthController) Register(w http.ResponseWriter, r *http.Request) {
	var req services.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		c.builder.WriteError(w, r, services.NewValidationError("invalid request body", err))
		return
	}

	resp, err := c.authService.Register(r.Context(), &req)
	if err != nil {
		c.builder.WriteError(w, r, err)
		return
	}

	c.builder.WriteCreated(w, r, resp)
}

// Login handles POST /api/v1/auth/login
func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var req services.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		c.builder.WriteError(w, r, services.NewValidationError("invalid request body", err))
		return
	}

	resp, err := c.authService.Login(r.Context(), &req)
	if err != nil {
		c.builder.WriteError(w, r, err)
		return
	}

	c.builder.WriteSuccess(w, r, resp)
}

// Me handles GET /api/v1/auth/me
func (c *AuthController) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := contextutils.UserID(r.Context())
	if !ok {
		c.builder.WriteError(w, r, services.NewUnauthenticatedError("authentication required"))
		return
	}

	user, err := c.userService.GetByID(r.Context(), userID)
	if err != nil {
		c.builder.WriteError(w, r, err)
		return
	}

	c.builder.WriteSuccess(w, r, user)
}

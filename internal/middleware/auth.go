package middleware

import (
	"net/http"
	"strings"

	"commentfeed/internal/contextutils"
	"commentfeed/internal/response"
	"commentfeed/internal/services"

	"go.uber.org/zap"
)

// AuthMiddleware authenticates requests with bearer tokens.
type AuthMiddleware struct {
	auth    services.AuthService
	builder *response.Builder
	logger  *zap.Logger
}

// NewAuthMiddleware creates the authentication middleware.
func NewAuthMiddleware(auth services.AuthService, builder *response.Builder, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{auth: auth, builder: builder, logger: logger}
}

// RequireAuth rejects requests without a valid bearer token.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			m.builder.WriteError(w, r, services.NewUnauthenticatedError("authentication required"))
			return
		}

		userID, email, err := m.auth.VerifyToken(token)
		if err != nil {
			m.logger.Debug("token verification failed",
				zap.String("request_id", contextutils.RequestID(r.Context())),
				zap.Error(err))
			m.builder.WriteError(w, r, services.NewUnauthenticatedError("invalid or expired token"))
			return
		}

		ctx := contextutils.WithUser(r.Context(), userID, email)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OptionalAuth attaches the user to the context when a valid token is
// present and passes the request through anonymously otherwise. A token that
// is present but invalid is still rejected.
func (m *AuthMiddleware) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		userID, email, err := m.auth.VerifyToken(token)
		if err != nil {
			m.builder.WriteError(w, r, services.NewUnauthenticatedError("invalid or expired token"))
			return
		}

		ctx := contextutils.WithUser(r.Context(), userID, email)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	const prefix = "Bearer "
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, prefix) {
		return strings.TrimSpace(auth[len(prefix):])
	}
	return ""
}

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"commentfeed/internal/contextutils"
	"commentfeed/internal/response"
	"commentfeed/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeAuthService accepts a single known token.
type fakeAuthService struct {
	validToken string
	userID     int64
	email      string
}

func (f *fakeAuthService) Register(ctx context.Context, req *services.RegisterRequest) (*services.AuthResponse, error) {
	return nil, services.NewInternalError("not implemented", nil)
}

func (f *fakeAuthService) Login(ctx context.Context, req *services.LoginRequest) (*services.AuthResponse, error) {
	return nil, services.NewInternalError("not implemented", nil)
}

func (f *fakeAuthService) VerifyToken(token string) (int64, string, error) {
	if token != f.validToken {
		return 0, "", services.NewUnauthenticatedError("invalid or expired token")
	}
	return f.userID, f.email, nil
}

func newTestAuthMiddleware() *AuthMiddleware {
	auth := &fakeAuthService{validToken: "good-token", userID: 9, email: "nine@example.com"}
	builder := response.NewBuilder(&response.Config{}, zap.NewNop())
	return NewAuthMiddleware(auth, builder, zap.NewNop())
}

// echoUser writes the authenticated user id, or "anonymous".
func echoUser() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := contextutils.UserID(r.Context()); ok {
			w.Write([]byte("user:" + contextutils.UserEmail(r.Context())))
			return
		}
		w.Write([]byte("anonymous"))
	})
}

func doAuthRequest(t *testing.T, handler http.Handler, authorization string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRequireAuthMissingToken(t *testing.T) {
	m := newTestAuthMiddleware()
	rec := doAuthRequest(t, m.RequireAuth(echoUser()), "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "authentication required")
}

func TestRequireAuthInvalidToken(t *testing.T) {
	m := newTestAuthMiddleware()
	rec := doAuthRequest(t, m.RequireAuth(echoUser()), "Bearer bad-token")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid or expired token")
}

func TestRequireAuthValidToken(t *testing.T) {
	m := newTestAuthMiddleware()
	rec := doAuthRequest(t, m.RequireAuth(echoUser()), "Bearer good-token")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user:nine@example.com", rec.Body.String())
}

func TestRequireAuthRejectsNonBearerScheme(t *testing.T) {
	m := newTestAuthMiddleware()
	rec := doAuthRequest(t, m.RequireAuth(echoUser()), "Basic Zm9vOmJhcg==")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOptionalAuthAnonymousPassesThrough(t *testing.T) {
	m := newTestAuthMiddleware()
	rec := doAuthRequest(t, m.OptionalAuth(echoUser()), "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "anonymous", rec.Body.String())
}

func TestOptionalAuthValidTokenAttachesUser(t *testing.T) {
	m := newTestAuthMiddleware()
	rec := doAuthRequest(t, m.OptionalAuth(echoUser()), "Bearer good-token")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user:nine@example.com", rec.Body.String())
}

func TestOptionalAuthInvalidTokenStillRejected(t *testing.T) {
	m := newTestAuthMiddleware()
	rec := doAuthRequest(t, m.OptionalAuth(echoUser()), "Bearer bad-token")

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

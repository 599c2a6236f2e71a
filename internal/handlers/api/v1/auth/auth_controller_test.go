package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"commentfeed/internal/contextutils"
	"commentfeed/internal/models"
	"commentfeed/internal/response"
	"commentfeed/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubAuthService struct {
	resp *services.AuthResponse
	err  error
}

func (s *stubAuthService) Register(ctx context.Context, req *services.RegisterRequest) (*services.AuthResponse, error) {
	return s.resp, s.err
}

func (s *stubAuthService) Login(ctx context.Context, req *services.LoginRequest) (*services.AuthResponse, error) {
	return s.resp, s.err
}

func (s *stubAuthService) VerifyToken(token string) (int64, string, error) {
	return 0, "", services.NewUnauthenticatedError("invalid or expired token")
}

type stubUserService struct {
	user *models.UserSummary
	err  error
}

func (s *stubUserService) GetByID(ctx context.Context, id int64) (*models.UserSummary, error) {
	return s.user, s.err
}

func passthroughAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(contextutils.WithUser(r.Context(), 5, "me@example.com")))
	})
}

func newTestRouter(authSvc services.AuthService, userSvc services.UserService) http.Handler {
	builder := response.NewBuilder(&response.Config{}, zap.NewNop())
	controller := NewAuthController(authSvc, userSvc, zap.NewNop(), builder)
	return controller.Routes(passthroughAuth)
}

func TestRegisterCreated(t *testing.T) {
	svc := &stubAuthService{resp: &services.AuthResponse{
		Token: "tok",
		User:  models.UserSummary{ID: 1, Email: "a@b.com"},
	}}
	handler := newTestRouter(svc, &stubUserService{})

	req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(`{"firstName":"A","lastName":"B","email":"a@b.com","password":"longenough"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp response.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
}

func TestRegisterConflict(t *testing.T) {
	svc := &stubAuthService{err: services.NewConflictError("an account with this email already exists")}
	handler := newTestRouter(svc, &stubUserService{})

	req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(`{"email":"a@b.com"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLoginMalformedBody(t *testing.T) {
	handler := newTestRouter(&stubAuthService{}, &stubUserService{})

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginUnauthenticated(t *testing.T) {
	svc := &stubAuthService{err: services.NewUnauthenticatedError("invalid email or password")}
	handler := newTestRouter(svc, &stubUserService{})

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"email":"a@b.com","password":"nope"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMeReturnsCurrentUser(t *testing.T) {
	userSvc := &stubUserService{user: &models.UserSummary{ID: 5, Email: "me@example.com"}}
	handler := newTestRouter(&stubAuthService{}, userSvc)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "me@example.com")
}

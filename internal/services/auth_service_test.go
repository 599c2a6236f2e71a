package services

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"testing"
	"time"

	"commentfeed/internal/models"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*models.User
	email  map[string]int64
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{nextID: 1, byID: make(map[int64]*models.User), email: make(map[string]int64)}
}

func (f *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.email[user.Email]; exists {
		return &pq.Error{Code: "23505", Constraint: "users_email_key"}
	}
	user.ID = f.nextID
	f.nextID++
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	copied := *user
	f.byID[user.ID] = &copied
	f.email[user.Email] = user.ID
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.email[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *f.byID[id]
	return &copied, nil
}

func newTestAuthService() (AuthService, *fakeUserRepo) {
	repo := newFakeUserRepo()
	svc := NewAuthService(repo, zap.NewNop(), &AuthServiceConfig{
		JWTSecret:  "test-secret",
		JWTExpiry:  time.Hour,
		BCryptCost: 4, // MinCost keeps the tests fast
	})
	return svc, repo
}

func registerReq() *RegisterRequest {
	return &RegisterRequest{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Password:  "correct-horse",
	}
}

func TestRegisterAndLogin(t *testing.T) {
	svc, repo := newTestAuthService()
	ctx := context.Background()

	resp, err := svc.Register(ctx, registerReq())
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "ada@example.com", resp.User.Email)

	// The stored hash must not be the plain password.
	stored, err := repo.GetByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "correct-horse", stored.PasswordHash)

	login, err := svc.Login(ctx, &LoginRequest{Email: "ada@example.com", Password: "correct-horse"})
	require.NoError(t, err)
	assert.NotEmpty(t, login.Token)
	assert.Equal(t, resp.User.ID, login.User.ID)
}

func TestRegisterNormalizesEmail(t *testing.T) {
	svc, _ := newTestAuthService()

	req := registerReq()
	req.Email = "  Ada@Example.COM "
	resp, err := svc.Register(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", resp.User.Email)

	// Login with different casing resolves to the same account.
	login, err := svc.Login(context.Background(), &LoginRequest{Email: "ADA@example.com", Password: "correct-horse"})
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, login.User.ID)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newTestAuthService()
	ctx := context.Background()

	_, err := svc.Register(ctx, registerReq())
	require.NoError(t, err)

	_, err = svc.Register(ctx, registerReq())
	assert.True(t, IsConflictError(err))
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newTestAuthService()

	cases := map[string]func(*RegisterRequest){
		"missing email":  func(r *RegisterRequest) { r.Email = "" },
		"invalid email":  func(r *RegisterRequest) { r.Email = "not-an-email" },
		"short password": func(r *RegisterRequest) { r.Password = "short" },
		"long password":  func(r *RegisterRequest) { r.Password = strings.Repeat("x", 73) },
		"missing name":   func(r *RegisterRequest) { r.FirstName = "" },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := registerReq()
			mutate(req)
			_, err := svc.Register(context.Background(), req)
			assert.True(t, IsValidationError(err))
		})
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newTestAuthService()
	ctx := context.Background()

	_, err := svc.Register(ctx, registerReq())
	require.NoError(t, err)

	_, err = svc.Login(ctx, &LoginRequest{Email: "ada@example.com", Password: "wrong"})
	assert.True(t, IsUnauthenticatedError(err))
}

func TestLoginUnknownEmail(t *testing.T) {
	svc, _ := newTestAuthService()

	// Unknown account and wrong password are indistinguishable.
	_, err := svc.Login(context.Background(), &LoginRequest{Email: "nobody@example.com", Password: "whatever"})
	assert.True(t, IsUnauthenticatedError(err))
}

func TestVerifyTokenRoundTrip(t *testing.T) {
	svc, _ := newTestAuthService()

	resp, err := svc.Register(context.Background(), registerReq())
	require.NoError(t, err)

	userID, email, err := svc.VerifyToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, userID)
	assert.Equal(t, "ada@example.com", email)
}

func TestVerifyTokenRejectsTampered(t *testing.T) {
	svc, _ := newTestAuthService()

	resp, err := svc.Register(context.Background(), registerReq())
	require.NoError(t, err)

	tampered := resp.Token[:len(resp.Token)-2] + "xx"
	_, _, err = svc.VerifyToken(tampered)
	assert.True(t, IsUnauthenticatedError(err))

	_, _, err = svc.VerifyToken("not.a.token")
	assert.True(t, IsUnauthenticatedError(err))
}

func TestVerifyTokenRejectsWrongSecret(t *testing.T) {
	svc, repo := newTestAuthService()

	resp, err := svc.Register(context.Background(), registerReq())
	require.NoError(t, err)

	other := NewAuthService(repo, zap.NewNop(), &AuthServiceConfig{
		JWTSecret: "different-secret", JWTExpiry: time.Hour, BCryptCost: 4,
	})
	_, _, err = other.VerifyToken(resp.Token)
	assert.True(t, IsUnauthenticatedError(err))
}

func TestVerifyTokenRejectsExpired(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewAuthService(repo, zap.NewNop(), &AuthServiceConfig{
		JWTSecret: "test-secret", JWTExpiry: -time.Minute, BCryptCost: 4,
	})

	resp, err := svc.Register(context.Background(), registerReq())
	require.NoError(t, err)

	_, _, err = svc.VerifyToken(resp.Token)
	assert.True(t, IsUnauthenticatedError(err))
}

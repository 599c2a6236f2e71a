package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"commentfeed/internal/models"
	"commentfeed/internal/repositories"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lib/pq"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// isUniqueViolation matches the Postgres duplicate-key error surfaced when
// an email is already registered.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// AuthServiceConfig holds token and password hashing configuration.
type AuthServiceConfig struct {
	JWTSecret  string
	JWTExpiry  time.Duration
	BCryptCost int
}

// tokenClaims is the JWT payload issued at login.
type tokenClaims struct {
	UserID int64  `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

type authService struct {
	userRepo repositories.UserRepository
	logger   *zap.Logger
	config   *AuthServiceConfig
}

// NewAuthService creates a new auth service.
func NewAuthService(userRepo repositories.UserRepository, logger *zap.Logger, config *AuthServiceConfig) AuthService {
	return &authService{userRepo: userRepo, logger: logger, config: config}
}

func (s *authService) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.config.BCryptCost)
	if err != nil {
		return nil, NewInternalError("failed to hash password", err)
	}

	user := &models.User{
		Email:        req.Email,
		PasswordHash: string(hash),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if isUniqueViolation(err) {
			return nil, NewConflictError("an account with this email already exists")
		}
		return nil, NewInternalError("failed to create account", err)
	}

	s.logger.Info("account registered",
		zap.Int64("user_id", user.ID),
		zap.String("email", user.Email))

	return s.issueToken(user)
}

func (s *authService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if isRepoNotFound(err) {
			return nil, NewUnauthenticatedError("invalid email or password")
		}
		return nil, NewInternalError("failed to load account", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, NewUnauthenticatedError("invalid email or password")
	}

	return s.issueToken(user)
}

func (s *authService) VerifyToken(token string) (int64, string, error) {
	claims := &tokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.config.JWTSecret), nil
	})
	if err != nil || !parsed.Valid {
		return 0, "", NewUnauthenticatedError("invalid or expired token")
	}
	return claims.UserID, claims.Email, nil
}

func (s *authService) issueToken(user *models.User) (*AuthResponse, error) {
	now := time.Now()
	claims := &tokenClaims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.JWTExpiry)),
			Subject:   fmt.Sprintf("%d", user.ID),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return nil, NewInternalError("failed to sign token", err)
	}

	return &AuthResponse{Token: token, User: user.Summary()}, nil
}

package services

import (
	"context"

	"commentfeed/internal/models"
	"commentfeed/internal/repositories"

	"go.uber.org/zap"
)

type userService struct {
	userRepo repositories.UserRepository
	logger   *zap.Logger
}

// NewUserService creates a new user service.
func NewUserService(userRepo repositories.UserRepository, logger *zap.Logger) UserService {
	return &userService{userRepo: userRepo, logger: logger}
}

func (s *userService) GetByID(ctx context.Context, id int64) (*models.UserSummary, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if isRepoNotFound(err) {
			return nil, NewNotFoundError("user not found")
		}
		return nil, NewInternalError("failed to load user", err)
	}
	summary := user.Summary()
	return &summary, nil
}

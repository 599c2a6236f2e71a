package repositories

import (
	"context"
	"fmt"

	"commentfeed/internal/database"
	"commentfeed/internal/models"

	"go.uber.org/zap"
)

// UserRepository provides access to user accounts.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

type userRepository struct {
	*BaseRepository
}

// NewUserRepository creates a new user repository.
func NewUserRepository(db *database.Manager, logger *zap.Logger) UserRepository {
	return &userRepository{BaseRepository: NewBaseRepository(db, logger)}
}

const userColumns = `id, email, password_hash, first_name, last_name, created_at, updated_at`

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (email, password_hash, first_name, last_name)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`

	err := r.QueryRowContext(ctx, query,
		user.Email, user.PasswordHash, user.FirstName, user.LastName,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if r.IsUniqueViolation(err) {
			return err
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE id = $1"
	return r.scanUser(r.QueryRowContext(ctx, query, id))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE email = $1"
	return r.scanUser(r.QueryRowContext(ctx, query, email))
}

func (r *userRepository) scanUser(scanner interface{ Scan(...interface{}) error }) (*models.User, error) {
	var u models.User
	err := scanner.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

package services

import (
	"context"

	"commentfeed/internal/models"
	"commentfeed/internal/validation"
)

// validateRequest runs tag validation and converts failures into a
// field-level validation error.
func validateRequest(req interface{}) error {
	fails := validation.ValidateStruct(req)
	if len(fails) == 0 {
		return nil
	}
	fields := make([]FieldError, len(fails))
	for i, f := range fails {
		fields[i] = FieldError{Field: f.Field, Message: f.Message}
	}
	return NewFieldValidationError("request validation failed", fields)
}

// ===============================
// REQUEST / RESPONSE TYPES
// ===============================

// CreateCommentRequest creates a root comment or, when ParentID is set, a
// reply.
type CreateCommentRequest struct {
	Content  string `json:"content" validate:"required,min=1,max=2000"`
	ParentID *int64 `json:"parentId,omitempty"`
}

// UpdateCommentRequest edits a comment's content.
type UpdateCommentRequest struct {
	Content string `json:"content" validate:"required,min=1,max=2000"`
}

// ReactionRequest toggles a reaction on a comment.
type ReactionRequest struct {
	Type string `json:"type" validate:"required,oneof=like dislike"`
}

// ListCommentsRequest pages the root comment feed.
type ListCommentsRequest struct {
	SortBy string
	Cursor string
	Limit  int
}

// ListRepliesRequest pages the direct replies of a parent comment.
type ListRepliesRequest struct {
	ParentID int64
	Cursor   string
	Limit    int
}

// RegisterRequest creates a new account.
type RegisterRequest struct {
	FirstName string `json:"firstName" validate:"required,min=1,max=100"`
	LastName  string `json:"lastName" validate:"required,min=1,max=100"`
	Email     string `json:"email" validate:"required,email,max=255"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
}

// LoginRequest authenticates an existing account.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse carries an issued token and the account it belongs to.
type AuthResponse struct {
	Token string             `json:"token"`
	User  models.UserSummary `json:"user"`
}

// ===============================
// SERVICE INTERFACES
// ===============================

// CommentService implements the comment feed operations.
type CommentService interface {
	Create(ctx context.Context, authorID int64, req *CreateCommentRequest) (*models.Comment, error)
	Get(ctx context.Context, id int64, viewerID *int64) (*models.Comment, error)
	Update(ctx context.Context, actorID, id int64, req *UpdateCommentRequest) (*models.Comment, error)
	Delete(ctx context.Context, actorID, id int64) error
	ListComments(ctx context.Context, req *ListCommentsRequest, viewerID *int64) (*models.Page, error)
	ListReplies(ctx context.Context, req *ListRepliesRequest, viewerID *int64) (*models.Page, error)
	React(ctx context.Context, actorID, commentID int64, req *ReactionRequest) (*models.Comment, error)
}

// AuthService issues and verifies credentials.
type AuthService interface {
	Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error)
	// VerifyToken validates a bearer token and returns the identity baked
	// into it.
	VerifyToken(token string) (userID int64, email string, err error)
}

// UserService exposes account lookups.
type UserService interface {
	GetByID(ctx context.Context, id int64) (*models.UserSummary, error)
}

package models

import "time"

// ===============================
// USER MODELS
// ===============================

// User represents a registered account. PasswordHash is never serialized.
type User struct {
	ID           int64     `json:"id"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// UserSummary is the author projection embedded in comment responses.
type UserSummary struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

// Summary strips everything but the public author fields.
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
	}
}

// ===============================
// COMMENT MODELS
// ===============================

// ReactionType is the kind of reaction a user can leave on a comment.
type ReactionType string

const (
	ReactionLike    ReactionType = "like"
	ReactionDislike ReactionType = "dislike"
)

// Valid reports whether the value is one of the two known reaction types.
func (r ReactionType) Valid() bool {
	return r == ReactionLike || r == ReactionDislike
}

// Comment is the canonical comment representation shared by the HTTP
// responses and the real-time events. UserReaction is viewer-specific and
// only populated when the request carries an authenticated user.
type Comment struct {
	ID            int64         `json:"id"`
	Content       string        `json:"content"`
	Author        UserSummary   `json:"author"`
	LikesCount    int           `json:"likesCount"`
	DislikesCount int           `json:"dislikesCount"`
	UserReaction  *ReactionType `json:"userReaction,omitempty"`
	ParentID      *int64        `json:"parentId,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// IsRoot reports whether the comment starts a thread.
func (c *Comment) IsRoot() bool {
	return c.ParentID == nil
}

// Page is one page of a cursor-paginated listing. NextCursor is nil on the
// final page.
type Page struct {
	Data       []*Comment `json:"data"`
	NextCursor *string    `json:"nextCursor"`
	HasMore    bool       `json:"hasMore"`
}

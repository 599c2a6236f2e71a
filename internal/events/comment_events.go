package events

import (
	"time"

	"commentfeed/internal/models"
)

// Event types published by the comment service.
const (
	TypeCommentCreated = "comment.created"
	TypeCommentReplied = "comment.replied"
	TypeCommentUpdated = "comment.updated"
	TypeCommentDeleted = "comment.deleted"
	TypeCommentReacted = "comment.reacted"
)

// CommentCreatedEvent is emitted when a new root comment is created.
type CommentCreatedEvent struct {
	BaseEvent
	Comment *models.Comment `json:"comment"`
}

// CommentRepliedEvent is emitted when a reply is created under a parent.
type CommentRepliedEvent struct {
	BaseEvent
	Comment  *models.Comment `json:"comment"`
	ParentID int64           `json:"parent_id"`
}

// CommentUpdatedEvent is emitted when a comment's content is edited.
type CommentUpdatedEvent struct {
	BaseEvent
	Comment *models.Comment `json:"comment"`
}

// CommentDeletedEvent is emitted when a comment is soft deleted.
type CommentDeletedEvent struct {
	BaseEvent
	CommentID int64  `json:"comment_id"`
	ParentID  *int64 `json:"parent_id,omitempty"`
}

// CommentReactedEvent is emitted after a reaction toggle settles. It carries
// the refreshed comment, counts included, so subscribers see the same
// representation the HTTP response returns.
type CommentReactedEvent struct {
	BaseEvent
	Comment *models.Comment `json:"comment"`
}

// ===============================
// EVENT FACTORY FUNCTIONS
// ===============================

// NewCommentCreatedEvent creates a comment created event.
func NewCommentCreatedEvent(comment *models.Comment, actorID int64) *CommentCreatedEvent {
	return &CommentCreatedEvent{
		BaseEvent: newBaseEvent(TypeCommentCreated, actorID),
		Comment:   comment,
	}
}

// NewCommentRepliedEvent creates a comment replied event.
func NewCommentRepliedEvent(comment *models.Comment, parentID, actorID int64) *CommentRepliedEvent {
	return &CommentRepliedEvent{
		BaseEvent: newBaseEvent(TypeCommentReplied, actorID),
		Comment:   comment,
		ParentID:  parentID,
	}
}

// NewCommentUpdatedEvent creates a comment updated event.
func NewCommentUpdatedEvent(comment *models.Comment, actorID int64) *CommentUpdatedEvent {
	return &CommentUpdatedEvent{
		BaseEvent: newBaseEvent(TypeCommentUpdated, actorID),
		Comment:   comment,
	}
}

// NewCommentDeletedEvent creates a comment deleted event.
func NewCommentDeletedEvent(commentID int64, parentID *int64, actorID int64) *CommentDeletedEvent {
	return &CommentDeletedEvent{
		BaseEvent: newBaseEvent(TypeCommentDeleted, actorID),
		CommentID: commentID,
		ParentID:  parentID,
	}
}

// NewCommentReactedEvent creates a comment reacted event.
func NewCommentReactedEvent(comment *models.Comment, actorID int64) *CommentReactedEvent {
	return &CommentReactedEvent{
		BaseEvent: newBaseEvent(TypeCommentReacted, actorID),
		Comment:   comment,
	}
}

func newBaseEvent(eventType string, actorID int64) BaseEvent {
	return BaseEvent{
		EventID:   GenerateEventID(),
		EventType: eventType,
		Timestamp: time.Now(),
		UserID:    &actorID,
	}
}

// ===============================
// FILE: internal/services/comment_service.go
// ===============================

package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"commentfeed/internal/cache"
	"commentfeed/internal/events"
	"commentfeed/internal/models"
	"commentfeed/internal/pagination"
	"commentfeed/internal/repositories"

	"go.uber.org/zap"
)

// commentService implements CommentService.
type commentService struct {
	commentRepo repositories.CommentRepository
	cache       cache.Cache
	events      events.EventBus
	logger      *zap.Logger
	config      *CommentServiceConfig
}

// CommentServiceConfig holds comment service configuration.
type CommentServiceConfig struct {
	CacheTTL time.Duration
}

// DefaultCommentConfig returns default comment service configuration.
func DefaultCommentConfig() *CommentServiceConfig {
	return &CommentServiceConfig{CacheTTL: 10 * time.Minute}
}

// NewCommentService creates a new comment service.
func NewCommentService(
	commentRepo repositories.CommentRepository,
	cache cache.Cache,
	events events.EventBus,
	logger *zap.Logger,
	config *CommentServiceConfig,
) CommentService {
	if config == nil {
		config = DefaultCommentConfig()
	}
	return &commentService{
		commentRepo: commentRepo,
		cache:       cache,
		events:      events,
		logger:      logger,
		config:      config,
	}
}

// ===============================
// CORE CRUD OPERATIONS
// ===============================

func (s *commentService) Create(ctx context.Context, authorID int64, req *CreateCommentRequest) (*models.Comment, error) {
	req.Content = strings.TrimSpace(req.Content)
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	if req.ParentID != nil {
		exists, err := s.commentRepo.Exists(ctx, *req.ParentID)
		if err != nil {
			return nil, NewInternalError("failed to check parent comment", err)
		}
		if !exists {
			return nil, NewNotFoundError("parent comment not found")
		}
	}

	comment, err := s.commentRepo.Create(ctx, authorID, req.Content, req.ParentID)
	if err != nil {
		return nil, NewInternalError("failed to create comment", err)
	}

	s.invalidateListings(ctx)

	if req.ParentID != nil {
		s.publish(ctx, events.NewCommentRepliedEvent(comment, *req.ParentID, authorID))
	} else {
		s.publish(ctx, events.NewCommentCreatedEvent(comment, authorID))
	}

	s.logger.Info("comment created",
		zap.Int64("comment_id", comment.ID),
		zap.Int64("author_id", authorID),
		zap.Bool("is_reply", req.ParentID != nil))

	return comment, nil
}

func (s *commentService) Get(ctx context.Context, id int64, viewerID *int64) (*models.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, id, viewerID)
	if err != nil {
		if isRepoNotFound(err) {
			return nil, NewNotFoundError("comment not found")
		}
		return nil, NewInternalError("failed to load comment", err)
	}
	return comment, nil
}

func (s *commentService) Update(ctx context.Context, actorID, id int64, req *UpdateCommentRequest) (*models.Comment, error) {
	req.Content = strings.TrimSpace(req.Content)
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	existing, err := s.Get(ctx, id, &actorID)
	if err != nil {
		return nil, err
	}
	if existing.Author.ID != actorID {
		return nil, NewForbiddenError("only the author can edit this comment")
	}

	if err := s.commentRepo.UpdateContent(ctx, id, req.Content); err != nil {
		if isRepoNotFound(err) {
			return nil, NewNotFoundError("comment not found")
		}
		return nil, NewInternalError("failed to update comment", err)
	}

	comment, err := s.Get(ctx, id, &actorID)
	if err != nil {
		return nil, err
	}

	s.invalidateListings(ctx)
	s.publish(ctx, events.NewCommentUpdatedEvent(comment, actorID))

	return comment, nil
}

func (s *commentService) Delete(ctx context.Context, actorID, id int64) error {
	existing, err := s.Get(ctx, id, &actorID)
	if err != nil {
		return err
	}
	if existing.Author.ID != actorID {
		return NewForbiddenError("only the author can delete this comment")
	}

	if err := s.commentRepo.SoftDelete(ctx, id); err != nil {
		if isRepoNotFound(err) {
			return NewNotFoundError("comment not found")
		}
		return NewInternalError("failed to delete comment", err)
	}

	s.invalidateListings(ctx)
	s.publish(ctx, events.NewCommentDeletedEvent(id, existing.ParentID, actorID))

	s.logger.Info("comment deleted",
		zap.Int64("comment_id", id),
		zap.Int64("actor_id", actorID))

	return nil
}

// ===============================
// LISTINGS
// ===============================

func (s *commentService) ListComments(ctx context.Context, req *ListCommentsRequest, viewerID *int64) (*models.Page, error) {
	mode, err := pagination.ParseSortMode(req.SortBy)
	if err != nil {
		return nil, NewValidationError(err.Error(), err)
	}
	limit, err := pagination.ValidateLimit(req.Limit)
	if err != nil {
		return nil, NewValidationError(err.Error(), err)
	}

	var cursor *pagination.Cursor
	if req.Cursor != "" {
		cursor, err = pagination.Decode(req.Cursor, mode)
		if err != nil {
			return nil, NewValidationError(err.Error(), err)
		}
	}

	// Only the anonymous first page is cacheable: UserReaction makes every
	// authenticated listing viewer-specific.
	cacheKey := ""
	if viewerID == nil && cursor == nil {
		cacheKey = listingCacheKey(string(mode), limit)
		if data, ok := s.cache.Get(ctx, cacheKey); ok {
			var page models.Page
			if err := json.Unmarshal(data, &page); err == nil {
				return &page, nil
			}
		}
	}

	items, err := s.commentRepo.ListRoots(ctx, mode, cursor, limit, viewerID)
	if err != nil {
		return nil, NewInternalError("failed to list comments", err)
	}

	page := pagination.BuildPage(items, limit, mode)

	if cacheKey != "" {
		if data, err := json.Marshal(page); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, s.config.CacheTTL)
		}
	}

	return page, nil
}

func (s *commentService) ListReplies(ctx context.Context, req *ListRepliesRequest, viewerID *int64) (*models.Page, error) {
	limit, err := pagination.ValidateLimit(req.Limit)
	if err != nil {
		return nil, NewValidationError(err.Error(), err)
	}

	var cursor *pagination.Cursor
	if req.Cursor != "" {
		// Replies only page under recency order.
		cursor, err = pagination.Decode(req.Cursor, pagination.SortNewest)
		if err != nil {
			return nil, NewValidationError(err.Error(), err)
		}
	}

	exists, err := s.commentRepo.Exists(ctx, req.ParentID)
	if err != nil {
		return nil, NewInternalError("failed to check parent comment", err)
	}
	if !exists {
		return nil, NewNotFoundError("parent comment not found")
	}

	items, err := s.commentRepo.ListReplies(ctx, req.ParentID, cursor, limit, viewerID)
	if err != nil {
		return nil, NewInternalError("failed to list replies", err)
	}

	return pagination.BuildPage(items, limit, pagination.SortNewest), nil
}

// ===============================
// REACTIONS
// ===============================

func (s *commentService) React(ctx context.Context, actorID, commentID int64, req *ReactionRequest) (*models.Comment, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	reaction := models.ReactionType(req.Type)

	if _, err := s.commentRepo.ToggleReaction(ctx, commentID, actorID, reaction); err != nil {
		if isRepoNotFound(err) {
			return nil, NewNotFoundError("comment not found")
		}
		return nil, NewInternalError("failed to toggle reaction", err)
	}

	comment, err := s.Get(ctx, commentID, &actorID)
	if err != nil {
		return nil, err
	}

	s.invalidateListings(ctx)

	// The event carries the refreshed comment so the realtime frame matches
	// the HTTP response body.
	s.publish(ctx, events.NewCommentReactedEvent(comment, actorID))

	return comment, nil
}

// ===============================
// HELPERS
// ===============================

func listingCacheKey(mode string, limit int) string {
	return fmt.Sprintf("comments:roots:%s:%d:anon", mode, limit)
}

// invalidateListings drops every cached listing page after a write.
func (s *commentService) invalidateListings(ctx context.Context) {
	if err := s.cache.DeletePattern(ctx, "comments:*"); err != nil {
		s.logger.Warn("failed to invalidate listing cache", zap.Error(err))
	}
}

// publish emits a domain event without letting fan-out failures affect the
// request.
func (s *commentService) publish(ctx context.Context, event events.Event) {
	if err := s.events.PublishAsync(ctx, event); err != nil {
		s.logger.Warn("failed to publish event",
			zap.String("event_type", event.GetEventType()),
			zap.Error(err))
	}
}

// isRepoNotFound matches the sentinel the repositories surface for missing
// rows.
func isRepoNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

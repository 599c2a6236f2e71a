// ===============================
// FILE: internal/handlers/api/v1/comments/comments_controller.go
// ===============================

package comments

import (
	"encoding/json"
	"net/http"
	"strconv"

	"commentfeed/internal/contextutils"
	"commentfeed/internal/response"
	"commentfeed/internal/services"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CommentController handles the comment API endpoints.
type CommentController struct {
	commentService services.CommentService
	logger         *zap.Logger
	builder        *response.Builder
}

// NewCommentController creates a new comment controller.
func NewCommentController(
	commentService services.CommentService,
	logger *zap.Logger,
	builder *response.Builder,
) *CommentController {
	return &CommentController{
		commentService: commentService,
		logger:         logger,
		builder:        builder,
	}
}

// Routes mounts the comment endpoints. requireAuth guards the write
// operations; listings and fetches run with optional authentication so the
// viewer's own reaction can be attached when a token is present.
func (c *CommentController) Routes(requireAuth, optionalAuth func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(optionalAuth)
		r.Get("/", c.ListComments)
		r.Get("/{id}", c.GetComment)
		r.Get("/{id}/replies", c.ListReplies)
	})

	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Post("/", c.CreateComment)
		r.Patch("/{id}", c.UpdateComment)
		r.Delete("/{id}", c.DeleteComment)
		r.Post("/{id}/reaction", c.ReactToComment)
	})

	return r
}

// ===============================
// CORE CRUD OPERATIONS
// ===============================

// CreateComment handles POST /api/v1/comments
func (c *CommentController) CreateComment(w http.ResponseWriter, r *http.Request) {
	userID, ok := contextutils.UserID(r.Context())
	if !ok {
		c.builder.WriteError(w, r, services.NewUnauthenticatedError("authentication required"))
		return
	}

	var req services.CreateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		c.builder.WriteError(w, r, services.NewValidationError("invalid request body", err))
		return
	}

	comment, err := c.commentService.Create(r.Context(), userID, &req)
	if err != nil {
		c.builder.WriteError(w, r, err)
		return
	}

	c.builder.WriteCreated(w, r, comment)
}

// GetComment handles GET /api/v1/comments/{id}
func (c *CommentController) GetComment(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		c.builder.WriteError(w, r, err)
		return
	}

	comment, err := c.commentService.Get(r.Context(), id, viewerID(r))
	if err != nil {
		c.builder.WriteError(w, r, err)
		return
	}

	c.builder.WriteSuccess(w, r, comment)
}

// UpdateComment handles PATCH /api/v1/comments/{id}
func (c *CommentController) UpdateComment(w http.ResponseWriter, r *http.Request) {
	userID, ok := contextutils.UserID(r.Context())
	if !ok {
		c.builder.WriteError(w, r, services.NewUnauthenticatedError("authentication required"))
		return
	}

	id, err := parseID(r)
	if err != nil {
		c.builder.WriteError(w, r, err)
		return
	}

	var req services.UpdateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		c.builder.WriteError(w, r, services.NewValidationError("invalid request body", err))
		return
	}

	comment, err := c.commentService.Update(r.Context(), userID, id, &req)
	if err != nil {
		c.builder.WriteError(w, r, err)
		return
	}

	c.builder.WriteSuccess(w, r, comment)
}

// DeleteComment handles DELETE /api/v1/comments/{id}
func (c *CommentController) DeleteComment(w http.ResponseWriter, r *http.Request) {
	userID, ok := contextutils.UserID(r.Context())
	if !ok {
		c.builder.WriteError(w, r, services.NewUnauthenticatedError("authentication required"))
		return
	}

	id, err := parseID(r)
	if err != nil {
		c.builder.WriteError(w, r, err)
		return
	}

	if err := c.commentService.Delete(r.Context(), userID, id); err != nil {
		c.builder.WriteError(w, r, err)
		return
	}

	c.builder.WriteNoContent(w, r)
}

// ===============================
// LISTINGS
// ===============================

// ListComments handles GET /api/v1/comments
func (c *CommentController) ListComments(w http.ResponseWriter, r *http.Request) {
	req := &services.ListCommentsRequest{
		SortBy: r.URL.Query().Get("sortBy"),
		Cursor: r.URL.Query().Get("cursor"),
	}

	limit, err := parseLimit(r)
	if err != nil {
		c.builder.WriteError(w, r, err)
		return
	}
	req.Limit = limit

	page, err := c.commentService.ListComments(r.Context(), req, viewerID(r))
	if err != nil {
		c.builder.WriteError(w, r, err)
		return
	}

	c.builder.WritePage(w, r, page)
}

// ListReplies handles GET /api/v1/comments/{id}/replies
func (c *CommentController) ListReplies(w http.ResponseWriter, r *http.Request) {
	parentID, err := parseID(r)
	if err != nil {
		c.builder.WriteError(w, r, err)
		return
	}

	limit, err := parseLimit(r)
	if err != nil {
		c.builder.WriteError(w, r, err)
		return
	}

	req := &services.ListRepliesRequest{
		ParentID: parentID,
		Cursor:   r.URL.Query().Get("cursor"),
		Limit:    limit,
	}

	page, err := c.commentService.ListReplies(r.Context(), req, viewerID(r))
	if err != nil {
		c.builder.WriteError(w, r, err)
		return
	}

	c.builder.WritePage(w, r, page)
}

// ===============================
// REACTIONS
// ===============================

// ReactToComment handles POST /api/v1/comments/{id}/reaction
func (c *CommentController) ReactToComment(w http.ResponseWriter, r *http.Request) {
	userID, ok := contextutils.UserID(r.Context())
	if !ok {
		c.builder.WriteError(w, r, services.NewUnauthenticatedError("authentication required"))
		return
	}

	id, err := parseID(r)
	if err != nil {
		c.builder.WriteError(w, r, err)
		return
	}

	var req services.ReactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		c.builder.WriteError(w, r, services.NewValidationError("invalid request body", err))
		return
	}

	comment, err := c.commentService.React(r.Context(), userID, id, &req)
	if err != nil {
		c.builder.WriteError(w, r, err)
		return
	}

	c.builder.WriteSuccess(w, r, comment)
}

// ===============================
// HELPERS
// ===============================

func parseID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, services.NewValidationError("invalid comment id", err)
	}
	return id, nil
}

// parseLimit distinguishes an absent limit (0, the service default) from an
// explicit out-of-range one, which is rejected rather than clamped.
func parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return 0, services.NewValidationError("limit must be a number", err)
	}
	if limit < 1 {
		return 0, services.NewValidationError("limit must be a positive number", nil)
	}
	return limit, nil
}

func viewerID(r *http.Request) *int64 {
	if id, ok := contextutils.UserID(r.Context()); ok {
		return &id
	}
	return nil
}

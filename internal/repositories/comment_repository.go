package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"commentfeed/internal/database"
	"commentfeed/internal/models"
	"commentfeed/internal/pagination"

	"go.uber.org/zap"
)

// ReactionCounts is the settled state of a comment's reactions after a
// toggle.
type ReactionCounts struct {
	LikesCount    int
	DislikesCount int
	// UserReaction is the caller's reaction after the toggle, nil when the
	// toggle removed it.
	UserReaction *models.ReactionType
}

// CommentRepository provides access to comments and their reactions.
type CommentRepository interface {
	Create(ctx context.Context, authorID int64, content string, parentID *int64) (*models.Comment, error)
	GetByID(ctx context.Context, id int64, viewerID *int64) (*models.Comment, error)
	Exists(ctx context.Context, id int64) (bool, error)
	UpdateContent(ctx context.Context, id int64, content string) error
	SoftDelete(ctx context.Context, id int64) error
	ListRoots(ctx context.Context, mode pagination.SortMode, cursor *pagination.Cursor, limit int, viewerID *int64) ([]*models.Comment, error)
	ListReplies(ctx context.Context, parentID int64, cursor *pagination.Cursor, limit int, viewerID *int64) ([]*models.Comment, error)
	ToggleReaction(ctx context.Context, commentID, userID int64, reaction models.ReactionType) (*ReactionCounts, error)
}

type commentRepository struct {
	*BaseRepository
}

// NewCommentRepository creates a new comment repository.
func NewCommentRepository(db *database.Manager, logger *zap.Logger) CommentRepository {
	return &commentRepository{BaseRepository: NewBaseRepository(db, logger)}
}

// commentColumns is the projection shared by every comment query. Counts are
// derived from the reactions table; ur carries the viewer's own reaction.
const commentColumns = `
	c.id, c.content, c.parent_id, c.created_at, c.updated_at,
	u.id, u.first_name, u.last_name, u.email,
	COALESCE(rc.likes, 0) AS likes_count,
	COALESCE(rc.dislikes, 0) AS dislikes_count,
	ur.reaction_type`

const commentJoins = `
	FROM comments c
	JOIN users u ON u.id = c.user_id
	LEFT JOIN (
		SELECT comment_id,
			COUNT(*) FILTER (WHERE reaction_type = 'like') AS likes,
			COUNT(*) FILTER (WHERE reaction_type = 'dislike') AS dislikes
		FROM comment_reactions
		GROUP BY comment_id
	) rc ON rc.comment_id = c.id
	LEFT JOIN comment_reactions ur ON ur.comment_id = c.id AND ur.user_id = $1`

func scanComment(scanner interface{ Scan(...interface{}) error }) (*models.Comment, error) {
	var c models.Comment
	var reaction sql.NullString

	err := scanner.Scan(
		&c.ID, &c.Content, &c.ParentID, &c.CreatedAt, &c.UpdatedAt,
		&c.Author.ID, &c.Author.FirstName, &c.Author.LastName, &c.Author.Email,
		&c.LikesCount, &c.DislikesCount,
		&reaction,
	)
	if err != nil {
		return nil, err
	}

	if reaction.Valid {
		r := models.ReactionType(reaction.String)
		c.UserReaction = &r
	}
	return &c, nil
}

// viewerArg converts an optional viewer into the NULL-able bind parameter
// used by the viewer-reaction join.
func viewerArg(viewerID *int64) interface{} {
	if viewerID == nil {
		return nil
	}
	return *viewerID
}

func (r *commentRepository) Create(ctx context.Context, authorID int64, content string, parentID *int64) (*models.Comment, error) {
	query := `
		INSERT INTO comments (user_id, content, parent_id)
		VALUES ($1, $2, $3)
		RETURNING id`

	var id int64
	if err := r.QueryRowContext(ctx, query, authorID, content, parentID).Scan(&id); err != nil {
		return nil, fmt.Errorf("failed to insert comment: %w", err)
	}

	return r.GetByID(ctx, id, &authorID)
}

func (r *commentRepository) GetByID(ctx context.Context, id int64, viewerID *int64) (*models.Comment, error) {
	query := "SELECT " + commentColumns + commentJoins + `
	WHERE c.id = $2 AND NOT c.is_deleted`

	comment, err := scanComment(r.QueryRowContext(ctx, query, viewerArg(viewerID), id))
	if err != nil {
		if r.IsNotFound(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load comment %d: %w", id, err)
	}
	return comment, nil
}

func (r *commentRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM comments WHERE id = $1 AND NOT is_deleted)`
	if err := r.QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check comment %d: %w", id, err)
	}
	return exists, nil
}

func (r *commentRepository) UpdateContent(ctx context.Context, id int64, content string) error {
	query := `
		UPDATE comments
		SET content = $2, updated_at = NOW()
		WHERE id = $1 AND NOT is_deleted`

	result, err := r.ExecContext(ctx, query, id, content)
	if err != nil {
		return fmt.Errorf("failed to update comment %d: %w", id, err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *commentRepository) SoftDelete(ctx context.Context, id int64) error {
	// Children are left untouched: deletion does not cascade.
	query := `
		UPDATE comments
		SET is_deleted = TRUE, updated_at = NOW()
		WHERE id = $1 AND NOT is_deleted`

	result, err := r.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete comment %d: %w", id, err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ===============================
// LISTINGS
// ===============================

func (r *commentRepository) ListRoots(ctx context.Context, mode pagination.SortMode, cursor *pagination.Cursor, limit int, viewerID *int64) ([]*models.Comment, error) {
	if mode.Ranked() {
		return r.listRootsRanked(ctx, mode, cursor, limit, viewerID)
	}

	query := "SELECT " + commentColumns + commentJoins + `
	WHERE c.parent_id IS NULL AND NOT c.is_deleted`

	args := []interface{}{viewerArg(viewerID)}
	if cursor != nil {
		args = append(args, cursor.ID)
		query += fmt.Sprintf(" AND c.id < $%d", len(args))
	}

	args = append(args, limit+1)
	query += fmt.Sprintf(" ORDER BY c.id DESC LIMIT $%d", len(args))

	return r.queryComments(ctx, query, args...)
}

// listRootsRanked pages under (count DESC, id DESC). Counts are computed in
// the inner query before the cursor predicate applies, so a comment's rank
// position is judged on its current counts, and the resume condition is the
// single compound filter over (count, id).
func (r *commentRepository) listRootsRanked(ctx context.Context, mode pagination.SortMode, cursor *pagination.Cursor, limit int, viewerID *int64) ([]*models.Comment, error) {
	rankCol := "likes_count"
	if mode == pagination.SortMostDisliked {
		rankCol = "dislikes_count"
	}

	query := "SELECT * FROM (SELECT " + commentColumns + commentJoins + `
	WHERE c.parent_id IS NULL AND NOT c.is_deleted) ranked`

	args := []interface{}{viewerArg(viewerID)}
	if cursor != nil {
		args = append(args, cursor.Count, cursor.ID)
		query += fmt.Sprintf(
			" WHERE (ranked.%s < $%d OR (ranked.%s = $%d AND ranked.id < $%d))",
			rankCol, len(args)-1, rankCol, len(args)-1, len(args))
	}

	args = append(args, limit+1)
	query += fmt.Sprintf(" ORDER BY ranked.%s DESC, ranked.id DESC LIMIT $%d", rankCol, len(args))

	return r.queryComments(ctx, query, args...)
}

func (r *commentRepository) ListReplies(ctx context.Context, parentID int64, cursor *pagination.Cursor, limit int, viewerID *int64) ([]*models.Comment, error) {
	query := "SELECT " + commentColumns + commentJoins + `
	WHERE c.parent_id = $2 AND NOT c.is_deleted`

	args := []interface{}{viewerArg(viewerID), parentID}
	if cursor != nil {
		args = append(args, cursor.ID)
		query += fmt.Sprintf(" AND c.id < $%d", len(args))
	}

	args = append(args, limit+1)
	query += fmt.Sprintf(" ORDER BY c.id DESC LIMIT $%d", len(args))

	return r.queryComments(ctx, query, args...)
}

func (r *commentRepository) queryComments(ctx context.Context, query string, args ...interface{}) ([]*models.Comment, error) {
	rows, err := r.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	var comments []*models.Comment
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment row: %w", err)
		}
		comments = append(comments, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate comment rows: %w", err)
	}
	return comments, nil
}

// ===============================
// REACTIONS
// ===============================

// ToggleReaction applies the reaction state machine inside a transaction.
// The target comment row is locked first, which serializes concurrent
// toggles on the same comment; the composite primary key on
// (comment_id, user_id) guarantees at most one stored reaction per user.
func (r *commentRepository) ToggleReaction(ctx context.Context, commentID, userID int64, reaction models.ReactionType) (*ReactionCounts, error) {
	var counts ReactionCounts

	err := r.WithTransaction(ctx, func(tx *sql.Tx) error {
		var locked int64
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM comments WHERE id = $1 AND NOT is_deleted FOR UPDATE`,
			commentID,
		).Scan(&locked)
		if err != nil {
			return err
		}

		var current sql.NullString
		err = tx.QueryRowContext(ctx,
			`SELECT reaction_type FROM comment_reactions WHERE comment_id = $1 AND user_id = $2`,
			commentID, userID,
		).Scan(&current)
		if err != nil && err != sql.ErrNoRows {
			return fmt.Errorf("failed to load current reaction: %w", err)
		}

		switch {
		case !current.Valid:
			// No reaction yet: store the new one.
			_, err = tx.ExecContext(ctx,
				`INSERT INTO comment_reactions (comment_id, user_id, reaction_type) VALUES ($1, $2, $3)`,
				commentID, userID, string(reaction))
			if err == nil {
				counts.UserReaction = &reaction
			}
		case current.String == string(reaction):
			// Same reaction toggles off.
			_, err = tx.ExecContext(ctx,
				`DELETE FROM comment_reactions WHERE comment_id = $1 AND user_id = $2`,
				commentID, userID)
		default:
			// Different reaction switches atomically.
			_, err = tx.ExecContext(ctx,
				`UPDATE comment_reactions SET reaction_type = $3, created_at = NOW() WHERE comment_id = $1 AND user_id = $2`,
				commentID, userID, string(reaction))
			if err == nil {
				counts.UserReaction = &reaction
			}
		}
		if err != nil {
			return fmt.Errorf("failed to apply reaction toggle: %w", err)
		}

		return tx.QueryRowContext(ctx, `
			SELECT
				COUNT(*) FILTER (WHERE reaction_type = 'like'),
				COUNT(*) FILTER (WHERE reaction_type = 'dislike')
			FROM comment_reactions WHERE comment_id = $1`,
			commentID,
		).Scan(&counts.LikesCount, &counts.DislikesCount)
	})
	if err != nil {
		return nil, err
	}
	return &counts, nil
}

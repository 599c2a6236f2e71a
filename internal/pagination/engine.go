package pagination

import (
	"fmt"

	"commentfeed/internal/models"
)

// Page size bounds. DefaultLimit matches the listing default of the HTTP
// surface; MaxLimit is a hard cap regardless of what the client asks for.
const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// ValidateLimit checks a requested page size against the allowed range. Zero
// means "not provided" and resolves to the default.
func ValidateLimit(limit int) (int, error) {
	if limit == 0 {
		return DefaultLimit, nil
	}
	if limit < 1 || limit > MaxLimit {
		return 0, fmt.Errorf("%w: must be between 1 and %d", ErrInvalidLimit, MaxLimit)
	}
	return limit, nil
}

// BuildPage turns a limit+1 fetch result into a page. items must already be
// in the mode's total order; the extra row, if present, only signals that
// another page exists and is not returned.
func BuildPage(items []*models.Comment, limit int, mode SortMode) *models.Page {
	hasMore := len(items) > limit
	if hasMore {
		items = items[:limit]
	}

	page := &models.Page{
		Data:    items,
		HasMore: hasMore,
	}

	if hasMore && len(items) > 0 {
		last := items[len(items)-1]
		cursor := Cursor{Mode: mode, ID: last.ID}
		if mode.Ranked() {
			cursor.Count = last.LikesCount
			if mode == SortMostDisliked {
				cursor.Count = last.DislikesCount
			}
		}
		token := Encode(cursor)
		page.NextCursor = &token
	}

	return page
}

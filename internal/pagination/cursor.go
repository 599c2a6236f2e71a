package pagination

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"commentfeed/internal/models"
)

// Sentinel errors surfaced to the service layer, which maps them onto the
// validation error type of the HTTP surface.
var (
	ErrInvalidSortMode = errors.New("invalid sortBy value")
	ErrInvalidCursor   = errors.New("invalid pagination cursor")
	ErrInvalidLimit    = errors.New("invalid limit")
)

// SortMode selects the total order a listing is paged under. A cursor is only
// meaningful under the mode that produced it.
type SortMode string

const (
	SortNewest       SortMode = "newest"
	SortMostLiked    SortMode = "mostLiked"
	SortMostDisliked SortMode = "mostDisliked"
)

// ParseSortMode validates a sortBy query value. Empty input falls back to
// newest, matching the default listing order.
func ParseSortMode(s string) (SortMode, error) {
	switch s {
	case "", string(SortNewest):
		return SortNewest, nil
	case string(SortMostLiked):
		return SortMostLiked, nil
	case string(SortMostDisliked):
		return SortMostDisliked, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidSortMode, s)
	}
}

// Ranked reports whether the mode pages over a derived reaction count rather
// than the stored creation order.
func (m SortMode) Ranked() bool {
	return m == SortMostLiked || m == SortMostDisliked
}

// ReactionType returns the reaction the derived count is computed from.
// Only meaningful for ranked modes.
func (m SortMode) ReactionType() models.ReactionType {
	if m == SortMostDisliked {
		return models.ReactionDislike
	}
	return models.ReactionLike
}

// tag returns the single-character cursor tag for the mode. Tags are baked
// into the token so a cursor minted under one mode is rejected under another.
func (m SortMode) tag() string {
	switch m {
	case SortMostLiked:
		return "l"
	case SortMostDisliked:
		return "d"
	default:
		return "n"
	}
}

// cursorVersion guards the wire shape of tokens. Unknown versions are a
// validation error, so a future cursor layout cannot be misparsed.
const cursorVersion = "v1"

// Cursor is a decoded resume position. ID is always set; Count only carries
// meaning for ranked modes, where the total order is (count DESC, id DESC).
type Cursor struct {
	Mode  SortMode
	Count int
	ID    int64
}

// Encode serializes the cursor into its opaque wire token.
func Encode(c Cursor) string {
	var raw string
	if c.Mode.Ranked() {
		raw = strings.Join([]string{cursorVersion, c.Mode.tag(), strconv.Itoa(c.Count), strconv.FormatInt(c.ID, 10)}, "|")
	} else {
		raw = strings.Join([]string{cursorVersion, c.Mode.tag(), strconv.FormatInt(c.ID, 10)}, "|")
	}
	return base64.URLEncoding.EncodeToString([]byte(raw))
}

// Decode parses an opaque token and verifies it was produced under the given
// sort mode. Malformed tokens, unknown tags and cross-mode tokens all yield a
// validation error, never a panic and never a silent reset to page one.
func Decode(token string, mode SortMode) (*Cursor, error) {
	data, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}

	parts := strings.Split(string(data), "|")
	if len(parts) < 3 || parts[0] != cursorVersion {
		return nil, ErrInvalidCursor
	}

	tag := parts[1]
	if tag != "n" && tag != "l" && tag != "d" {
		return nil, fmt.Errorf("%w: unknown cursor type", ErrInvalidCursor)
	}
	if tag != mode.tag() {
		return nil, fmt.Errorf("%w: cursor does not match the requested sort mode", ErrInvalidCursor)
	}

	c := &Cursor{Mode: mode}
	switch {
	case !mode.Ranked() && len(parts) == 3:
		c.ID, err = strconv.ParseInt(parts[2], 10, 64)
	case mode.Ranked() && len(parts) == 4:
		c.Count, err = strconv.Atoi(parts[2])
		if err == nil {
			c.ID, err = strconv.ParseInt(parts[3], 10, 64)
		}
	default:
		return nil, ErrInvalidCursor
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}

	return c, nil
}

// After reports whether a comment sorts strictly after the cursor position in
// the mode's descending total order. For ranked modes this is the single
// compound predicate: count < k OR (count == k AND id < cursorID). Splitting
// it into two sequential filters would drop items tied exactly at the
// boundary count.
func (c *Cursor) After(comment *models.Comment) bool {
	if !c.Mode.Ranked() {
		return comment.ID < c.ID
	}

	count := comment.LikesCount
	if c.Mode == SortMostDisliked {
		count = comment.DislikesCount
	}
	return count < c.Count || (count == c.Count && comment.ID < c.ID)
}

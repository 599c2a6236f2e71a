package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"commentfeed/internal/events"
	"commentfeed/internal/models"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeVerifier struct {
	userID int64
	err    error
}

func (v *fakeVerifier) VerifyToken(token string) (int64, string, error) {
	if v.err != nil {
		return 0, "", v.err
	}
	return v.userID, "user@example.com", nil
}

func newTestHub() *Hub {
	return NewHub(&fakeVerifier{userID: 42}, zap.NewNop())
}

func ptr(v int64) *int64 { return &v }

// ===============================
// EVENT MAPPING
// ===============================

func drainBroadcast(t *testing.T, h *Hub) wireMessage {
	t.Helper()
	select {
	case msg := <-h.broadcast:
		return msg
	case <-time.After(time.Second):
		t.Fatal("no frame queued")
		return wireMessage{}
	}
}

func TestHandleEventMapsCreated(t *testing.T) {
	h := newTestHub()
	comment := &models.Comment{ID: 1, Content: "hi"}

	h.handleEvent(events.NewCommentCreatedEvent(comment, 1))

	msg := drainBroadcast(t, h)
	assert.Equal(t, EventCommentNew, msg.Event)
	assert.Equal(t, comment, msg.Data)
}

func TestHandleEventMapsReply(t *testing.T) {
	h := newTestHub()
	comment := &models.Comment{ID: 2, ParentID: ptr(1)}

	h.handleEvent(events.NewCommentRepliedEvent(comment, 1, 5))

	msg := drainBroadcast(t, h)
	assert.Equal(t, EventCommentReply, msg.Event)
}

func TestHandleEventMapsDelete(t *testing.T) {
	h := newTestHub()

	h.handleEvent(events.NewCommentDeletedEvent(7, ptr(3), 1))

	msg := drainBroadcast(t, h)
	assert.Equal(t, EventCommentDelete, msg.Event)

	data, ok := msg.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, int64(7), data["id"])
	assert.Equal(t, ptr(3), data["parentId"])
}

func TestHandleEventMapsReactionToFullComment(t *testing.T) {
	h := newTestHub()
	like := models.ReactionLike
	comment := &models.Comment{
		ID:            42,
		Content:       "worth reacting to",
		Author:        models.UserSummary{ID: 2, FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"},
		LikesCount:    3,
		DislikesCount: 1,
		UserReaction:  &like,
	}

	h.handleEvent(events.NewCommentReactedEvent(comment, 2))

	msg := drainBroadcast(t, h)
	assert.Equal(t, EventCommentReaction, msg.Event)
	assert.Equal(t, comment, msg.Data)

	// The frame body is the same comment representation the HTTP responses
	// use: content, author and timestamps included, not just the counts.
	raw, err := json.Marshal(msg)
	require.NoError(t, err)
	for _, key := range []string{`"content"`, `"author"`, `"likesCount"`, `"dislikesCount"`, `"userReaction"`, `"createdAt"`} {
		assert.Contains(t, string(raw), key)
	}
	assert.Contains(t, string(raw), `"worth reacting to"`)
}

func TestHandleEventReactionRemovalOmitsUserReaction(t *testing.T) {
	h := newTestHub()

	h.handleEvent(events.NewCommentReactedEvent(&models.Comment{ID: 42, Content: "x", LikesCount: 2}, 2))

	raw, err := json.Marshal(drainBroadcast(t, h))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), `"userReaction"`)
	assert.Contains(t, string(raw), `"likesCount":2`)
}

func TestHandleEventIgnoresUnmappedEvents(t *testing.T) {
	h := newTestHub()

	h.handleEvent(&events.BaseEvent{EventType: "user.created"})

	select {
	case msg := <-h.broadcast:
		t.Fatalf("unexpected frame %q", msg.Event)
	default:
	}
}

// ===============================
// HTTP / WEBSOCKET
// ===============================

func dialHub(t *testing.T, h *Hub, query string) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + query
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestServeHTTPRejectsMissingToken(t *testing.T) {
	h := newTestHub()
	srv := httptest.NewServer(h)
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestServeHTTPRejectsInvalidToken(t *testing.T) {
	h := NewHub(&fakeVerifier{err: errors.New("bad token")}, zap.NewNop())
	srv := httptest.NewServer(h)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "?token=whatever")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestBroadcastReachesConnectedClient(t *testing.T) {
	h := newTestHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)
	defer h.Shutdown()

	conn := dialHub(t, h, "?token=valid")

	// Wait for registration before broadcasting.
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	h.handleEvent(events.NewCommentCreatedEvent(&models.Comment{ID: 11, Content: "live"}, 1))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var frame struct {
		Event string          `json:"event"`
		Data  json.RawMessage `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, EventCommentNew, frame.Event)

	var comment models.Comment
	require.NoError(t, json.Unmarshal(frame.Data, &comment))
	assert.Equal(t, int64(11), comment.ID)
	assert.Equal(t, "live", comment.Content)
}

func TestBearerHeaderAccepted(t *testing.T) {
	h := newTestHub()
	srv := httptest.NewServer(h)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	header := http.Header{"Authorization": []string{"Bearer sometoken"}}
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	conn.Close()
}

func TestClientCountTracksDisconnect(t *testing.T) {
	h := newTestHub()

	conn := dialHub(t, h, "?token=valid")
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return h.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

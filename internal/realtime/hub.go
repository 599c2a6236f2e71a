// Package realtime fans comment lifecycle events out to connected
// websocket clients.
package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"commentfeed/internal/events"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Wire event names sent to clients.
const (
	EventCommentNew      = "comment:new"
	EventCommentReply    = "comment:reply"
	EventCommentUpdate   = "comment:update"
	EventCommentDelete   = "comment:delete"
	EventCommentReaction = "comment:reaction"
)

// wireMessage is the envelope written to clients.
type wireMessage struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// TokenVerifier authenticates websocket handshakes. Implemented by the auth
// service.
type TokenVerifier interface {
	VerifyToken(token string) (userID int64, email string, err error)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Adjust for production
	},
}

// Hub tracks connected clients and broadcasts comment events to them.
// Delivery is best effort: a slow client's buffer fills and frames are
// dropped rather than blocking the broadcast loop.
type Hub struct {
	mu       sync.RWMutex
	clients  map[*Client]struct{}
	verifier TokenVerifier
	logger   *zap.Logger

	broadcast chan wireMessage
	done      chan struct{}
	closeOnce sync.Once
}

// NewHub creates a hub. Call Run to start the broadcast loop and Subscribe
// to attach it to the event bus.
func NewHub(verifier TokenVerifier, logger *zap.Logger) *Hub {
	return &Hub{
		clients:   make(map[*Client]struct{}),
		verifier:  verifier,
		logger:    logger,
		broadcast: make(chan wireMessage, 256),
		done:      make(chan struct{}),
	}
}

// Subscribe registers the hub on the event bus for all comment events.
func (h *Hub) Subscribe(bus events.EventBus) error {
	return bus.SubscribePattern("comment.*", events.NewEventHandlerFunc(
		"realtime-hub",
		func(ctx context.Context, event events.Event) error {
			h.handleEvent(event)
			return nil
		},
	))
}

// handleEvent maps a domain event to its wire representation and queues it
// for broadcast.
func (h *Hub) handleEvent(event events.Event) {
	var msg wireMessage

	switch e := event.(type) {
	case *events.CommentCreatedEvent:
		msg = wireMessage{Event: EventCommentNew, Data: e.Comment}
	case *events.CommentRepliedEvent:
		msg = wireMessage{Event: EventCommentReply, Data: e.Comment}
	case *events.CommentUpdatedEvent:
		msg = wireMessage{Event: EventCommentUpdate, Data: e.Comment}
	case *events.CommentDeletedEvent:
		msg = wireMessage{Event: EventCommentDelete, Data: map[string]interface{}{
			"id":       e.CommentID,
			"parentId": e.ParentID,
		}}
	case *events.CommentReactedEvent:
		msg = wireMessage{Event: EventCommentReaction, Data: e.Comment}
	default:
		h.logger.Debug("ignoring unmapped event", zap.String("event_type", event.GetEventType()))
		return
	}

	select {
	case h.broadcast <- msg:
	case <-h.done:
	default:
		h.logger.Warn("broadcast queue full, dropping frame", zap.String("event", msg.Event))
	}
}

// Run drains the broadcast queue until the context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case msg := <-h.broadcast:
			h.sendToAll(msg)
		case <-ctx.Done():
			return
		case <-h.done:
			return
		}
	}
}

func (h *Hub) sendToAll(msg wireMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to marshal broadcast frame", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		select {
		case client.send <- payload:
		default:
			h.logger.Debug("client send buffer full, dropping frame",
				zap.Int64("user_id", client.userID),
				zap.String("event", msg.Event))
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Shutdown disconnects all clients and stops the broadcast loop.
func (h *Hub) Shutdown() {
	h.closeOnce.Do(func() { close(h.done) })

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		client.close()
		delete(h.clients, client)
	}
}

func (h *Hub) register(client *Client) {
	h.mu.Lock()
	h.clients[client] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("websocket client connected",
		zap.Int64("user_id", client.userID),
		zap.Int("connected", count))
}

func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	_, ok := h.clients[client]
	if ok {
		delete(h.clients, client)
	}
	count := len(h.clients)
	h.mu.Unlock()

	if ok {
		client.close()
		h.logger.Info("websocket client disconnected",
			zap.Int64("user_id", client.userID),
			zap.Int("connected", count))
	}
}

// ServeHTTP upgrades the connection after verifying the client's token. The
// token comes from the "token" query parameter or a bearer Authorization
// header.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		const prefix = "Bearer "
		if auth := r.Header.Get("Authorization"); len(auth) > len(prefix) && auth[:len(prefix)] == prefix {
			token = auth[len(prefix):]
		}
	}
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	userID, _, err := h.verifier.VerifyToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		hub:    h,
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, 64),
	}
	h.register(client)

	go client.writePump()
	go client.readPump()
}

// ===============================
// CLIENT
// ===============================

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Client is a single websocket connection.
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	userID    int64
	send      chan []byte
	closeOnce sync.Once
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}

// readPump discards inbound frames and detects disconnects. Clients are
// receive-only; all writes go through the REST API.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

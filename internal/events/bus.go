package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gofrs/uuid"
	"go.uber.org/zap"
)

// ===============================
// EVENT INTERFACE
// ===============================

// Event represents a domain event.
type Event interface {
	GetEventID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetUserID() *int64
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
	UserID    *int64    `json:"user_id,omitempty"`
}

// GetEventID returns the event ID.
func (e *BaseEvent) GetEventID() string { return e.EventID }

// GetEventType returns the event type.
func (e *BaseEvent) GetEventType() string { return e.EventType }

// GetTimestamp returns the event timestamp.
func (e *BaseEvent) GetTimestamp() time.Time { return e.Timestamp }

// GetUserID returns the user ID associated with the event.
func (e *BaseEvent) GetUserID() *int64 { return e.UserID }

// ===============================
// EVENT BUS INTERFACE
// ===============================

// EventBus defines the event publishing and subscription interface.
type EventBus interface {
	// Publish delivers an event to subscribers synchronously.
	Publish(ctx context.Context, event Event) error
	// PublishAsync enqueues an event for background delivery. It never
	// blocks: when the queue is full the event is dropped with an error.
	PublishAsync(ctx context.Context, event Event) error

	Subscribe(eventType string, handler EventHandler) error
	SubscribePattern(pattern string, handler EventHandler) error
	Unsubscribe(eventType string, handlerID string) error

	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// EventHandler represents an event handler.
type EventHandler interface {
	Handle(ctx context.Context, event Event) error
	GetHandlerID() string
}

// EventHandlerFunc adapts a function to the EventHandler interface.
type EventHandlerFunc struct {
	ID   string
	Func func(ctx context.Context, event Event) error
}

// Handle implements EventHandler.
func (f EventHandlerFunc) Handle(ctx context.Context, event Event) error {
	return f.Func(ctx, event)
}

// GetHandlerID implements EventHandler.
func (f EventHandlerFunc) GetHandlerID() string { return f.ID }

// NewEventHandlerFunc creates an EventHandler from a function.
func NewEventHandlerFunc(id string, fn func(ctx context.Context, event Event) error) EventHandler {
	return EventHandlerFunc{ID: id, Func: fn}
}

// ===============================
// IN-MEMORY EVENT BUS
// ===============================

type eventMessage struct {
	ctx   context.Context
	event Event
}

// EventBusConfig holds configuration for the in-memory event bus.
type EventBusConfig struct {
	BufferSize     int
	WorkerCount    int
	HandlerTimeout time.Duration
}

// DefaultEventBusConfig returns default configuration.
func DefaultEventBusConfig() *EventBusConfig {
	return &EventBusConfig{
		BufferSize:     1000,
		WorkerCount:    4,
		HandlerTimeout: 10 * time.Second,
	}
}

type inMemoryEventBus struct {
	mu              sync.RWMutex
	handlers        map[string][]EventHandler
	patternHandlers map[string][]EventHandler
	eventQueue      chan eventMessage
	logger          *zap.Logger
	handlerTimeout  time.Duration
	workerCount     int
	ctx             context.Context
	cancel          context.CancelFunc
	wg              sync.WaitGroup
}

// NewEventBus creates an in-memory event bus.
func NewEventBus(config *EventBusConfig, logger *zap.Logger) EventBus {
	if config == nil {
		config = DefaultEventBusConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &inMemoryEventBus{
		handlers:        make(map[string][]EventHandler),
		patternHandlers: make(map[string][]EventHandler),
		eventQueue:      make(chan eventMessage, config.BufferSize),
		logger:          logger,
		handlerTimeout:  config.HandlerTimeout,
		workerCount:     config.WorkerCount,
		ctx:             ctx,
		cancel:          cancel,
	}
}

func (b *inMemoryEventBus) Publish(ctx context.Context, event Event) error {
	if event == nil {
		return fmt.Errorf("event cannot be nil")
	}
	return b.processEvent(ctx, event)
}

func (b *inMemoryEventBus) PublishAsync(ctx context.Context, event Event) error {
	if event == nil {
		return fmt.Errorf("event cannot be nil")
	}

	select {
	case b.eventQueue <- eventMessage{ctx: ctx, event: event}:
		return nil
	default:
		b.logger.Warn("event queue full, dropping event",
			zap.String("event_type", event.GetEventType()),
			zap.String("event_id", event.GetEventID()))
		return fmt.Errorf("event queue is full")
	}
}

func (b *inMemoryEventBus) Subscribe(eventType string, handler EventHandler) error {
	if eventType == "" {
		return fmt.Errorf("event type cannot be empty")
	}
	if handler == nil {
		return fmt.Errorf("handler cannot be nil")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)

	b.logger.Debug("handler subscribed",
		zap.String("event_type", eventType),
		zap.String("handler_id", handler.GetHandlerID()))
	return nil
}

func (b *inMemoryEventBus) SubscribePattern(pattern string, handler EventHandler) error {
	if pattern == "" {
		return fmt.Errorf("pattern cannot be empty")
	}
	if handler == nil {
		return fmt.Errorf("handler cannot be nil")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.patternHandlers[pattern] = append(b.patternHandlers[pattern], handler)

	b.logger.Debug("pattern handler subscribed",
		zap.String("pattern", pattern),
		zap.String("handler_id", handler.GetHandlerID()))
	return nil
}

func (b *inMemoryEventBus) Unsubscribe(eventType string, handlerID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	handlers := b.handlers[eventType]
	for i, h := range handlers {
		if h.GetHandlerID() == handlerID {
			b.handlers[eventType] = append(handlers[:i], handlers[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("handler not found")
}

func (b *inMemoryEventBus) Start(ctx context.Context) error {
	b.logger.Info("starting event bus", zap.Int("worker_count", b.workerCount))
	for i := 0; i < b.workerCount; i++ {
		b.wg.Add(1)
		go b.worker(i)
	}
	return nil
}

func (b *inMemoryEventBus) Stop(ctx context.Context) error {
	b.cancel()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.logger.Info("event bus stopped")
		return nil
	case <-ctx.Done():
		b.logger.Warn("event bus stop timeout")
		return ctx.Err()
	}
}

func (b *inMemoryEventBus) worker(workerID int) {
	defer b.wg.Done()

	for {
		select {
		case msg := <-b.eventQueue:
			if err := b.processEvent(msg.ctx, msg.event); err != nil {
				b.logger.Error("failed to process event",
					zap.Int("worker_id", workerID),
					zap.String("event_id", msg.event.GetEventID()),
					zap.String("event_type", msg.event.GetEventType()),
					zap.Error(err))
			}
		case <-b.ctx.Done():
			return
		}
	}
}

func (b *inMemoryEventBus) processEvent(ctx context.Context, event Event) error {
	b.mu.RLock()
	eventType := event.GetEventType()
	var allHandlers []EventHandler
	allHandlers = append(allHandlers, b.handlers[eventType]...)
	for pattern, handlers := range b.patternHandlers {
		if matchesPattern(eventType, pattern) {
			allHandlers = append(allHandlers, handlers...)
		}
	}
	b.mu.RUnlock()

	var failed int
	for _, handler := range allHandlers {
		if err := b.executeHandler(ctx, handler, event); err != nil {
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("failed to execute %d out of %d handlers", failed, len(allHandlers))
	}
	return nil
}

func (b *inMemoryEventBus) executeHandler(ctx context.Context, handler EventHandler, event Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("handler panicked",
				zap.String("handler_id", handler.GetHandlerID()),
				zap.String("event_type", event.GetEventType()),
				zap.Any("panic", r))
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()

	handlerCtx, cancel := context.WithTimeout(ctx, b.handlerTimeout)
	defer cancel()
	return handler.Handle(handlerCtx, event)
}

// matchesPattern reports whether an event type matches a subscription
// pattern. A trailing "*" matches any suffix.
func matchesPattern(eventType, pattern string) bool {
	if pattern == "*" {
		return true
	}
	if len(pattern) > 0 && pattern[len(pattern)-1] == '*' {
		prefix := pattern[:len(pattern)-1]
		return len(eventType) >= len(prefix) && eventType[:len(prefix)] == prefix
	}
	return eventType == pattern
}

// GenerateEventID generates a unique event ID.
func GenerateEventID() string {
	return "evt_" + uuid.Must(uuid.NewV4()).String()
}

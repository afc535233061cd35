package events

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"studio_sales_backend/platform/logger"

	"golang.org/x/sync/errgroup"
)

// asyncHandlerTimeout bounds how long an async handler may run after the
// publishing request has already returned.
const asyncHandlerTimeout = 30 * time.Second

// InMemoryBus is a process-local event bus. Handlers registered with
// Subscribe run in goroutines on Publish and synchronously on PublishSync.
type InMemoryBus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	log      *logger.Logger
}

// NewInMemoryBus creates a new in-memory event bus.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return &InMemoryBus{
		handlers: make(map[string][]Handler),
		log:      log,
	}
}

// Subscribe registers a handler for the given event name.
func (b *InMemoryBus) Subscribe(eventName string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventName] = append(b.handlers[eventName], handler)
}

// Publish dispatches the event to all registered handlers asynchronously.
// Handler errors are logged, never propagated to the publisher.
func (b *InMemoryBus) Publish(ctx context.Context, event Event) {
	handlers := b.handlersFor(event.EventName())
	if len(handlers) == 0 {
		return
	}

	for _, handler := range handlers {
		go func(h Handler) {
			// Detach from the request context so in-flight handlers survive
			// the HTTP response.
			handlerCtx, cancel := context.WithTimeout(context.Background(), asyncHandlerTimeout)
			defer cancel()

			if err := h.Handle(handlerCtx, event); err != nil {
				b.log.Error("event_handler_failed",
					slog.String("event", event.EventName()),
					slog.String("error", err.Error()),
				)
			}
		}(handler)
	}
}

// PublishSync dispatches the event and waits for all handlers to complete,
// returning the first handler error encountered.
func (b *InMemoryBus) PublishSync(ctx context.Context, event Event) error {
	handlers := b.handlersFor(event.EventName())
	if len(handlers) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, handler := range handlers {
		h := handler
		g.Go(func() error {
			return h.Handle(gctx, event)
		})
	}
	return g.Wait()
}

func (b *InMemoryBus) handlersFor(eventName string) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	registered := b.handlers[eventName]
	handlers := make([]Handler, len(registered))
	copy(handlers, registered)
	return handlers
}

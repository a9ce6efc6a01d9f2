// Package events provides the in-process event bus that decouples webhook
// receipt from webhook processing.
package events

import (
	"context"
	"sync"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Handler consumes a published event.
type Handler func(ctx context.Context, payload any)

// Bus is a minimal in-process publish/subscribe bus. Delivery is
// fire-and-forget: Publish returns before handlers run, handlers run in
// their own goroutines, and events are lost if the process exits before a
// handler completes. There is no buffering and no redelivery.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	logger   *otelzap.Logger
}

// NewBus creates a new event bus.
func NewBus(logger *otelzap.Logger) *Bus {
	return &Bus{
		handlers: make(map[string][]Handler),
		logger:   logger,
	}
}

// Subscribe registers a handler for a topic. Handlers are expected to be
// registered once at process start.
func (b *Bus) Subscribe(topic string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[topic] = append(b.handlers[topic], handler)
}

// Publish delivers the payload to every handler subscribed to the topic,
// each in its own goroutine, and returns immediately.
func (b *Bus) Publish(ctx context.Context, topic string, payload any) {
	b.mu.RLock()
	handlers := b.handlers[topic]
	b.mu.RUnlock()

	for _, handler := range handlers {
		go func() {
			defer func() {
				if r := recover(); r != nil {
					b.logger.Error("Event handler panicked",
						zap.String("topic", topic),
						zap.Any("panic", r),
					)
				}
			}()
			handler(ctx, payload)
		}()
	}
}

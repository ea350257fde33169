package event

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/invsaas/backend/internal/domain/shared"
	"github.com/invsaas/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// InMemoryEventBus dispatches domain events synchronously to in-process
// handlers. Handler failures are logged and never reach the publisher: the
// state change that produced the event is already committed.
type InMemoryEventBus struct {
	registry *HandlerRegistry
	logger   *zap.Logger
	running  atomic.Bool
}

// NewInMemoryEventBus creates a new in-memory event bus
func NewInMemoryEventBus(logger *zap.Logger) *InMemoryEventBus {
	return &InMemoryEventBus{
		registry: NewHandlerRegistry(),
		logger:   logger,
	}
}

// Publish delivers events to their handlers. Events published while the bus
// is stopped are dropped.
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	if !b.running.Load() {
		for _, e := range events {
			b.logger.Warn("event bus not running, dropping event",
				zap.String("event_type", e.EventType()),
				zap.String("event_id", e.EventID().String()),
			)
		}
		return nil
	}

	for _, e := range events {
		for _, handler := range b.registry.GetHandlers(e.EventType()) {
			if err := b.dispatch(ctx, handler, e); err != nil {
				b.logger.Error("handler failed to process event",
					zap.String("event_type", e.EventType()),
					zap.String("event_id", e.EventID().String()),
					zap.String("aggregate_id", e.AggregateID().String()),
					zap.String("request_id", logger.GetRequestID(ctx)),
					zap.Error(err),
				)
			}
		}
	}
	return nil
}

// Subscribe registers a handler for eventTypes, defaulting to handler.EventTypes()
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	b.registry.Register(handler, eventTypes...)
	b.logger.Debug("handler subscribed", zap.Strings("event_types", eventTypes))
}

// Unsubscribe removes a handler
func (b *InMemoryEventBus) Unsubscribe(handler shared.EventHandler) {
	b.registry.Unregister(handler)
}

// Start starts accepting events
func (b *InMemoryEventBus) Start(ctx context.Context) error {
	b.running.Store(true)
	b.logger.Info("event bus started")
	return nil
}

// Stop stops accepting events. Dispatch is synchronous, so nothing is in
// flight once the publishers have returned.
func (b *InMemoryEventBus) Stop(ctx context.Context) error {
	b.running.Store(false)
	b.logger.Info("event bus stopped")
	return nil
}

func (b *InMemoryEventBus) dispatch(ctx context.Context, handler shared.EventHandler, e shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return handler.Handle(ctx, e)
}

var _ shared.EventBus = (*InMemoryEventBus)(nil)

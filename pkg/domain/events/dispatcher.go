package events

import (
	"context"
	"fmt"
	"sync"
)

// Publisher is what the application services emit events through.
type Publisher interface {
	Publish(ctx context.Context, event DomainEvent) error
}

// EventHandlerFunc is a function that handles a session event.
type EventHandlerFunc func(ctx context.Context, event DomainEvent) error

// EventDispatcher dispatches session events to registered handlers.
type EventDispatcher struct {
	mu       sync.RWMutex
	handlers map[string][]namedHandler
	// ContinueOnError determines if dispatch should continue when a handler fails
	ContinueOnError bool
}

type namedHandler struct {
	name    string
	handler EventHandlerFunc
}

// NewEventDispatcher creates a new EventDispatcher.
func NewEventDispatcher() *EventDispatcher {
	return &EventDispatcher{
		handlers: make(map[string][]namedHandler),
	}
}

// RegisterHandler registers a handler for the given event types. "*" matches
// every event.
func (d *EventDispatcher) RegisterHandler(name string, handler EventHandlerFunc, eventTypes ...string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, eventType := range eventTypes {
		d.handlers[eventType] = append(d.handlers[eventType], namedHandler{name: name, handler: handler})
	}
}

// RegisterWildcard registers a handler for all events.
func (d *EventDispatcher) RegisterWildcard(name string, handler EventHandlerFunc) {
	d.RegisterHandler(name, handler, "*")
}

// Publish dispatches an event to its handlers followed by the wildcard
// handlers. Without ContinueOnError the first failure stops dispatch.
func (d *EventDispatcher) Publish(ctx context.Context, event DomainEvent) error {
	d.mu.RLock()
	eventType := event.EventType()
	handlers := append([]namedHandler(nil), d.handlers[eventType]...)
	handlers = append(handlers, d.handlers["*"]...)
	d.mu.RUnlock()

	var errs []error
	for _, nh := range handlers {
		if err := nh.handler(ctx, event); err != nil {
			handlerErr := fmt.Errorf("handler %s failed for event %s: %w", nh.name, eventType, err)
			if !d.ContinueOnError {
				return handlerErr
			}
			errs = append(errs, handlerErr)
		}
	}

	if len(errs) > 0 {
		return &DispatchError{Errors: errs}
	}
	return nil
}

// HandlerCount returns the number of handlers that would see eventType.
func (d *EventDispatcher) HandlerCount(eventType string) int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	count := len(d.handlers[eventType])
	if eventType != "*" {
		count += len(d.handlers["*"])
	}
	return count
}

// DispatchError contains multiple errors from event dispatch.
type DispatchError struct {
	Errors []error
}

func (e *DispatchError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("multiple dispatch errors (%d)", len(e.Errors))
}

// Unwrap returns the first error for errors.Is/As support.
func (e *DispatchError) Unwrap() error {
	if len(e.Errors) > 0 {
		return e.Errors[0]
	}
	return nil
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, DomainEvent) error { return nil }

// Package sse streams session events to report pages via Server-Sent Events.
package sse

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/felixgeelhaar/timelens/pkg/domain/events"
)

// SSEHandler streams events via Server-Sent Events.
type SSEHandler struct {
	mu      sync.RWMutex
	clients map[chan events.DomainEvent]struct{}
}

// NewSSEHandler creates a handler; attach it to a dispatcher with Register.
func NewSSEHandler() *SSEHandler {
	return &SSEHandler{
		clients: make(map[chan events.DomainEvent]struct{}),
	}
}

// Register subscribes the handler to every event of d.
func (h *SSEHandler) Register(d *events.EventDispatcher) {
	d.RegisterWildcard("sse", h.Handle)
}

// Handle fans the event out to connected clients. Slow clients miss events.
func (h *SSEHandler) Handle(_ context.Context, e events.DomainEvent) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.clients {
		select {
		case ch <- e:
		default:
		}
	}
	return nil
}

// Clients returns the number of connected streams.
func (h *SSEHandler) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP handles SSE connections. The optional types query parameter
// limits the stream to a comma separated list of event types.
func (h *SSEHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	typeFilter := make(map[string]bool)
	if types := r.URL.Query().Get("types"); types != "" {
		for _, t := range strings.Split(types, ",") {
			typeFilter[strings.TrimSpace(t)] = true
		}
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := make(chan events.DomainEvent, 64)

	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, ch)
		h.mu.Unlock()
	}()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-ch:
			if len(typeFilter) > 0 && !typeFilter[event.EventType()] {
				continue
			}
			data, err := json.Marshal(event)
			if err != nil {
				continue
			}
			_, _ = fmt.Fprintf(w, "event: %s\n", event.EventType())
			_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}
}

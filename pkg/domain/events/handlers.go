package events

import (
	"context"
	"log/slog"
)

// LogHandler writes every session event to a structured logger.
type LogHandler struct {
	logger *slog.Logger
}

// NewLogHandler creates a LogHandler; a nil logger falls back to slog.Default.
func NewLogHandler(logger *slog.Logger) *LogHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogHandler{logger: logger}
}

// Handle logs the event with its type-specific attributes.
func (h *LogHandler) Handle(ctx context.Context, event DomainEvent) error {
	attrs := []any{"event", event.EventType(), "session", event.SessionID()}

	switch e := event.(type) {
	case *ModeSwitched:
		attrs = append(attrs, "from", e.From, "to", e.To, "cached", e.Cached, "projects", e.Projects)
		h.logger.InfoContext(ctx, "mode switched", attrs...)
	case *FullDatasetFetched:
		attrs = append(attrs, "analysis", e.Analysis, "projects", e.Projects, "duration", e.Duration)
		h.logger.InfoContext(ctx, "full dataset fetched", attrs...)
	case *FetchFailed:
		attrs = append(attrs, "op", e.Op, "error", e.Error)
		h.logger.WarnContext(ctx, "fetch failed", attrs...)
	case *DashboardRefreshed:
		attrs = append(attrs, "as_of", e.AsOf, "points", e.Points)
		h.logger.InfoContext(ctx, "dashboard refreshed", attrs...)
	default:
		h.logger.DebugContext(ctx, "session event", attrs...)
	}
	return nil
}

// Register attaches the handler to every event of d.
func (h *LogHandler) Register(d *EventDispatcher) {
	d.RegisterWildcard("log", h.Handle)
}

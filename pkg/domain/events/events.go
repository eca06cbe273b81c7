// Package events defines the notifications a reporting session emits while
// switching datasets.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Event types.
const (
	EventTypeModeSwitched       = "mode.switched"
	EventTypeFullDatasetFetched = "dataset.full_fetched"
	EventTypeFetchFailed        = "dataset.fetch_failed"
	EventTypeDashboardRefreshed = "dashboard.refreshed"
)

// DomainEvent is the base interface for all session events.
type DomainEvent interface {
	EventType() string
	SessionID() string
	OccurredAt() time.Time
}

// BaseEvent provides common fields for all events.
type BaseEvent struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Session   string    `json:"session"`
	Timestamp time.Time `json:"timestamp"`
}

func newBase(eventType, session string) BaseEvent {
	return BaseEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Session:   session,
		Timestamp: time.Now().UTC(),
	}
}

func (e BaseEvent) EventType() string     { return e.Type }
func (e BaseEvent) SessionID() string     { return e.Session }
func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }

// ModeSwitched is emitted once all views show the new mode.
type ModeSwitched struct {
	BaseEvent
	From     string `json:"from"`
	To       string `json:"to"`
	Cached   bool   `json:"cached"`
	Projects int    `json:"projects"`
}

// NewModeSwitched creates a ModeSwitched event.
func NewModeSwitched(session, from, to string, cached bool, projects int) *ModeSwitched {
	return &ModeSwitched{
		BaseEvent: newBase(EventTypeModeSwitched, session),
		From:      from,
		To:        to,
		Cached:    cached,
		Projects:  projects,
	}
}

// FullDatasetFetched is emitted after the full dataset was downloaded.
type FullDatasetFetched struct {
	BaseEvent
	Analysis string        `json:"analysis"`
	Projects int           `json:"projects"`
	Duration time.Duration `json:"duration"`
}

// NewFullDatasetFetched creates a FullDatasetFetched event.
func NewFullDatasetFetched(session, timestamp string, projects int, d time.Duration) *FullDatasetFetched {
	return &FullDatasetFetched{
		BaseEvent: newBase(EventTypeFullDatasetFetched, session),
		Analysis:  timestamp,
		Projects:  projects,
		Duration:  d,
	}
}

// FetchFailed is emitted when a fetch did not produce usable data.
type FetchFailed struct {
	BaseEvent
	Op    string `json:"op"`
	Error string `json:"error"`
}

// NewFetchFailed creates a FetchFailed event.
func NewFetchFailed(session, op string, err error) *FetchFailed {
	return &FetchFailed{
		BaseEvent: newBase(EventTypeFetchFailed, session),
		Op:        op,
		Error:     err.Error(),
	}
}

// DashboardRefreshed is emitted after a dashboard snapshot was loaded.
type DashboardRefreshed struct {
	BaseEvent
	AsOf   string `json:"as_of"`
	Points int    `json:"points"`
}

// NewDashboardRefreshed creates a DashboardRefreshed event.
func NewDashboardRefreshed(session, asOf string, points int) *DashboardRefreshed {
	return &DashboardRefreshed{
		BaseEvent: newBase(EventTypeDashboardRefreshed, session),
		AsOf:      asOf,
		Points:    points,
	}
}

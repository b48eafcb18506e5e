package history

import (
	"context"
	"time"
)

// EventType defines the kind of lifecycle event.
type EventType string

const (
	EventStart EventType = "start"
	EventStop  EventType = "stop"
	EventStale EventType = "stale"
)

// Event is one supervisor action on a service identity, exported to an
// audit/statistics backend.
type Event struct {
	Type       EventType `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Service    string    `json:"service"` // identity label, e.g. worker-gpu@h1
	Host       string    `json:"host"`
	PID        int       `json:"pid"`
}

// Sink is a destination for history events.
// Implementations must be safe for concurrent use.
type Sink interface {
	Send(ctx context.Context, e Event) error
	Close() error
}

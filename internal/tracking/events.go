package tracking

import "context"

type EventType string

const (
	EventLocationUpdate EventType = "location_update"
	EventSessionEnded   EventType = "session_ended"
	EventSessionJoined  EventType = "session_joined"
)

// Event is what the store tells the outside world about a session.
type Event struct {
	Type         EventType       `json:"event"`
	SessionID    string          `json:"session_id"`
	Location     *LocationSample `json:"location,omitempty"`
	TotalUpdates int             `json:"total_updates,omitempty"`
	Snapshot     *Session        `json:"snapshot,omitempty"`
	Reason       string          `json:"reason,omitempty"`
}

// Publisher receives store events. Implementations must not block.
type Publisher interface {
	Publish(ctx context.Context, event Event)
}

type PublisherFunc func(ctx context.Context, event Event)

func (f PublisherFunc) Publish(ctx context.Context, event Event) { f(ctx, event) }

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, Event) {}

const (
	reasonStopped = "stopped"
	reasonExpired = "expired"
	reasonDeleted = "deleted"
)

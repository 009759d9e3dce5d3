package application

import (
	"context"
	"time"
)

// EventType names a change observers can react to.
type EventType string

const (
	EventRequestSubmitted       EventType = "request.submitted"
	EventRequestAccepted        EventType = "request.accepted"
	EventRequestDeclined        EventType = "request.declined"
	EventRequestDeleted         EventType = "request.deleted"
	EventRequestsExpired        EventType = "requests.expired"
	EventRequestsPurged         EventType = "requests.purged"
	EventAppointmentCreated     EventType = "appointment.created"
	EventAppointmentUpdated     EventType = "appointment.updated"
	EventAppointmentRescheduled EventType = "appointment.rescheduled"
	EventAppointmentRemoved     EventType = "appointment.removed"
	EventAppointmentsPurged     EventType = "appointments.purged"
)

// Event notifies observers of a committed mutation. Audience lists the users
// concerned; maintenance events carry an empty audience and a Count.
type Event struct {
	Type          EventType `json:"type"`
	RequestID     string    `json:"request_id,omitempty"`
	AppointmentID string    `json:"appointment_id,omitempty"`
	Audience      []string  `json:"audience"`
	Count         int       `json:"count,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Concerns reports whether the event should be delivered to userID. An empty
// userID subscribes to every event.
func (e Event) Concerns(userID string) bool {
	if userID == "" {
		return true
	}
	for _, id := range e.Audience {
		if id == userID {
			return true
		}
	}
	return false
}

// EventPublisher delivers events to observers.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, Event) error { return nil }

func audience(ids ...string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Package events delivers application events to observers, either inside one
// process (Broker) or across processes through Redis pub/sub (RedisBus).
package events

import (
	"context"
	"sync"

	"github.com/Jessiellen/shareup-app/internal/application"
)

// subscriberBuffer is the per-subscriber channel capacity.
const subscriberBuffer = 16

// Bus publishes events and opens per-user subscriptions.
type Bus interface {
	application.EventPublisher
	Subscribe(ctx context.Context, userID string) (*Subscription, error)
}

// Subscription is an active stream of events for one user.
// Callers must call Close when done. Context cancellation also ends it.
type Subscription struct {
	events <-chan application.Event
	errors <-chan error
	cancel func()
	once   sync.Once
}

// Events returns the channel of delivered events. It is closed when the
// subscription ends.
func (s *Subscription) Events() <-chan application.Event {
	return s.events
}

// Errors returns decode or transport errors. It is closed with Events.
func (s *Subscription) Errors() <-chan error {
	return s.errors
}

// Close stops the subscription. Implements io.Closer.
func (s *Subscription) Close() error {
	s.once.Do(s.cancel)
	return nil
}

package events

import (
	"context"
	"log/slog"
	"sync"

	"github.com/Jessiellen/shareup-app/internal/application"
)

var _ Bus = (*Broker)(nil)

type brokerSubscriber struct {
	userID string
	events chan application.Event
	errors chan error
}

// Broker fans events out to in-process subscribers. A subscriber whose buffer
// is full misses the event rather than blocking the publisher.
type Broker struct {
	mu          sync.RWMutex
	subscribers map[*brokerSubscriber]struct{}
	logger      *slog.Logger
}

// NewBroker returns an empty broker.
func NewBroker(logger *slog.Logger) *Broker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broker{
		subscribers: make(map[*brokerSubscriber]struct{}),
		logger:      logger.With("component", "events.Broker"),
	}
}

// Publish delivers event to every subscriber it concerns. It never fails.
func (b *Broker) Publish(ctx context.Context, event application.Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subscribers {
		if !event.Concerns(sub.userID) {
			continue
		}
		select {
		case sub.events <- event:
		default:
			b.logger.WarnContext(ctx, "dropping event for slow subscriber",
				"event_type", string(event.Type),
				"user_id", sub.userID,
			)
		}
	}
	return nil
}

// Subscribe registers a subscriber for userID. An empty userID receives every event.
func (b *Broker) Subscribe(ctx context.Context, userID string) (*Subscription, error) {
	sub := &brokerSubscriber{
		userID: userID,
		events: make(chan application.Event, subscriberBuffer),
		errors: make(chan error),
	}

	b.mu.Lock()
	b.subscribers[sub] = struct{}{}
	b.mu.Unlock()

	subCtx, cancel := context.WithCancel(ctx)
	go func() {
		<-subCtx.Done()
		b.mu.Lock()
		delete(b.subscribers, sub)
		b.mu.Unlock()
		close(sub.events)
		close(sub.errors)
	}()

	return &Subscription{events: sub.events, errors: sub.errors, cancel: cancel}, nil
}

// SubscriberCount reports the number of live subscriptions.
func (b *Broker) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/Jessiellen/shareup-app/internal/application"
)

var _ Bus = (*RedisBus)(nil)

// Channel returns the pub/sub channel for a namespace.
// Format: shareup:{namespace}:events
func Channel(namespace string) string {
	return fmt.Sprintf("shareup:%s:events", namespace)
}

// RedisBus publishes events as JSON on a Redis channel so every process
// sharing the namespace observes them.
type RedisBus struct {
	rdb       *redis.Client
	namespace string
	logger    *slog.Logger
}

// NewRedisBus connects to Redis using redisOpts.
func NewRedisBus(redisOpts *redis.Options, namespace string, logger *slog.Logger) (*RedisBus, error) {
	if namespace == "" {
		return nil, fmt.Errorf("namespace cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisBus{
		rdb:       redis.NewClient(redisOpts),
		namespace: namespace,
		logger:    logger.With("component", "events.RedisBus", "namespace", namespace),
	}, nil
}

// Ping verifies Redis connectivity.
func (b *RedisBus) Ping(ctx context.Context) error {
	return b.rdb.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (b *RedisBus) Close() error {
	return b.rdb.Close()
}

// Publish encodes event as JSON and publishes it on the namespace channel.
func (b *RedisBus) Publish(ctx context.Context, event application.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := b.rdb.Publish(ctx, Channel(b.namespace), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Subscribe listens on the namespace channel and forwards the events that
// concern userID. Delivery is at-most-once.
func (b *RedisBus) Subscribe(ctx context.Context, userID string) (*Subscription, error) {
	pubsub := b.rdb.Subscribe(ctx, Channel(b.namespace))
	// Wait for the subscription to be confirmed so no event published after
	// Subscribe returns is missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	eventsChan := make(chan application.Event, subscriberBuffer)
	errorsChan := make(chan error, subscriberBuffer)
	subCtx, cancel := context.WithCancel(ctx)

	go func() {
		defer close(eventsChan)
		defer close(errorsChan)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				var event application.Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					select {
					case errorsChan <- fmt.Errorf("failed to unmarshal event: %w", err):
					case <-subCtx.Done():
						return
					}
					continue
				}
				if !event.Concerns(userID) {
					continue
				}

				select {
				case eventsChan <- event:
				case <-subCtx.Done():
					return
				}
			}
		}
	}()

	return &Subscription{events: eventsChan, errors: errorsChan, cancel: cancel}, nil
}

package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jessiellen/shareup-app/internal/application"
)

func accepted(audience ...string) application.Event {
	return application.Event{
		Type:       application.EventRequestAccepted,
		RequestID:  "req-1",
		Audience:   audience,
		OccurredAt: time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC),
	}
}

func receive(t *testing.T, sub *Subscription) application.Event {
	t.Helper()
	select {
	case event, ok := <-sub.Events():
		require.True(t, ok, "subscription closed")
		return event
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
	return application.Event{}
}

func assertNoEvent(t *testing.T, sub *Subscription) {
	t.Helper()
	select {
	case event := <-sub.Events():
		t.Fatalf("unexpected event %+v", event)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBrokerDeliversToConcernedSubscribers(t *testing.T) {
	broker := NewBroker(nil)
	ctx := context.Background()

	alice, err := broker.Subscribe(ctx, "alice")
	require.NoError(t, err)
	defer alice.Close()

	carol, err := broker.Subscribe(ctx, "carol")
	require.NoError(t, err)
	defer carol.Close()

	everyone, err := broker.Subscribe(ctx, "")
	require.NoError(t, err)
	defer everyone.Close()

	require.NoError(t, broker.Publish(ctx, accepted("alice", "bob")))

	assert.Equal(t, "req-1", receive(t, alice).RequestID)
	assert.Equal(t, application.EventRequestAccepted, receive(t, everyone).Type)
	assertNoEvent(t, carol)
}

func TestBrokerDropsEventsForSlowSubscribers(t *testing.T) {
	broker := NewBroker(nil)
	ctx := context.Background()

	sub, err := broker.Subscribe(ctx, "alice")
	require.NoError(t, err)
	defer sub.Close()

	for i := 0; i < subscriberBuffer+5; i++ {
		require.NoError(t, broker.Publish(ctx, accepted("alice")))
	}

	assert.Len(t, sub.Events(), subscriberBuffer)
}

func TestBrokerCloseUnregisters(t *testing.T) {
	broker := NewBroker(nil)
	ctx, cancel := context.WithCancel(context.Background())

	first, err := broker.Subscribe(ctx, "alice")
	require.NoError(t, err)
	second, err := broker.Subscribe(context.Background(), "bob")
	require.NoError(t, err)
	assert.Equal(t, 2, broker.SubscriberCount())

	cancel()
	require.NoError(t, second.Close())
	require.NoError(t, second.Close())

	for _, sub := range []*Subscription{first, second} {
		select {
		case _, ok := <-sub.Events():
			assert.False(t, ok)
		case <-time.After(time.Second):
			t.Fatal("subscription was not closed")
		}
	}
	assert.Eventually(t, func() bool { return broker.SubscriberCount() == 0 }, time.Second, 10*time.Millisecond)

	// Publishing after every subscriber left is harmless.
	assert.NoError(t, broker.Publish(context.Background(), accepted("alice")))
}

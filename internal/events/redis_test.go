package events

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jessiellen/shareup-app/internal/application"
)

// setupTestBus creates a bus connected to a miniredis instance
func setupTestBus(t *testing.T, namespace string) (*RedisBus, *miniredis.Miniredis) {
	mr := miniredis.NewMiniRedis()
	err := mr.Start()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	bus, err := NewRedisBus(&redis.Options{Addr: mr.Addr()}, namespace, nil)
	require.NoError(t, err)
	t.Cleanup(func() { bus.Close() })

	return bus, mr
}

func TestChannel(t *testing.T) {
	assert.Equal(t, "shareup:prod:events", Channel("prod"))
}

func TestNewRedisBusRequiresNamespace(t *testing.T) {
	_, err := NewRedisBus(&redis.Options{Addr: "localhost:0"}, "", nil)
	assert.Error(t, err)
}

func TestRedisBusPublishSubscribe(t *testing.T) {
	bus, _ := setupTestBus(t, "test")
	ctx := context.Background()
	require.NoError(t, bus.Ping(ctx))

	t.Run("delivers events that concern the user", func(t *testing.T) {
		sub, err := bus.Subscribe(ctx, "alice")
		require.NoError(t, err)
		defer sub.Close()

		require.NoError(t, bus.Publish(ctx, application.Event{
			Type:     application.EventRequestDeclined,
			Audience: []string{"carol", "dave"},
		}))
		require.NoError(t, bus.Publish(ctx, accepted("alice", "bob")))

		event := receive(t, sub)
		assert.Equal(t, application.EventRequestAccepted, event.Type)
		assert.Equal(t, []string{"alice", "bob"}, event.Audience)
		assert.True(t, event.OccurredAt.Equal(accepted().OccurredAt))
	})

	t.Run("handles multiple subscribers", func(t *testing.T) {
		sub1, err := bus.Subscribe(ctx, "alice")
		require.NoError(t, err)
		defer sub1.Close()

		sub2, err := bus.Subscribe(ctx, "")
		require.NoError(t, err)
		defer sub2.Close()

		require.NoError(t, bus.Publish(ctx, accepted("alice")))

		assert.Equal(t, "req-1", receive(t, sub1).RequestID)
		assert.Equal(t, "req-1", receive(t, sub2).RequestID)
	})

	t.Run("reports malformed payloads on the error channel", func(t *testing.T) {
		sub, err := bus.Subscribe(ctx, "alice")
		require.NoError(t, err)
		defer sub.Close()

		require.NoError(t, bus.rdb.Publish(ctx, Channel("test"), "not json").Err())

		select {
		case err := <-sub.Errors():
			assert.ErrorContains(t, err, "unmarshal")
		case <-time.After(time.Second):
			t.Fatal("timeout waiting for decode error")
		}
	})

	t.Run("close ends the stream", func(t *testing.T) {
		sub, err := bus.Subscribe(ctx, "alice")
		require.NoError(t, err)
		require.NoError(t, sub.Close())

		select {
		case _, ok := <-sub.Events():
			assert.False(t, ok)
		case <-time.After(time.Second):
			t.Fatal("subscription was not closed")
		}
	})
}

func TestRedisBusIsolatesNamespaces(t *testing.T) {
	mr := miniredis.RunT(t)

	first, err := NewRedisBus(&redis.Options{Addr: mr.Addr()}, "one", nil)
	require.NoError(t, err)
	defer first.Close()
	second, err := NewRedisBus(&redis.Options{Addr: mr.Addr()}, "two", nil)
	require.NoError(t, err)
	defer second.Close()

	ctx := context.Background()
	sub, err := second.Subscribe(ctx, "")
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, first.Publish(ctx, accepted("alice")))
	assertNoEvent(t, sub)
}

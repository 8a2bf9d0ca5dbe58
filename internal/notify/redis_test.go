package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agebe/pingalert/internal/model"
)

func TestRedisSink_Publish(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	sink, err := NewRedisSink(ctx, fmt.Sprintf("redis://%s", mr.Addr()), "pingalert:events")
	require.NoError(t, err)
	defer sink.Close()

	sub := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer sub.Close()
	pubsub := sub.Subscribe(ctx, "pingalert:events")
	defer pubsub.Close()
	_, err = pubsub.Receive(ctx)
	require.NoError(t, err)

	ev := event(model.EventEscalation, 3)
	ev.ID = "evt-1"
	require.NoError(t, sink.Send(ctx, ev))

	select {
	case msg := <-pubsub.Channel():
		var got model.Event
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
		assert.Equal(t, "evt-1", got.ID)
		assert.Equal(t, model.EventEscalation, got.Kind)
		assert.Equal(t, 3, got.FailCount)
		assert.Equal(t, model.KindHTTP, got.Target.Kind)
		assert.Equal(t, "web", got.Target.Name)
	case <-time.After(5 * time.Second):
		t.Fatal("no se recibio el evento")
	}
}

func TestNewRedisSink_Errors(t *testing.T) {
	t.Run("invalid URL", func(t *testing.T) {
		_, err := NewRedisSink(context.Background(), "invalid://url", "c")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "url de Redis invalida")
	})

	t.Run("connection failure", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()

		_, err := NewRedisSink(context.Background(), fmt.Sprintf("redis://%s", addr), "c")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no se pudo conectar a Redis")
	})
}

func TestRedisSink_PublishAfterClose(t *testing.T) {
	mr := miniredis.RunT(t)
	sink, err := NewRedisSink(context.Background(), fmt.Sprintf("redis://%s", mr.Addr()), "c")
	require.NoError(t, err)
	require.NoError(t, sink.Close())

	err = sink.Send(context.Background(), event(model.EventWarn, 1))
	assert.Error(t, err)
	assert.Equal(t, "redis", sink.Name())
}

package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroker_PublishSubscribe(t *testing.T) {
	b := NewBroker()
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	msgs, err := b.Subscribe(ctx, "events")
	require.NoError(t, err)

	require.NoError(t, b.Publish(ctx, "events", map[string]string{"hello": "world"}))

	select {
	case payload := <-msgs:
		assert.JSONEq(t, `{"hello":"world"}`, string(payload))
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestBroker_MultipleSubscribersReceiveBroadcast(t *testing.T) {
	b := NewBroker()
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first, err := b.Subscribe(ctx, "events")
	require.NoError(t, err)
	second, err := b.Subscribe(ctx, "events")
	require.NoError(t, err)

	require.NoError(t, b.Publish(ctx, "events", "ping"))

	for _, ch := range []<-chan []byte{first, second} {
		select {
		case payload := <-ch:
			assert.Equal(t, `"ping"`, string(payload))
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for message")
		}
	}
}

func TestBroker_PublishToOtherChannelNotDelivered(t *testing.T) {
	b := NewBroker()
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	msgs, err := b.Subscribe(ctx, "events")
	require.NoError(t, err)

	require.NoError(t, b.Publish(ctx, "other", "ping"))

	select {
	case payload := <-msgs:
		t.Fatalf("unexpected message: %s", payload)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBroker_ClosedBrokerRejectsPublish(t *testing.T) {
	b := NewBroker()
	require.NoError(t, b.Close())

	err := b.Publish(context.Background(), "events", "ping")
	assert.Error(t, err)
}

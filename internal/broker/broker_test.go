package broker

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func recvPayload(t *testing.T, sub Subscription) []byte {
	t.Helper()

	select {
	case payload := <-sub.C():
		return payload
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for payload")
		return nil
	}
}

func assertNoPayload(t *testing.T, sub Subscription) {
	t.Helper()

	select {
	case payload := <-sub.C():
		t.Fatalf("unexpected payload: %s", payload)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestMemoryBrokerFanOut(t *testing.T) {
	b := NewMemoryBroker()
	ctx := context.Background()

	sub1, err := b.Subscribe(ctx, "chat_1_2")
	assert.NoError(t, err, "expected subscribe to succeed")
	sub2, err := b.Subscribe(ctx, "chat_1_2")
	assert.NoError(t, err, "expected subscribe to succeed")
	other, err := b.Subscribe(ctx, "chat_3_4")
	assert.NoError(t, err, "expected subscribe to succeed")

	err = b.Publish(ctx, "chat_1_2", []byte("hello"))
	assert.NoError(t, err, "expected publish to succeed")

	assert.Equal(t, []byte("hello"), recvPayload(t, sub1), "expected first subscriber to receive the payload")
	assert.Equal(t, []byte("hello"), recvPayload(t, sub2), "expected second subscriber to receive the payload")
	assertNoPayload(t, other)
}

func TestMemoryBrokerPublishWithoutSubscribers(t *testing.T) {
	b := NewMemoryBroker()

	err := b.Publish(context.Background(), "chat_1_2", []byte("into the void"))
	assert.NoError(t, err, "expected publish to an empty channel to succeed")
}

func TestMemoryBrokerCloseStopsDelivery(t *testing.T) {
	b := NewMemoryBroker()
	ctx := context.Background()

	sub, err := b.Subscribe(ctx, "chat_1_2")
	assert.NoError(t, err, "expected subscribe to succeed")

	assert.NoError(t, sub.Close(), "expected close to succeed")

	_, ok := <-sub.C()
	assert.False(t, ok, "expected the channel to be closed")

	// publishing after close must not panic
	assert.NotPanics(t, func() {
		b.Publish(ctx, "chat_1_2", []byte("late"))
	}, "expected publish after close to be safe")
}

func TestMemoryBrokerCloseIdempotent(t *testing.T) {
	b := NewMemoryBroker()

	sub, err := b.Subscribe(context.Background(), "chat_1_2")
	assert.NoError(t, err, "expected subscribe to succeed")

	assert.NoError(t, sub.Close(), "expected first close to succeed")
	assert.NotPanics(t, func() {
		assert.NoError(t, sub.Close(), "expected second close to succeed")
	}, "expected close to be idempotent")
}

func TestMemoryBrokerDropsWhenSubscriberIsFull(t *testing.T) {
	b := NewMemoryBroker()
	ctx := context.Background()

	sub, err := b.Subscribe(ctx, "chat_1_2")
	assert.NoError(t, err, "expected subscribe to succeed")
	defer sub.Close()

	for i := 0; i < subscriptionBuffer+10; i++ {
		err := b.Publish(ctx, "chat_1_2", []byte(fmt.Sprintf("msg-%d", i)))
		assert.NoError(t, err, "expected publish to never block")
	}

	received := 0
	for {
		select {
		case <-sub.C():
			received++
		default:
			assert.Equal(t, subscriptionBuffer, received, "expected overflow payloads to be dropped")
			return
		}
	}
}

// Package broker provides the broadcast fan-out the chat core relays events
// through. The contract is deliberately small: publish a payload to a named
// channel, and deliver published payloads to every current subscriber of
// that channel. Delivery is best-effort per subscriber, with no atomicity
// across subscribers.
package broker

import (
	"context"
	"sync"
)

const subscriptionBuffer = 256

type Broker interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (Subscription, error)
}

type Subscription interface {
	// C yields published payloads. It is closed when the subscription is.
	C() <-chan []byte
	Close() error
}

// MemoryBroker is the in-process implementation used for single-node runs
// and tests. A slow subscriber whose buffer is full has the payload dropped
// rather than stalling the publisher.
type MemoryBroker struct {
	mu       sync.RWMutex
	channels map[string]map[*memorySubscription]struct{}
}

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{
		channels: make(map[string]map[*memorySubscription]struct{}),
	}
}

type memorySubscription struct {
	broker  *MemoryBroker
	channel string
	ch      chan []byte
	once    sync.Once
}

func (s *memorySubscription) C() <-chan []byte {
	return s.ch
}

func (s *memorySubscription) Close() error {
	s.once.Do(func() {
		s.broker.remove(s)
		close(s.ch)
	})
	return nil
}

func (b *MemoryBroker) Subscribe(_ context.Context, channel string) (Subscription, error) {
	sub := &memorySubscription{
		broker:  b,
		channel: channel,
		ch:      make(chan []byte, subscriptionBuffer),
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.channels[channel] == nil {
		b.channels[channel] = make(map[*memorySubscription]struct{})
	}
	b.channels[channel][sub] = struct{}{}

	return sub, nil
}

func (b *MemoryBroker) Publish(_ context.Context, channel string, payload []byte) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.channels[channel] {
		select {
		case sub.ch <- payload:
		default:
		}
	}

	return nil
}

func (b *MemoryBroker) remove(sub *memorySubscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs, ok := b.channels[sub.channel]
	if !ok {
		return
	}
	delete(subs, sub)
	if len(subs) == 0 {
		delete(b.channels, sub.channel)
	}
}

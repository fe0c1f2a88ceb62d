package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Broker is an in-process pub/sub implementation of messaging.Broker.
// It backs single-instance deployments that run without Redis and doubles
// as the broker used in tests.
type Broker struct {
	mu          sync.RWMutex
	subscribers map[string][]chan []byte
	closed      bool
}

func NewBroker() *Broker {
	return &Broker{
		subscribers: make(map[string][]chan []byte),
	}
}

func (b *Broker) Publish(ctx context.Context, channel string, message interface{}) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return fmt.Errorf("broker is closed")
	}

	for _, sub := range b.subscribers[channel] {
		select {
		case sub <- payload:
		default:
			// Slow subscriber, drop rather than block the publisher.
		}
	}
	return nil
}

func (b *Broker) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, fmt.Errorf("broker is closed")
	}

	ch := make(chan []byte, 100)
	b.subscribers[channel] = append(b.subscribers[channel], ch)

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.subscribers[channel]
		for i, sub := range subs {
			if sub == ch {
				b.subscribers[channel] = append(subs[:i], subs[i+1:]...)
				close(ch)
				break
			}
		}
	}()

	return ch, nil
}

func (b *Broker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for _, subs := range b.subscribers {
		for _, ch := range subs {
			close(ch)
		}
	}
	b.subscribers = make(map[string][]chan []byte)
	return nil
}

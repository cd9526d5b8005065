// Package pubsub is the in-process notification bus between the recompute
// scheduler and read-side consumers. API and UI layers subscribe to
// snapshot-version changes instead of polling raw data.
package pubsub

import (
	"context"
	"sync"
	"time"
)

// Well-known topics.
const (
	TopicSnapshotCommitted = "snapshot.committed"
	TopicRecomputeFailed   = "recompute.failed"
)

// SnapshotEvent announces a committed snapshot version.
type SnapshotEvent struct {
	Version     uint64    `json:"version"`
	Communities int       `json:"communities"`
	Bridges     int       `json:"bridges"`
	CommittedAt time.Time `json:"committed_at"`
}

// Bus provides publish/subscribe delivery of engine events. Publishing is
// non-blocking: a subscriber that falls behind its buffer misses events
// rather than stalling the publisher.
type Bus struct {
	subscribers map[string]map[*Subscription]bool
	mu          sync.RWMutex
	shutdown    chan struct{}
	shutdownMu  sync.Mutex
	isShutdown  bool
}

// Subscription represents a subscription to a topic.
type Subscription struct {
	topic     string
	channel   chan any
	bus       *Bus
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// NewBus creates a new event bus.
func NewBus() *Bus {
	return &Bus{
		subscribers: make(map[string]map[*Subscription]bool),
		shutdown:    make(chan struct{}),
	}
}

// Subscribe creates a new subscription to a topic. The subscription ends
// when ctx is cancelled, Unsubscribe is called, or the bus shuts down.
func (b *Bus) Subscribe(ctx context.Context, topic string) *Subscription {
	b.shutdownMu.Lock()
	if b.isShutdown {
		b.shutdownMu.Unlock()
		return nil
	}
	b.shutdownMu.Unlock()

	subCtx, cancel := context.WithCancel(ctx)
	sub := &Subscription{
		topic:   topic,
		channel: make(chan any, 64),
		bus:     b,
		cancel:  cancel,
	}

	b.mu.Lock()
	if b.subscribers[topic] == nil {
		b.subscribers[topic] = make(map[*Subscription]bool)
	}
	b.subscribers[topic][sub] = true
	b.mu.Unlock()

	go func() {
		select {
		case <-subCtx.Done():
			sub.Unsubscribe()
		case <-b.shutdown:
			sub.close()
		}
	}()

	return sub
}

// Publish sends an event to all subscribers of a topic. Subscriber channel
// sends happen outside the lock and never block.
func (b *Bus) Publish(topic string, event any) {
	b.shutdownMu.Lock()
	if b.isShutdown {
		b.shutdownMu.Unlock()
		return
	}
	b.shutdownMu.Unlock()

	b.mu.RLock()
	topicSubs := b.subscribers[topic]
	if len(topicSubs) == 0 {
		b.mu.RUnlock()
		return
	}
	subs := make([]*Subscription, 0, len(topicSubs))
	for sub := range topicSubs {
		subs = append(subs, sub)
	}
	b.mu.RUnlock()

	for _, sub := range subs {
		select {
		case sub.channel <- event:
		default:
			// Subscriber buffer full, drop rather than block the publisher.
		}
	}
}

// SubscriberCount returns the number of subscribers for a topic.
func (b *Bus) SubscriberCount(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers[topic])
}

// Shutdown closes all subscriptions and stops the bus.
func (b *Bus) Shutdown() {
	b.shutdownMu.Lock()
	if b.isShutdown {
		b.shutdownMu.Unlock()
		return
	}
	b.isShutdown = true
	b.shutdownMu.Unlock()

	close(b.shutdown)

	b.mu.Lock()
	for topic := range b.subscribers {
		for sub := range b.subscribers[topic] {
			sub.close()
		}
		delete(b.subscribers, topic)
	}
	b.mu.Unlock()
}

// Channel returns the subscription's event channel.
func (s *Subscription) Channel() <-chan any {
	return s.channel
}

// Unsubscribe removes the subscription.
func (s *Subscription) Unsubscribe() {
	s.cancel()

	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()

	if s.bus.subscribers[s.topic] != nil {
		delete(s.bus.subscribers[s.topic], s)
		if len(s.bus.subscribers[s.topic]) == 0 {
			delete(s.bus.subscribers, s.topic)
		}
	}

	s.close()
}

// close closes the subscription channel safely (idempotent).
func (s *Subscription) close() {
	s.closeOnce.Do(func() {
		close(s.channel)
	})
}

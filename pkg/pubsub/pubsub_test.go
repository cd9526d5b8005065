package pubsub

import (
	"context"
	"testing"
	"time"
)

func TestPublishSubscribe(t *testing.T) {
	bus := NewBus()
	defer bus.Shutdown()

	sub := bus.Subscribe(context.Background(), TopicSnapshotCommitted)
	if sub == nil {
		t.Fatal("subscribe returned nil")
	}

	event := SnapshotEvent{Version: 3, Communities: 12, Bridges: 30}
	bus.Publish(TopicSnapshotCommitted, event)

	select {
	case raw := <-sub.Channel():
		got, ok := raw.(SnapshotEvent)
		if !ok {
			t.Fatalf("received %T", raw)
		}
		if got.Version != 3 {
			t.Errorf("version = %d, want 3", got.Version)
		}
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestPublishOnlyReachesTopicSubscribers(t *testing.T) {
	bus := NewBus()
	defer bus.Shutdown()

	committed := bus.Subscribe(context.Background(), TopicSnapshotCommitted)
	failed := bus.Subscribe(context.Background(), TopicRecomputeFailed)

	bus.Publish(TopicRecomputeFailed, "pull timed out")

	select {
	case <-failed.Channel():
	case <-time.After(time.Second):
		t.Fatal("failure event not delivered")
	}

	select {
	case raw := <-committed.Channel():
		t.Fatalf("wrong topic received event %v", raw)
	default:
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	bus := NewBus()
	defer bus.Shutdown()

	sub := bus.Subscribe(context.Background(), TopicSnapshotCommitted)
	if bus.SubscriberCount(TopicSnapshotCommitted) != 1 {
		t.Fatal("expected 1 subscriber")
	}

	sub.Unsubscribe()
	if bus.SubscriberCount(TopicSnapshotCommitted) != 0 {
		t.Error("subscriber still registered after unsubscribe")
	}

	// The channel closes so ranging consumers terminate.
	if _, open := <-sub.Channel(); open {
		t.Error("channel still open after unsubscribe")
	}
}

func TestContextCancelUnsubscribes(t *testing.T) {
	bus := NewBus()
	defer bus.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	sub := bus.Subscribe(ctx, TopicSnapshotCommitted)
	cancel()

	deadline := time.After(time.Second)
	for bus.SubscriberCount(TopicSnapshotCommitted) != 0 {
		select {
		case <-deadline:
			t.Fatal("subscription not removed after context cancel")
		case <-time.After(5 * time.Millisecond):
		}
	}

	if _, open := <-sub.Channel(); open {
		t.Error("channel still open after context cancel")
	}
}

func TestSlowSubscriberDoesNotBlockPublish(t *testing.T) {
	bus := NewBus()
	defer bus.Shutdown()

	sub := bus.Subscribe(context.Background(), TopicSnapshotCommitted)

	done := make(chan struct{})
	go func() {
		// Overflow the 64-slot buffer; Publish must never block.
		for i := 0; i < 200; i++ {
			bus.Publish(TopicSnapshotCommitted, SnapshotEvent{Version: uint64(i)})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
	_ = sub
}

func TestShutdownClosesSubscriptions(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe(context.Background(), TopicSnapshotCommitted)

	bus.Shutdown()

	deadline := time.After(time.Second)
	for {
		select {
		case _, open := <-sub.Channel():
			if !open {
				goto closed
			}
		case <-deadline:
			t.Fatal("channel not closed by shutdown")
		}
	}
closed:

	if bus.Subscribe(context.Background(), TopicSnapshotCommitted) != nil {
		t.Error("subscribe after shutdown must return nil")
	}
	// Publish after shutdown is a no-op, not a panic.
	bus.Publish(TopicSnapshotCommitted, SnapshotEvent{})
}

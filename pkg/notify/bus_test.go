package notify

import (
	"testing"
	"time"
)

func TestPublishSubscribe(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe()
	defer sub.Close()

	want := Change{Key: "radar-sensitivity-preset", Value: "aggressive", Origin: "test"}
	bus.Publish(want)

	select {
	case got := <-sub.C():
		if got != want {
			t.Errorf("got %+v, want %+v", got, want)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for change")
	}
}

func TestFanOut(t *testing.T) {
	bus := NewBus()
	a := bus.Subscribe()
	b := bus.Subscribe()
	defer a.Close()
	defer b.Close()

	if a.ID() == b.ID() {
		t.Fatal("subscription IDs must be unique")
	}

	bus.Publish(Change{Key: "k", Value: "v"})

	for _, sub := range []*Subscription{a, b} {
		select {
		case got := <-sub.C():
			if got.Key != "k" || got.Value != "v" {
				t.Errorf("got %+v", got)
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for fan-out")
		}
	}
}

func TestCloseStopsDelivery(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe()
	sub.Close()
	sub.Close() // idempotent

	// Publishing after close must not panic or deliver.
	bus.Publish(Change{Key: "k", Value: "v"})

	if _, ok := <-sub.C(); ok {
		t.Error("expected closed channel after Close")
	}
}

func TestSlowSubscriberDoesNotBlock(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe()
	defer sub.Close()

	done := make(chan struct{})
	go func() {
		// Publish far more than the buffer holds without draining.
		for i := 0; i < subscriptionBuffer*4; i++ {
			bus.Publish(Change{Key: "k", Value: "v"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publisher blocked on slow subscriber")
	}
}

package server

import (
	"strings"
	"testing"
	"time"
)

func TestEventBusPublishSubscribe(t *testing.T) {
	bus := NewEventBus()
	ch, cancel := bus.Subscribe("p1")
	defer cancel()

	itemID := "i1"
	bus.Publish(Event{Type: "item.created", Entity: "item", ProjectID: "p1", ItemID: &itemID})

	select {
	case msg := <-ch:
		if !strings.Contains(string(msg), `"item.created"`) {
			t.Fatalf("message = %s", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}
}

func TestEventBusIsolatesProjects(t *testing.T) {
	bus := NewEventBus()
	ch, cancel := bus.Subscribe("p1")
	defer cancel()

	bus.Publish(Event{Type: "item.created", ProjectID: "p2"})

	select {
	case msg := <-ch:
		t.Fatalf("unexpected event: %s", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestEventBusDropsWhenSubscriberIsFull(t *testing.T) {
	bus := NewEventBus()
	ch, cancel := bus.Subscribe("p1")
	defer cancel()

	// Channel buffer is 16; the rest must be dropped without blocking.
	for i := 0; i < 40; i++ {
		bus.Publish(Event{Type: "item.updated", ProjectID: "p1"})
	}
	if got := len(ch); got != cap(ch) {
		t.Fatalf("buffered = %d, want %d", got, cap(ch))
	}
}

func TestEventBusCancelRemovesSubscriber(t *testing.T) {
	bus := NewEventBus()
	ch, cancel := bus.Subscribe("p1")
	cancel()

	if _, ok := <-ch; ok {
		t.Fatal("channel should be closed after cancel")
	}
	// Publishing after cancel must not panic.
	bus.Publish(Event{Type: "item.updated", ProjectID: "p1"})
}

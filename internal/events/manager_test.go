package events

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestEmit_DeliversToSubscribers(t *testing.T) {
	m := NewManager(zerolog.Nop())

	ch, cancel := m.Subscribe()
	defer cancel()

	m.Emit(RebalanceCompleted, map[string]string{"id": "abc"})

	select {
	case event := <-ch:
		if event.Type != RebalanceCompleted {
			t.Errorf("Expected %s, got %s", RebalanceCompleted, event.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("Expected event delivery")
	}
}

func TestEmit_DoesNotBlockOnSlowSubscriber(t *testing.T) {
	m := NewManager(zerolog.Nop())

	_, cancel := m.Subscribe()
	defer cancel()

	// Never read; the buffered channel fills and later emits are dropped
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			m.Emit(ErrorOccurred, nil)
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Emit blocked on a slow subscriber")
	}
}

func TestSubscribe_CancelStopsDelivery(t *testing.T) {
	m := NewManager(zerolog.Nop())

	ch, cancel := m.Subscribe()
	cancel()
	cancel() // safe to call twice

	m.Emit(RebalanceCompleted, nil)

	if _, ok := <-ch; ok {
		t.Error("Expected closed channel after cancel")
	}
}

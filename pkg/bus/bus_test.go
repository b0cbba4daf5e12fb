// ABOUTME: Tests for the synchronous event bus
// ABOUTME: Type routing, fan-out and same-goroutine delivery
package bus

import (
	"sync"
	"testing"
)

type pingEvent struct{ n int }
type otherEvent struct{}

func TestPublishDeliversToAllSubscribers(t *testing.T) {
	b := New()

	var first, second []int
	Subscribe(b, func(ev pingEvent) { first = append(first, ev.n) })
	Subscribe(b, func(ev pingEvent) { second = append(second, ev.n) })

	b.Publish(pingEvent{n: 1})
	b.Publish(pingEvent{n: 2})

	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("expected both subscribers to see 2 events, got %d and %d", len(first), len(second))
	}
	if first[0] != 1 || first[1] != 2 {
		t.Errorf("events out of order: %v", first)
	}
}

func TestPublishRoutesByType(t *testing.T) {
	b := New()

	pings := 0
	others := 0
	Subscribe(b, func(pingEvent) { pings++ })
	Subscribe(b, func(otherEvent) { others++ })

	b.Publish(pingEvent{})
	b.Publish(otherEvent{})
	b.Publish(pingEvent{})

	if pings != 2 || others != 1 {
		t.Errorf("expected 2 pings and 1 other, got %d and %d", pings, others)
	}
}

func TestPublishWithoutSubscribersIsNoop(t *testing.T) {
	b := New()
	b.Publish(pingEvent{}) // must not panic
}

func TestPublishIsSynchronous(t *testing.T) {
	b := New()

	seen := false
	Subscribe(b, func(pingEvent) { seen = true })

	b.Publish(pingEvent{})
	// No synchronization: delivery happened on this goroutine before
	// Publish returned.
	if !seen {
		t.Error("expected synchronous delivery")
	}
}

func TestConcurrentPublish(t *testing.T) {
	b := New()

	var mu sync.Mutex
	total := 0
	Subscribe(b, func(pingEvent) {
		mu.Lock()
		total++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				b.Publish(pingEvent{})
			}
		}()
	}
	wg.Wait()

	if total != 800 {
		t.Errorf("expected 800 deliveries, got %d", total)
	}
}

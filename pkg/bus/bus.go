// ABOUTME: In-process publish/subscribe event bus
// ABOUTME: Delivers events synchronously on the publishing goroutine
package bus

import (
	"reflect"
	"sync"
)

// Bus routes published events to subscribers by concrete event type.
// Publish runs every matching handler on the caller's goroutine before
// returning; a handler panic therefore surfaces at the publish site.
// Subscriptions last for the life of the bus.
type Bus struct {
	mu       sync.RWMutex
	handlers map[reflect.Type][]func(any)
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{
		handlers: make(map[reflect.Type][]func(any)),
	}
}

// Publish delivers ev to all subscribers registered for its type, in
// subscription order.
func (b *Bus) Publish(ev any) {
	b.mu.RLock()
	hs := b.handlers[reflect.TypeOf(ev)]
	b.mu.RUnlock()

	for _, h := range hs {
		h(ev)
	}
}

func (b *Bus) subscribe(t reflect.Type, h func(any)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[t] = append(b.handlers[t], h)
}

// Subscribe registers fn for events of type T.
func Subscribe[T any](b *Bus, fn func(T)) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	b.subscribe(t, func(ev any) {
		fn(ev.(T))
	})
}

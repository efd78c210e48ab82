package common

import "sync"

// Broadcaster fans a message out to every registered listener. Listeners run synchronously in
// registration order on the broadcasting goroutine, so a listener sees transitions in the same
// order they happened.
type Broadcaster[T any] struct {
	mu        sync.RWMutex
	listeners map[int]func(T)
	order     []int
	nextID    int
}

func NewBroadcaster[T any]() *Broadcaster[T] {
	return &Broadcaster[T]{
		listeners: map[int]func(T){},
	}
}

// On registers cb and returns a func that unregisters it
func (b *Broadcaster[T]) On(cb func(T)) (cleanup func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.listeners[id] = cb
	b.order = append(b.order, id)

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.listeners, id)
		for i, v := range b.order {
			if v == id {
				b.order = append(b.order[:i], b.order[i+1:]...)
				break
			}
		}
	}
}

func (b *Broadcaster[T]) Broadcast(message T) {
	b.mu.RLock()
	callbacks := make([]func(T), 0, len(b.order))
	for _, id := range b.order {
		callbacks = append(callbacks, b.listeners[id])
	}
	b.mu.RUnlock()

	for _, cb := range callbacks {
		cb(message)
	}
}

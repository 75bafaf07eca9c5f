// Package realtime delivers row-level change events from the store to
// in-process subscribers.
package realtime

import (
	"sync"

	"messagewall/internal/models"
)

type Handler func(event models.ChangeEvent)

// Subscriber is the consumer side of the change feed. The returned func
// releases the subscription and is safe to call more than once.
type Subscriber interface {
	Subscribe(table string, handler Handler) (unsubscribe func())
}

type subscription struct {
	table   string
	handler Handler
}

// Broker is an observer registry keyed by table. An empty table subscribes
// to every table. Publish calls handlers synchronously in subscription order.
type Broker struct {
	mu     sync.RWMutex
	nextID int
	order  []int
	subs   map[int]subscription
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[int]subscription)}
}

func (b *Broker) Subscribe(table string, handler Handler) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = subscription{table: table, handler: handler}
	b.order = append(b.order, id)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(id) })
	}
}

func (b *Broker) remove(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.subs, id)
	for i, existing := range b.order {
		if existing == id {
			b.order = append(b.order[:i:i], b.order[i+1:]...)
			break
		}
	}
}

func (b *Broker) Publish(event models.ChangeEvent) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.order))
	for _, id := range b.order {
		sub := b.subs[id]
		if sub.table == "" || sub.table == event.Table {
			handlers = append(handlers, sub.handler)
		}
	}
	b.mu.RUnlock()

	for _, handler := range handlers {
		handler(event)
	}
}

// Len reports the number of live subscriptions.
func (b *Broker) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

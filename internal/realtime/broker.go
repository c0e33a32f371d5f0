package realtime

import (
	"context"
	"sync"
)

// Publisher announces that the data behind the given topics changed.
type Publisher interface {
	Publish(ctx context.Context, topics ...string) error
}

// Subscriber registers change callbacks for a topic.
type Subscriber interface {
	Subscribe(topic string, fn func()) (unsubscribe func())
}

// Broker is an in-process topic registry. Publishing on it dispatches locally; in a
// multi-instance deployment PGNotifier publishes instead and feeds Dispatch.
type Broker struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[string]map[uint64]func()
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[string]map[uint64]func())}
}

func (b *Broker) Subscribe(topic string, fn func()) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[uint64]func())
	}
	b.subs[topic][id] = fn
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs[topic], id)
			if len(b.subs[topic]) == 0 {
				delete(b.subs, topic)
			}
		})
	}
}

func (b *Broker) Publish(_ context.Context, topics ...string) error {
	for _, topic := range topics {
		b.Dispatch(topic)
	}
	return nil
}

// Dispatch runs every callback registered for topic. Callbacks must not block.
func (b *Broker) Dispatch(topic string) {
	b.mu.RLock()
	fns := make([]func(), 0, len(b.subs[topic]))
	for _, fn := range b.subs[topic] {
		fns = append(fns, fn)
	}
	b.mu.RUnlock()

	for _, fn := range fns {
		fn()
	}
}

// DispatchAll notifies every registered callback once.
func (b *Broker) DispatchAll() {
	b.mu.RLock()
	var fns []func()
	for _, subs := range b.subs {
		for _, fn := range subs {
			fns = append(fns, fn)
		}
	}
	b.mu.RUnlock()

	for _, fn := range fns {
		fn()
	}
}

// Subscribers returns the number of callbacks registered for topic.
func (b *Broker) Subscribers(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}

// Package pubsub carries serialized snapshot envelopes between queue
// instances. The mechanism is swappable: an in-process bus for views
// sharing one process, and a slot watcher for instances sharing only the
// durable file.
package pubsub

import "sync"

// Bus publishes commit notifications and fans them out to subscribers.
type Bus interface {
	Publish(data []byte)
	Subscribe(fn func(data []byte)) (cancel func())
}

// Memory is an in-process Bus. Delivery is synchronous and includes the
// publisher's own subscription; subscribers filter their own envelopes by
// origin.
type Memory struct {
	mu     sync.Mutex
	subs   map[int]func([]byte)
	nextID int
}

func NewMemory() *Memory {
	return &Memory{subs: make(map[int]func([]byte))}
}

func (m *Memory) Publish(data []byte) {
	m.mu.Lock()
	handlers := make([]func([]byte), 0, len(m.subs))
	for _, fn := range m.subs {
		handlers = append(handlers, fn)
	}
	m.mu.Unlock()
	for _, fn := range handlers {
		fn(data)
	}
}

func (m *Memory) Subscribe(fn func(data []byte)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.subs[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
}

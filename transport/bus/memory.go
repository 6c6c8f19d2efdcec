package bus

import (
	"sync"
)

// MemoryBus is a process-local Bus for tests and single-process setups.
type MemoryBus struct {
	mu     sync.RWMutex
	closed bool
	nextID int
	subs   map[string]map[int]chan Message
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[string]map[int]chan Message)}
}

func (b *MemoryBus) Publish(topic string, payload []byte) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}
	for _, ch := range b.subs[topic] {
		msg := Message{Topic: topic, Payload: append([]byte(nil), payload...)}
		select {
		case ch <- msg:
		default:
			// Drop rather than let one slow subscriber stall every publisher.
		}
	}
	return nil
}

func (b *MemoryBus) Subscribe(topic string) (<-chan Message, func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, nil, ErrClosed
	}
	if _, ok := b.subs[topic]; !ok {
		b.subs[topic] = make(map[int]chan Message)
	}
	id := b.nextID
	b.nextID++
	ch := make(chan Message, 64)
	b.subs[topic][id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		byTopic, ok := b.subs[topic]
		if !ok {
			return
		}
		if sub, ok := byTopic[id]; ok {
			delete(byTopic, id)
			close(sub)
		}
		if len(byTopic) == 0 {
			delete(b.subs, topic)
		}
	}
	return ch, cancel, nil
}

// Close drops every subscription and closes their channels. Publish and
// Subscribe fail with ErrClosed afterwards.
func (b *MemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for topic, byTopic := range b.subs {
		for id, ch := range byTopic {
			delete(byTopic, id)
			close(ch)
		}
		delete(b.subs, topic)
	}
	return nil
}

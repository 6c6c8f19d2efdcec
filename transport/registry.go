package transport

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/google/uuid"

	"upmesh/message"
	"upmesh/uri"
)

// ListenerRegistry is the topic to listener-set index shared by
// transports. Mutation and dispatch may run concurrently from different
// goroutines; dispatch works on a snapshot taken under the topic's read
// lock, so a listener registered strictly before a dispatch began is
// invoked exactly once, and a listener mutating the registry from inside
// its own callback cannot corrupt the in-flight fan-out.
//
// Topics are independent: each topic set carries its own lock, and the
// registry-wide lock only guards the map structure itself.
type ListenerRegistry struct {
	mu     sync.RWMutex
	topics map[uri.UUri]*topicSet
}

type topicSet struct {
	mu        sync.RWMutex
	listeners map[uuid.UUID]Listener
}

func NewListenerRegistry() *ListenerRegistry {
	return &ListenerRegistry{topics: make(map[uri.UUri]*topicSet)}
}

// Register adds the listener to the topic's set and returns its handle.
// Registering a listener value already present on the topic returns the
// existing handle instead of adding a second entry, so one send never
// delivers twice to the same listener. That duplicate check only sees
// listeners with comparable dynamic types; ListenerFunc values have no
// identity and always register fresh.
func (r *ListenerRegistry) Register(topic uri.UUri, l Listener) (Handle, error) {
	if err := topic.Validate(); err != nil {
		return Handle{}, fmt.Errorf("%w: %v", ErrInvalidTopic, err)
	}
	if l == nil {
		return Handle{}, fmt.Errorf("register on %s: nil listener", topic)
	}
	set := r.topicSet(topic)
	set.mu.Lock()
	defer set.mu.Unlock()
	for id, existing := range set.listeners {
		if SameListener(existing, l) {
			return Handle{topic: topic, id: id}, nil
		}
	}
	id := uuid.New()
	set.listeners[id] = l
	return Handle{topic: topic, id: id}, nil
}

func (r *ListenerRegistry) topicSet(topic uri.UUri) *topicSet {
	r.mu.RLock()
	set, ok := r.topics[topic]
	r.mu.RUnlock()
	if ok {
		return set
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if set, ok = r.topics[topic]; ok {
		return set
	}
	set = &topicSet{listeners: make(map[uuid.UUID]Listener)}
	r.topics[topic] = set
	return set
}

// Unregister removes the registration behind the handle. A handle that
// was never issued, or whose registration is already gone, yields
// ErrListenerNotFound. The topic set itself stays in the map even when
// it empties; removing it would race a concurrent Register already
// holding the set.
func (r *ListenerRegistry) Unregister(h Handle) error {
	if h.Zero() {
		return ErrListenerNotFound
	}
	r.mu.RLock()
	set, ok := r.topics[h.topic]
	r.mu.RUnlock()
	if !ok {
		return ErrListenerNotFound
	}
	set.mu.Lock()
	defer set.mu.Unlock()
	if _, ok := set.listeners[h.id]; !ok {
		return ErrListenerNotFound
	}
	delete(set.listeners, h.id)
	return nil
}

// Dispatch invokes every listener currently registered for the exact
// topic and returns how many were called. The set is snapshotted before
// the first callback runs; invocation order is unspecified. A topic with
// zero listeners is a valid no-op.
func (r *ListenerRegistry) Dispatch(topic uri.UUri, msg *message.UMessage) int {
	r.mu.RLock()
	set, ok := r.topics[topic]
	r.mu.RUnlock()
	if !ok {
		return 0
	}
	set.mu.RLock()
	snapshot := make([]Listener, 0, len(set.listeners))
	for _, l := range set.listeners {
		snapshot = append(snapshot, l)
	}
	set.mu.RUnlock()
	for _, l := range snapshot {
		l.OnReceive(msg)
	}
	return len(snapshot)
}

// Count returns the number of listeners registered for the topic.
func (r *ListenerRegistry) Count(topic uri.UUri) int {
	r.mu.RLock()
	set, ok := r.topics[topic]
	r.mu.RUnlock()
	if !ok {
		return 0
	}
	set.mu.RLock()
	defer set.mu.RUnlock()
	return len(set.listeners)
}

// Clear drops every registration. Used by transport teardown.
func (r *ListenerRegistry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.topics = make(map[uri.UUri]*topicSet)
}

// SameListener reports whether two listeners are the same registered
// value. Identity only exists for comparable dynamic types, e.g. the
// same pointer receiver passed twice; func-backed listeners never match.
func SameListener(a, b Listener) bool {
	if a == nil || b == nil {
		return false
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}

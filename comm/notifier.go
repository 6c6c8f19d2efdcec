package comm

import (
	"errors"
	"reflect"
	"sync"

	"upmesh/message"
	"upmesh/transport"
	"upmesh/uri"
)

// SimpleNotifier sends point-to-point notifications and manages the
// listening side of notification topics. It records the handle issued at
// StartListening, so StopListening finds the registration by (topic,
// listener) pair without relying on the transport to re-compare the
// callback value.
type SimpleNotifier struct {
	transport transport.Transport
	provider  uri.Provider

	mu   sync.Mutex
	subs map[uri.UUri][]subscription
}

type subscription struct {
	listener transport.Listener
	handle   transport.Handle
}

func NewSimpleNotifier(t transport.Transport, p uri.Provider) *SimpleNotifier {
	return &SimpleNotifier{transport: t, provider: p, subs: make(map[uri.UUri][]subscription)}
}

// Notify sends a notification from the given resource of the local
// entity to destination. A nil payload is legal.
func (n *SimpleNotifier) Notify(resourceID uint32, destination uri.UUri, payload *message.UPayload) error {
	source := n.provider.ResourceURI(resourceID)
	return n.transport.Send(message.NewNotification(source, destination, payload))
}

// StartListening registers listener for messages on topic. Starting the
// identical (topic, listener) pair again is a no-op: the pair stays
// registered once and one send delivers once.
func (n *SimpleNotifier) StartListening(topic uri.UUri, l transport.Listener) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, sub := range n.subs[topic] {
		if samePair(sub.listener, l) {
			return nil
		}
	}
	h, err := n.transport.RegisterListener(topic, l)
	if err != nil {
		return err
	}
	n.subs[topic] = append(n.subs[topic], subscription{listener: l, handle: h})
	return nil
}

// StopListening removes the pair registered by StartListening. A pair
// that is not currently listening yields ErrListenerNotFound.
func (n *SimpleNotifier) StopListening(topic uri.UUri, l transport.Listener) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	subs := n.subs[topic]
	for i, sub := range subs {
		if !samePair(sub.listener, l) {
			continue
		}
		if err := n.transport.UnregisterListener(sub.handle); err != nil && !errors.Is(err, transport.ErrListenerNotFound) {
			return err
		}
		n.subs[topic] = append(subs[:i], subs[i+1:]...)
		if len(n.subs[topic]) == 0 {
			delete(n.subs, topic)
		}
		return nil
	}
	return transport.ErrListenerNotFound
}

// Close stops every pair still listening. The first unregistration
// failure is returned after all pairs have been attempted.
func (n *SimpleNotifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	var firstErr error
	for topic, subs := range n.subs {
		for _, sub := range subs {
			err := n.transport.UnregisterListener(sub.handle)
			if err != nil && !errors.Is(err, transport.ErrListenerNotFound) && firstErr == nil {
				firstErr = err
			}
		}
		delete(n.subs, topic)
	}
	return firstErr
}

// samePair matches the listener the caller passed against a recorded
// subscription. Comparable listener values match by equality; func
// values match by code pointer, so two closures created from the same
// function literal are indistinguishable. Wrap the callback in a named
// type when exact identity matters.
func samePair(a, b transport.Listener) bool {
	if transport.SameListener(a, b) {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	ra, rb := reflect.ValueOf(a), reflect.ValueOf(b)
	return ra.Kind() == reflect.Func && rb.Kind() == reflect.Func && ra.Pointer() == rb.Pointer()
}

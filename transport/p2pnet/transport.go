// Package p2pnet implements the Transport contract across process
// boundaries: envelopes are serialized onto a topic-keyed substrate bus,
// and incoming traffic is decoded and dispatched to locally registered
// listeners exactly as the local transport would.
package p2pnet

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"upmesh/message"
	"upmesh/transport"
	"upmesh/transport/bus"
	"upmesh/uri"
)

// NetworkTransport sends and receives UMessages via a bus.Bus.
// Notifications are routed by source topic, the same key the local
// transport dispatches on; the destination rides in the envelope for the
// receiver's use. Incoming messages are dispatched on a per-topic
// receive goroutine, decoupling network receipt from listener execution.
type NetworkTransport struct {
	authority string
	substrate bus.Bus
	ownsBus   bool
	registry  *transport.ListenerRegistry

	group  *errgroup.Group
	closed atomic.Bool

	mu   sync.Mutex
	subs map[uri.UUri]func() // substrate cancel per locally-listened topic
}

// Authority returns the session-scope name the transport was built with.
func (t *NetworkTransport) Authority() string { return t.authority }

func (t *NetworkTransport) Send(msg *message.UMessage) error {
	if err := transport.ValidateMessage(msg); err != nil {
		return err
	}
	if t.closed.Load() {
		return transport.ErrUnavailable
	}
	data, err := encodeMessage(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	if err := t.substrate.Publish(msg.Source.String(), data); err != nil {
		return fmt.Errorf("%w: %v", transport.ErrUnavailable, err)
	}
	return nil
}

func (t *NetworkTransport) RegisterListener(topic uri.UUri, l transport.Listener) (transport.Handle, error) {
	if t.closed.Load() {
		return transport.Handle{}, transport.ErrUnavailable
	}
	h, err := t.registry.Register(topic, l)
	if err != nil {
		return transport.Handle{}, err
	}
	if err := t.ensureSubscribed(topic); err != nil {
		_ = t.registry.Unregister(h)
		return transport.Handle{}, err
	}
	return h, nil
}

// ensureSubscribed opens the substrate subscription for a topic the
// first time a listener registers against it and starts the pump that
// feeds decoded envelopes into the registry.
func (t *NetworkTransport) ensureSubscribed(topic uri.UUri) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.subs[topic]; ok {
		return nil
	}
	ch, cancel, err := t.substrate.Subscribe(topic.String())
	if err != nil {
		return fmt.Errorf("%w: %v", transport.ErrUnavailable, err)
	}
	t.subs[topic] = cancel
	t.group.Go(func() error {
		for raw := range ch {
			m, err := decodeMessage(raw.Payload)
			if err != nil {
				log.Printf("p2pnet: dropping undecodable message on %s: %v", topic, err)
				continue
			}
			t.registry.Dispatch(topic, m)
		}
		return nil
	})
	return nil
}

func (t *NetworkTransport) UnregisterListener(h transport.Handle) error {
	if t.closed.Load() {
		return transport.ErrUnavailable
	}
	if err := t.registry.Unregister(h); err != nil {
		return err
	}
	topic := h.Topic()
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.registry.Count(topic) == 0 {
		if cancel, ok := t.subs[topic]; ok {
			cancel()
			delete(t.subs, topic)
		}
	}
	return nil
}

// Close cancels every substrate subscription, waits for the receive
// goroutines to drain, and closes the bus when the transport owns it
// (a bus injected through the builder stays open for its owner).
func (t *NetworkTransport) Close() error {
	if t.closed.Swap(true) {
		return nil
	}
	t.mu.Lock()
	for topic, cancel := range t.subs {
		cancel()
		delete(t.subs, topic)
	}
	t.mu.Unlock()
	_ = t.group.Wait()
	t.registry.Clear()
	if t.ownsBus {
		return t.substrate.Close()
	}
	return nil
}

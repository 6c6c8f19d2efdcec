package transport

import (
	"sync/atomic"

	"upmesh/message"
	"upmesh/uri"
)

// LocalTransport delivers messages between components sharing an address
// space. Dispatch is synchronous on the sender's goroutine and zero-copy:
// the envelope is handed to each listener by pointer, never serialized.
// A listener that blocks therefore blocks the publisher; that is the
// accepted trade-off of the low-latency local path.
type LocalTransport struct {
	registry *ListenerRegistry
	closed   atomic.Bool
}

func NewLocalTransport() *LocalTransport {
	return &LocalTransport{registry: NewListenerRegistry()}
}

// Send fans msg out to every listener registered for msg.Source. Zero
// listeners is a successful no-op; publish and notification are both
// fire and forget, never acknowledged.
func (t *LocalTransport) Send(msg *message.UMessage) error {
	if err := ValidateMessage(msg); err != nil {
		return err
	}
	if t.closed.Load() {
		return ErrUnavailable
	}
	t.registry.Dispatch(msg.Source, msg)
	return nil
}

func (t *LocalTransport) RegisterListener(topic uri.UUri, l Listener) (Handle, error) {
	if t.closed.Load() {
		return Handle{}, ErrUnavailable
	}
	return t.registry.Register(topic, l)
}

func (t *LocalTransport) UnregisterListener(h Handle) error {
	if t.closed.Load() {
		return ErrUnavailable
	}
	return t.registry.Unregister(h)
}

// Close tears the registry down. Further sends and registrations fail
// with ErrUnavailable; Close itself is idempotent.
func (t *LocalTransport) Close() error {
	if t.closed.Swap(true) {
		return nil
	}
	t.registry.Clear()
	return nil
}

// Package transport defines the delivery seam of the messaging layer:
// the Transport capability interface, the listener registry shared by
// its backends, and the in-process LocalTransport.
package transport

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"upmesh/message"
	"upmesh/uri"
)

var (
	// ErrInvalidTopic rejects a malformed UUri passed to register or send.
	ErrInvalidTopic = errors.New("invalid topic")
	// ErrInvalidMessage rejects an envelope whose kind and addressing disagree.
	ErrInvalidMessage = errors.New("invalid message")
	// ErrListenerNotFound means the handle or (topic, listener) pair is not registered.
	ErrListenerNotFound = errors.New("listener not registered")
	// ErrUnavailable means the backend cannot deliver right now (closed,
	// or no live network session).
	ErrUnavailable = errors.New("transport unavailable")
	// ErrInvalidConfiguration fails a transport builder fast, before any
	// partially usable transport exists.
	ErrInvalidConfiguration = errors.New("invalid transport configuration")
)

// Listener receives messages delivered by a transport. OnReceive runs on
// the sender's goroutine for LocalTransport and on a receive goroutine
// for networked backends; a listener that blocks stalls that path.
type Listener interface {
	OnReceive(msg *message.UMessage)
}

// ListenerFunc adapts a plain function to the Listener interface. Func
// values carry no comparable identity in Go, so keep the Handle returned
// by registration to unregister them.
type ListenerFunc func(msg *message.UMessage)

func (f ListenerFunc) OnReceive(msg *message.UMessage) { f(msg) }

// Handle is the opaque token issued by a successful registration.
// Unregistration is keyed by the handle, never by re-comparing the
// listener value.
type Handle struct {
	topic uri.UUri
	id    uuid.UUID
}

// Topic returns the topic the handle was registered against.
func (h Handle) Topic() uri.UUri { return h.topic }

// Zero reports whether the handle was never issued by a registration.
func (h Handle) Zero() bool { return h.id == uuid.Nil }

// Transport is the capability seam between the messaging layer and its
// delivery backends. Callers hold a Transport value and never depend on
// a concrete variant, so backends swap without touching application
// logic (an in-memory fake stands in for the networked one in tests).
type Transport interface {
	// Send delivers a publish or notification envelope. Fire and forget:
	// zero registered listeners is success, not an error.
	Send(msg *message.UMessage) error
	// RegisterListener subscribes the listener to the exact topic and
	// returns the handle that removes the registration.
	RegisterListener(topic uri.UUri, l Listener) (Handle, error)
	// UnregisterListener removes the registration behind the handle.
	UnregisterListener(h Handle) error
	// Close releases the backend; further sends fail with ErrUnavailable.
	Close() error
}

// ValidateMessage is the send-path admission check shared by backends:
// a well-formed source topic and an envelope whose kind and addressing
// agree.
func ValidateMessage(msg *message.UMessage) error {
	if msg == nil {
		return fmt.Errorf("%w: nil message", ErrInvalidMessage)
	}
	if err := msg.Source.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTopic, err)
	}
	if err := msg.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	return nil
}

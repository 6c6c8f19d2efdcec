// Package bus provides the raw pub/sub substrate networked transports
// are built on: topic-keyed broadcast of opaque byte payloads, with no
// knowledge of message envelopes or addressing.
package bus

import "errors"

// ErrClosed is returned when operating on a closed bus.
var ErrClosed = errors.New("bus closed")

// Message is a raw substrate datagram.
type Message struct {
	Topic   string
	Payload []byte
}

// Bus is a minimal broadcast seam. Subscribe returns a receive channel
// and a cancel function releasing the subscription; the channel is
// closed after cancel or Close. Delivery is best effort: a subscriber
// that stops draining its channel may lose messages rather than stall
// publishers.
type Bus interface {
	Publish(topic string, payload []byte) error
	Subscribe(topic string) (<-chan Message, func(), error)
	Close() error
}

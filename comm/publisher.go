// Package comm provides the convenience messaging surface on top of a
// Transport: topic publishing and point-to-point notifications for one
// local entity.
package comm

import (
	"upmesh/message"
	"upmesh/transport"
	"upmesh/uri"
)

// SimplePublisher publishes payloads on the topics of one local entity.
// It resolves resource ids to topic URIs through the provider and
// forwards publish envelopes to the transport.
type SimplePublisher struct {
	transport transport.Transport
	provider  uri.Provider
}

func NewSimplePublisher(t transport.Transport, p uri.Provider) *SimplePublisher {
	return &SimplePublisher{transport: t, provider: p}
}

// Publish sends payload on the topic of the given resource. A nil
// payload is a legal publish with no content (presence or heartbeat
// style events).
func (p *SimplePublisher) Publish(resourceID uint32, payload *message.UPayload) error {
	topic := p.provider.ResourceURI(resourceID)
	return p.transport.Send(message.NewPublish(topic, payload))
}

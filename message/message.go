// Package message defines the envelope handed between publishers,
// transports and listeners.
package message

import (
	"errors"
	"fmt"

	"upmesh/uri"
)

// Kind discriminates the delivery semantics of a message.
type Kind uint8

const (
	KindUnspecified Kind = iota
	// KindPublish is one-to-many, addressed by topic only.
	KindPublish
	// KindNotification is point-to-point: the source names the topic, the
	// destination names the addressed recipient.
	KindNotification
)

func (k Kind) String() string {
	switch k {
	case KindPublish:
		return "publish"
	case KindNotification:
		return "notification"
	default:
		return "unspecified"
	}
}

var (
	ErrMissingDestination    = errors.New("notification requires a destination")
	ErrUnexpectedDestination = errors.New("publish must not carry a destination")
	ErrUnknownKind           = errors.New("unknown message kind")
)

// UMessage is the envelope delivered to listeners. Build one with
// NewPublish or NewNotification and treat it as immutable afterwards;
// transports hand the same value to every listener without copying.
type UMessage struct {
	Source      uri.UUri
	Destination *uri.UUri
	Kind        Kind
	Payload     *UPayload
}

// NewPublish builds a publish envelope for the given topic. A nil
// payload is a legal publish with no content.
func NewPublish(source uri.UUri, payload *UPayload) *UMessage {
	return &UMessage{Source: source, Kind: KindPublish, Payload: payload}
}

// NewNotification builds a point-to-point envelope from the source topic
// to an explicit destination.
func NewNotification(source, destination uri.UUri, payload *UPayload) *UMessage {
	dst := destination
	return &UMessage{Source: source, Destination: &dst, Kind: KindNotification, Payload: payload}
}

// Validate checks that the envelope is deliverable: a well-formed source
// and a destination consistent with the kind.
func (m *UMessage) Validate() error {
	if err := m.Source.Validate(); err != nil {
		return fmt.Errorf("source: %w", err)
	}
	switch m.Kind {
	case KindPublish:
		if m.Destination != nil {
			return ErrUnexpectedDestination
		}
	case KindNotification:
		if m.Destination == nil {
			return ErrMissingDestination
		}
		if err := m.Destination.Validate(); err != nil {
			return fmt.Errorf("destination: %w", err)
		}
	default:
		return fmt.Errorf("%w: %d", ErrUnknownKind, m.Kind)
	}
	return nil
}

// ExtractText returns the payload as text, or "" when the message has no
// payload or the bytes are not valid UTF-8.
func (m *UMessage) ExtractText() string {
	if m.Payload == nil {
		return ""
	}
	s, err := m.Payload.Text()
	if err != nil {
		return ""
	}
	return s
}

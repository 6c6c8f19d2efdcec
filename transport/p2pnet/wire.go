package p2pnet

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"upmesh/message"
	"upmesh/uri"
)

// wireEnvelope is the msgpack form of a UMessage on the substrate.
// HasPayload keeps a no-payload message distinct from an empty one
// across the boundary.
type wireEnvelope struct {
	Kind        uint8    `msgpack:"k"`
	Source      wireURI  `msgpack:"s"`
	Destination *wireURI `msgpack:"d,omitempty"`
	HasPayload  bool     `msgpack:"hp"`
	Payload     []byte   `msgpack:"p,omitempty"`
}

type wireURI struct {
	Authority string `msgpack:"a"`
	EntityID  uint32 `msgpack:"e"`
	Version   uint8  `msgpack:"v"`
	Resource  uint32 `msgpack:"r"`
}

func toWireURI(u uri.UUri) wireURI {
	return wireURI{Authority: u.Authority, EntityID: u.EntityID, Version: u.Version, Resource: u.ResourceID}
}

func fromWireURI(w wireURI) uri.UUri {
	return uri.UUri{Authority: w.Authority, EntityID: w.EntityID, Version: w.Version, ResourceID: w.Resource}
}

func encodeMessage(m *message.UMessage) ([]byte, error) {
	env := wireEnvelope{Kind: uint8(m.Kind), Source: toWireURI(m.Source)}
	if m.Destination != nil {
		d := toWireURI(*m.Destination)
		env.Destination = &d
	}
	if m.Payload != nil {
		env.HasPayload = true
		env.Payload = m.Payload.Bytes()
	}
	return msgpack.Marshal(&env)
}

func decodeMessage(data []byte) (*message.UMessage, error) {
	var env wireEnvelope
	if err := msgpack.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	m := &message.UMessage{Source: fromWireURI(env.Source), Kind: message.Kind(env.Kind)}
	if env.Destination != nil {
		d := fromWireURI(*env.Destination)
		m.Destination = &d
	}
	if env.HasPayload {
		m.Payload = message.PayloadFromBytes(env.Payload)
	}
	return m, nil
}

package message

import (
	"errors"
	"unicode/utf8"
)

// ErrNotText is returned by Text when the payload bytes are not valid UTF-8.
var ErrNotText = errors.New("payload is not valid utf-8")

// UPayload wraps the opaque byte content of a message. A nil *UPayload
// means the message carries no payload at all, which is distinct from a
// payload of zero bytes.
type UPayload struct {
	data []byte
}

// PayloadFromString wraps the UTF-8 bytes of s.
func PayloadFromString(s string) *UPayload {
	return &UPayload{data: []byte(s)}
}

// PayloadFromBytes copies data so the payload stays immutable after handoff.
func PayloadFromBytes(data []byte) *UPayload {
	return &UPayload{data: append([]byte(nil), data...)}
}

// Bytes returns the raw content. Callers must not mutate it.
func (p *UPayload) Bytes() []byte {
	return p.data
}

// Text returns the payload as a string. Fails with ErrNotText when the
// bytes are not valid UTF-8.
func (p *UPayload) Text() (string, error) {
	if !utf8.Valid(p.data) {
		return "", ErrNotText
	}
	return string(p.data), nil
}

package avro

import (
	"encoding/binary"
	"fmt"
)

const (
	// MagicByte leads every Confluent envelope.
	MagicByte byte = 0x00
	// HeaderSize is the magic byte plus the big-endian schema id.
	HeaderSize = 5
)

// Envelope frames body as [0x00][schema id (4 bytes, big-endian)][body].
func Envelope(schemaID int, body []byte) []byte {
	out := make([]byte, HeaderSize+len(body))
	out[0] = MagicByte
	binary.BigEndian.PutUint32(out[1:HeaderSize], uint32(schemaID))
	copy(out[HeaderSize:], body)
	return out
}

// ParseEnvelope splits a Confluent envelope into schema id and body.
func ParseEnvelope(data []byte) (int, []byte, error) {
	if len(data) < HeaderSize {
		return 0, nil, &FormatError{Reason: fmt.Sprintf("expected at least %d bytes, got %d", HeaderSize, len(data))}
	}
	if data[0] != MagicByte {
		return 0, nil, &FormatError{Reason: fmt.Sprintf("invalid magic byte 0x%02x", data[0])}
	}
	return int(binary.BigEndian.Uint32(data[1:HeaderSize])), data[HeaderSize:], nil
}

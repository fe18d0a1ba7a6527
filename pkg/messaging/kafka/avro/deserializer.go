package avro

import (
	"context"
	"fmt"

	hambavro "github.com/hamba/avro/v2"

	"github.com/PARADOX-BSSM/windeath44.server.feed/pkg/messaging/kafka/schemaregistry"
)

// Deserializer decodes Confluent envelopes written with any schema known to the registry.
type Deserializer struct {
	resolver *schemaResolver
}

// NewDeserializer creates a Deserializer that resolves writer schemas through registry.
func NewDeserializer(registry schemaregistry.Registry) *Deserializer {
	return &Deserializer{resolver: newSchemaResolver(registry)}
}

// Decode returns (nil, nil) for an empty payload (a tombstone).
func (d *Deserializer) Decode(ctx context.Context, data []byte) (map[string]any, error) {
	if len(data) == 0 {
		return nil, nil
	}

	schemaID, body, err := ParseEnvelope(data)
	if err != nil {
		return nil, err
	}

	schema, err := d.resolver.Resolve(ctx, schemaID)
	if err != nil {
		return nil, err
	}

	var record map[string]any
	if err := hambavro.Unmarshal(schema, body, &record); err != nil {
		return nil, fmt.Errorf("failed to decode avro body with schema %d: %w", schemaID, err)
	}
	return record, nil
}

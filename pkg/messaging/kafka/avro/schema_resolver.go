package avro

import (
	"context"
	"fmt"
	"sync"

	hambavro "github.com/hamba/avro/v2"

	"github.com/PARADOX-BSSM/windeath44.server.feed/pkg/messaging/kafka/schemaregistry"
)

// schemaResolver turns schema ids into parsed writer schemas. Entries are never evicted.
type schemaResolver struct {
	registry schemaregistry.Registry
	cache    map[int]hambavro.Schema
	mu       sync.RWMutex
}

func newSchemaResolver(registry schemaregistry.Registry) *schemaResolver {
	return &schemaResolver{
		registry: registry,
		cache:    make(map[int]hambavro.Schema),
	}
}

func (r *schemaResolver) Resolve(ctx context.Context, schemaID int) (hambavro.Schema, error) {
	r.mu.RLock()
	cached, ok := r.cache[schemaID]
	r.mu.RUnlock()
	if ok {
		return cached, nil
	}

	text, err := r.registry.GetSchemaByID(ctx, schemaID)
	if err != nil {
		return nil, err
	}

	schema, err := parseSchema(text)
	if err != nil {
		return nil, fmt.Errorf("schema %d: %w", schemaID, err)
	}

	r.mu.Lock()
	r.cache[schemaID] = schema
	r.mu.Unlock()

	return schema, nil
}

// parseSchema parses text in an isolated cache so that two versions of the
// same named record never shadow each other.
func parseSchema(text string) (hambavro.Schema, error) {
	schema, err := hambavro.ParseWithCache(text, "", &hambavro.SchemaCache{})
	if err != nil {
		return nil, fmt.Errorf("failed to parse avro schema: %w", err)
	}
	return schema, nil
}

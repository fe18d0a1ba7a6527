package avro

import (
	"context"
	"net/http"
	"sync"

	"github.com/PARADOX-BSSM/windeath44.server.feed/pkg/messaging/kafka/schemaregistry"
)

// stubRegistry is an in-memory Registry that counts calls.
type stubRegistry struct {
	mu        sync.Mutex
	nextID    int
	byID      map[int]string
	latest    map[string]schemaregistry.SchemaMetadata
	registers int
	byIDCalls int
	latestErr error
	byIDErr   error
}

func newStubRegistry() *stubRegistry {
	return &stubRegistry{
		nextID: 100,
		byID:   map[int]string{},
		latest: map[string]schemaregistry.SchemaMetadata{},
	}
}

func (r *stubRegistry) RegisterSchema(_ context.Context, subject, schema string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.registers++
	if meta, ok := r.latest[subject]; ok && meta.Schema == schema {
		return meta.ID, nil
	}
	r.nextID++
	r.byID[r.nextID] = schema
	r.latest[subject] = schemaregistry.SchemaMetadata{ID: r.nextID, Schema: schema, Subject: subject, Version: len(r.latest) + 1}
	return r.nextID, nil
}

func (r *stubRegistry) GetSchemaByID(_ context.Context, id int) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byIDCalls++
	if r.byIDErr != nil {
		return "", r.byIDErr
	}
	schema, ok := r.byID[id]
	if !ok {
		return "", &schemaregistry.RegistryError{Op: "get schema by id", StatusCode: http.StatusNotFound}
	}
	return schema, nil
}

func (r *stubRegistry) GetLatestSchema(_ context.Context, subject string) (schemaregistry.SchemaMetadata, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.latestErr != nil {
		return schemaregistry.SchemaMetadata{}, r.latestErr
	}
	meta, ok := r.latest[subject]
	if !ok {
		return meta, &schemaregistry.RegistryError{Op: "get latest schema", StatusCode: http.StatusNotFound}
	}
	return meta, nil
}

func (r *stubRegistry) Close() error { return nil }

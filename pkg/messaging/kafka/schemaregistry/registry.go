// Package schemaregistry talks to a Confluent-compatible schema registry and caches
// what it learns for the lifetime of the process.
package schemaregistry

import "context"

// SchemaMetadata is an immutable snapshot of one registered schema version.
type SchemaMetadata struct {
	ID      int
	Schema  string
	Subject string
	Version int
}

// Registry is what the Avro codec needs from a schema registry.
type Registry interface {
	// RegisterSchema registers schema under subject and returns its global ID.
	// Registering an identical schema again returns the existing ID.
	RegisterSchema(ctx context.Context, subject, schema string) (int, error)
	// GetSchemaByID returns the schema text for a global ID.
	GetSchemaByID(ctx context.Context, id int) (string, error)
	// GetLatestSchema returns the newest version registered under subject.
	// Results are cached and never refreshed.
	GetLatestSchema(ctx context.Context, subject string) (SchemaMetadata, error)
	Close() error
}

// Admin adds the management operations used by the schema CLI.
type Admin interface {
	Registry
	GetSchemaVersion(ctx context.Context, subject string, version int) (SchemaMetadata, error)
	// CheckCompatibility reports whether schema is compatible with the latest version.
	// Any failure is reported as incompatible.
	CheckCompatibility(ctx context.Context, subject, schema string) bool
	ListSubjects(ctx context.Context) ([]string, error)
	// DeleteSubject soft-deletes subject and returns the removed versions.
	DeleteSubject(ctx context.Context, subject string) ([]int, error)
	ClearCache()
}

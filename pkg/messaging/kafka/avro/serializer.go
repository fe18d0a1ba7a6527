package avro

import (
	"context"
	"errors"
	"fmt"
	"sync"

	hambavro "github.com/hamba/avro/v2"

	"github.com/PARADOX-BSSM/windeath44.server.feed/pkg/messaging/kafka/schemaregistry"
)

// Serializer encodes records for one subject. The schema is resolved on first
// use and the result is reused for every later call.
type Serializer struct {
	registry     schemaregistry.Registry
	subject      string
	schemaText   string
	autoRegister bool

	mu       sync.Mutex
	schemaID int
	schema   hambavro.Schema
}

// SerializerOption configures a Serializer.
type SerializerOption func(*Serializer)

// WithAutoRegister controls whether a supplied schema is registered on first use (default true).
func WithAutoRegister(enabled bool) SerializerOption {
	return func(s *Serializer) {
		s.autoRegister = enabled
	}
}

// NewSerializer creates a serializer for subject. An empty schema means
// "use the latest version registered under subject".
func NewSerializer(registry schemaregistry.Registry, subject, schema string, opts ...SerializerOption) *Serializer {
	s := &Serializer{
		registry:     registry,
		subject:      subject,
		schemaText:   schema,
		autoRegister: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subject returns the registry subject the schema is resolved under.
func (s *Serializer) Subject() string {
	return s.subject
}

// SchemaID returns the resolved schema id, or 0 before the first successful resolution.
func (s *Serializer) SchemaID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.schemaID
}

// Resolve forces schema resolution and returns the schema id.
func (s *Serializer) Resolve(ctx context.Context) (int, error) {
	id, _, err := s.resolve(ctx)
	return id, err
}

// Encode validates record against the schema and returns a Confluent envelope.
func (s *Serializer) Encode(ctx context.Context, record map[string]any) ([]byte, error) {
	id, schema, err := s.resolve(ctx)
	if err != nil {
		return nil, err
	}

	body, err := hambavro.Marshal(schema, record)
	if err != nil {
		return nil, &ValidationError{Subject: s.subject, Err: err}
	}
	return Envelope(id, body), nil
}

func (s *Serializer) resolve(ctx context.Context) (int, hambavro.Schema, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.schema != nil {
		return s.schemaID, s.schema, nil
	}

	var (
		id   int
		text string
		err  error
	)
	switch {
	case s.schemaText == "":
		id, text, err = s.latest(ctx)
	case s.autoRegister:
		id, text, err = s.register(ctx)
	default:
		id, text, err = s.registered(ctx)
	}
	if err != nil {
		return 0, nil, err
	}

	schema, err := parseSchema(text)
	if err != nil {
		return 0, nil, err
	}

	s.schemaID, s.schema = id, schema
	return id, schema, nil
}

func (s *Serializer) register(ctx context.Context) (int, string, error) {
	// invalid schemas never reach the registry
	if _, err := parseSchema(s.schemaText); err != nil {
		return 0, "", err
	}
	id, err := s.registry.RegisterSchema(ctx, s.subject, s.schemaText)
	if err != nil {
		return 0, "", err
	}
	return id, s.schemaText, nil
}

func (s *Serializer) latest(ctx context.Context) (int, string, error) {
	meta, err := s.registry.GetLatestSchema(ctx, s.subject)
	if err != nil {
		return 0, "", err
	}
	return meta.ID, meta.Schema, nil
}

// registered requires the supplied schema to be the latest version of the subject.
func (s *Serializer) registered(ctx context.Context) (int, string, error) {
	meta, err := s.registry.GetLatestSchema(ctx, s.subject)
	if err != nil {
		if errors.Is(err, schemaregistry.ErrNotFound) {
			return 0, "", fmt.Errorf("subject %s: %w", s.subject, ErrSchemaNotRegistered)
		}
		return 0, "", err
	}

	supplied, err := parseSchema(s.schemaText)
	if err != nil {
		return 0, "", err
	}
	latest, err := parseSchema(meta.Schema)
	if err != nil {
		return 0, "", err
	}
	if supplied.Fingerprint() != latest.Fingerprint() {
		return 0, "", fmt.Errorf("subject %s: latest version %d differs from supplied schema: %w",
			s.subject, meta.Version, ErrSchemaNotRegistered)
	}
	return meta.ID, s.schemaText, nil
}

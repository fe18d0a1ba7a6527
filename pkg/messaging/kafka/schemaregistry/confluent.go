package schemaregistry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	confluentsr "github.com/confluentinc/confluent-kafka-go/v2/schemaregistry"
	"github.com/confluentinc/confluent-kafka-go/v2/schemaregistry/rest"
	"go.uber.org/zap"

	"github.com/PARADOX-BSSM/windeath44.server.feed/pkg/messaging/kafka/config"
)

const (
	schemaTypeAvro = "AVRO"
	userInfoSource = "USER_INFO"
)

// ConfluentRegistry adapts a confluent-kafka-go registry client to Admin.
// A "mock://" URL keeps the whole registry in memory.
type ConfluentRegistry struct {
	client confluentsr.Client
	log    *zap.Logger
	// the in-memory client indexes schemas per subject only
	inMemory bool

	mu           sync.RWMutex
	subjectCache map[string]SchemaMetadata
	idCache      map[int]string
	closeOnce    sync.Once
}

var _ Admin = (*ConfluentRegistry)(nil)

// NewConfluentRegistry wraps client with subject and id caches.
func NewConfluentRegistry(client confluentsr.Client, log *zap.Logger) *ConfluentRegistry {
	return &ConfluentRegistry{
		client:       client,
		log:          log,
		subjectCache: make(map[string]SchemaMetadata),
		idCache:      make(map[int]string),
	}
}

// NewMockRegistry returns an in-memory registry scoped to url (e.g. "mock://feed").
func NewMockRegistry(url string, log *zap.Logger) (*ConfluentRegistry, error) {
	return newRegistry(confluentsr.NewConfig(url), log)
}

// ClientConfig maps cfg onto the confluent client configuration.
func ClientConfig(cfg config.SchemaRegistryConfig) *confluentsr.Config {
	conf := confluentsr.NewConfig(cfg.URL)
	if cfg.Username != "" {
		conf.BasicAuthCredentialsSource = userInfoSource
		conf.BasicAuthUserInfo = cfg.Username + ":" + cfg.Password
	}
	if cfg.Timeout > 0 {
		conf.RequestTimeoutMs = int(cfg.Timeout.Milliseconds())
	}
	return conf
}

func newRegistry(conf *confluentsr.Config, log *zap.Logger) (*ConfluentRegistry, error) {
	client, err := confluentsr.NewClient(conf)
	if err != nil {
		return nil, fmt.Errorf("failed to create schema registry client: %w", err)
	}
	r := NewConfluentRegistry(client, log)
	r.inMemory = strings.HasPrefix(conf.SchemaRegistryURL, mockScheme)
	return r, nil
}

// RegisterSchema registers schema under subject and returns its global id.
func (r *ConfluentRegistry) RegisterSchema(_ context.Context, subject, schema string) (int, error) {
	registered, err := r.client.RegisterFullResponse(subject, confluentsr.SchemaInfo{Schema: schema, SchemaType: schemaTypeAvro}, false)
	if err != nil {
		return 0, wrapConfluentError("register schema", err)
	}
	id := registered.ID

	version := registered.Version
	if version <= 0 {
		version = r.registeredVersion(subject, id)
	}

	r.mu.Lock()
	r.subjectCache[subject] = SchemaMetadata{ID: id, Schema: schema, Subject: subject, Version: version}
	r.idCache[id] = schema
	r.mu.Unlock()

	r.log.Info("registered schema", zap.String("subject", subject), zap.Int("schemaId", id))
	return id, nil
}

// registeredVersion asks for the latest version of subject and keeps it when
// it matches id. Older registries answer a register call with the id only.
func (r *ConfluentRegistry) registeredVersion(subject string, id int) int {
	_ = r.client.ClearLatestCaches()
	meta, err := r.client.GetLatestSchemaMetadata(subject)
	if err != nil || meta.ID != id {
		return -1
	}
	return meta.Version
}

// GetSchemaByID resolves a writer schema. A cached id costs no network call.
func (r *ConfluentRegistry) GetSchemaByID(_ context.Context, id int) (string, error) {
	r.mu.RLock()
	schema, ok := r.idCache[id]
	r.mu.RUnlock()
	if ok {
		return schema, nil
	}

	info, err := r.lookupID(id)
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	r.idCache[id] = info.Schema
	r.mu.Unlock()
	return info.Schema, nil
}

func (r *ConfluentRegistry) lookupID(id int) (confluentsr.SchemaInfo, error) {
	if !r.inMemory {
		info, err := r.client.GetBySubjectAndID("", id)
		if err != nil {
			return confluentsr.SchemaInfo{}, wrapConfluentError("get schema by id", err)
		}
		return info, nil
	}

	versions, err := r.client.GetSubjectsAndVersionsByID(id)
	if err != nil {
		return confluentsr.SchemaInfo{}, wrapConfluentError("get schema by id", err)
	}
	if len(versions) == 0 {
		return confluentsr.SchemaInfo{}, &RegistryError{Op: "get schema by id", StatusCode: http.StatusNotFound, Body: fmt.Sprintf("schema %d not found", id)}
	}
	info, err := r.client.GetBySubjectAndID(versions[0].Subject, id)
	if err != nil {
		return confluentsr.SchemaInfo{}, wrapConfluentError("get schema by id", err)
	}
	return info, nil
}

// GetLatestSchema returns the newest version of subject, cached after the first call.
func (r *ConfluentRegistry) GetLatestSchema(_ context.Context, subject string) (SchemaMetadata, error) {
	r.mu.RLock()
	meta, ok := r.subjectCache[subject]
	r.mu.RUnlock()
	if ok {
		return meta, nil
	}

	latest, err := r.client.GetLatestSchemaMetadata(subject)
	if err != nil {
		return SchemaMetadata{}, wrapConfluentError("get latest schema", err)
	}

	meta = fromConfluent(subject, latest)
	r.mu.Lock()
	r.subjectCache[subject] = meta
	r.idCache[meta.ID] = meta.Schema
	r.mu.Unlock()
	return meta, nil
}

// GetSchemaVersion returns one registered version of subject.
func (r *ConfluentRegistry) GetSchemaVersion(_ context.Context, subject string, version int) (SchemaMetadata, error) {
	found, err := r.client.GetSchemaMetadata(subject, version)
	if err != nil {
		return SchemaMetadata{}, wrapConfluentError("get schema version", err)
	}

	meta := fromConfluent(subject, found)
	r.mu.Lock()
	r.idCache[meta.ID] = meta.Schema
	r.mu.Unlock()
	return meta, nil
}

// CheckCompatibility tests schema against the latest version of subject.
// Any failure is logged and reported as incompatible.
func (r *ConfluentRegistry) CheckCompatibility(_ context.Context, subject, schema string) bool {
	latest, err := r.client.GetLatestSchemaMetadata(subject)
	if err != nil {
		r.log.Warn("compatibility check failed", zap.String("subject", subject), zap.Error(err))
		return false
	}

	ok, err := r.client.TestCompatibility(subject, latest.Version, confluentsr.SchemaInfo{Schema: schema, SchemaType: schemaTypeAvro})
	if err != nil {
		r.log.Warn("compatibility check failed", zap.String("subject", subject), zap.Error(err))
		return false
	}
	return ok
}

// ListSubjects returns every subject known to the registry.
func (r *ConfluentRegistry) ListSubjects(context.Context) ([]string, error) {
	subjects, err := r.client.GetAllSubjects()
	if err != nil {
		return nil, wrapConfluentError("list subjects", err)
	}
	return subjects, nil
}

// DeleteSubject soft-deletes subject and returns the removed versions.
func (r *ConfluentRegistry) DeleteSubject(_ context.Context, subject string) ([]int, error) {
	versions, err := r.client.DeleteSubject(subject, false)
	if err != nil {
		return nil, wrapConfluentError("delete subject", err)
	}
	_ = r.client.ClearLatestCaches()

	r.mu.Lock()
	delete(r.subjectCache, subject)
	r.mu.Unlock()

	r.log.Info("deleted subject", zap.String("subject", subject), zap.Ints("versions", versions))
	return versions, nil
}

// ClearCache drops every cached subject and id, here and in the confluent client.
func (r *ConfluentRegistry) ClearCache() {
	r.mu.Lock()
	clear(r.subjectCache)
	clear(r.idCache)
	r.mu.Unlock()
	_ = r.client.ClearCaches()

	r.log.Info("schema cache cleared")
}

// Close releases the confluent client. Later calls are no-ops.
func (r *ConfluentRegistry) Close() error {
	var err error
	r.closeOnce.Do(func() {
		err = r.client.Close()
	})
	return err
}

func fromConfluent(subject string, meta confluentsr.SchemaMetadata) SchemaMetadata {
	if meta.Subject != "" {
		subject = meta.Subject
	}
	return SchemaMetadata{ID: meta.ID, Schema: meta.Schema, Subject: subject, Version: meta.Version}
}

// wrapConfluentError maps confluent REST error codes (e.g. 40401) onto HTTP status codes.
func wrapConfluentError(op string, err error) error {
	var restErr *rest.Error
	if errors.As(err, &restErr) {
		status := restErr.Code
		for status > 999 {
			status /= 10
		}
		return &RegistryError{Op: op, StatusCode: status, Body: restErr.Message, Err: err}
	}
	return &RegistryError{Op: op, Err: err}
}

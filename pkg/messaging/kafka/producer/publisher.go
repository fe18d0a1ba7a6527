package producer

import (
	"context"
)

// Publisher is the capability shared by the Avro and JSON publishers.
type Publisher interface {
	// Publish sends message to topic and reports whether the broker acknowledged it.
	Publish(ctx context.Context, topic string, message map[string]any, opts ...PublishOption) bool
	Close()
}

type publishOptions struct {
	key     []byte
	schema  string
	subject string
}

// PublishOption customizes a single publish call.
type PublishOption func(*publishOptions)

// WithKey sets the UTF-8 message key used for partitioning.
func WithKey(key string) PublishOption {
	return func(o *publishOptions) {
		o.key = []byte(key)
	}
}

// WithSchema supplies the Avro schema. Ignored by the JSON publisher.
func WithSchema(schema string) PublishOption {
	return func(o *publishOptions) {
		o.schema = schema
	}
}

// WithSubject overrides the registry subject. Ignored by the JSON publisher.
func WithSubject(subject string) PublishOption {
	return func(o *publishOptions) {
		o.subject = subject
	}
}

func applyOptions(opts []PublishOption) publishOptions {
	var o publishOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// ResolveSubject picks the registry subject: explicit, then the configured
// default, then "{topic}-value".
func ResolveSubject(explicit, defaultSubject, topic string) string {
	switch {
	case explicit != "":
		return explicit
	case defaultSubject != "":
		return defaultSubject
	default:
		return topic + "-value"
	}
}

var (
	_ Publisher = (*AvroPublisher)(nil)
	_ Publisher = (*JSONPublisher)(nil)
)

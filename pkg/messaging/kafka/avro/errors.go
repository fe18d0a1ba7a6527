package avro

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidFormat matches every FormatError.
	ErrInvalidFormat = errors.New("invalid confluent wire format")

	// ErrSchemaNotRegistered is returned when auto-registration is off and the
	// subject has no matching schema.
	ErrSchemaNotRegistered = errors.New("schema not registered")
)

// FormatError reports bytes that are not a Confluent envelope.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidFormat, e.Reason)
}

func (e *FormatError) Is(target error) bool {
	return target == ErrInvalidFormat
}

// ValidationError reports a record that does not conform to its schema.
type ValidationError struct {
	Subject string
	Err     error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("record does not match schema for subject %s: %v", e.Subject, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

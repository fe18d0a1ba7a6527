package schemaregistry

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound matches any RegistryError carrying a 404.
var ErrNotFound = errors.New("schema registry: not found")

// RegistryError is a failed registry call. StatusCode is 0 when the request
// never produced a response.
type RegistryError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *RegistryError) Error() string {
	switch {
	case e.StatusCode == 0:
		return fmt.Sprintf("schema registry %s: %v", e.Op, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("schema registry %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("schema registry %s: status %d: %s", e.Op, e.StatusCode, e.Body)
}

func (e *RegistryError) Unwrap() error {
	return e.Err
}

func (e *RegistryError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

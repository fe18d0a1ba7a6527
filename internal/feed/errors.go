package feed

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingMemorialID is returned for request records without a memorialId.
	ErrMissingMemorialID = errors.New("memorialId is missing")

	// ErrCharacterNotFound is returned when the character API has no data for the id.
	ErrCharacterNotFound = errors.New("character not found")

	// ErrEmptyEmbeddings is returned when there is nothing to average.
	ErrEmptyEmbeddings = errors.New("embedding list is empty, cannot compute average")
)

// StepError names the processing step of a memorial request that failed.
type StepError struct {
	Step       string
	MemorialID int64
	Err        error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("memorial %d: %s: %v", e.MemorialID, e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// SearchError wraps failures of a feed search for one user.
type SearchError struct {
	UserID string
	Op     string
	Err    error
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("feed search for user %s: %s: %v", e.UserID, e.Op, e.Err)
}

func (e *SearchError) Unwrap() error {
	return e.Err
}

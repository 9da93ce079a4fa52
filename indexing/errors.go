package indexing

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoDocuments is returned when Index is called with an empty request.
	ErrNoDocuments = errors.New("no documents provided")

	// ErrClientRequired is returned when an indexer is built without an index client.
	ErrClientRequired = errors.New("index client required")
)

// ValidationError lists every problem found in a request.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%d invalid documents: %s", len(e.Errors), strings.Join(e.Errors, "; "))
}

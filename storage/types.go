package storage

import (
	"net/http"
	"time"

	"github.com/poiesic/folio/core"
)

// IndexResult is the outcome for one submitted document.
type IndexResult struct {
	Key          string  `json:"key"`
	Succeeded    bool    `json:"succeeded"`
	StatusCode   *int    `json:"statusCode"`
	ErrorMessage *string `json:"errorMessage"`
}

// Succeeded builds a successful result.
func Succeeded(key string, status int) IndexResult {
	return IndexResult{Key: key, Succeeded: true, StatusCode: &status}
}

// Failed builds a failed result. status may be nil when the service gave none.
func Failed(key string, status *int, err error) IndexResult {
	msg := err.Error()
	return IndexResult{Key: key, StatusCode: status, ErrorMessage: &msg}
}

// FailAll marks every document as failed with err and no status code.
func FailAll(docs []core.SearchDocument, err error) []IndexResult {
	results := make([]IndexResult, len(docs))
	for i, doc := range docs {
		results[i] = Failed(doc.Key(), nil, err)
	}
	return results
}

// Status returns a pointer to code, for building results.
func Status(code int) *int {
	return &code
}

// missingKeyStatus is reported by backends for documents without a key.
var missingKeyStatus = http.StatusBadRequest

// MissingKey builds the result for a document without a key.
func MissingKey(doc core.SearchDocument) IndexResult {
	return Failed(doc.Key(), Status(missingKeyStatus), ErrMissingKey)
}

// ArchivedPage is a page record as stored in a PageArchive.
type ArchivedPage struct {
	Page        core.PageRecord
	Fingerprint string
	ArchivedAt  time.Time
}

// ArchiveStats counts what ArchivePages did.
type ArchiveStats struct {
	Created   int
	Updated   int
	Unchanged int
}

package indexing

import (
	"bytes"
	"encoding/json"

	"github.com/poiesic/folio/core"
)

const (
	// DefaultMaxDocs is the most documents sent in one index request.
	DefaultMaxDocs = 1000

	// DefaultMaxBytes is the largest serialized batch sent in one index request.
	DefaultMaxBytes = 16 * 1024 * 1024
)

// EstimateSize returns the UTF-8 JSON size of doc in bytes, or 0 when doc
// cannot be serialized.
func EstimateSize(doc core.SearchDocument) int {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return 0
	}
	// Encode appends a newline
	return buf.Len() - 1
}

// Batch packs docs in order. The current batch is closed before a document
// that would take it past maxDocs, or past maxBytes when it already holds
// something. A document larger than maxBytes travels alone.
func Batch(docs []core.SearchDocument, maxDocs, maxBytes int) [][]core.SearchDocument {
	if maxDocs <= 0 {
		maxDocs = DefaultMaxDocs
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	var (
		batches [][]core.SearchDocument
		current []core.SearchDocument
		size    int
	)
	for _, doc := range docs {
		docSize := EstimateSize(doc)
		if len(current) > 0 && (len(current)+1 > maxDocs || size+docSize > maxBytes) {
			batches = append(batches, current)
			current, size = nil, 0
		}
		current = append(current, doc)
		size += docSize
	}
	if len(current) > 0 {
		batches = append(batches, current)
	}
	return batches
}

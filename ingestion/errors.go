package ingestion

import "errors"

var (
	// ErrAnalyzerRequired is returned when a document analyzer is not provided.
	ErrAnalyzerRequired = errors.New("document analyzer required")

	// ErrConverterRequired is returned when Ingest is called on a pipeline without a converter.
	ErrConverterRequired = errors.New("document converter required")

	// ErrEmbedderRequired is returned when an embedding stage is configured without an embedder.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrEmptyDocument is returned when the document body is empty.
	ErrEmptyDocument = errors.New("document body is empty")

	// ErrConversionFailed wraps failures of the document conversion service.
	ErrConversionFailed = errors.New("document conversion failed")

	// ErrInvalidMaxAttempts is returned when a retry policy allows no attempts.
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrEmbeddingMismatch is returned when an embedder returns the wrong number of vectors.
	ErrEmbeddingMismatch = errors.New("embedding result mismatch")
)
